package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	KafkaBrokers              []string
	KafkaConsumerGroup        string
	KafkaTopicMessageReceived string
	KafkaTopicCaseResolved    string
	KafkaTopicCaseReopened    string

	MaxDBConns           int32
	ConsumerPollInterval time.Duration
	SummaryInterval      time.Duration

	TrackedAgentIDs      []string
	SLASlowThreshold     time.Duration
	LongRunningThreshold time.Duration
	AbandonmentIdleAfter time.Duration
	ReportCacheTTL       time.Duration
	PreviewLength        int
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL               string   `yaml:"postgres_url"`
		RedisURL                  string   `yaml:"redis_url"`
		KafkaBrokers              []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup        string   `yaml:"kafka_consumer_group"`
		KafkaTopicMessageReceived string   `yaml:"kafka_topic_message_received"`
		KafkaTopicCaseResolved    string   `yaml:"kafka_topic_case_resolved"`
		KafkaTopicCaseReopened    string   `yaml:"kafka_topic_case_reopened"`
	} `yaml:"dependencies"`
	Analytics struct {
		TrackedAgentIDs         []string `yaml:"tracked_agent_ids"`
		SLASlowThresholdMinutes int      `yaml:"sla_slow_threshold_minutes"`
		LongRunningMinutes      int      `yaml:"long_running_minutes"`
		AbandonmentIdleHours    int      `yaml:"abandonment_idle_hours"`
		ReportCacheSeconds      int      `yaml:"report_cache_seconds"`
		PreviewLength           int      `yaml:"preview_length"`
	} `yaml:"analytics"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                 "M75-Support-Analytics-Service",
		HTTPPort:                  8080,
		MaxDBConns:                20,
		KafkaConsumerGroup:        "m75-support-analytics-service",
		KafkaTopicMessageReceived: "support.message.received",
		KafkaTopicCaseResolved:    "support.case.resolved",
		KafkaTopicCaseReopened:    "support.case.reopened",
		ConsumerPollInterval:      2 * time.Second,
		SummaryInterval:           5 * time.Minute,
		SLASlowThreshold:          4 * time.Hour,
		LongRunningThreshold:      4 * time.Hour,
		AbandonmentIdleAfter:      24 * time.Hour,
		ReportCacheTTL:            5 * time.Minute,
		PreviewLength:             250,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Dependencies.KafkaTopicMessageReceived != "" {
			cfg.KafkaTopicMessageReceived = f.Dependencies.KafkaTopicMessageReceived
		}
		if f.Dependencies.KafkaTopicCaseResolved != "" {
			cfg.KafkaTopicCaseResolved = f.Dependencies.KafkaTopicCaseResolved
		}
		if f.Dependencies.KafkaTopicCaseReopened != "" {
			cfg.KafkaTopicCaseReopened = f.Dependencies.KafkaTopicCaseReopened
		}
		if len(f.Analytics.TrackedAgentIDs) > 0 {
			cfg.TrackedAgentIDs = trimNonEmpty(f.Analytics.TrackedAgentIDs)
		}
		if f.Analytics.SLASlowThresholdMinutes > 0 {
			cfg.SLASlowThreshold = time.Duration(f.Analytics.SLASlowThresholdMinutes) * time.Minute
		}
		if f.Analytics.LongRunningMinutes > 0 {
			cfg.LongRunningThreshold = time.Duration(f.Analytics.LongRunningMinutes) * time.Minute
		}
		if f.Analytics.AbandonmentIdleHours > 0 {
			cfg.AbandonmentIdleAfter = time.Duration(f.Analytics.AbandonmentIdleHours) * time.Hour
		}
		if f.Analytics.ReportCacheSeconds > 0 {
			cfg.ReportCacheTTL = time.Duration(f.Analytics.ReportCacheSeconds) * time.Second
		}
		if f.Analytics.PreviewLength > 0 {
			cfg.PreviewLength = f.Analytics.PreviewLength
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicMessageReceived = envOrDefault("KAFKA_TOPIC_MESSAGE_RECEIVED", cfg.KafkaTopicMessageReceived)
	cfg.KafkaTopicCaseResolved = envOrDefault("KAFKA_TOPIC_CASE_RESOLVED", cfg.KafkaTopicCaseResolved)
	cfg.KafkaTopicCaseReopened = envOrDefault("KAFKA_TOPIC_CASE_REOPENED", cfg.KafkaTopicCaseReopened)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.SummaryInterval = time.Duration(envInt("SUMMARY_INTERVAL_SECONDS", int(cfg.SummaryInterval.Seconds()))) * time.Second
	cfg.TrackedAgentIDs = envCSV("TRACKED_AGENT_IDS", cfg.TrackedAgentIDs)
	cfg.SLASlowThreshold = time.Duration(envInt("SLA_SLOW_THRESHOLD_MINUTES", int(cfg.SLASlowThreshold.Minutes()))) * time.Minute
	cfg.LongRunningThreshold = time.Duration(envInt("LONG_RUNNING_MINUTES", int(cfg.LongRunningThreshold.Minutes()))) * time.Minute
	cfg.AbandonmentIdleAfter = time.Duration(envInt("ABANDONMENT_IDLE_HOURS", int(cfg.AbandonmentIdleAfter.Hours()))) * time.Hour
	cfg.ReportCacheTTL = time.Duration(envInt("REPORT_CACHE_SECONDS", int(cfg.ReportCacheTTL.Seconds()))) * time.Second
	cfg.PreviewLength = envInt("PREVIEW_LENGTH", cfg.PreviewLength)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
