package application

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

type Config struct {
	ServiceName          string
	SLASlowThreshold     time.Duration
	LongRunningThreshold time.Duration
	AbandonmentIdleAfter time.Duration
	TrackedAgentIDs      []string
	ReportCacheTTL       time.Duration
	PreviewLength        int
}

// AttributionMode selects which timestamp field window filters apply to when
// reading issue events.
type AttributionMode string

const (
	AttributionOpened  AttributionMode = "opened"
	AttributionUpdated AttributionMode = "updated"
)

// ParseAttributionMode maps a raw query value onto a mode. Empty input
// defaults to opened-at attribution.
func ParseAttributionMode(raw string) (AttributionMode, error) {
	switch raw {
	case "", string(AttributionOpened):
		return AttributionOpened, nil
	case string(AttributionUpdated):
		return AttributionUpdated, nil
	default:
		return "", fmt.Errorf("%w: unknown attribution mode %q", domain.ErrInvalidInput, raw)
	}
}

// Window is a resolved half-open [From, To) pair of absolute instants.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (w Window) Length() time.Duration { return w.To.Sub(w.From) }

// Previous returns the equal-length window immediately preceding w, contiguous
// with no gap.
func (w Window) Previous() Window {
	return Window{From: w.From.Add(-w.Length()), To: w.From}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

type InboundMessage struct {
	CaseID      *uuid.UUID
	CustomerRef string
	Sender      domain.SenderType
	SenderID    string
	Text        string
	Kind        domain.MessageKind
	SentAt      time.Time
}

// FRTStats carries first-response-time aggregates in minutes. The pointers
// are nil when there were zero samples.
type FRTStats struct {
	Count       int      `json:"count"`
	MeanMinutes *float64 `json:"mean_minutes"`
	P50Minutes  *float64 `json:"p50_minutes"`
	P90Minutes  *float64 `json:"p90_minutes"`
}

// UnassignedBucket labels volume attributed to no particular agent.
const UnassignedBucket = "unassigned"

type AgentChatVolume struct {
	AgentID string `json:"agent_id"`
	Cases   int    `json:"cases"`
}

type AgentSLAStats struct {
	AgentID            string  `json:"agent_id"`
	TotalClosed        int     `json:"total_closed"`
	SlowCount          int     `json:"slow_count"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	SlowRatePct        float64 `json:"slow_rate_pct"`
}

type RefundAgentStats struct {
	AgentID      string `json:"agent_id"`
	ManualCount  int    `json:"manual_count"`
	ManualAmount int64  `json:"manual_amount"`
	AutoCount    int    `json:"auto_count"`
}

type MachineIssueStats struct {
	MachineID          string                   `json:"machine_id"`
	MachineName        string                   `json:"machine_name,omitempty"`
	Total              int                      `json:"total"`
	Active             int                      `json:"active"`
	ManualRefunds      int                      `json:"manual_refunds"`
	AutoRefunds        int                      `json:"auto_refunds"`
	ManualRefundAmount int64                    `json:"manual_refund_amount"`
	TypeCounts         map[domain.IssueType]int `json:"type_counts"`
}

type RefundReport struct {
	ManualCount  int                 `json:"manual_count"`
	AutoCount    int                 `json:"auto_count"`
	ManualAmount int64               `json:"manual_amount"`
	Agents       []RefundAgentStats  `json:"agents"`
	Machines     []MachineIssueStats `json:"machines"`
}

type FCRStats struct {
	Count       int     `json:"count"`
	TotalSolved int     `json:"total_solved"`
	Rate        float64 `json:"rate"`
}

type LongRunningStats struct {
	Count int     `json:"count"`
	Total int     `json:"total"`
	Pct   float64 `json:"pct"`
}

type AbandonmentStats struct {
	Abandoned int     `json:"abandoned"`
	Opened    int     `json:"opened"`
	RatePct   float64 `json:"rate_pct"`
}

type AgentSatisfaction struct {
	AgentID string  `json:"agent_id"`
	Mean    float64 `json:"mean"`
	Pct     float64 `json:"pct"`
	Samples int     `json:"samples"`
}

type SatisfactionStats struct {
	OverallMean *float64            `json:"overall_mean"`
	OverallPct  *float64            `json:"overall_pct"`
	Samples     int                 `json:"samples"`
	PerAgent    []AgentSatisfaction `json:"per_agent"`
}

type KPIReport struct {
	Window       Window            `json:"window"`
	Mode         AttributionMode   `json:"mode"`
	ChatVolume   []AgentChatVolume `json:"chat_volume"`
	MessageFRT   FRTStats          `json:"message_frt"`
	IssueFRT     FRTStats          `json:"issue_frt"`
	SLA          []AgentSLAStats   `json:"sla"`
	Refunds      RefundReport      `json:"refunds"`
	FCR          FCRStats          `json:"fcr"`
	LongRunning  LongRunningStats  `json:"long_running"`
	Abandonment  AbandonmentStats  `json:"abandonment"`
	Satisfaction SatisfactionStats `json:"satisfaction"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

type KPIDelta struct {
	Name       string  `json:"name"`
	Current    float64 `json:"current"`
	Previous   float64 `json:"previous"`
	PctChange  float64 `json:"pct_change"`
	IsPositive bool    `json:"is_positive"`
}

type ComparisonReport struct {
	Current  Window          `json:"current_window"`
	Previous Window          `json:"previous_window"`
	Mode     AttributionMode `json:"mode"`
	Deltas   []KPIDelta      `json:"deltas"`
}
