package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
)

// Topics maps broker topics to the conversation events this service consumes.
type Topics struct {
	MessageReceived string
	CaseResolved    string
	CaseReopened    string
}

type ConsumerWorker struct {
	logger   *slog.Logger
	consumer ports.Consumer
	service  *application.Service
	topics   Topics
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer ports.Consumer, service *application.Service, topics Topics, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, topics: topics, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.pollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "poll_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) pollOnce(ctx context.Context) error {
	batch, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, event := range batch {
		if handleErr := w.handle(ctx, event); handleErr != nil {
			w.logger.ErrorContext(ctx, "event handling failed",
				"module", "events.consumer_worker",
				"topic", event.Topic,
				"error", handleErr,
			)
		}
	}
	return nil
}

type messageReceivedPayload struct {
	CaseID      string `json:"case_id"`
	CustomerRef string `json:"customer_ref"`
	Sender      string `json:"sender"`
	SenderID    string `json:"sender_id"`
	Text        string `json:"text"`
	Kind        string `json:"kind"`
	SentAt      string `json:"sent_at"`
}

type caseTransitionPayload struct {
	CaseID      string            `json:"case_id"`
	FinalStatus string            `json:"final_status"`
	ActorID     string            `json:"actor_id"`
	Metadata    map[string]string `json:"metadata"`
}

func (w *ConsumerWorker) handle(ctx context.Context, event ports.InboundEvent) error {
	switch event.Topic {
	case w.topics.MessageReceived:
		var payload messageReceivedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		in := application.InboundMessage{
			CustomerRef: payload.CustomerRef,
			Sender:      domain.SenderType(payload.Sender),
			SenderID:    payload.SenderID,
			Text:        payload.Text,
			Kind:        domain.MessageKind(payload.Kind),
		}
		if payload.CaseID != "" {
			caseID, err := uuid.Parse(payload.CaseID)
			if err != nil {
				return err
			}
			in.CaseID = &caseID
		}
		if payload.SentAt != "" {
			sentAt, err := time.Parse(time.RFC3339, payload.SentAt)
			if err != nil {
				return err
			}
			in.SentAt = sentAt.UTC()
		}
		_, err := w.service.RecordMessage(ctx, in)
		return err
	case w.topics.CaseResolved:
		var payload caseTransitionPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		caseID, err := uuid.Parse(payload.CaseID)
		if err != nil {
			return err
		}
		final := domain.CaseStatusSolved
		if payload.FinalStatus == string(domain.CaseStatusUnsolved) {
			final = domain.CaseStatusUnsolved
		}
		_, err = w.service.CloseCurrentEpisode(ctx, caseID, final, payload.ActorID)
		return err
	case w.topics.CaseReopened:
		var payload caseTransitionPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		caseID, err := uuid.Parse(payload.CaseID)
		if err != nil {
			return err
		}
		_, err = w.service.Reopen(ctx, caseID, payload.Metadata, payload.ActorID)
		return err
	default:
		w.logger.WarnContext(ctx, "unhandled topic",
			"module", "events.consumer_worker",
			"topic", event.Topic,
		)
		return nil
	}
}
