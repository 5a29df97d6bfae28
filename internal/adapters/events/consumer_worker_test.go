package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
)

type stubConsumer struct {
	batches [][]ports.InboundEvent
}

func (s *stubConsumer) Poll(_ context.Context, _ int) ([]ports.InboundEvent, error) {
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func (s *stubConsumer) Close() error { return nil }

var testTopics = Topics{
	MessageReceived: "support.message.received",
	CaseResolved:    "support.case.resolved",
	CaseReopened:    "support.case.reopened",
}

func newWorkerFixture(consumer ports.Consumer) (*ConsumerWorker, *memory.Repositories) {
	repos := memory.NewRepositories()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	service := application.NewService(application.Dependencies{
		Cases:        repos.Cases,
		Episodes:     repos.Episodes,
		Messages:     repos.Messages,
		IssueEvents:  repos.IssueEvents,
		StatusEvents: repos.StatusEvents,
		Agents:       repos.Agents,
		Summaries:    repos.Summaries,
		NowFn:        func() time.Time { return now },
	})
	worker := NewConsumerWorker(slog.Default(), consumer, service, testTopics, time.Second)
	return worker, repos
}

func event(topic string, payload any) ports.InboundEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return ports.InboundEvent{Topic: topic, Payload: raw}
}

func TestConsumerWorkerDispatchesMessageReceived(t *testing.T) {
	t.Parallel()

	consumer := &stubConsumer{batches: [][]ports.InboundEvent{{
		event(testTopics.MessageReceived, map[string]string{
			"customer_ref": "wa:+911234567890",
			"sender":       "CUSTOMER",
			"text":         "no water dispensed",
		}),
	}}}
	worker, repos := newWorkerFixture(consumer)
	ctx := context.Background()

	if err := worker.pollOnce(ctx); err != nil {
		t.Fatalf("poll once: %v", err)
	}
	c, err := repos.Cases.GetByCustomerRef(ctx, "wa:+911234567890")
	if err != nil {
		t.Fatalf("expected case created from event: %v", err)
	}
	if c.Status != domain.CaseStatusInitiated {
		t.Fatalf("expected INITIATED case, got %s", c.Status)
	}
}

func TestConsumerWorkerResolvesAndReopensCases(t *testing.T) {
	t.Parallel()

	consumer := &stubConsumer{}
	worker, repos := newWorkerFixture(consumer)
	ctx := context.Background()

	// Seed a case with an open episode through the message topic first.
	consumer.batches = [][]ports.InboundEvent{{
		event(testTopics.MessageReceived, map[string]string{
			"customer_ref": "wa:+911111111111",
			"sender":       "CUSTOMER",
			"text":         "hi",
		}),
	}}
	if err := worker.pollOnce(ctx); err != nil {
		t.Fatalf("seed poll: %v", err)
	}
	c, err := repos.Cases.GetByCustomerRef(ctx, "wa:+911111111111")
	if err != nil {
		t.Fatalf("get case: %v", err)
	}

	consumer.batches = [][]ports.InboundEvent{{
		event(testTopics.CaseResolved, map[string]string{
			"case_id":  c.CaseID.String(),
			"actor_id": "agent-1",
		}),
	}}
	if err := worker.pollOnce(ctx); err != nil {
		t.Fatalf("resolve poll: %v", err)
	}
	resolved, err := repos.Cases.Get(ctx, c.CaseID)
	if err != nil {
		t.Fatalf("get resolved case: %v", err)
	}
	if resolved.Status != domain.CaseStatusSolved || resolved.CurrentEpisodeID != nil {
		t.Fatalf("expected solved case with no open episode, got %+v", resolved)
	}

	consumer.batches = [][]ports.InboundEvent{{
		event(testTopics.CaseReopened, map[string]string{
			"case_id":  c.CaseID.String(),
			"actor_id": "agent-1",
		}),
	}}
	if err := worker.pollOnce(ctx); err != nil {
		t.Fatalf("reopen poll: %v", err)
	}
	reopened, err := repos.Cases.Get(ctx, c.CaseID)
	if err != nil {
		t.Fatalf("get reopened case: %v", err)
	}
	if reopened.Status != domain.CaseStatusInProgress || reopened.CurrentEpisodeID == nil {
		t.Fatalf("expected reopened case with open episode, got %+v", reopened)
	}
	episodes, err := repos.Episodes.ListByCase(ctx, c.CaseID, false)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(episodes))
	}
}

func TestConsumerWorkerToleratesMalformedPayloads(t *testing.T) {
	t.Parallel()

	consumer := &stubConsumer{batches: [][]ports.InboundEvent{{
		{Topic: testTopics.MessageReceived, Payload: []byte("{not json")},
		{Topic: "unrelated.topic", Payload: []byte("{}")},
	}}}
	worker, _ := newWorkerFixture(consumer)

	// Bad events are logged and skipped; the batch itself succeeds.
	if err := worker.pollOnce(context.Background()); err != nil {
		t.Fatalf("poll once: %v", err)
	}
}
