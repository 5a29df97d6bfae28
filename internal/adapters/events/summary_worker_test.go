package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

func TestSummaryWorkerFinalizesDayOnRollover(t *testing.T) {
	t.Parallel()

	repos := memory.NewRepositories()
	service := application.NewService(application.Dependencies{
		Config:       application.Config{TrackedAgentIDs: []string{"agent-a"}},
		Cases:        repos.Cases,
		Episodes:     repos.Episodes,
		Messages:     repos.Messages,
		IssueEvents:  repos.IssueEvents,
		StatusEvents: repos.StatusEvents,
		Agents:       repos.Agents,
		Summaries:    repos.Summaries,
	})
	ctx := context.Background()

	// One agent message during the June 15th business day.
	beforeRollover := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	c := domain.Case{CaseID: uuid.New(), CustomerRef: "wa:1", Status: domain.CaseStatusInitiated, AssignedTo: domain.BotHandler, CreatedAt: beforeRollover, UpdatedAt: beforeRollover}
	if err := repos.Cases.Create(ctx, c); err != nil {
		t.Fatalf("create case: %v", err)
	}
	if err := repos.Messages.Create(ctx, domain.Message{
		MessageID: uuid.New(),
		CaseID:    c.CaseID,
		Sender:    domain.SenderAgent,
		SenderID:  "agent-a",
		SentAt:    beforeRollover,
		Text:      "hello",
		Kind:      domain.MessageKindText,
	}); err != nil {
		t.Fatalf("create message: %v", err)
	}

	worker := NewSummaryWorker(slog.Default(), service, time.Minute)
	worker.lastDay = domain.BusinessDayDate(beforeRollover)

	// The clock crosses 04:00 local into the June 16th business day.
	afterRollover := time.Date(2025, 6, 16, 5, 0, 0, 0, time.UTC)
	worker.nowFn = func() time.Time { return afterRollover }

	if err := worker.runOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	summary, err := repos.Summaries.Get(ctx, "agent-a", domain.BusinessDayDate(beforeRollover))
	if err != nil {
		t.Fatalf("expected summary for the closed day: %v", err)
	}
	if summary.MessageCount != 1 {
		t.Fatalf("expected 1 message summarized, got %d", summary.MessageCount)
	}
	if worker.lastDay != domain.BusinessDayDate(afterRollover) {
		t.Fatalf("expected rollover marker advanced, got %s", worker.lastDay)
	}

	// A second run on the same day does not resummarize.
	if err := worker.runOnce(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
