package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

func TestHandleDailyAgentSummariesComputesSpan(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Config{TrackedAgentIDs: []string{"agent-a", "agent-b"}})
	ctx := context.Background()
	day := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	dayStart := domain.BusinessDayStart(day)

	c := env.newCase(ctx)
	first := env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", dayStart.Add(5*time.Hour), "good morning")
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", dayStart.Add(9*time.Hour), "checking in")
	last := env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", dayStart.Add(13*time.Hour+30*time.Minute), "signing off")
	// Previous business day: excluded from this run.
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", dayStart.Add(-time.Hour), "yesterday")
	// Untracked agent: ignored.
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-z", dayStart.Add(6*time.Hour), "hello")

	if err := env.service.HandleDailyAgentSummaries(ctx, day); err != nil {
		t.Fatalf("summaries: %v", err)
	}

	businessDay := domain.BusinessDayDate(day)
	summary, err := env.repos.Summaries.Get(ctx, "agent-a", businessDay)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.MessageCount != 3 {
		t.Fatalf("expected 3 messages, got %d", summary.MessageCount)
	}
	if summary.FirstMessageID != first.MessageID || summary.LastMessageID != last.MessageID {
		t.Fatalf("unexpected first/last message ids: %+v", summary)
	}
	if summary.ActiveMinutes != 510 {
		t.Fatalf("expected 510 active minutes, got %d", summary.ActiveMinutes)
	}
	if summary.FirstMessagePreview != "good morning" || summary.LastMessagePreview != "signing off" {
		t.Fatalf("unexpected previews: %+v", summary)
	}

	// agent-b sent nothing, so no row is written.
	if _, err := env.repos.Summaries.Get(ctx, "agent-b", businessDay); err == nil {
		t.Fatal("expected no summary for idle agent")
	}
}

func TestHandleDailyAgentSummariesIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Config{TrackedAgentIDs: []string{"agent-a"}})
	ctx := context.Background()
	day := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	dayStart := domain.BusinessDayStart(day)

	c := env.newCase(ctx)
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", dayStart.Add(5*time.Hour), "hello")

	if err := env.service.HandleDailyAgentSummaries(ctx, day); err != nil {
		t.Fatalf("first run: %v", err)
	}
	businessDay := domain.BusinessDayDate(day)
	original, err := env.repos.Summaries.Get(ctx, "agent-a", businessDay)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}

	if err := env.service.HandleDailyAgentSummaries(ctx, day); err != nil {
		t.Fatalf("second run: %v", err)
	}
	rerun, err := env.repos.Summaries.Get(ctx, "agent-a", businessDay)
	if err != nil {
		t.Fatalf("get summary after rerun: %v", err)
	}
	if rerun.SummaryID != original.SummaryID {
		t.Fatalf("expected stable summary id across reruns, got %s then %s", original.SummaryID, rerun.SummaryID)
	}
	rows, err := env.repos.Summaries.ListByDay(ctx, businessDay)
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
}

func TestSummaryPreviewsTruncateRuneSafe(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Config{TrackedAgentIDs: []string{"agent-a"}, PreviewLength: 4})
	ctx := context.Background()
	day := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	dayStart := domain.BusinessDayStart(day)

	c := env.newCase(ctx)
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", dayStart.Add(5*time.Hour), "नमस्ते दुनिया")

	if err := env.service.HandleDailyAgentSummaries(ctx, day); err != nil {
		t.Fatalf("summaries: %v", err)
	}
	summary, err := env.repos.Summaries.Get(ctx, "agent-a", domain.BusinessDayDate(day))
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if got := []rune(summary.FirstMessagePreview); len(got) != 4 {
		t.Fatalf("expected 4-rune preview, got %q", summary.FirstMessagePreview)
	}
	if !strings.HasPrefix("नमस्ते दुनिया", summary.FirstMessagePreview) {
		t.Fatalf("preview %q is not a prefix of the original", summary.FirstMessagePreview)
	}
}

func TestListDailySummariesReturnsDayRows(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Config{TrackedAgentIDs: []string{"agent-a", "agent-b"}})
	ctx := context.Background()
	day := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	dayStart := domain.BusinessDayStart(day)

	c := env.newCase(ctx)
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", dayStart.Add(time.Hour), "hi")
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-b", dayStart.Add(2*time.Hour), "hi")

	if err := env.service.HandleDailyAgentSummaries(ctx, day); err != nil {
		t.Fatalf("summaries: %v", err)
	}
	rows, err := env.service.ListDailySummaries(ctx, day)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].AgentID != "agent-a" || rows[1].AgentID != "agent-b" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
