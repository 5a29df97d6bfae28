package application

import (
	"context"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

func deltaByName(t *testing.T, report ComparisonReport, name string) KPIDelta {
	t.Helper()
	for _, d := range report.Deltas {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("delta %q not found in %+v", name, report.Deltas)
	return KPIDelta{}
}

func TestCompareDerivesPolarizedDeltas(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Config{})
	ctx := context.Background()
	win := Window{
		From: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	prev := win.Previous()

	addRefund(env, ctx, win.From.Add(time.Hour), domain.RefundModeManual)
	for i := 0; i < 4; i++ {
		addRefund(env, ctx, win.From.Add(time.Duration(i+2)*time.Hour), domain.RefundModeAuto)
	}
	addRefund(env, ctx, prev.From.Add(time.Hour), domain.RefundModeManual)
	for i := 0; i < 3; i++ {
		addRefund(env, ctx, prev.From.Add(time.Duration(i+2)*time.Hour), domain.RefundModeAuto)
	}

	report, err := env.service.Compare(ctx, win, AttributionOpened, win.To)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if report.Previous != prev {
		t.Fatalf("expected previous window %+v, got %+v", prev, report.Previous)
	}
	if len(report.Deltas) != len(comparedKPIs) {
		t.Fatalf("expected %d deltas, got %d", len(comparedKPIs), len(report.Deltas))
	}

	// Manual share dropped from 25%% to 20%%: a 20%% relative improvement.
	manual := deltaByName(t, report, "manual_refund_rate")
	if manual.Current != 20 || manual.Previous != 25 {
		t.Fatalf("unexpected manual refund values: %+v", manual)
	}
	if manual.PctChange != -20 {
		t.Fatalf("expected -20%% change, got %v", manual.PctChange)
	}
	if !manual.IsPositive {
		t.Fatal("lower manual refund rate should read as improvement")
	}
}

func TestComparePreviousZeroYieldsZeroChange(t *testing.T) {
	t.Parallel()

	env := newTestEnv(Config{})
	ctx := context.Background()
	win := Window{
		From: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}

	c := env.newCase(ctx)
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", win.From.Add(time.Hour), "hi")

	report, err := env.service.Compare(ctx, win, AttributionOpened, win.To)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	volume := deltaByName(t, report, "chat_volume")
	if volume.Current != 1 || volume.Previous != 0 {
		t.Fatalf("unexpected chat volume values: %+v", volume)
	}
	if volume.PctChange != 0 {
		t.Fatalf("expected zero change against empty baseline, got %v", volume.PctChange)
	}
	if !volume.IsPositive {
		t.Fatal("higher chat volume should read as improvement")
	}
}

func addRefund(env *testEnv, ctx context.Context, openedAt time.Time, mode domain.RefundMode) {
	env.addIssue(ctx, domain.IssueEvent{
		MachineID:    "vm-1",
		Type:         domain.IssueTypeRefund,
		RefundMode:   mode,
		RefundAmount: 100,
		OpenedAt:     openedAt,
	})
}
