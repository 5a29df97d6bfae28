package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	service *Service
	repos   *memory.Repositories
	clock   *fakeClock
}

func newTestEnv(cfg Config) *testEnv {
	repos := memory.NewRepositories()
	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	service := NewService(Dependencies{
		Config:       cfg,
		Cases:        repos.Cases,
		Episodes:     repos.Episodes,
		Messages:     repos.Messages,
		IssueEvents:  repos.IssueEvents,
		StatusEvents: repos.StatusEvents,
		Agents:       repos.Agents,
		Summaries:    repos.Summaries,
		NowFn:        clock.Now,
	})
	return &testEnv{service: service, repos: repos, clock: clock}
}

func (e *testEnv) newCase(ctx context.Context) domain.Case {
	now := e.clock.Now()
	c := domain.Case{
		CaseID:      uuid.New(),
		CustomerRef: "wa:" + uuid.NewString(),
		Status:      domain.CaseStatusInitiated,
		AssignedTo:  domain.BotHandler,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.repos.Cases.Create(ctx, c); err != nil {
		panic(err)
	}
	return c
}

func (e *testEnv) addMessage(ctx context.Context, caseID uuid.UUID, sender domain.SenderType, senderID string, at time.Time, text string) domain.Message {
	m := domain.Message{
		MessageID: uuid.New(),
		CaseID:    caseID,
		Sender:    sender,
		SenderID:  senderID,
		SentAt:    at,
		Text:      text,
		Kind:      domain.MessageKindText,
	}
	if err := e.repos.Messages.Create(ctx, m); err != nil {
		panic(err)
	}
	return m
}

func (e *testEnv) addIssue(ctx context.Context, issue domain.IssueEvent) domain.IssueEvent {
	if issue.IssueEventID == uuid.Nil {
		issue.IssueEventID = uuid.New()
	}
	if issue.UpdatedAt.IsZero() {
		issue.UpdatedAt = issue.OpenedAt
	}
	if err := e.repos.IssueEvents.Create(ctx, issue); err != nil {
		panic(err)
	}
	return issue
}

func (e *testEnv) addStatusEvent(ctx context.Context, caseID uuid.UUID, from, to domain.CaseStatus, at time.Time) {
	event := domain.StatusEvent{
		StatusEventID: uuid.New(),
		CaseID:        caseID,
		FromStatus:    from,
		ToStatus:      to,
		OccurredAt:    at,
	}
	if err := e.repos.StatusEvents.Append(ctx, event); err != nil {
		panic(err)
	}
}

func floatPtrValue(v *float64) float64 {
	if v == nil {
		return -1
	}
	return *v
}
