package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
	deletes int
	failGet bool
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	raw, ok := c.entries[key]
	return raw, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, key)
	return nil
}

func newCachedTestEnv(cache *fakeCache) *testEnv {
	repos := memory.NewRepositories()
	clock := newFakeClock(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	service := NewService(Dependencies{
		Config:       Config{ReportCacheTTL: 5 * time.Minute},
		Cases:        repos.Cases,
		Episodes:     repos.Episodes,
		Messages:     repos.Messages,
		IssueEvents:  repos.IssueEvents,
		StatusEvents: repos.StatusEvents,
		Agents:       repos.Agents,
		Summaries:    repos.Summaries,
		Cache:        cache,
		NowFn:        clock.Now,
	})
	return &testEnv{service: service, repos: repos, clock: clock}
}

func TestOverviewReportServesSecondCallFromCache(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	env := newCachedTestEnv(cache)
	ctx := context.Background()
	now := metricsWindow.To

	c := env.newCase(ctx)
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-a", metricsWindow.From.Add(time.Hour), "hi")

	first, err := env.service.OverviewReport(ctx, metricsWindow, AttributionOpened, now)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	// New data after the report is cached is not visible until expiry.
	env.addMessage(ctx, c.CaseID, domain.SenderAgent, "agent-b", metricsWindow.From.Add(2*time.Hour), "hi")
	second, err := env.service.OverviewReport(ctx, metricsWindow, AttributionOpened, now)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(second.ChatVolume) != len(first.ChatVolume) {
		t.Fatalf("expected cached report, got recomputed one: %+v", second.ChatVolume)
	}
	if cache.sets != 1 {
		t.Fatalf("expected no second cache write, got %d", cache.sets)
	}
}

func TestOverviewReportDegradesOnCacheFailure(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cache.failGet = true
	env := newCachedTestEnv(cache)
	ctx := context.Background()

	report, err := env.service.OverviewReport(ctx, metricsWindow, AttributionOpened, metricsWindow.To)
	if err != nil {
		t.Fatalf("expected recomputation despite cache failure, got %v", err)
	}
	if report.Window != metricsWindow {
		t.Fatalf("unexpected report window: %+v", report.Window)
	}
}

func TestRefreshBusinessDayReportInvalidatesAndRecomputes(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	env := newCachedTestEnv(cache)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	if err := env.service.RefreshBusinessDayReport(ctx, now); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if cache.deletes != 1 {
		t.Fatalf("expected one invalidation, got %d", cache.deletes)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one recompute write, got %d", cache.sets)
	}
}
