package application

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
)

type Service struct {
	cfg          Config
	cases        ports.CaseRepository
	episodes     ports.EpisodeRepository
	messages     ports.MessageRepository
	issueEvents  ports.IssueEventRepository
	statusEvents ports.StatusEventRepository
	agents       ports.AgentRepository
	summaries    ports.SummaryRepository
	cache        ports.ReportCache
	logger       *slog.Logger
	nowFn        func() time.Time
	locks        *caseLocks
}

type Dependencies struct {
	Config       Config
	Cases        ports.CaseRepository
	Episodes     ports.EpisodeRepository
	Messages     ports.MessageRepository
	IssueEvents  ports.IssueEventRepository
	StatusEvents ports.StatusEventRepository
	Agents       ports.AgentRepository
	Summaries    ports.SummaryRepository
	Cache        ports.ReportCache
	Logger       *slog.Logger
	NowFn        func() time.Time
}

func NewService(deps Dependencies) *Service {
	s := &Service{
		cfg:          deps.Config,
		cases:        deps.Cases,
		episodes:     deps.Episodes,
		messages:     deps.Messages,
		issueEvents:  deps.IssueEvents,
		statusEvents: deps.StatusEvents,
		agents:       deps.Agents,
		summaries:    deps.Summaries,
		cache:        deps.Cache,
		logger:       deps.Logger,
		nowFn:        deps.NowFn,
		locks:        newCaseLocks(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.nowFn == nil {
		s.nowFn = func() time.Time { return time.Now().UTC() }
	}
	if s.cfg.SLASlowThreshold == 0 {
		s.cfg.SLASlowThreshold = 4 * time.Hour
	}
	if s.cfg.LongRunningThreshold == 0 {
		s.cfg.LongRunningThreshold = 4 * time.Hour
	}
	if s.cfg.AbandonmentIdleAfter == 0 {
		s.cfg.AbandonmentIdleAfter = 24 * time.Hour
	}
	if s.cfg.PreviewLength == 0 {
		s.cfg.PreviewLength = 250
	}
	return s
}

// caseLocks serializes lifecycle operations per case id. The repository's
// conditional pointer swap still guards against writers outside this process.
type caseLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newCaseLocks() *caseLocks {
	return &caseLocks{locks: map[uuid.UUID]*sync.Mutex{}}
}

func (l *caseLocks) acquire(caseID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[caseID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[caseID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// round2 is applied at the presentation boundary only; internal math keeps
// full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// nearestRank returns sorted[floor(q/100 * (n-1))]. The formula is pinned;
// callers must pass a sorted, non-empty slice.
func nearestRank(sorted []float64, q int) float64 {
	idx := int(math.Floor(float64(q) / 100 * float64(len(sorted)-1)))
	return sorted[idx]
}
