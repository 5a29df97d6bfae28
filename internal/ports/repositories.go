package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

// TimeField selects which timestamp an IssueEventFilter's window applies to.
type TimeField string

const (
	TimeFieldOpened  TimeField = "opened"
	TimeFieldUpdated TimeField = "updated"
)

// Filters are a closed set of semantic predicates. Time ranges are half-open:
// From inclusive, To exclusive.

type CaseFilter struct {
	Statuses   []domain.CaseStatus
	OpenedFrom *time.Time
	OpenedTo   *time.Time
}

type MessageFilter struct {
	CaseID   *uuid.UUID
	Senders  []domain.SenderType
	SenderID string
	From     *time.Time
	To       *time.Time
}

type IssueEventFilter struct {
	TimeField   TimeField
	From        *time.Time
	To          *time.Time
	CaseID      *uuid.UUID
	AgentID     *string
	Types       []domain.IssueType
	RefundModes []domain.RefundMode
	OnlyActive  bool
}

type StatusEventFilter struct {
	CaseID   *uuid.UUID
	ToStatus *domain.CaseStatus
	From     *time.Time
	To       *time.Time
}

type CaseRepository interface {
	Create(ctx context.Context, c domain.Case) error
	Get(ctx context.Context, caseID uuid.UUID) (domain.Case, error)
	GetByCustomerRef(ctx context.Context, customerRef string) (domain.Case, error)
	Update(ctx context.Context, c domain.Case) error
	// SetCurrentEpisode swaps the case's current-episode pointer only when the
	// stored value still equals expect; otherwise it fails with
	// domain.ErrConflict. This is the conditional update the lifecycle
	// manager's check-then-act sequence relies on.
	SetCurrentEpisode(ctx context.Context, caseID uuid.UUID, expect, next *uuid.UUID) error
	Query(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
}

type EpisodeRepository interface {
	Create(ctx context.Context, e domain.Episode) error
	Get(ctx context.Context, episodeID uuid.UUID) (domain.Episode, error)
	Update(ctx context.Context, e domain.Episode) error
	// ListByCase returns the case's episodes ordered by sequence, descending
	// when desc is set.
	ListByCase(ctx context.Context, caseID uuid.UUID, desc bool) ([]domain.Episode, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m domain.Message) error
	Query(ctx context.Context, filter MessageFilter) ([]domain.Message, error)
}

type IssueEventRepository interface {
	Create(ctx context.Context, e domain.IssueEvent) error
	Query(ctx context.Context, filter IssueEventFilter) ([]domain.IssueEvent, error)
}

type StatusEventRepository interface {
	Append(ctx context.Context, e domain.StatusEvent) error
	Query(ctx context.Context, filter StatusEventFilter) ([]domain.StatusEvent, error)
}

type AgentRepository interface {
	Get(ctx context.Context, agentID string) (domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
}

type SummaryRepository interface {
	// Upsert writes the summary keyed on (AgentID, BusinessDay), replacing any
	// existing row for that key.
	Upsert(ctx context.Context, s domain.DailyAgentSummary) error
	Get(ctx context.Context, agentID, businessDay string) (domain.DailyAgentSummary, error)
	ListByDay(ctx context.Context, businessDay string) ([]domain.DailyAgentSummary, error)
}
