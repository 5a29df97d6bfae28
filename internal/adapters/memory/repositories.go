package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
)

// Repositories is the in-memory event store used by tests and local runs
// without a database.
type Repositories struct {
	Cases        *CaseRepository
	Episodes     *EpisodeRepository
	Messages     *MessageRepository
	IssueEvents  *IssueEventRepository
	StatusEvents *StatusEventRepository
	Agents       *AgentRepository
	Summaries    *SummaryRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Cases:        &CaseRepository{rows: map[uuid.UUID]domain.Case{}},
		Episodes:     &EpisodeRepository{rows: map[uuid.UUID]domain.Episode{}},
		Messages:     &MessageRepository{},
		IssueEvents:  &IssueEventRepository{},
		StatusEvents: &StatusEventRepository{},
		Agents:       &AgentRepository{rows: map[string]domain.Agent{}},
		Summaries:    &SummaryRepository{rows: map[string]domain.DailyAgentSummary{}},
	}
}

type CaseRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Case
}

func (r *CaseRepository) Create(_ context.Context, c domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.CaseID]; ok {
		return domain.ErrConflict
	}
	r.rows[c.CaseID] = c
	return nil
}

func (r *CaseRepository) Get(_ context.Context, caseID uuid.UUID) (domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[caseID]
	if !ok {
		return domain.Case{}, domain.ErrNotFound
	}
	return c, nil
}

func (r *CaseRepository) GetByCustomerRef(_ context.Context, customerRef string) (domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := strings.TrimSpace(customerRef)
	for _, c := range r.rows {
		if c.CustomerRef == ref {
			return c, nil
		}
	}
	return domain.Case{}, domain.ErrNotFound
}

func (r *CaseRepository) Update(_ context.Context, c domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.CaseID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[c.CaseID] = c
	return nil
}

func (r *CaseRepository) SetCurrentEpisode(_ context.Context, caseID uuid.UUID, expect, next *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[caseID]
	if !ok {
		return domain.ErrNotFound
	}
	if !uuidPtrEqual(c.CurrentEpisodeID, expect) {
		return domain.ErrConflict
	}
	c.CurrentEpisodeID = next
	r.rows[caseID] = c
	return nil
}

func (r *CaseRepository) Query(_ context.Context, filter ports.CaseFilter) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Case
	for _, c := range r.rows {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			continue
		}
		if filter.OpenedFrom != nil || filter.OpenedTo != nil {
			if c.FirstOpenedAt == nil {
				continue
			}
			if filter.OpenedFrom != nil && c.FirstOpenedAt.Before(*filter.OpenedFrom) {
				continue
			}
			if filter.OpenedTo != nil && !c.FirstOpenedAt.Before(*filter.OpenedTo) {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type EpisodeRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Episode
}

func (r *EpisodeRepository) Create(_ context.Context, e domain.Episode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.EpisodeID]; ok {
		return domain.ErrConflict
	}
	r.rows[e.EpisodeID] = e
	return nil
}

func (r *EpisodeRepository) Get(_ context.Context, episodeID uuid.UUID) (domain.Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[episodeID]
	if !ok {
		return domain.Episode{}, domain.ErrNotFound
	}
	return e, nil
}

func (r *EpisodeRepository) Update(_ context.Context, e domain.Episode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.EpisodeID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[e.EpisodeID] = e
	return nil
}

func (r *EpisodeRepository) ListByCase(_ context.Context, caseID uuid.UUID, desc bool) ([]domain.Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Episode
	for _, e := range r.rows {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].Sequence > out[j].Sequence
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

type MessageRepository struct {
	mu   sync.Mutex
	rows []domain.Message
}

func (r *MessageRepository) Create(_ context.Context, m domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, m)
	return nil
}

func (r *MessageRepository) Query(_ context.Context, filter ports.MessageFilter) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.rows {
		if filter.CaseID != nil && m.CaseID != *filter.CaseID {
			continue
		}
		if len(filter.Senders) > 0 && !containsSender(filter.Senders, m.Sender) {
			continue
		}
		if filter.SenderID != "" && m.SenderID != filter.SenderID {
			continue
		}
		if filter.From != nil && m.SentAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !m.SentAt.Before(*filter.To) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

type IssueEventRepository struct {
	mu   sync.Mutex
	rows []domain.IssueEvent
}

func (r *IssueEventRepository) Create(_ context.Context, e domain.IssueEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, e)
	return nil
}

func (r *IssueEventRepository) Query(_ context.Context, filter ports.IssueEventFilter) ([]domain.IssueEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.IssueEvent
	for _, e := range r.rows {
		at := e.OpenedAt
		if filter.TimeField == ports.TimeFieldUpdated {
			at = e.UpdatedAt
		}
		if filter.From != nil && at.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !at.Before(*filter.To) {
			continue
		}
		if filter.CaseID != nil && (e.CaseID == nil || *e.CaseID != *filter.CaseID) {
			continue
		}
		if filter.AgentID != nil && e.AgentID != *filter.AgentID {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, e.Type) {
			continue
		}
		if len(filter.RefundModes) > 0 && !containsMode(filter.RefundModes, e.RefundMode) {
			continue
		}
		if filter.OnlyActive && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}

type StatusEventRepository struct {
	mu   sync.Mutex
	rows []domain.StatusEvent
}

func (r *StatusEventRepository) Append(_ context.Context, e domain.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, e)
	return nil
}

func (r *StatusEventRepository) Query(_ context.Context, filter ports.StatusEventFilter) ([]domain.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StatusEvent
	for _, e := range r.rows {
		if filter.CaseID != nil && e.CaseID != *filter.CaseID {
			continue
		}
		if filter.ToStatus != nil && e.ToStatus != *filter.ToStatus {
			continue
		}
		if filter.From != nil && e.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !e.OccurredAt.Before(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

type AgentRepository struct {
	mu   sync.Mutex
	rows map[string]domain.Agent
}

func (r *AgentRepository) Seed(agents ...domain.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range agents {
		r.rows[a.AgentID] = a
	}
}

func (r *AgentRepository) Get(_ context.Context, agentID string) (domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[agentID]
	if !ok {
		return domain.Agent{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *AgentRepository) List(_ context.Context) ([]domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Agent, 0, len(r.rows))
	for _, a := range r.rows {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out, nil
}

type SummaryRepository struct {
	mu   sync.Mutex
	rows map[string]domain.DailyAgentSummary
}

func summaryKey(agentID, businessDay string) string {
	return agentID + "|" + businessDay
}

func (r *SummaryRepository) Upsert(_ context.Context, s domain.DailyAgentSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := summaryKey(s.AgentID, s.BusinessDay)
	if existing, ok := r.rows[key]; ok {
		s.SummaryID = existing.SummaryID
	}
	r.rows[key] = s
	return nil
}

func (r *SummaryRepository) Get(_ context.Context, agentID, businessDay string) (domain.DailyAgentSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[summaryKey(agentID, businessDay)]
	if !ok {
		return domain.DailyAgentSummary{}, domain.ErrNotFound
	}
	return s, nil
}

func (r *SummaryRepository) ListByDay(_ context.Context, businessDay string) ([]domain.DailyAgentSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DailyAgentSummary
	for _, s := range r.rows {
		if s.BusinessDay == businessDay {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func containsStatus(set []domain.CaseStatus, v domain.CaseStatus) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsSender(set []domain.SenderType, v domain.SenderType) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsType(set []domain.IssueType, v domain.IssueType) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsMode(set []domain.RefundMode, v domain.RefundMode) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
