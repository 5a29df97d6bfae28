package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

// GetCase returns a case by ID.
func (s *Service) GetCase(ctx context.Context, caseID uuid.UUID) (domain.Case, error) {
	return s.cases.Get(ctx, caseID)
}

// ListEpisodes returns a case's episodes, newest first.
func (s *Service) ListEpisodes(ctx context.Context, caseID uuid.UUID) ([]domain.Episode, error) {
	if _, err := s.cases.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.episodes.ListByCase(ctx, caseID, true)
}

// EnsureOpenEpisode returns the case's open episode, creating one when none
// is open. Creation assigns the next contiguous sequence number and stamps
// FirstOpenedAt on the case's very first episode. Idempotent when an episode
// is already open.
func (s *Service) EnsureOpenEpisode(ctx context.Context, caseID uuid.UUID, meta map[string]string) (domain.Episode, error) {
	unlock := s.locks.acquire(caseID)
	defer unlock()
	return s.ensureOpenLocked(ctx, caseID, meta)
}

func (s *Service) ensureOpenLocked(ctx context.Context, caseID uuid.UUID, meta map[string]string) (domain.Episode, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return domain.Episode{}, err
	}
	if c.CurrentEpisodeID != nil {
		ep, getErr := s.episodes.Get(ctx, *c.CurrentEpisodeID)
		if getErr == nil && ep.Open() {
			return ep, nil
		}
		if getErr != nil && !errors.Is(getErr, domain.ErrNotFound) {
			return domain.Episode{}, getErr
		}
		// Dangling pointer to a closed or missing episode; clear it before
		// opening a new one.
		if swapErr := s.cases.SetCurrentEpisode(ctx, caseID, c.CurrentEpisodeID, nil); swapErr != nil {
			return domain.Episode{}, swapErr
		}
		c.CurrentEpisodeID = nil
	}

	existing, err := s.episodes.ListByCase(ctx, caseID, true)
	if err != nil {
		return domain.Episode{}, err
	}
	sequence := 1
	if len(existing) > 0 {
		sequence = existing[0].Sequence + 1
	}

	now := s.nowFn()
	episode := domain.Episode{
		EpisodeID:  uuid.New(),
		CaseID:     caseID,
		Sequence:   sequence,
		Status:     domain.CaseStatusInitiated,
		AssignedTo: c.AssignedTo,
		StartedAt:  now,
		Metadata:   meta,
		MachineID:  strings.TrimSpace(meta["machine_id"]),
	}
	if err := s.episodes.Create(ctx, episode); err != nil {
		return domain.Episode{}, err
	}
	if err := s.cases.SetCurrentEpisode(ctx, caseID, nil, &episode.EpisodeID); err != nil {
		return domain.Episode{}, fmt.Errorf("set current episode: %w", err)
	}
	c.CurrentEpisodeID = &episode.EpisodeID
	if c.FirstOpenedAt == nil {
		c.FirstOpenedAt = &now
	}
	c.UpdatedAt = now
	if err := s.cases.Update(ctx, c); err != nil {
		return domain.Episode{}, err
	}
	s.logger.InfoContext(ctx, "episode opened",
		"module", "application.episodes",
		"case_id", caseID.String(),
		"episode_id", episode.EpisodeID.String(),
		"sequence", sequence,
	)
	return episode, nil
}

// CloseCurrentEpisode closes the case's open episode with the given final
// status. When no episode is open it is a no-op returning nil; callers probe
// state this way and it is not an error.
func (s *Service) CloseCurrentEpisode(ctx context.Context, caseID uuid.UUID, final domain.CaseStatus, actorID string) (*domain.Episode, error) {
	if final != domain.CaseStatusSolved && final != domain.CaseStatusUnsolved {
		return nil, fmt.Errorf("%w: final status must be SOLVED or UNSOLVED", domain.ErrInvalidInput)
	}
	unlock := s.locks.acquire(caseID)
	defer unlock()
	return s.closeLocked(ctx, caseID, final, actorID)
}

func (s *Service) closeLocked(ctx context.Context, caseID uuid.UUID, final domain.CaseStatus, actorID string) (*domain.Episode, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.CurrentEpisodeID == nil {
		return nil, nil
	}
	episode, err := s.episodes.Get(ctx, *c.CurrentEpisodeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.cases.SetCurrentEpisode(ctx, caseID, c.CurrentEpisodeID, nil)
			return nil, nil
		}
		return nil, err
	}
	if !episode.Open() {
		_ = s.cases.SetCurrentEpisode(ctx, caseID, c.CurrentEpisodeID, nil)
		return nil, nil
	}

	now := s.nowFn()
	// Floored at zero to guard against clock skew between open and close.
	minutes := int(math.Round(now.Sub(episode.StartedAt).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	episode.EndedAt = &now
	episode.DurationMinutes = &minutes
	episode.Status = final
	if err := s.episodes.Update(ctx, episode); err != nil {
		return nil, err
	}
	if err := s.cases.SetCurrentEpisode(ctx, caseID, &episode.EpisodeID, nil); err != nil {
		return nil, fmt.Errorf("clear current episode: %w", err)
	}
	c.CurrentEpisodeID = nil
	c.LastClosedAt = &now
	if err := s.setCaseStatus(ctx, &c, final, actorID); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "episode closed",
		"module", "application.episodes",
		"case_id", caseID.String(),
		"episode_id", episode.EpisodeID.String(),
		"final_status", string(final),
		"duration_minutes", minutes,
	)
	return &episode, nil
}

// Reopen starts a fresh episode. An episode still open at this point is
// force-closed as UNSOLVED first; a case never carries two opens.
func (s *Service) Reopen(ctx context.Context, caseID uuid.UUID, meta map[string]string, actorID string) (domain.Episode, error) {
	unlock := s.locks.acquire(caseID)
	defer unlock()
	if _, err := s.closeLocked(ctx, caseID, domain.CaseStatusUnsolved, actorID); err != nil {
		return domain.Episode{}, err
	}
	episode, err := s.ensureOpenLocked(ctx, caseID, meta)
	if err != nil {
		return domain.Episode{}, err
	}
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return domain.Episode{}, err
	}
	if err := s.setCaseStatus(ctx, &c, domain.CaseStatusInProgress, actorID); err != nil {
		return domain.Episode{}, err
	}
	return episode, nil
}

// RecordMessage persists an inbound or outbound conversation message, creating
// the case on first customer contact and stamping the current episode.
func (s *Service) RecordMessage(ctx context.Context, in InboundMessage) (domain.Message, error) {
	c, err := s.resolveCase(ctx, in)
	if err != nil {
		return domain.Message{}, err
	}
	episode, err := s.EnsureOpenEpisode(ctx, c.CaseID, nil)
	if err != nil {
		return domain.Message{}, err
	}
	if in.Sender == domain.SenderAgent && in.SenderID != "" && c.AssignedTo == domain.BotHandler {
		c.AssignedTo = in.SenderID
		if err := s.setCaseStatus(ctx, &c, domain.CaseStatusInProgress, in.SenderID); err != nil {
			return domain.Message{}, err
		}
	}
	sentAt := in.SentAt
	if sentAt.IsZero() {
		sentAt = s.nowFn()
	}
	kind := in.Kind
	if kind == "" {
		kind = domain.MessageKindText
	}
	msg := domain.Message{
		MessageID: uuid.New(),
		CaseID:    c.CaseID,
		EpisodeID: &episode.EpisodeID,
		Sender:    in.Sender,
		SenderID:  in.SenderID,
		SentAt:    sentAt,
		Text:      in.Text,
		Kind:      kind,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (s *Service) resolveCase(ctx context.Context, in InboundMessage) (domain.Case, error) {
	if in.CaseID != nil {
		return s.cases.Get(ctx, *in.CaseID)
	}
	ref := strings.TrimSpace(in.CustomerRef)
	if ref == "" {
		return domain.Case{}, fmt.Errorf("%w: message requires case id or customer ref", domain.ErrInvalidInput)
	}
	c, err := s.cases.GetByCustomerRef(ctx, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Case{}, err
	}
	now := s.nowFn()
	c = domain.Case{
		CaseID:      uuid.New(),
		CustomerRef: ref,
		Status:      domain.CaseStatusInitiated,
		AssignedTo:  domain.BotHandler,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return domain.Case{}, err
	}
	return c, nil
}

// setCaseStatus updates the case and appends the audit record in one place so
// every transition is observable.
func (s *Service) setCaseStatus(ctx context.Context, c *domain.Case, next domain.CaseStatus, actorID string) error {
	if c.Status == next {
		c.UpdatedAt = s.nowFn()
		return s.cases.Update(ctx, *c)
	}
	now := s.nowFn()
	event := domain.StatusEvent{
		StatusEventID: uuid.New(),
		CaseID:        c.CaseID,
		FromStatus:    c.Status,
		ToStatus:      next,
		ActorID:       actorID,
		OccurredAt:    now,
	}
	c.Status = next
	c.UpdatedAt = now
	if err := s.cases.Update(ctx, *c); err != nil {
		return err
	}
	return s.statusEvents.Append(ctx, event)
}
