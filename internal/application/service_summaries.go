package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
)

// HandleDailyAgentSummaries computes the per-agent message summary for the
// business day containing day and upserts it keyed on (agent, business day).
// Re-running for the same day with unchanged messages is a no-op rewrite, so
// the scheduled job tolerates crashes and retries. Per-agent failures are
// collected; one agent's failure never blocks the rest.
func (s *Service) HandleDailyAgentSummaries(ctx context.Context, day time.Time) error {
	from := domain.BusinessDayStart(day)
	to := domain.BusinessDayEnd(day)
	businessDay := domain.BusinessDayDate(day)
	var failures []error
	for _, agentID := range s.cfg.TrackedAgentIDs {
		if err := s.summarizeAgentDay(ctx, agentID, businessDay, from, to); err != nil {
			failures = append(failures, fmt.Errorf("agent %s: %w", agentID, err))
			s.logger.ErrorContext(ctx, "daily summary failed",
				"module", "application.summaries",
				"operation", "summarize_agent_day",
				"outcome", "failure",
				"agent_id", agentID,
				"business_day", businessDay,
				"error", err,
			)
		}
	}
	return errors.Join(failures...)
}

func (s *Service) summarizeAgentDay(ctx context.Context, agentID, businessDay string, from, to time.Time) error {
	msgs, err := s.messages.Query(ctx, ports.MessageFilter{
		Senders:  []domain.SenderType{domain.SenderAgent},
		SenderID: agentID,
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })
	first, last := msgs[0], msgs[len(msgs)-1]
	active := int(math.Round(last.SentAt.Sub(first.SentAt).Minutes()))
	summary := domain.DailyAgentSummary{
		SummaryID:           uuid.New(),
		AgentID:             agentID,
		BusinessDay:         businessDay,
		FirstMessageID:      first.MessageID,
		LastMessageID:       last.MessageID,
		FirstMessageAt:      first.SentAt,
		LastMessageAt:       last.SentAt,
		MessageCount:        len(msgs),
		ActiveMinutes:       active,
		FirstMessagePreview: truncate(first.Text, s.cfg.PreviewLength),
		LastMessagePreview:  truncate(last.Text, s.cfg.PreviewLength),
		UpdatedAt:           s.nowFn(),
	}
	return s.summaries.Upsert(ctx, summary)
}

// ListDailySummaries returns all agent summaries recorded for the business
// day containing day.
func (s *Service) ListDailySummaries(ctx context.Context, day time.Time) ([]domain.DailyAgentSummary, error) {
	return s.summaries.ListByDay(ctx, domain.BusinessDayDate(day))
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
