package postgres

import (
	"context"
	"errors"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type summaryRepository struct {
	db *gorm.DB
}

// Upsert keeps the natural key (agent_id, business_day) unique; re-running a
// day's summarization overwrites the row in place.
func (r *summaryRepository) Upsert(ctx context.Context, s domain.DailyAgentSummary) error {
	rec := toSummaryModel(s)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "agent_id"}, {Name: "business_day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_message_id", "last_message_id", "first_message_at", "last_message_at",
			"message_count", "active_minutes", "first_message_preview", "last_message_preview",
			"updated_at",
		}),
	}).Create(&rec).Error
}

func (r *summaryRepository) Get(ctx context.Context, agentID, businessDay string) (domain.DailyAgentSummary, error) {
	var rec dailyAgentSummaryModel
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND business_day = ?", agentID, businessDay).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DailyAgentSummary{}, domain.ErrNotFound
		}
		return domain.DailyAgentSummary{}, err
	}
	return toDomainSummary(rec), nil
}

func (r *summaryRepository) ListByDay(ctx context.Context, businessDay string) ([]domain.DailyAgentSummary, error) {
	var recs []dailyAgentSummaryModel
	if err := r.db.WithContext(ctx).Where("business_day = ?", businessDay).Order("agent_id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DailyAgentSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainSummary(rec))
	}
	return out, nil
}

type agentRepository struct {
	db *gorm.DB
}

func (r *agentRepository) Get(ctx context.Context, agentID string) (domain.Agent, error) {
	var rec agentModel
	if err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Agent{}, domain.ErrNotFound
		}
		return domain.Agent{}, err
	}
	return toDomainAgent(rec), nil
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	var recs []agentModel
	if err := r.db.WithContext(ctx).Order("agent_id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Agent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainAgent(rec))
	}
	return out, nil
}
