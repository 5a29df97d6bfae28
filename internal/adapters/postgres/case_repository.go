package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
	"gorm.io/gorm"
)

type caseRepository struct {
	db *gorm.DB
}

func (r *caseRepository) Create(ctx context.Context, c domain.Case) error {
	rec := toCaseModel(c)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *caseRepository) Get(ctx context.Context, caseID uuid.UUID) (domain.Case, error) {
	var rec caseModel
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Case{}, domain.ErrNotFound
		}
		return domain.Case{}, err
	}
	return toDomainCase(rec), nil
}

func (r *caseRepository) GetByCustomerRef(ctx context.Context, customerRef string) (domain.Case, error) {
	var rec caseModel
	if err := r.db.WithContext(ctx).Where("customer_ref = ?", strings.TrimSpace(customerRef)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Case{}, domain.ErrNotFound
		}
		return domain.Case{}, err
	}
	return toDomainCase(rec), nil
}

func (r *caseRepository) Update(ctx context.Context, c domain.Case) error {
	rec := toCaseModel(c)
	res := r.db.WithContext(ctx).Model(&caseModel{}).Where("case_id = ?", c.CaseID).Updates(map[string]any{
		"customer_ref":       rec.CustomerRef,
		"status":             rec.Status,
		"assigned_to":        rec.AssignedTo,
		"current_episode_id": rec.CurrentEpisodeID,
		"first_opened_at":    rec.FirstOpenedAt,
		"last_closed_at":     rec.LastClosedAt,
		"timer_deadline":     rec.TimerDeadline,
		"updated_at":         rec.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetCurrentEpisode is the compare-and-swap the lifecycle manager depends on:
// the pointer only moves when its stored value still equals expect.
func (r *caseRepository) SetCurrentEpisode(ctx context.Context, caseID uuid.UUID, expect, next *uuid.UUID) error {
	tx := r.db.WithContext(ctx).Model(&caseModel{}).Where("case_id = ?", caseID)
	if expect == nil {
		tx = tx.Where("current_episode_id IS NULL")
	} else {
		tx = tx.Where("current_episode_id = ?", *expect)
	}
	res := tx.Update("current_episode_id", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, caseID); err != nil {
			return err
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *caseRepository) Query(ctx context.Context, filter ports.CaseFilter) ([]domain.Case, error) {
	tx := r.db.WithContext(ctx).Model(&caseModel{})
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		tx = tx.Where("status IN ?", statuses)
	}
	if filter.OpenedFrom != nil {
		tx = tx.Where("first_opened_at >= ?", *filter.OpenedFrom)
	}
	if filter.OpenedTo != nil {
		tx = tx.Where("first_opened_at < ?", *filter.OpenedTo)
	}
	var recs []caseModel
	if err := tx.Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Case, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainCase(rec))
	}
	return out, nil
}
