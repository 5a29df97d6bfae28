package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"gorm.io/gorm"
)

type episodeRepository struct {
	db *gorm.DB
}

func (r *episodeRepository) Create(ctx context.Context, e domain.Episode) error {
	rec := toEpisodeModel(e)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *episodeRepository) Get(ctx context.Context, episodeID uuid.UUID) (domain.Episode, error) {
	var rec episodeModel
	if err := r.db.WithContext(ctx).Where("episode_id = ?", episodeID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Episode{}, domain.ErrNotFound
		}
		return domain.Episode{}, err
	}
	return toDomainEpisode(rec), nil
}

func (r *episodeRepository) Update(ctx context.Context, e domain.Episode) error {
	rec := toEpisodeModel(e)
	res := r.db.WithContext(ctx).Model(&episodeModel{}).Where("episode_id = ?", e.EpisodeID).Updates(map[string]any{
		"status":           rec.Status,
		"assigned_to":      rec.AssignedTo,
		"ended_at":         rec.EndedAt,
		"duration_minutes": rec.DurationMinutes,
		"metadata":         rec.Metadata,
		"machine_id":       rec.MachineID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *episodeRepository) ListByCase(ctx context.Context, caseID uuid.UUID, desc bool) ([]domain.Episode, error) {
	order := "sequence ASC"
	if desc {
		order = "sequence DESC"
	}
	var recs []episodeModel
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Order(order).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Episode, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainEpisode(rec))
	}
	return out, nil
}
