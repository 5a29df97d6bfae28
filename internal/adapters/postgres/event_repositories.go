package postgres

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func (r *messageRepository) Create(ctx context.Context, m domain.Message) error {
	rec := toMessageModel(m)
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *messageRepository) Query(ctx context.Context, filter ports.MessageFilter) ([]domain.Message, error) {
	tx := r.db.WithContext(ctx).Model(&messageModel{})
	if filter.CaseID != nil {
		tx = tx.Where("case_id = ?", *filter.CaseID)
	}
	if len(filter.Senders) > 0 {
		senders := make([]string, 0, len(filter.Senders))
		for _, s := range filter.Senders {
			senders = append(senders, string(s))
		}
		tx = tx.Where("sender IN ?", senders)
	}
	if filter.SenderID != "" {
		tx = tx.Where("sender_id = ?", filter.SenderID)
	}
	if filter.From != nil {
		tx = tx.Where("sent_at >= ?", *filter.From)
	}
	if filter.To != nil {
		tx = tx.Where("sent_at < ?", *filter.To)
	}
	var recs []messageModel
	if err := tx.Order("sent_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainMessage(rec))
	}
	return out, nil
}

type issueEventRepository struct {
	db *gorm.DB
}

func (r *issueEventRepository) Create(ctx context.Context, e domain.IssueEvent) error {
	rec := toIssueEventModel(e)
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *issueEventRepository) Query(ctx context.Context, filter ports.IssueEventFilter) ([]domain.IssueEvent, error) {
	tx := r.db.WithContext(ctx).Model(&issueEventModel{})
	timeColumn := "opened_at"
	if filter.TimeField == ports.TimeFieldUpdated {
		timeColumn = "updated_at"
	}
	if filter.From != nil {
		tx = tx.Where(timeColumn+" >= ?", *filter.From)
	}
	if filter.To != nil {
		tx = tx.Where(timeColumn+" < ?", *filter.To)
	}
	if filter.CaseID != nil {
		tx = tx.Where("case_id = ?", *filter.CaseID)
	}
	if filter.AgentID != nil {
		tx = tx.Where("agent_id = ?", *filter.AgentID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		tx = tx.Where("issue_type IN ?", types)
	}
	if len(filter.RefundModes) > 0 {
		modes := make([]string, 0, len(filter.RefundModes))
		for _, m := range filter.RefundModes {
			modes = append(modes, string(m))
		}
		tx = tx.Where("refund_mode IN ?", modes)
	}
	if filter.OnlyActive {
		tx = tx.Where("is_active = TRUE")
	}
	var recs []issueEventModel
	if err := tx.Order("opened_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.IssueEvent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainIssueEvent(rec))
	}
	return out, nil
}

type statusEventRepository struct {
	db *gorm.DB
}

func (r *statusEventRepository) Append(ctx context.Context, e domain.StatusEvent) error {
	rec := toStatusEventModel(e)
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *statusEventRepository) Query(ctx context.Context, filter ports.StatusEventFilter) ([]domain.StatusEvent, error) {
	tx := r.db.WithContext(ctx).Model(&statusEventModel{})
	if filter.CaseID != nil {
		tx = tx.Where("case_id = ?", *filter.CaseID)
	}
	if filter.ToStatus != nil {
		tx = tx.Where("to_status = ?", string(*filter.ToStatus))
	}
	if filter.From != nil {
		tx = tx.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		tx = tx.Where("occurred_at < ?", *filter.To)
	}
	var recs []statusEventModel
	if err := tx.Order("occurred_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.StatusEvent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainStatusEvent(rec))
	}
	return out, nil
}
