package repository

import (
	"context"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"gorm.io/gorm"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, a *model.ActivityLog) error
	Recent(ctx context.Context, limit int) ([]model.ActivityLog, error)
}

type activityLogRepo struct{ db *gorm.DB }

func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, a *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *activityLogRepo) Recent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	var out []model.ActivityLog
	err := r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&out).Error
	return out, err
}
