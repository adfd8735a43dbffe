package repository

import (
	"context"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, ns []model.Notification) error
	ListForRecipient(ctx context.Context, recipient uuid.UUID, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipient uuid.UUID) (int64, error)
	FindForRecipient(ctx context.Context, id, recipient uuid.UUID) (*model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkReadByType and DeleteByType match on type and, when related is
	// non-nil, on the related user. A nil recipient matches every recipient.
	MarkReadByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) (int64, error)
	DeleteByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) (int64, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) CreateBatch(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Recipient").Create(&ns).Error
}

func (r *notificationRepo) ListForRecipient(ctx context.Context, recipient uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	err := r.db.WithContext(ctx).Where("recipient_id = ?", recipient).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, recipient uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipient).Count(&n).Error
	return n, err
}

func (r *notificationRepo) FindForRecipient(ctx context.Context, id, recipient uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, recipient).First(&n).Error
	return &n, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *notificationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Notification{}, "id = ?", id).Error
}

func (r *notificationRepo) scope(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("notification_type = ?", typ)
	if recipient != nil {
		q = q.Where("recipient_id = ?", *recipient)
	}
	if related != nil {
		q = q.Where("related_user_id = ?", *related)
	}
	return q
}

func (r *notificationRepo) MarkReadByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) (int64, error) {
	res := r.scope(ctx, recipient, typ, related).Where("is_read = false").Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) DeleteByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) (int64, error) {
	res := r.scope(ctx, recipient, typ, related).Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
