package repository

import (
	"context"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockLogFilter defines filters for listing stock log entries.
type StockLogFilter struct {
	ItemID  *uuid.UUID
	OrderID *uuid.UUID
	Page    int
	Limit   int
}

type StockLogRepository interface {
	Create(ctx context.Context, e *model.StockLogEntry) error
	CreateTx(tx *gorm.DB, e *model.StockLogEntry) error
	List(ctx context.Context, filter StockLogFilter) ([]model.StockLogEntry, int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type stockLogRepo struct{ db *gorm.DB }

func NewStockLogRepository(db *gorm.DB) StockLogRepository {
	return &stockLogRepo{db: db}
}

func (r *stockLogRepo) Create(ctx context.Context, e *model.StockLogEntry) error {
	return r.db.WithContext(ctx).Omit("Item").Create(e).Error
}

func (r *stockLogRepo) CreateTx(tx *gorm.DB, e *model.StockLogEntry) error {
	return tx.Omit("Item").Create(e).Error
}

func (r *stockLogRepo) List(ctx context.Context, filter StockLogFilter) ([]model.StockLogEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockLogEntry{}).
		Preload("Item")
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.OrderID != nil {
		q = q.Where("order_id = ?", *filter.OrderID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := page(filter.Page, filter.Limit)
	var entries []model.StockLogEntry
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func (r *stockLogRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.StockLogEntry{})
	return res.RowsAffected, res.Error
}
