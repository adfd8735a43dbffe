package repository

import (
	"context"
	"strings"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemRepository interface {
	Create(ctx context.Context, i *model.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	// FindByCode matches item_code case-insensitively.
	FindByCode(ctx context.Context, code string) (*model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	SumQuantity(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)

	// Row-locked reads for stock mutations.
	FindByCodeForUpdateTx(tx *gorm.DB, code string) (*model.Item, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error)
	UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error
	// UpdateTx writes code, name and quantity of a row locked by tx.
	UpdateTx(tx *gorm.DB, i *model.Item) error
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) Create(ctx context.Context, i *model.Item) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Item{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var i model.Item
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *itemRepo) FindByCode(ctx context.Context, code string) (*model.Item, error) {
	var i model.Item
	err := r.db.WithContext(ctx).Where("UPPER(item_code) = ?", strings.ToUpper(strings.TrimSpace(code))).First(&i).Error
	return &i, err
}

func (r *itemRepo) List(ctx context.Context) ([]model.Item, error) {
	var out []model.Item
	err := r.db.WithContext(ctx).Order("item_code").Find(&out).Error
	return out, err
}

func (r *itemRepo) SumQuantity(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error
	return total, err
}

func (r *itemRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Count(&n).Error
	return n, err
}

func (r *itemRepo) FindByCodeForUpdateTx(tx *gorm.DB, code string) (*model.Item, error) {
	var i model.Item
	err := tx.Clauses(forUpdate).
		Where("UPPER(item_code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&i).Error
	return &i, err
}

func (r *itemRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var i model.Item
	err := tx.Clauses(forUpdate).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *itemRepo) UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error {
	return tx.Model(&model.Item{}).Where("id = ?", id).Update("quantity", quantity).Error
}

func (r *itemRepo) UpdateTx(tx *gorm.DB, i *model.Item) error {
	return tx.Model(i).Select("item_code", "name", "quantity").Updates(i).Error
}
