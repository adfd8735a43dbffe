package repository

import (
	"context"

	"github.com/sushmag0wda/Aims-Inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter defines filters for listing purchase orders.
type OrderFilter struct {
	ItemID *uuid.UUID
	Status string
	Page   int
	Limit  int
}

// ReceiptFilter defines filters for listing receipts.
type ReceiptFilter struct {
	ItemID  *uuid.UUID
	OrderID *uuid.UUID
	Page    int
	Limit   int
}

type InventoryRepository interface {
	CreateOrderTx(tx *gorm.DB, o *model.InventoryOrder) error
	FindOrder(ctx context.Context, id uuid.UUID) (*model.InventoryOrder, error)
	FindOrderForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.InventoryOrder, error)
	UpdateOrderTx(tx *gorm.DB, o *model.InventoryOrder) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]model.InventoryOrder, int64, error)
	CountOpenOrders(ctx context.Context) (int64, error)

	CreateReceiptTx(tx *gorm.DB, r *model.InventoryReceipt) error
	ListReceipts(ctx context.Context, filter ReceiptFilter) ([]model.InventoryReceipt, int64, error)
	// LockReceiptsTx row-locks every receipt of an item, oldest first unless
	// newestFirst is set.
	LockReceiptsTx(tx *gorm.DB, itemID uuid.UUID, newestFirst bool) ([]model.InventoryReceipt, error)
	SetConsumedTx(tx *gorm.DB, id uuid.UUID, consumed int) error
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) CreateOrderTx(tx *gorm.DB, o *model.InventoryOrder) error {
	return tx.Omit("Item").Create(o).Error
}

func (r *inventoryRepo) FindOrder(ctx context.Context, id uuid.UUID) (*model.InventoryOrder, error) {
	var o model.InventoryOrder
	err := r.db.WithContext(ctx).Preload("Item").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *inventoryRepo) FindOrderForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.InventoryOrder, error) {
	var o model.InventoryOrder
	err := tx.Clauses(forUpdate).First(&o, "id = ?", id).Error
	return &o, err
}

func (r *inventoryRepo) UpdateOrderTx(tx *gorm.DB, o *model.InventoryOrder) error {
	return tx.Omit("Item").Save(o).Error
}

func (r *inventoryRepo) ListOrders(ctx context.Context, filter OrderFilter) ([]model.InventoryOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryOrder{})
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(filter.Page, filter.Limit)
	var orders []model.InventoryOrder
	err := q.Preload("Item").Order("ordered_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *inventoryRepo) CountOpenOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InventoryOrder{}).
		Where("status <> ?", model.OrderReceived).Count(&n).Error
	return n, err
}

func (r *inventoryRepo) CreateReceiptTx(tx *gorm.DB, rc *model.InventoryReceipt) error {
	return tx.Omit("Order", "Item").Create(rc).Error
}

func (r *inventoryRepo) ListReceipts(ctx context.Context, filter ReceiptFilter) ([]model.InventoryReceipt, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryReceipt{})
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
	var receipts []model.InventoryReceipt
	err := q.Preload("Item").Order("received_at DESC").Offset(offset).Limit(limit).Find(&receipts).Error
	return receipts, total, err
}

func (r *inventoryRepo) LockReceiptsTx(tx *gorm.DB, itemID uuid.UUID, newestFirst bool) ([]model.InventoryReceipt, error) {
	order := "received_at ASC, id ASC"
	if newestFirst {
		order = "received_at DESC, id DESC"
	}
	var receipts []model.InventoryReceipt
	err := tx.Clauses(forUpdate).Where("item_id = ?", itemID).Order(order).Find(&receipts).Error
	return receipts, err
}

func (r *inventoryRepo) SetConsumedTx(tx *gorm.DB, id uuid.UUID, consumed int) error {
	return tx.Model(&model.InventoryReceipt{}).Where("id = ?", id).Update("consumed_qty", consumed).Error
}
