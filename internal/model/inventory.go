package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is derived from received vs ordered quantity.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPartial  OrderStatus = "partial"
	OrderReceived OrderStatus = "received"
)

// InventoryOrder is a purchase order for a single item.
type InventoryOrder struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderedQty  int             `gorm:"not null"`
	ReceivedQty int             `gorm:"not null;default:0"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'pending'"`
	Reference   string          `gorm:"type:varchar(120);not null;default:''"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	OrderedByID *uuid.UUID      `gorm:"type:uuid"`
	OrderedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time

	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// PendingQty is the quantity still expected from the supplier.
func (o *InventoryOrder) PendingQty() int {
	if p := o.OrderedQty - o.ReceivedQty; p > 0 {
		return p
	}
	return 0
}

// RefreshStatus recomputes Status from the quantities.
func (o *InventoryOrder) RefreshStatus() {
	switch {
	case o.ReceivedQty <= 0:
		o.Status = OrderPending
	case o.ReceivedQty < o.OrderedQty:
		o.Status = OrderPartial
	default:
		o.Status = OrderReceived
	}
}

// InventoryReceipt is one delivery of stock. ConsumedQty tracks how much of
// this batch has been allocated out (FIFO), independently of Item.Quantity.
type InventoryReceipt struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID      *uuid.UUID      `gorm:"type:uuid;index"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity     int             `gorm:"not null"`
	ConsumedQty  int             `gorm:"not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Note         string          `gorm:"type:varchar(255);not null;default:''"`
	ReceivedByID *uuid.UUID      `gorm:"type:uuid"`
	ReceivedAt   time.Time       `gorm:"not null;index"`

	Order *InventoryOrder `gorm:"foreignKey:OrderID;constraint:OnDelete:SET NULL"`
	Item  *Item           `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// AvailableQty is the part of the receipt not yet consumed.
func (r *InventoryReceipt) AvailableQty() int {
	if a := r.Quantity - r.ConsumedQty; a > 0 {
		return a
	}
	return 0
}

// StockLogEntry records one change to Item.Quantity.
// Change: positive = stock in, negative = stock out, 0 = annotation.
type StockLogEntry struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	Change           int        `gorm:"not null"`
	Reason           string     `gorm:"type:varchar(255);not null;default:''"`
	PreviousQuantity int        `gorm:"not null"`
	NewQuantity      int        `gorm:"not null"`
	PendingDelta     int        `gorm:"not null;default:0"`
	OrderID          *uuid.UUID `gorm:"type:uuid"`
	ReceiptID        *uuid.UUID `gorm:"type:uuid"`
	CreatedByID      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time  `gorm:"index"`

	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default pluralization.
func (StockLogEntry) TableName() string { return "stock_log_entries" }
