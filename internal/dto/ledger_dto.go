package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PlaceOrderRequest struct {
	ItemID     string          `json:"item_id"     validate:"required,uuid"`
	OrderedQty int             `json:"ordered_qty" validate:"required,gt=0"`
	Reference  string          `json:"reference"   validate:"max=120"`
	UnitCost   decimal.Decimal `json:"unit_cost"   validate:"min=0"`
}

// ReceiveRequest books a delivery against an order. UnitCost defaults to the
// order's unit cost.
type ReceiveRequest struct {
	Quantity int              `json:"quantity"`
	Note     string           `json:"note" validate:"max=255"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

// DirectReceiptRequest books a delivery that has no purchase order.
type DirectReceiptRequest struct {
	ItemID   string          `json:"item_id"   validate:"required,uuid"`
	Quantity int             `json:"quantity"  validate:"required,gt=0"`
	Note     string          `json:"note"      validate:"max=255"`
	UnitCost decimal.Decimal `json:"unit_cost" validate:"min=0"`
}

// StockMoveRequest is the body of consume and restore.
type StockMoveRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type StockLogRequest struct {
	ItemID       string `json:"item_id"       validate:"required,uuid"`
	Change       int    `json:"change"`
	Reason       string `json:"reason"        validate:"max=255"`
	PendingDelta int    `json:"pending_delta"`
	ApplyChange  *bool  `json:"apply_change"`
}

type LedgerFilter struct {
	ItemID  string `form:"item_id"`
	OrderID string `form:"order_id"`
	Status  string `form:"status"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderResponse struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id"`
	ItemCode    string          `json:"item_code,omitempty"`
	ItemName    string          `json:"item_name,omitempty"`
	OrderedQty  int             `json:"ordered_qty"`
	ReceivedQty int             `json:"received_qty"`
	PendingQty  int             `json:"pending_qty"`
	Status      string          `json:"status"`
	Reference   string          `json:"reference"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	OrderedBy   *string         `json:"ordered_by"`
	OrderedAt   string          `json:"ordered_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type ReceiptResponse struct {
	ID           string          `json:"id"`
	OrderID      *string         `json:"order_id"`
	ItemID       string          `json:"item_id"`
	ItemCode     string          `json:"item_code,omitempty"`
	Quantity     int             `json:"quantity"`
	ConsumedQty  int             `json:"consumed_qty"`
	AvailableQty int             `json:"available_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Note         string          `json:"note"`
	ReceivedBy   *string         `json:"received_by"`
	ReceivedAt   string          `json:"received_at"`
}

type ReceiveResponse struct {
	Order   OrderResponse   `json:"order"`
	Receipt ReceiptResponse `json:"receipt"`
}

type Allocation struct {
	ReceiptID string          `json:"receipt_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// ConsumeResponse reports the FIFO allocation of a successful consume.
type ConsumeResponse struct {
	ItemID      string          `json:"item_id"`
	Consumed    int             `json:"consumed"`
	Allocations []Allocation    `json:"allocations"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// RestoreResponse is returned with 200 when fully restored and 206 when Partial.
type RestoreResponse struct {
	ItemID          string       `json:"item_id"`
	RestoredAmount  int          `json:"restored_amount"`
	RequestedAmount int          `json:"requested_amount"`
	Partial         bool         `json:"partial"`
	Allocations     []Allocation `json:"allocations"`
}

type StockLogResponse struct {
	ID               string  `json:"id"`
	ItemID           string  `json:"item_id"`
	ItemCode         string  `json:"item_code,omitempty"`
	Change           int     `json:"change"`
	Reason           string  `json:"reason"`
	PreviousQuantity int     `json:"previous_quantity"`
	NewQuantity      int     `json:"new_quantity"`
	PendingDelta     int     `json:"pending_delta"`
	OrderID          *string `json:"order_id"`
	ReceiptID        *string `json:"receipt_id"`
	CreatedBy        *string `json:"created_by"`
	CreatedAt        string  `json:"created_at"`
}

type ClearStockLogsResponse struct {
	Deleted int64 `json:"deleted"`
}
