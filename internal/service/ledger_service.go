package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService tracks purchase orders, the receipts (stock batches) they
// produce and the stock log mirroring every change to Item.Quantity.
type LedgerService interface {
	PlaceOrder(ctx context.Context, actor Actor, req dto.PlaceOrderRequest) (*dto.OrderResponse, error)
	ReceiveOrder(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.ReceiveRequest) (*dto.ReceiveResponse, error)
	RecordReceipt(ctx context.Context, actor Actor, req dto.DirectReceiptRequest) (*dto.ReceiptResponse, error)
	// Consume allocates quantity from the oldest receipts first. It is all or
	// nothing: a shortfall rolls back every allocation.
	Consume(ctx context.Context, actor Actor, req dto.StockMoveRequest) (*dto.ConsumeResponse, error)
	// Restore gives consumed quantity back to the newest receipts first. A
	// partial restore is committed and reported with Partial set.
	Restore(ctx context.Context, actor Actor, req dto.StockMoveRequest) (*dto.RestoreResponse, error)
	CreateStockLog(ctx context.Context, actor Actor, req dto.StockLogRequest) (*dto.StockLogResponse, error)

	ListOrders(ctx context.Context, filter dto.LedgerFilter) (*dto.PageResponse[dto.OrderResponse], error)
	ListReceipts(ctx context.Context, filter dto.LedgerFilter) (*dto.PageResponse[dto.ReceiptResponse], error)
	ListStockLogs(ctx context.Context, filter dto.LedgerFilter) (*dto.PageResponse[dto.StockLogResponse], error)
	ClearStockLogs(ctx context.Context, actor Actor) (*dto.ClearStockLogsResponse, error)
}

type ledgerService struct {
	tx        repository.Transactor
	items     repository.ItemRepository
	inventory repository.InventoryRepository
	stockLogs repository.StockLogRepository
	retry     LockRetry
}

func NewLedgerService(
	tx repository.Transactor,
	items repository.ItemRepository,
	inventory repository.InventoryRepository,
	stockLogs repository.StockLogRepository,
	retry LockRetry,
) LedgerService {
	return &ledgerService{tx: tx, items: items, inventory: inventory, stockLogs: stockLogs, retry: retry}
}

func (s *ledgerService) PlaceOrder(ctx context.Context, actor Actor, req dto.PlaceOrderRequest) (*dto.OrderResponse, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apierror.Validation("item_id is not a valid id.")
	}
	if req.OrderedQty <= 0 {
		return nil, apierror.Validation("Ordered quantity must be greater than zero.")
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Item not found.")
		}
		return nil, err
	}

	order := &model.InventoryOrder{
		ItemID:      item.ID,
		OrderedQty:  req.OrderedQty,
		Status:      model.OrderPending,
		Reference:   strings.TrimSpace(req.Reference),
		UnitCost:    req.UnitCost,
		OrderedByID: actor.ref(),
	}
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.inventory.CreateOrderTx(tx, order); err != nil {
			return err
		}
		ref := order.Reference
		if ref == "" {
			ref = "no ref"
		}
		return s.stockLogs.CreateTx(tx, &model.StockLogEntry{
			ItemID:           item.ID,
			Change:           0,
			Reason:           fmt.Sprintf("Order placed (%s)", ref),
			PreviousQuantity: item.Quantity,
			NewQuantity:      item.Quantity,
			PendingDelta:     order.PendingQty(),
			OrderID:          &order.ID,
			CreatedByID:      actor.ref(),
		})
	})
	if err != nil {
		return nil, err
	}
	order.Item = item
	resp := orderToResponse(order)
	return &resp, nil
}

func (s *ledgerService) ReceiveOrder(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.ReceiveRequest) (*dto.ReceiveResponse, error) {
	if req.Quantity <= 0 {
		return nil, apierror.Validation("Quantity must be greater than zero.")
	}

	var (
		order   *model.InventoryOrder
		receipt *model.InventoryReceipt
	)
	err := withLockRetry(ctx, s.retry, "receive_order", func() error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			var err error
			order, err = s.inventory.FindOrderForUpdateTx(tx, orderID)
			if err != nil {
				if repository.IsNotFound(err) {
					return notFound("Order not found.")
				}
				return err
			}
			pendingBefore := order.PendingQty()
			if req.Quantity > pendingBefore {
				return apierror.Wrap(apierror.KindBusinessRule, ErrExceedsPending, "Quantity exceeds pending amount.")
			}

			unitCost := order.UnitCost
			if req.UnitCost != nil {
				unitCost = *req.UnitCost
			}
			receipt = &model.InventoryReceipt{
				OrderID:      &order.ID,
				ItemID:       order.ItemID,
				Quantity:     req.Quantity,
				UnitCost:     unitCost,
				Note:         strings.TrimSpace(req.Note),
				ReceivedByID: actor.ref(),
				ReceivedAt:   time.Now(),
			}
			if err := s.inventory.CreateReceiptTx(tx, receipt); err != nil {
				return err
			}

			order.ReceivedQty += req.Quantity
			order.RefreshStatus()
			if err := s.inventory.UpdateOrderTx(tx, order); err != nil {
				return err
			}

			prev, next, err := s.addStockTx(tx, order.ItemID, req.Quantity)
			if err != nil {
				return err
			}
			return s.stockLogs.CreateTx(tx, &model.StockLogEntry{
				ItemID:           order.ItemID,
				Change:           req.Quantity,
				Reason:           "Received from order",
				PreviousQuantity: prev,
				NewQuantity:      next,
				PendingDelta:     order.PendingQty() - pendingBefore,
				OrderID:          &order.ID,
				ReceiptID:        &receipt.ID,
				CreatedByID:      actor.ref(),
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return &dto.ReceiveResponse{Order: orderToResponse(order), Receipt: receiptToResponse(receipt)}, nil
}

func (s *ledgerService) RecordReceipt(ctx context.Context, actor Actor, req dto.DirectReceiptRequest) (*dto.ReceiptResponse, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil || req.Quantity <= 0 {
		return nil, apierror.Validation("item_id and positive quantity are required.")
	}

	var receipt *model.InventoryReceipt
	err = withLockRetry(ctx, s.retry, "record_receipt", func() error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			prev, next, err := s.addStockTx(tx, itemID, req.Quantity)
			if err != nil {
				return err
			}
			receipt = &model.InventoryReceipt{
				ItemID:       itemID,
				Quantity:     req.Quantity,
				UnitCost:     req.UnitCost,
				Note:         strings.TrimSpace(req.Note),
				ReceivedByID: actor.ref(),
				ReceivedAt:   time.Now(),
			}
			if err := s.inventory.CreateReceiptTx(tx, receipt); err != nil {
				return err
			}
			return s.stockLogs.CreateTx(tx, &model.StockLogEntry{
				ItemID:           itemID,
				Change:           req.Quantity,
				Reason:           "Direct receipt",
				PreviousQuantity: prev,
				NewQuantity:      next,
				ReceiptID:        &receipt.ID,
				CreatedByID:      actor.ref(),
			})
		})
	})
	if err != nil {
		return nil, err
	}
	resp := receiptToResponse(receipt)
	return &resp, nil
}

// addStockTx locks the item row and adds delta to its on-hand quantity.
func (s *ledgerService) addStockTx(tx *gorm.DB, itemID uuid.UUID, delta int) (prev, next int, err error) {
	item, err := s.items.FindByIDForUpdateTx(tx, itemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, 0, notFound("Item not found.")
		}
		return 0, 0, err
	}
	prev = item.Quantity
	next = prev + delta
	if next < 0 {
		next = 0
	}
	return prev, next, s.items.UpdateQuantityTx(tx, item.ID, next)
}

func parseStockMove(req dto.StockMoveRequest) (uuid.UUID, error) {
	itemID, err := uuid.Parse(strings.TrimSpace(req.ItemID))
	if err != nil || req.Quantity <= 0 {
		return uuid.Nil, apierror.Validation("item_id and positive quantity are required.")
	}
	return itemID, nil
}

func (s *ledgerService) Consume(ctx context.Context, actor Actor, req dto.StockMoveRequest) (*dto.ConsumeResponse, error) {
	itemID, err := parseStockMove(req)
	if err != nil {
		return nil, err
	}

	var resp *dto.ConsumeResponse
	err = withLockRetry(ctx, s.retry, "consume", func() error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			receipts, err := s.inventory.LockReceiptsTx(tx, itemID, false)
			if err != nil {
				return err
			}
			resp = &dto.ConsumeResponse{ItemID: itemID.String(), Allocations: []dto.Allocation{}, TotalCost: decimal.Zero}
			remaining := req.Quantity
			for i := range receipts {
				r := &receipts[i]
				take := min(r.AvailableQty(), remaining)
				if take <= 0 {
					continue
				}
				r.ConsumedQty += take
				if err := s.inventory.SetConsumedTx(tx, r.ID, r.ConsumedQty); err != nil {
					return err
				}
				remaining -= take
				resp.Consumed += take
				resp.Allocations = append(resp.Allocations, dto.Allocation{ReceiptID: r.ID.String(), Quantity: take, UnitCost: r.UnitCost})
				resp.TotalCost = resp.TotalCost.Add(r.UnitCost.Mul(decimal.NewFromInt(int64(take))))
				if remaining == 0 {
					break
				}
			}
			switch {
			case resp.Consumed == 0:
				return apierror.Wrap(apierror.KindBusinessRule, ErrNoStockAvailable, "Not enough received stock available.")
			case remaining > 0:
				return apierror.Wrap(apierror.KindConflict, ErrPartialConsumption, "Only part of the requested stock could be consumed.")
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("item_id", itemID.String()).Int("quantity", resp.Consumed).Str("cost", resp.TotalCost.StringFixed(2)).Msg("stock consumed")
	return resp, nil
}

func (s *ledgerService) Restore(ctx context.Context, actor Actor, req dto.StockMoveRequest) (*dto.RestoreResponse, error) {
	itemID, err := parseStockMove(req)
	if err != nil {
		return nil, err
	}

	var resp *dto.RestoreResponse
	err = withLockRetry(ctx, s.retry, "restore", func() error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			receipts, err := s.inventory.LockReceiptsTx(tx, itemID, true)
			if err != nil {
				return err
			}
			resp = &dto.RestoreResponse{ItemID: itemID.String(), RequestedAmount: req.Quantity, Allocations: []dto.Allocation{}}
			remaining := req.Quantity
			for i := range receipts {
				r := &receipts[i]
				give := min(r.ConsumedQty, remaining)
				if give <= 0 {
					continue
				}
				r.ConsumedQty -= give
				if err := s.inventory.SetConsumedTx(tx, r.ID, r.ConsumedQty); err != nil {
					return err
				}
				remaining -= give
				resp.RestoredAmount += give
				resp.Allocations = append(resp.Allocations, dto.Allocation{ReceiptID: r.ID.String(), Quantity: give, UnitCost: r.UnitCost})
				if remaining == 0 {
					break
				}
			}
			if resp.RestoredAmount == 0 {
				return apierror.Wrap(apierror.KindBusinessRule, ErrNoStockAvailable, "No consumed stock available to restore.")
			}
			resp.Partial = remaining > 0
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *ledgerService) CreateStockLog(ctx context.Context, actor Actor, req dto.StockLogRequest) (*dto.StockLogResponse, error) {
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, apierror.Validation("item_id is not a valid id.")
	}
	apply := req.ApplyChange == nil || *req.ApplyChange

	var entry *model.StockLogEntry
	err = withLockRetry(ctx, s.retry, "stock_log", func() error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			item, err := s.items.FindByIDForUpdateTx(tx, itemID)
			if err != nil {
				if repository.IsNotFound(err) {
					return notFound("Item not found.")
				}
				return err
			}
			prev, next := item.Quantity, item.Quantity
			if apply {
				next = max(0, prev+req.Change)
				if err := s.items.UpdateQuantityTx(tx, item.ID, next); err != nil {
					return err
				}
			}
			entry = &model.StockLogEntry{
				ItemID:           item.ID,
				Change:           req.Change,
				Reason:           strings.TrimSpace(req.Reason),
				PreviousQuantity: prev,
				NewQuantity:      next,
				PendingDelta:     req.PendingDelta,
				CreatedByID:      actor.ref(),
			}
			return s.stockLogs.CreateTx(tx, entry)
		})
	})
	if err != nil {
		return nil, err
	}
	resp := stockLogToResponse(entry)
	return &resp, nil
}

func (s *ledgerService) ListOrders(ctx context.Context, filter dto.LedgerFilter) (*dto.PageResponse[dto.OrderResponse], error) {
	orders, total, err := s.inventory.ListOrders(ctx, repository.OrderFilter{
		ItemID: parseOptionalID(filter.ItemID),
		Status: strings.ToLower(strings.TrimSpace(filter.Status)),
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		out[i] = orderToResponse(&orders[i])
	}
	page := dto.NewPage(out, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *ledgerService) ListReceipts(ctx context.Context, filter dto.LedgerFilter) (*dto.PageResponse[dto.ReceiptResponse], error) {
	receipts, total, err := s.inventory.ListReceipts(ctx, repository.ReceiptFilter{
		ItemID:  parseOptionalID(filter.ItemID),
		OrderID: parseOptionalID(filter.OrderID),
		Page:    filter.Page,
		Limit:   filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReceiptResponse, len(receipts))
	for i := range receipts {
		out[i] = receiptToResponse(&receipts[i])
	}
	page := dto.NewPage(out, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *ledgerService) ListStockLogs(ctx context.Context, filter dto.LedgerFilter) (*dto.PageResponse[dto.StockLogResponse], error) {
	entries, total, err := s.stockLogs.List(ctx, repository.StockLogFilter{
		ItemID:  parseOptionalID(filter.ItemID),
		OrderID: parseOptionalID(filter.OrderID),
		Page:    filter.Page,
		Limit:   filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockLogResponse, len(entries))
	for i := range entries {
		out[i] = stockLogToResponse(&entries[i])
	}
	page := dto.NewPage(out, total, filter.Page, filter.Limit)
	return &page, nil
}

func (s *ledgerService) ClearStockLogs(ctx context.Context, actor Actor) (*dto.ClearStockLogsResponse, error) {
	n, err := s.stockLogs.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	log.Warn().Str("user", actor.Username).Int64("deleted", n).Msg("stock log cleared")
	return &dto.ClearStockLogsResponse{Deleted: n}, nil
}

// parseOptionalID turns an optional query parameter into a filter value; an
// unparsable id filters on uuid.Nil so nothing matches.
func parseOptionalID(raw string) *uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		id = uuid.Nil
	}
	return &id
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func orderToResponse(o *model.InventoryOrder) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:          o.ID.String(),
		ItemID:      o.ItemID.String(),
		OrderedQty:  o.OrderedQty,
		ReceivedQty: o.ReceivedQty,
		PendingQty:  o.PendingQty(),
		Status:      string(o.Status),
		Reference:   o.Reference,
		UnitCost:    o.UnitCost,
		OrderedBy:   idString(o.OrderedByID),
		OrderedAt:   o.OrderedAt.Format(time.RFC3339),
		UpdatedAt:   o.UpdatedAt.Format(time.RFC3339),
	}
	if o.Item != nil {
		resp.ItemCode = o.Item.ItemCode
		resp.ItemName = o.Item.Name
	}
	return resp
}

func receiptToResponse(r *model.InventoryReceipt) dto.ReceiptResponse {
	resp := dto.ReceiptResponse{
		ID:           r.ID.String(),
		OrderID:      idString(r.OrderID),
		ItemID:       r.ItemID.String(),
		Quantity:     r.Quantity,
		ConsumedQty:  r.ConsumedQty,
		AvailableQty: r.AvailableQty(),
		UnitCost:     r.UnitCost,
		Note:         r.Note,
		ReceivedBy:   idString(r.ReceivedByID),
		ReceivedAt:   r.ReceivedAt.Format(time.RFC3339),
	}
	if r.Item != nil {
		resp.ItemCode = r.Item.ItemCode
	}
	return resp
}

func stockLogToResponse(e *model.StockLogEntry) dto.StockLogResponse {
	resp := dto.StockLogResponse{
		ID:               e.ID.String(),
		ItemID:           e.ItemID.String(),
		Change:           e.Change,
		Reason:           e.Reason,
		PreviousQuantity: e.PreviousQuantity,
		NewQuantity:      e.NewQuantity,
		PendingDelta:     e.PendingDelta,
		OrderID:          idString(e.OrderID),
		ReceiptID:        idString(e.ReceiptID),
		CreatedBy:        idString(e.CreatedByID),
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
	if e.Item != nil {
		resp.ItemCode = e.Item.ItemCode
	}
	return resp
}
