package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemService interface {
	Create(ctx context.Context, actor Actor, req dto.ItemRequest) (*dto.ItemResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error)
	List(ctx context.Context) ([]dto.ItemResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.ItemRequest) (*dto.ItemResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type itemService struct {
	tx        repository.Transactor
	repo      repository.ItemRepository
	stockLogs repository.StockLogRepository
	audit     AuditService
	retry     LockRetry
}

func NewItemService(
	tx repository.Transactor,
	repo repository.ItemRepository,
	stockLogs repository.StockLogRepository,
	audit AuditService,
	retry LockRetry,
) ItemService {
	return &itemService{tx: tx, repo: repo, stockLogs: stockLogs, audit: audit, retry: retry}
}

var errDuplicateItem = apierror.Conflict("An item with this code already exists.")

const reasonManualEdit = "Manual quantity edit"

// Inventory edits share the books_issued action so the dashboard feed groups
// them with issuance.
func (s *itemService) Create(ctx context.Context, actor Actor, req dto.ItemRequest) (*dto.ItemResponse, error) {
	item := &model.Item{
		ItemCode: strings.ToUpper(strings.TrimSpace(req.ItemCode)),
		Name:     strings.TrimSpace(req.Name),
		Quantity: req.Quantity,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errDuplicateItem
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, ActionBooksIssued,
		fmt.Sprintf("Added inventory item: %s - %s (Qty: %d)", item.ItemCode, item.Name, item.Quantity), nil)
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *itemService) find(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Item not found.")
		}
		return nil, err
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *itemService) List(ctx context.Context) ([]dto.ItemResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemResponse, len(items))
	for i := range items {
		out[i] = itemToResponse(&items[i])
	}
	return out, nil
}

// Update edits an item under its row lock. A quantity change is written to
// the stock log like any other stock movement.
func (s *itemService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.ItemRequest) (*dto.ItemResponse, error) {
	var item *model.Item
	err := withLockRetry(ctx, s.retry, "item_update", func() error {
		return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
			locked, err := s.repo.FindByIDForUpdateTx(tx, id)
			if err != nil {
				if repository.IsNotFound(err) {
					return notFound("Item not found.")
				}
				return err
			}
			prev := locked.Quantity
			locked.ItemCode = strings.ToUpper(strings.TrimSpace(req.ItemCode))
			locked.Name = strings.TrimSpace(req.Name)
			locked.Quantity = req.Quantity
			if err := s.repo.UpdateTx(tx, locked); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errDuplicateItem
				}
				return err
			}
			if locked.Quantity != prev {
				if err := s.stockLogs.CreateTx(tx, &model.StockLogEntry{
					ItemID:           locked.ID,
					Change:           locked.Quantity - prev,
					Reason:           reasonManualEdit,
					PreviousQuantity: prev,
					NewQuantity:      locked.Quantity,
					CreatedByID:      actor.ref(),
				}); err != nil {
					return err
				}
			}
			item = locked
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, ActionBooksIssued,
		fmt.Sprintf("Updated inventory: %s - %s (Qty: %d)", item.ItemCode, item.Name, item.Quantity), nil)
	resp := itemToResponse(item)
	return &resp, nil
}

func (s *itemService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, ActionBooksIssued,
		fmt.Sprintf("Deleted inventory item: %s - %s", item.ItemCode, item.Name), nil)
	return nil
}

func itemToResponse(i *model.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:        i.ID.String(),
		ItemCode:  i.ItemCode,
		Name:      i.Name,
		Quantity:  i.Quantity,
		UpdatedAt: i.UpdatedAt.Format(time.RFC3339),
	}
}
