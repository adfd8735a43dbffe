package service

import (
	"errors"
	"fmt"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
)

// Sentinel causes carried inside *apierror.Error so callers can errors.Is them.
var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrExceedsPending     = errors.New("quantity exceeds pending")
	ErrNoStockAvailable   = errors.New("no stock available")
	ErrPartialConsumption = errors.New("partial consumption")
	ErrContention         = errors.New("lock contention")
	ErrIntegrityConflict  = errors.New("integrity conflict")
)

func notFound(format string, args ...any) error {
	return apierror.Wrap(apierror.KindNotFound, ErrNotFound, fmt.Sprintf(format, args...))
}

func insufficientStock(code string, available, requested int) error {
	return apierror.Wrap(apierror.KindBusinessRule, ErrInsufficientStock,
		fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", code, available, requested))
}
