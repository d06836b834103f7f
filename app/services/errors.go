package services

import (
	"errors"
	"fmt"

	"github.com/jdlcruz/go-hardwarepos/app/models"
)

var (
	ErrDuplicateVariantLine = errors.New("reservation has multiple lines for the same product variant")
	ErrReservationLocked    = errors.New("reservation can no longer be edited")
	ErrForbidden            = errors.New("actor is not allowed to perform this action")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrSupplyNotFound       = errors.New("supply history not found")
	ErrConversionCycle      = errors.New("conversion source must not reference the variant itself or form a cycle")
	ErrAmountPaidRequired   = errors.New("amount paid is required to complete a reservation")
)

// InsufficientStockError carries the live ceiling so the UI can clamp and
// re-prompt instead of failing opaquely.
type InsufficientStockError struct {
	VariantID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: maximum available stock: %d, requested: %d", e.VariantID, e.Available, e.Requested)
}

type ExceedsPullableError struct {
	SupplyHistoryID string
	Requested       int
	MaxPullable     int
}

func (e *ExceedsPullableError) Error() string {
	return fmt.Sprintf("pull-out exceeds remaining pullable stock for supply record %s: maximum pullable: %d, requested: %d", e.SupplyHistoryID, e.MaxPullable, e.Requested)
}

type NothingToRedoError struct {
	SupplyHistoryID string
}

func (e *NothingToRedoError) Error() string {
	return fmt.Sprintf("nothing to redo for supply record %s: no pulled-out quantity", e.SupplyHistoryID)
}

type InvalidTransitionError struct {
	From int
	To   int
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid reservation status transition: %s -> %s", models.ReservationStatusLabel(e.From), models.ReservationStatusLabel(e.To))
}

// ConcurrentModificationError surfaces after the bounded retry budget of an
// atomic quantity update is exhausted; the caller should retry the whole
// operation.
type ConcurrentModificationError struct {
	VariantID string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("concurrent stock modification on variant %s, retries exhausted", e.VariantID)
}
