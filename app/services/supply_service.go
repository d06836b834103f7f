package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/repositories"
	"github.com/shopspring/decimal"
)

// SupplyService records stock-in events and keeps their pulled-out
// bookkeeping consistent with the live variant quantity.
type SupplyService struct {
	supplyRepo  repositories.SupplyHistoryRepository
	variantRepo repositories.VariantRepositoryImpl
}

func NewSupplyService(supplyRepo repositories.SupplyHistoryRepository, variantRepo repositories.VariantRepositoryImpl) *SupplyService {
	return &SupplyService{supplyRepo: supplyRepo, variantRepo: variantRepo}
}

// Restock adds quantity to a variant and records the stock-in event.
func (s *SupplyService) Restock(ctx context.Context, variantID string, quantity int, supplierPrice decimal.Decimal, notes string) (*models.SupplyHistory, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("restock quantity must be at least 1")
	}

	variant, err := s.variantRepo.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}

	if err := casAdjustQuantity(ctx, s.variantRepo, variantID, quantity); err != nil {
		return nil, err
	}

	history := &models.SupplyHistory{
		ProductVariantID: variantID,
		Quantity:         quantity,
		SupplierPrice:    supplierPrice,
		SuppliedAt:       time.Now(),
		Notes:            notes,
	}
	if err := s.supplyRepo.Create(ctx, history); err != nil {
		if compErr := casAdjustQuantity(ctx, s.variantRepo, variantID, -quantity); compErr != nil {
			log.Printf("ERROR: SupplyService: failed to revert restock of %d on variant %s: %v", quantity, variantID, compErr)
		}
		return nil, fmt.Errorf("failed to record supply history: %w", err)
	}

	return history, nil
}

// PullOut removes stock that came in through a specific supply record. The
// ceiling is whatever remains pullable on that row, further capped by the
// variant's live quantity.
func (s *SupplyService) PullOut(ctx context.Context, supplyHistoryID string, quantity int, notes string) (*models.SupplyHistory, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("pull-out quantity must be at least 1")
	}

	history, err := s.supplyRepo.GetByID(ctx, supplyHistoryID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, ErrSupplyNotFound
	}

	variant, err := s.variantRepo.GetByID(ctx, history.ProductVariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}

	maxPullable := history.Pullable()
	if variant.Quantity < maxPullable {
		maxPullable = variant.Quantity
	}
	if quantity > maxPullable {
		return nil, &ExceedsPullableError{SupplyHistoryID: supplyHistoryID, Requested: quantity, MaxPullable: maxPullable}
	}

	if err := casAdjustQuantity(ctx, s.variantRepo, history.ProductVariantID, -quantity); err != nil {
		return nil, err
	}

	ok, err := s.supplyRepo.IncrementPulledOut(ctx, supplyHistoryID, quantity)
	if err != nil || !ok {
		if compErr := casAdjustQuantity(ctx, s.variantRepo, history.ProductVariantID, quantity); compErr != nil {
			log.Printf("ERROR: SupplyService: failed to revert pull-out of %d on variant %s: %v", quantity, history.ProductVariantID, compErr)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to record pull-out: %w", err)
		}
		// A concurrent pull-out consumed the remainder between our read and
		// the guarded update; re-read so the reported ceiling is the live one.
		maxNow := history.Pullable()
		if fresh, freshErr := s.supplyRepo.GetByID(ctx, supplyHistoryID); freshErr == nil && fresh != nil {
			maxNow = fresh.Pullable()
		}
		return nil, &ExceedsPullableError{SupplyHistoryID: supplyHistoryID, Requested: quantity, MaxPullable: maxNow}
	}

	if notes != "" {
		log.Printf("DEBUG: SupplyService: pull-out of %d from supply %s: %s", quantity, supplyHistoryID, notes)
	}

	return s.supplyRepo.GetByID(ctx, supplyHistoryID)
}

// Redo undoes a prior pull-out in full, restoring the variant quantity and
// zeroing the record's pulled-out amount. A second redo without an
// intervening pull-out has nothing to restore and is rejected.
func (s *SupplyService) Redo(ctx context.Context, supplyHistoryID string) (*models.SupplyHistory, error) {
	history, err := s.supplyRepo.GetByID(ctx, supplyHistoryID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, ErrSupplyNotFound
	}
	if history.PulledOutQuantity == 0 {
		return nil, &NothingToRedoError{SupplyHistoryID: supplyHistoryID}
	}

	restored := history.PulledOutQuantity

	ok, err := s.supplyRepo.ResetPulledOut(ctx, supplyHistoryID, restored)
	if err != nil {
		return nil, fmt.Errorf("failed to reset pulled-out quantity: %w", err)
	}
	if !ok {
		// Lost a race with another redo or pull-out; nothing was changed.
		return nil, &NothingToRedoError{SupplyHistoryID: supplyHistoryID}
	}

	if err := casAdjustQuantity(ctx, s.variantRepo, history.ProductVariantID, restored); err != nil {
		if compOk, compErr := s.supplyRepo.IncrementPulledOut(ctx, supplyHistoryID, restored); compErr != nil || !compOk {
			log.Printf("ERROR: SupplyService: failed to re-mark %d pulled out on supply %s after failed redo: %v", restored, supplyHistoryID, compErr)
		}
		return nil, err
	}

	return s.supplyRepo.GetByID(ctx, supplyHistoryID)
}

func (s *SupplyService) HistoryForVariant(ctx context.Context, variantID string) ([]models.SupplyHistory, error) {
	return s.supplyRepo.GetByVariantID(ctx, variantID)
}
