package services

import (
	"context"
	"log"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/repositories"
)

// maxCASAttempts bounds the optimistic-lock retry loop of every stock
// mutation before ConcurrentModificationError is surfaced.
const maxCASAttempts = 3

// LineHold identifies one stock hold: a variant and the quantity held on it.
type LineHold struct {
	VariantID string
	Quantity  int
}

// StockLedger is the only component that mutates ProductVariant.Quantity in
// response to reservation activity. Every mutation is a single
// compare-and-swap against the variant row, retried a bounded number of
// times, so two concurrent holds can never jointly oversell.
type StockLedger struct {
	variantRepo repositories.VariantRepositoryImpl
	resolver    *StockResolver
}

func NewStockLedger(variantRepo repositories.VariantRepositoryImpl, resolver *StockResolver) *StockLedger {
	return &StockLedger{variantRepo: variantRepo, resolver: resolver}
}

// Hold deducts qty from a variant's stock. The availability check uses the
// resolved quantity, so an auto-convert variant may cover part of the hold by
// breaking whole conversion-source units into its own stock first; quantities
// on both rows stay non-negative throughout.
func (l *StockLedger) Hold(ctx context.Context, variantID string, qty int) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		variant, byID, err := l.loadWithSource(ctx, variantID)
		if err != nil {
			return err
		}

		available := l.resolver.ResolveAvailable(variant, byID)
		if available < qty {
			return &InsufficientStockError{VariantID: variantID, Requested: qty, Available: available}
		}

		if variant.Quantity >= qty {
			ok, err := l.variantRepo.UpdateQuantityCAS(ctx, variant.ID, -qty, variant.Version)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			continue
		}

		// Own stock does not cover the hold but the resolved quantity does,
		// so the conversion source must exist in the snapshot.
		source := byID[*variant.ConversionSourceID]
		deficit := qty - variant.Quantity
		units := ceilDiv(deficit, variant.ConversionQuantity)

		ok, err := l.variantRepo.UpdateQuantityCAS(ctx, source.ID, -units, source.Version)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		credit := units*variant.ConversionQuantity - qty
		ok, err = l.variantRepo.UpdateQuantityCAS(ctx, variant.ID, credit, variant.Version)
		if err == nil && ok {
			return nil
		}
		// Put the broken source units back before retrying.
		if compErr := l.adjust(ctx, source.ID, units); compErr != nil {
			log.Printf("ERROR: StockLedger: failed to restore %d unit(s) to conversion source %s after hold retry: %v", units, source.ID, compErr)
		}
		if err != nil {
			return err
		}
	}
	return &ConcurrentModificationError{VariantID: variantID}
}

// Release returns a previously held quantity to the variant it was held on.
// The increment can never violate the non-negative guard, so it only retries
// on version races.
func (l *StockLedger) Release(ctx context.Context, variantID string, qty int) error {
	return l.adjust(ctx, variantID, qty)
}

// HoldAll applies holds for every line or none: if any hold fails, the holds
// already taken in this request are rolled back with compensating releases
// before the error is returned.
func (l *StockLedger) HoldAll(ctx context.Context, lines []LineHold) error {
	held := make([]LineHold, 0, len(lines))
	for _, line := range lines {
		if err := l.Hold(ctx, line.VariantID, line.Quantity); err != nil {
			for _, h := range held {
				if relErr := l.Release(ctx, h.VariantID, h.Quantity); relErr != nil {
					log.Printf("ERROR: StockLedger: compensating release of %d on variant %s failed: %v", h.Quantity, h.VariantID, relErr)
				}
			}
			return err
		}
		held = append(held, line)
	}
	return nil
}

// ReleaseAllStrict releases every line or none: if any release fails, the
// lines already released are re-held before the error is returned, so the
// caller's recorded holds still match what the pool was given back.
func (l *StockLedger) ReleaseAllStrict(ctx context.Context, lines []LineHold) error {
	released := make([]LineHold, 0, len(lines))
	for _, line := range lines {
		if err := l.Release(ctx, line.VariantID, line.Quantity); err != nil {
			for _, h := range released {
				if holdErr := l.Hold(ctx, h.VariantID, h.Quantity); holdErr != nil {
					log.Printf("ERROR: StockLedger: re-holding %d on variant %s after failed release: %v", h.Quantity, h.VariantID, holdErr)
				}
			}
			return err
		}
		released = append(released, line)
	}
	return nil
}

// ReleaseAll releases every line, continuing past individual failures so one
// bad row cannot strand the stock of the others.
func (l *StockLedger) ReleaseAll(ctx context.Context, lines []LineHold) error {
	var firstErr error
	for _, line := range lines {
		if err := l.Release(ctx, line.VariantID, line.Quantity); err != nil {
			log.Printf("ERROR: StockLedger: release of %d on variant %s failed: %v", line.Quantity, line.VariantID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (l *StockLedger) loadWithSource(ctx context.Context, variantID string) (*models.ProductVariant, map[string]*models.ProductVariant, error) {
	variant, err := l.variantRepo.GetByID(ctx, variantID)
	if err != nil {
		return nil, nil, err
	}
	if variant == nil {
		return nil, nil, ErrVariantNotFound
	}

	byID := map[string]*models.ProductVariant{variant.ID: variant}
	if variant.AutoConvert && variant.ConversionSourceID != nil {
		byID, err = l.variantRepo.GetByIDs(ctx, []string{variant.ID, *variant.ConversionSourceID})
		if err != nil {
			return nil, nil, err
		}
		variant = byID[variantID]
		if variant == nil {
			return nil, nil, ErrVariantNotFound
		}
	}
	return variant, byID, nil
}

func (l *StockLedger) adjust(ctx context.Context, variantID string, delta int) error {
	return casAdjustQuantity(ctx, l.variantRepo, variantID, delta)
}

// casAdjustQuantity applies a raw quantity delta with the shared bounded
// retry loop. It is used by the reservation ledger and by the supply ledger,
// which mutate stock for different reasons but under the same concurrency
// rule.
func casAdjustQuantity(ctx context.Context, repo repositories.VariantRepositoryImpl, variantID string, delta int) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		variant, err := repo.GetByID(ctx, variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		if variant.Quantity+delta < 0 {
			return &InsufficientStockError{VariantID: variantID, Requested: -delta, Available: variant.Quantity}
		}
		ok, err := repo.UpdateQuantityCAS(ctx, variantID, delta, variant.Version)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return &ConcurrentModificationError{VariantID: variantID}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
