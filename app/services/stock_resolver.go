package services

import (
	"context"
	"log"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/repositories"
)

// StockResolver computes the quantity of a variant that can be sold or
// reserved right now, including stock derived from a coarser-unit conversion
// source (e.g. a "pcs" variant fed by unbroken "box" stock).
type StockResolver struct {
	variantRepo repositories.VariantRepositoryImpl
}

func NewStockResolver(variantRepo repositories.VariantRepositoryImpl) *StockResolver {
	return &StockResolver{variantRepo: variantRepo}
}

// ResolveAvailable returns the sellable quantity of a variant given an
// already-loaded snapshot of variants. Conversion is one-directional and
// never recursive: the source's own quantity is used directly, not the
// source's resolved availability, so chained conversions are not
// double-applied. A dangling conversion source degrades to the variant's own
// quantity; a missing source must never break a stock check.
func (s *StockResolver) ResolveAvailable(variant *models.ProductVariant, byID map[string]*models.ProductVariant) int {
	if variant == nil {
		return 0
	}
	if !variant.AutoConvert || variant.ConversionSourceID == nil {
		return nonNegative(variant.Quantity)
	}

	source := byID[*variant.ConversionSourceID]
	if source == nil {
		log.Printf("ERROR: StockResolver: variant %s has dangling conversion source %s, falling back to own quantity", variant.ID, *variant.ConversionSourceID)
		return nonNegative(variant.Quantity)
	}

	return nonNegative(variant.Quantity + source.Quantity*variant.ConversionQuantity)
}

// ResolveAvailableQuantity is the repository-backed form of ResolveAvailable.
// The variant and its conversion source are loaded in a single query so both
// quantities come from the same read snapshot.
func (s *StockResolver) ResolveAvailableQuantity(ctx context.Context, variantID string) (int, error) {
	variant, err := s.variantRepo.GetByID(ctx, variantID)
	if err != nil {
		return 0, err
	}
	if variant == nil {
		return 0, ErrVariantNotFound
	}

	byID := map[string]*models.ProductVariant{variant.ID: variant}
	if variant.AutoConvert && variant.ConversionSourceID != nil {
		byID, err = s.variantRepo.GetByIDs(ctx, []string{variant.ID, *variant.ConversionSourceID})
		if err != nil {
			return 0, err
		}
		variant = byID[variantID]
		if variant == nil {
			return 0, ErrVariantNotFound
		}
	}

	return s.ResolveAvailable(variant, byID), nil
}

// ValidateConversionSource rejects a variant whose conversion source points
// at itself or closes a two-variant cycle (A -> B -> A). Only one level of
// indirection is supported, so deeper chains need no cycle walk.
func ValidateConversionSource(variant *models.ProductVariant, byID map[string]*models.ProductVariant) error {
	if !variant.AutoConvert || variant.ConversionSourceID == nil {
		return nil
	}
	sourceID := *variant.ConversionSourceID
	if sourceID == variant.ID {
		return ErrConversionCycle
	}
	source := byID[sourceID]
	if source != nil && source.AutoConvert && source.ConversionSourceID != nil && *source.ConversionSourceID == variant.ID {
		return ErrConversionCycle
	}
	return nil
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
