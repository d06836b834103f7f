package services

import (
	"github.com/jdlcruz/go-hardwarepos/app/models"
)

// LineValidation is the outcome of validating one proposed reservation line.
// Accepted is the quantity after clamping; Ceiling is the maximum the line
// could hold at this instant, already crediting back what the reservation
// being edited currently holds on this variant.
type LineValidation struct {
	Accepted int
	Clamped  bool
	Ceiling  int
}

// LineValidator decides whether a requested quantity for one line of an
// in-progress reservation edit is acceptable against live stock. Call sites
// must delegate here instead of recomputing availability themselves.
type LineValidator struct {
	resolver *StockResolver
}

func NewLineValidator(resolver *StockResolver) *LineValidator {
	return &LineValidator{resolver: resolver}
}

// ValidateLine clamps a proposed quantity to [1, ceiling] where
// ceiling = live available + originalHeld. originalHeld is the quantity this
// reservation already holds on this exact variant (already deducted from
// live stock), so the ceiling evaluates stock as if that hold were first
// returned to the pool. When a line switches to a different variant the
// caller passes originalHeld = 0: the reservation has no prior hold there.
func (v *LineValidator) ValidateLine(proposed int, variant *models.ProductVariant, originalHeld int, byID map[string]*models.ProductVariant) LineValidation {
	ceiling := v.resolver.ResolveAvailable(variant, byID) + originalHeld

	if proposed > ceiling {
		return LineValidation{Accepted: ceiling, Clamped: true, Ceiling: ceiling}
	}
	if proposed < 1 {
		return LineValidation{Accepted: 1, Clamped: true, Ceiling: ceiling}
	}
	return LineValidation{Accepted: proposed, Clamped: false, Ceiling: ceiling}
}
