package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/repositories"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated identity performing an operation, used to stamp
// audit entries and to gate status transitions.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsStaff() bool {
	return a.Role == models.RoleStaff
}

// ReservationLine is one requested line of a reservation create or edit.
type ReservationLine struct {
	VariantID string
	Quantity  int
}

// allowed status transitions; anything absent is invalid, and the terminal
// states (completed, cancelled, failed) have no outgoing edges at all.
var allowedTransitions = map[int][]int{
	models.ReservationStatusPending: {
		models.ReservationStatusConfirmed,
		models.ReservationStatusCancelled,
		models.ReservationStatusFailed,
	},
	models.ReservationStatusConfirmed: {
		models.ReservationStatusCompleted,
		models.ReservationStatusCancelled,
	},
}

func transitionAllowed(from, to int) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type ReservationService struct {
	reservationRepo repositories.ReservationRepository
	variantRepo     repositories.VariantRepositoryImpl
	historyRepo     repositories.ReservationHistoryRepository
	resolver        *StockResolver
	validator       *LineValidator
	ledger          *StockLedger
	notifier        Notifier
}

func NewReservationService(
	reservationRepo repositories.ReservationRepository,
	variantRepo repositories.VariantRepositoryImpl,
	historyRepo repositories.ReservationHistoryRepository,
	resolver *StockResolver,
	validator *LineValidator,
	ledger *StockLedger,
	notifier Notifier,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		variantRepo:     variantRepo,
		historyRepo:     historyRepo,
		resolver:        resolver,
		validator:       validator,
		ledger:          ledger,
		notifier:        notifier,
	}
}

// CreateReservation holds stock for every line and writes the reservation in
// status pending. Holding is all-or-nothing: if any line cannot be covered,
// nothing is held and no reservation exists.
func (s *ReservationService) CreateReservation(ctx context.Context, userID string, lines []ReservationLine, reservationDate time.Time, notes string) (*models.Reservation, error) {
	if err := checkLines(lines); err != nil {
		return nil, err
	}

	byID, err := s.loadVariantsWithSources(ctx, lines)
	if err != nil {
		return nil, err
	}

	// Validate every line against the same snapshot before any write.
	for _, line := range lines {
		variant := byID[line.VariantID]
		available := s.resolver.ResolveAvailable(variant, byID)
		if line.Quantity > available {
			return nil, &InsufficientStockError{VariantID: line.VariantID, Requested: line.Quantity, Available: available}
		}
	}

	if err := s.ledger.HoldAll(ctx, toHolds(lines)); err != nil {
		return nil, err
	}

	if reservationDate.IsZero() {
		reservationDate = time.Now()
	}

	details := make([]models.ReservationDetail, 0, len(lines))
	totalPrice := decimal.Zero
	for _, line := range lines {
		variant := byID[line.VariantID]
		lineTotal := variant.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		totalPrice = totalPrice.Add(lineTotal)
		details = append(details, models.ReservationDetail{
			ProductVariantID: variant.ID,
			Quantity:         line.Quantity,
			Price:            variant.Price,
			Size:             variant.Size,
			Unit:             variant.Unit,
		})
	}

	reservation := &models.Reservation{
		UserID:          userID,
		Status:          models.ReservationStatusPending,
		ReservationDate: reservationDate,
		Notes:           notes,
		TotalPrice:      totalPrice,
		AmountPaid:      decimal.Zero,
		Details:         details,
	}

	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		if relErr := s.ledger.ReleaseAll(ctx, toHolds(lines)); relErr != nil {
			log.Printf("ERROR: ReservationService: releasing holds after failed create: %v", relErr)
		}
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.appendHistory(ctx, reservation.ID, models.ReservationUpdateTypeStatus, "", models.ReservationStatusLabel(reservation.Status), userID)

	return s.reservationRepo.GetByIDWithDetails(ctx, reservation.ID)
}

// EditReservationDetails replaces the reservation's line set in place. The
// stock swap is always expressed as release-then-hold so quantity changes and
// variant switches share one code path and one failure mode; each new line's
// ceiling credits back whatever the reservation currently holds on that
// variant.
func (s *ReservationService) EditReservationDetails(ctx context.Context, reservationID string, newLines []ReservationLine, remarks string, actor Actor) (*models.Reservation, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if err := checkLines(newLines); err != nil {
		return nil, err
	}

	reservation, err := s.reservationRepo.GetByIDWithDetails(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	if reservation.Status != models.ReservationStatusPending && reservation.Status != models.ReservationStatusConfirmed {
		return nil, ErrReservationLocked
	}

	originalHeld := make(map[string]int, len(reservation.Details))
	oldHolds := make([]LineHold, 0, len(reservation.Details))
	for _, detail := range reservation.Details {
		originalHeld[detail.ProductVariantID] += detail.Quantity
		oldHolds = append(oldHolds, LineHold{VariantID: detail.ProductVariantID, Quantity: detail.Quantity})
	}

	byID, err := s.loadVariantsWithSources(ctx, newLines)
	if err != nil {
		return nil, err
	}

	// Validate every new line before touching stock. A line that switched
	// variants gets originalHeld = 0 from the map: the reservation has no
	// prior hold on the newly chosen variant.
	for _, line := range newLines {
		variant := byID[line.VariantID]
		result := s.validator.ValidateLine(line.Quantity, variant, originalHeld[line.VariantID], byID)
		if result.Clamped {
			return nil, &InsufficientStockError{VariantID: line.VariantID, Requested: line.Quantity, Available: result.Ceiling}
		}
	}

	// Commit: return the old holds to the pool, then take the new ones. The
	// release is strict so a partial failure leaves the recorded holds intact
	// instead of stranding half of them released.
	if err := s.ledger.ReleaseAllStrict(ctx, oldHolds); err != nil {
		return nil, fmt.Errorf("failed to release current holds: %w", err)
	}
	if err := s.ledger.HoldAll(ctx, toHolds(newLines)); err != nil {
		if reholdErr := s.ledger.HoldAll(ctx, oldHolds); reholdErr != nil {
			log.Printf("ERROR: ReservationService: re-holding original lines of %s after failed edit: %v", reservationID, reholdErr)
		}
		return nil, err
	}

	details := make([]models.ReservationDetail, 0, len(newLines))
	totalPrice := decimal.Zero
	for _, line := range newLines {
		variant := byID[line.VariantID]
		lineTotal := variant.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		totalPrice = totalPrice.Add(lineTotal)
		details = append(details, models.ReservationDetail{
			ProductVariantID: variant.ID,
			Quantity:         line.Quantity,
			Price:            variant.Price,
			Size:             variant.Size,
			Unit:             variant.Unit,
		})
	}

	if err := s.reservationRepo.ReplaceDetails(ctx, reservationID, details, remarks, totalPrice); err != nil {
		if relErr := s.ledger.ReleaseAll(ctx, toHolds(newLines)); relErr != nil {
			log.Printf("ERROR: ReservationService: releasing new holds after failed detail write on %s: %v", reservationID, relErr)
		}
		if reholdErr := s.ledger.HoldAll(ctx, oldHolds); reholdErr != nil {
			log.Printf("ERROR: ReservationService: re-holding original lines of %s after failed detail write: %v", reservationID, reholdErr)
		}
		return nil, fmt.Errorf("failed to save reservation details: %w", err)
	}

	s.appendHistory(ctx, reservationID, models.ReservationUpdateTypeDetails, summarizeHolds(oldHolds), summarizeHolds(toHolds(newLines)), actor.ID)

	return s.reservationRepo.GetByIDWithDetails(ctx, reservationID)
}

// ChangeReservationStatus runs the lifecycle state machine. Cancellation and
// failure release every held line; completion records the payment and
// freezes the reservation; confirmed is a pure status change.
func (s *ReservationService) ChangeReservationStatus(ctx context.Context, reservationID string, newStatus int, actor Actor, amountPaid *decimal.Decimal) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByIDWithDetails(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}

	oldStatus := reservation.Status
	if !transitionAllowed(oldStatus, newStatus) {
		return nil, &InvalidTransitionError{From: oldStatus, To: newStatus}
	}

	if !actor.IsStaff() {
		// Customers may only cancel their own still-pending reservation.
		if newStatus != models.ReservationStatusCancelled ||
			oldStatus != models.ReservationStatusPending ||
			reservation.UserID != actor.ID {
			return nil, ErrForbidden
		}
	}

	switch newStatus {
	case models.ReservationStatusCancelled, models.ReservationStatusFailed:
		// Flip to the terminal status before touching stock: the transition
		// gate then blocks a retry, so a line released here can never be
		// released a second time.
		if err := s.reservationRepo.UpdateStatus(ctx, reservationID, newStatus); err != nil {
			return nil, fmt.Errorf("failed to update reservation status: %w", err)
		}
		holds := make([]LineHold, 0, len(reservation.Details))
		for _, detail := range reservation.Details {
			holds = append(holds, LineHold{VariantID: detail.ProductVariantID, Quantity: detail.Quantity})
		}
		if err := s.ledger.ReleaseAll(ctx, holds); err != nil {
			log.Printf("ERROR: ReservationService: releasing stock for %s reservation %s: %v; stranded lines need a manual restock", models.ReservationStatusLabel(newStatus), reservationID, err)
		}
	case models.ReservationStatusCompleted:
		if amountPaid == nil {
			return nil, ErrAmountPaidRequired
		}
		// Stock was already held at creation; completion is stock-neutral.
		if err := s.reservationRepo.UpdateStatusAndAmountPaid(ctx, reservationID, newStatus, *amountPaid); err != nil {
			return nil, fmt.Errorf("failed to complete reservation: %w", err)
		}
	default:
		if err := s.reservationRepo.UpdateStatus(ctx, reservationID, newStatus); err != nil {
			return nil, fmt.Errorf("failed to update reservation status: %w", err)
		}
	}

	s.appendHistory(ctx, reservationID, models.ReservationUpdateTypeStatus, models.ReservationStatusLabel(oldStatus), models.ReservationStatusLabel(newStatus), actor.ID)
	if amountPaid != nil {
		s.appendHistory(ctx, reservationID, models.ReservationUpdateTypePayment, reservation.AmountPaid.String(), amountPaid.String(), actor.ID)
	}

	s.emitStatusChange(reservation, oldStatus, newStatus)

	return s.reservationRepo.GetByIDWithDetails(ctx, reservationID)
}

// ValidateLineEdit computes the clamped quantity for one proposed line of an
// in-progress edit, for interactive UIs that want to clamp and re-prompt.
func (s *ReservationService) ValidateLineEdit(ctx context.Context, reservationID, variantID string, proposed int) (LineValidation, error) {
	reservation, err := s.reservationRepo.GetByIDWithDetails(ctx, reservationID)
	if err != nil {
		return LineValidation{}, err
	}
	if reservation == nil {
		return LineValidation{}, ErrReservationNotFound
	}

	originalHeld := 0
	for _, detail := range reservation.Details {
		if detail.ProductVariantID == variantID {
			originalHeld += detail.Quantity
		}
	}

	byID, err := s.loadVariantsWithSources(ctx, []ReservationLine{{VariantID: variantID, Quantity: proposed}})
	if err != nil {
		return LineValidation{}, err
	}

	return s.validator.ValidateLine(proposed, byID[variantID], originalHeld, byID), nil
}

func (s *ReservationService) GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByIDWithDetails(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

func (s *ReservationService) GetHistory(ctx context.Context, reservationID string) ([]models.ReservationHistory, error) {
	return s.historyRepo.GetByReservationID(ctx, reservationID)
}

// loadVariantsWithSources loads every line's variant plus any conversion
// sources in one snapshot, and fails if a line references a missing variant.
func (s *ReservationService) loadVariantsWithSources(ctx context.Context, lines []ReservationLine) (map[string]*models.ProductVariant, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.VariantID)
	}

	byID, err := s.variantRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if byID[line.VariantID] == nil {
			return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, line.VariantID)
		}
	}

	sourceIDs := make([]string, 0)
	for _, variant := range byID {
		if variant.AutoConvert && variant.ConversionSourceID != nil {
			if byID[*variant.ConversionSourceID] == nil {
				sourceIDs = append(sourceIDs, *variant.ConversionSourceID)
			}
		}
	}
	if len(sourceIDs) > 0 {
		full, err := s.variantRepo.GetByIDs(ctx, append(ids, sourceIDs...))
		if err != nil {
			return nil, err
		}
		byID = full
	}

	return byID, nil
}

func (s *ReservationService) appendHistory(ctx context.Context, reservationID, updateType, oldValue, newValue, actorID string) {
	entry := &models.ReservationHistory{
		ReservationID: reservationID,
		UpdateType:    updateType,
		OldValue:      oldValue,
		NewValue:      newValue,
		ActorID:       actorID,
	}
	if err := s.historyRepo.Append(ctx, entry); err != nil {
		log.Printf("ERROR: ReservationService: failed to append audit entry for %s (%s): %v", reservationID, updateType, err)
	}
}

func (s *ReservationService) emitStatusChange(reservation *models.Reservation, oldStatus, newStatus int) {
	if s.notifier == nil {
		return
	}
	event := StatusChangeEvent{
		ReservationID: reservation.ID,
		UserEmail:     reservation.User.Email,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		TotalPrice:    reservation.TotalPrice,
	}
	go func() {
		if err := s.notifier.NotifyStatusChange(event); err != nil {
			log.Printf("ERROR: ReservationService: status notification for %s failed: %v", event.ReservationID, err)
		}
	}()
}

func checkLines(lines []ReservationLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("reservation must have at least one line")
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return fmt.Errorf("line quantity for variant %s must be at least 1", line.VariantID)
		}
		if seen[line.VariantID] {
			return ErrDuplicateVariantLine
		}
		seen[line.VariantID] = true
	}
	return nil
}

func toHolds(lines []ReservationLine) []LineHold {
	holds := make([]LineHold, 0, len(lines))
	for _, line := range lines {
		holds = append(holds, LineHold{VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return holds
}

func summarizeHolds(holds []LineHold) string {
	parts := make([]string, 0, len(holds))
	for _, h := range holds {
		parts = append(parts, fmt.Sprintf("%dx %s", h.Quantity, h.VariantID))
	}
	return strings.Join(parts, "; ")
}
