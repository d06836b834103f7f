package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/shopspring/decimal"
)

// fakeVariantRepo is an in-memory VariantRepositoryImpl with the same CAS
// semantics as the SQL implementation: the swap succeeds only when the
// version matches and the resulting quantity stays non-negative.
type fakeVariantRepo struct {
	mu       sync.Mutex
	variants map[string]*models.ProductVariant

	// denyCAS forces the next n CAS attempts to lose, for retry-path tests.
	denyCAS int
	casCall int
}

func newFakeVariantRepo(variants ...*models.ProductVariant) *fakeVariantRepo {
	repo := &fakeVariantRepo{variants: make(map[string]*models.ProductVariant)}
	for _, v := range variants {
		if v.ID == "" {
			v.ID = uuid.New().String()
		}
		copied := *v
		repo.variants[v.ID] = &copied
	}
	return repo
}

func (r *fakeVariantRepo) Create(ctx context.Context, variant *models.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if variant.ID == "" {
		variant.ID = uuid.New().String()
	}
	copied := *variant
	r.variants[variant.ID] = &copied
	return nil
}

func (r *fakeVariantRepo) Update(ctx context.Context, variant *models.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *variant
	r.variants[variant.ID] = &copied
	return nil
}

func (r *fakeVariantRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.variants, id)
	return nil
}

func (r *fakeVariantRepo) GetByID(ctx context.Context, id string) (*models.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	variant, ok := r.variants[id]
	if !ok {
		return nil, nil
	}
	copied := *variant
	return &copied, nil
}

func (r *fakeVariantRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := make(map[string]*models.ProductVariant, len(ids))
	for _, id := range ids {
		if variant, ok := r.variants[id]; ok {
			copied := *variant
			byID[id] = &copied
		}
	}
	return byID, nil
}

func (r *fakeVariantRepo) GetByProductID(ctx context.Context, productID string) ([]models.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProductVariant
	for _, variant := range r.variants {
		if variant.ProductID == productID {
			out = append(out, *variant)
		}
	}
	return out, nil
}

func (r *fakeVariantRepo) UpdateQuantityCAS(ctx context.Context, id string, delta int, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.casCall++
	if r.denyCAS > 0 {
		r.denyCAS--
		return false, nil
	}
	variant, ok := r.variants[id]
	if !ok {
		return false, nil
	}
	if variant.Version != expectedVersion || variant.Quantity+delta < 0 {
		return false, nil
	}
	variant.Quantity += delta
	variant.Version++
	variant.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeVariantRepo) quantity(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variants[id].Quantity
}

// fakeReservationRepo stores reservations in memory, detail lists included.
type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]*models.Reservation

	failCreate         bool
	failReplaceDetails bool
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[string]*models.Reservation)}
}

func (r *fakeReservationRepo) Create(ctx context.Context, reservation *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return fmt.Errorf("forced create failure")
	}
	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}
	for i := range reservation.Details {
		if reservation.Details[i].ID == "" {
			reservation.Details[i].ID = uuid.New().String()
		}
		reservation.Details[i].ReservationID = reservation.ID
	}
	copied := *reservation
	copied.Details = append([]models.ReservationDetail(nil), reservation.Details...)
	r.reservations[reservation.ID] = &copied
	return nil
}

func (r *fakeReservationRepo) GetByIDWithDetails(ctx context.Context, id string) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, nil
	}
	copied := *reservation
	copied.Details = append([]models.ReservationDetail(nil), reservation.Details...)
	return &copied, nil
}

func (r *fakeReservationRepo) GetByUserID(ctx context.Context, userID string) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, reservation := range r.reservations {
		if reservation.UserID == userID {
			out = append(out, *reservation)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) GetPaginated(ctx context.Context, limit, offset int) ([]models.Reservation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, reservation := range r.reservations {
		out = append(out, *reservation)
	}
	return out, int64(len(r.reservations)), nil
}

func (r *fakeReservationRepo) UpdateStatus(ctx context.Context, id string, status int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s not found", id)
	}
	reservation.Status = status
	return nil
}

func (r *fakeReservationRepo) UpdateStatusAndAmountPaid(ctx context.Context, id string, status int, amountPaid decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s not found", id)
	}
	reservation.Status = status
	reservation.AmountPaid = amountPaid
	return nil
}

func (r *fakeReservationRepo) ReplaceDetails(ctx context.Context, reservationID string, details []models.ReservationDetail, remarks string, totalPrice decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReplaceDetails {
		return fmt.Errorf("forced replace failure")
	}
	reservation, ok := r.reservations[reservationID]
	if !ok {
		return fmt.Errorf("reservation %s not found", reservationID)
	}
	for i := range details {
		if details[i].ID == "" {
			details[i].ID = uuid.New().String()
		}
		details[i].ReservationID = reservationID
	}
	reservation.Details = append([]models.ReservationDetail(nil), details...)
	reservation.Remarks = remarks
	reservation.TotalPrice = totalPrice
	return nil
}

// fakeHistoryRepo records audit entries in append order.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []models.ReservationHistory
}

func (r *fakeHistoryRepo) Append(ctx context.Context, entry *models.ReservationHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) GetByReservationID(ctx context.Context, reservationID string) ([]models.ReservationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ReservationHistory
	for _, entry := range r.entries {
		if entry.ReservationID == reservationID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// fakeSupplyRepo mirrors the guarded updates of the SQL implementation.
type fakeSupplyRepo struct {
	mu       sync.Mutex
	records  map[string]*models.SupplyHistory
	failNext bool

	// stealPullOut makes the next guarded increment lose to a simulated
	// concurrent pull-out of this many units.
	stealPullOut int
}

func newFakeSupplyRepo() *fakeSupplyRepo {
	return &fakeSupplyRepo{records: make(map[string]*models.SupplyHistory)}
}

func (r *fakeSupplyRepo) Create(ctx context.Context, history *models.SupplyHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return fmt.Errorf("forced supply create failure")
	}
	if history.ID == "" {
		history.ID = uuid.New().String()
	}
	copied := *history
	r.records[history.ID] = &copied
	return nil
}

func (r *fakeSupplyRepo) GetByID(ctx context.Context, id string) (*models.SupplyHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	copied := *history
	return &copied, nil
}

func (r *fakeSupplyRepo) GetByVariantID(ctx context.Context, variantID string) ([]models.SupplyHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SupplyHistory
	for _, history := range r.records {
		if history.ProductVariantID == variantID {
			out = append(out, *history)
		}
	}
	return out, nil
}

func (r *fakeSupplyRepo) IncrementPulledOut(ctx context.Context, id string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history, ok := r.records[id]
	if !ok {
		return false, nil
	}
	if r.stealPullOut > 0 {
		history.PulledOutQuantity += r.stealPullOut
		r.stealPullOut = 0
		return false, nil
	}
	if history.Quantity-history.PulledOutQuantity < qty {
		return false, nil
	}
	history.PulledOutQuantity += qty
	return true, nil
}

func (r *fakeSupplyRepo) ResetPulledOut(ctx context.Context, id string, expected int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history, ok := r.records[id]
	if !ok {
		return false, nil
	}
	if history.PulledOutQuantity != expected {
		return false, nil
	}
	history.PulledOutQuantity = 0
	return true, nil
}

// recordingNotifier captures status-change events on a buffered channel so
// tests can wait for the async emit.
type recordingNotifier struct {
	events chan StatusChangeEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan StatusChangeEvent, 8)}
}

func (n *recordingNotifier) NotifyStatusChange(event StatusChangeEvent) error {
	n.events <- event
	return nil
}

func simpleVariant(id string, qty int) *models.ProductVariant {
	return &models.ProductVariant{
		ID:       id,
		Unit:     models.UnitPcs,
		Price:    decimal.NewFromInt(10),
		Quantity: qty,
	}
}

func convertVariant(id string, qty int, sourceID string, factor int) *models.ProductVariant {
	return &models.ProductVariant{
		ID:                 id,
		Unit:               models.UnitPcs,
		Price:              decimal.NewFromInt(10),
		Quantity:           qty,
		AutoConvert:        true,
		ConversionSourceID: &sourceID,
		ConversionQuantity: factor,
	}
}
