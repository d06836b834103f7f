package services

import (
	"context"
	"testing"
	"time"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reservationFixture struct {
	svc          *ReservationService
	variants     *fakeVariantRepo
	reservations *fakeReservationRepo
	history      *fakeHistoryRepo
	notifier     *recordingNotifier
}

func newReservationFixture(variants ...*models.ProductVariant) *reservationFixture {
	variantRepo := newFakeVariantRepo(variants...)
	reservationRepo := newFakeReservationRepo()
	historyRepo := &fakeHistoryRepo{}
	notifier := newRecordingNotifier()
	resolver := NewStockResolver(variantRepo)

	return &reservationFixture{
		svc: NewReservationService(
			reservationRepo,
			variantRepo,
			historyRepo,
			resolver,
			NewLineValidator(resolver),
			NewStockLedger(variantRepo, resolver),
			notifier,
		),
		variants:     variantRepo,
		reservations: reservationRepo,
		history:      historyRepo,
		notifier:     notifier,
	}
}

var (
	staffActor    = Actor{ID: "staff-1", Role: models.RoleStaff}
	customerActor = Actor{ID: "cust-1", Role: models.RoleCustomer}
)

func TestCreateReservationHoldsStock(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "pickup saturday")
	require.NoError(t, err)
	require.NotNil(t, reservation)

	assert.Equal(t, models.ReservationStatusPending, reservation.Status)
	assert.Equal(t, "cust-1", reservation.UserID)
	require.Len(t, reservation.Details, 1)
	assert.Equal(t, 4, reservation.Details[0].Quantity)
	assert.True(t, reservation.TotalPrice.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 6, f.variants.quantity("v1"))

	entries, err := f.svc.GetHistory(ctx, reservation.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ReservationUpdateTypeStatus, entries[0].UpdateType)
	assert.Equal(t, "pending", entries[0].NewValue)
}

func TestCreateReservationSnapshotsVariantFields(t *testing.T) {
	variant := simpleVariant("v1", 10)
	variant.Size = "2\""
	variant.Unit = models.UnitBox
	variant.Price = decimal.NewFromFloat(12.50)
	f := newReservationFixture(variant)

	reservation, err := f.svc.CreateReservation(context.Background(), "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 2}}, time.Time{}, "")
	require.NoError(t, err)

	detail := reservation.Details[0]
	assert.Equal(t, "2\"", detail.Size)
	assert.Equal(t, models.UnitBox, detail.Unit)
	assert.True(t, detail.Price.Equal(decimal.NewFromFloat(12.50)))
	assert.True(t, reservation.TotalPrice.Equal(decimal.NewFromInt(25)))
}

func TestCreateReservationRejectsDuplicateLines(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))

	_, err := f.svc.CreateReservation(context.Background(), "cust-1", []ReservationLine{
		{VariantID: "v1", Quantity: 1},
		{VariantID: "v1", Quantity: 2},
	}, time.Time{}, "")

	assert.ErrorIs(t, err, ErrDuplicateVariantLine)
	assert.Equal(t, 10, f.variants.quantity("v1"))
}

func TestCreateReservationRejectsEmptyAndZeroLines(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	_, err := f.svc.CreateReservation(ctx, "cust-1", nil, time.Time{}, "")
	assert.Error(t, err)

	_, err = f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 0}}, time.Time{}, "")
	assert.Error(t, err)
}

func TestCreateReservationInsufficientStock(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 3))

	_, err := f.svc.CreateReservation(context.Background(), "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 3, f.variants.quantity("v1"))
}

func TestCreateReservationMultiLineAllOrNothing(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10), simpleVariant("v2", 1))

	_, err := f.svc.CreateReservation(context.Background(), "cust-1", []ReservationLine{
		{VariantID: "v1", Quantity: 5},
		{VariantID: "v2", Quantity: 3},
	}, time.Time{}, "")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, f.variants.quantity("v1"), "no stock held when any line fails")
	assert.Equal(t, 1, f.variants.quantity("v2"))
}

func TestCreateReservationReleasesHoldsWhenWriteFails(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	f.reservations.failCreate = true

	_, err := f.svc.CreateReservation(context.Background(), "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")

	assert.Error(t, err)
	assert.Equal(t, 10, f.variants.quantity("v1"))
}

func TestCreateReservationDrawsFromConversionSource(t *testing.T) {
	f := newReservationFixture(
		simpleVariant("box", 2),
		convertVariant("pcs", 3, "box", 10),
	)

	reservation, err := f.svc.CreateReservation(context.Background(), "cust-1", []ReservationLine{{VariantID: "pcs", Quantity: 12}}, time.Time{}, "")
	require.NoError(t, err)
	require.NotNil(t, reservation)

	assert.Equal(t, 1, f.variants.quantity("box"))
	assert.Equal(t, 1, f.variants.quantity("pcs"))
}

func TestEditReservationIncreaseWithinCeiling(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)
	require.Equal(t, 6, f.variants.quantity("v1"))

	// Ceiling is live 6 plus the 4 already held, so 9 fits.
	updated, err := f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v1", Quantity: 9}}, "customer asked for more", staffActor)
	require.NoError(t, err)

	assert.Equal(t, 1, f.variants.quantity("v1"))
	require.Len(t, updated.Details, 1)
	assert.Equal(t, 9, updated.Details[0].Quantity)
	assert.True(t, updated.TotalPrice.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, "customer asked for more", updated.Remarks)
}

func TestEditReservationRejectsAboveCeiling(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v1", Quantity: 11}}, "", staffActor)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 6, f.variants.quantity("v1"), "failed edit leaves holds untouched")
}

func TestEditReservationSwitchesVariant(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10), simpleVariant("v2", 5))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v2", Quantity: 5}}, "", staffActor)
	require.NoError(t, err)

	assert.Equal(t, 10, f.variants.quantity("v1"), "old hold returned")
	assert.Equal(t, 0, f.variants.quantity("v2"))
}

func TestEditReservationSwitchGetsNoCreditOnNewVariant(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10), simpleVariant("v2", 5))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	// The hold on v1 does not raise the ceiling of v2.
	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v2", Quantity: 6}}, "", staffActor)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "v2", insufficient.VariantID)
	assert.Equal(t, 5, insufficient.Available)
}

func TestEditReservationStaffOnly(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v1", Quantity: 2}}, "", customerActor)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEditReservationLockedWhenTerminal(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, staffActor, nil)
	require.NoError(t, err)

	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v1", Quantity: 2}}, "", staffActor)
	assert.ErrorIs(t, err, ErrReservationLocked)
}

func TestEditReservationRestoresHoldsWhenWriteFails(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	f.reservations.failReplaceDetails = true
	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v1", Quantity: 9}}, "", staffActor)
	require.Error(t, err)

	assert.Equal(t, 6, f.variants.quantity("v1"), "stock back at pre-edit level")

	unchanged, err := f.svc.GetReservation(ctx, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, unchanged.Details[0].Quantity)
}

func TestCancelReleasesStock(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)
	require.Equal(t, 6, f.variants.quantity("v1"))

	updated, err := f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, staffActor, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusCancelled, updated.Status)
	assert.Equal(t, 10, f.variants.quantity("v1"))
}

func TestFailReleasesStock(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	updated, err := f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusFailed, staffActor, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusFailed, updated.Status)
	assert.Equal(t, 10, f.variants.quantity("v1"))
}

func TestCancelWithUnreleasableLineNeverDoubleReleases(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10), simpleVariant("v2", 5))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{
		{VariantID: "v1", Quantity: 4},
		{VariantID: "v2", Quantity: 3},
	}, time.Time{}, "")
	require.NoError(t, err)
	require.Equal(t, 6, f.variants.quantity("v1"))

	// v2 disappears before the cancel; its line cannot be released.
	require.NoError(t, f.variants.Delete(ctx, "v2"))

	updated, err := f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, staffActor, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, updated.Status)
	assert.Equal(t, 10, f.variants.quantity("v1"))

	// A retry hits the terminal gate, so the releasable line cannot come
	// back a second time.
	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, staffActor, nil)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.LessOrEqual(t, f.variants.quantity("v1"), 10, "variant must never exceed its pre-hold stock")
	assert.Equal(t, 10, f.variants.quantity("v1"))
}

func TestEditKeepsHoldsWhenReleaseFailsMidway(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10), simpleVariant("v2", 5))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{
		{VariantID: "v1", Quantity: 4},
		{VariantID: "v2", Quantity: 3},
	}, time.Time{}, "")
	require.NoError(t, err)
	require.Equal(t, 6, f.variants.quantity("v1"))

	require.NoError(t, f.variants.Delete(ctx, "v2"))

	// The v2 release fails partway through the swap; the v1 hold already
	// returned must be taken back so the stored details stay truthful.
	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v1", Quantity: 2}}, "", staffActor)
	require.Error(t, err)

	assert.Equal(t, 6, f.variants.quantity("v1"), "released line re-held after partial failure")

	unchanged, err := f.svc.GetReservation(ctx, reservation.ID)
	require.NoError(t, err)
	require.Len(t, unchanged.Details, 2)
	assert.Equal(t, 4, unchanged.Details[0].Quantity)
}

func TestCompleteRequiresAmountPaid(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusConfirmed, staffActor, nil)
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCompleted, staffActor, nil)
	assert.ErrorIs(t, err, ErrAmountPaidRequired)

	paid := decimal.NewFromInt(40)
	completed, err := f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCompleted, staffActor, &paid)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCompleted, completed.Status)
	assert.True(t, completed.AmountPaid.Equal(paid))
	assert.Equal(t, 6, f.variants.quantity("v1"), "completion is stock-neutral")
}

func TestTerminalStatusesRejectFurtherTransitions(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, staffActor, nil)
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusConfirmed, staffActor, nil)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.ReservationStatusCancelled, invalid.From)

	// Re-cancelling must not release stock a second time.
	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, staffActor, nil)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 10, f.variants.quantity("v1"))
}

func TestPendingCannotSkipToCompleted(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	paid := decimal.NewFromInt(40)
	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCompleted, staffActor, &paid)

	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestCustomerMayCancelOwnPendingOnly(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusConfirmed, customerActor, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	otherCustomer := Actor{ID: "cust-2", Role: models.RoleCustomer}
	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, otherCustomer, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, customerActor, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, updated.Status)
}

func TestCustomerCannotCancelConfirmed(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusConfirmed, staffActor, nil)
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusCancelled, customerActor, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStatusChangeEmitsNotification(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusConfirmed, staffActor, nil)
	require.NoError(t, err)

	select {
	case event := <-f.notifier.events:
		assert.Equal(t, reservation.ID, event.ReservationID)
		assert.Equal(t, models.ReservationStatusPending, event.OldStatus)
		assert.Equal(t, models.ReservationStatusConfirmed, event.NewStatus)
	case <-time.After(2 * time.Second):
		t.Fatal("no status-change notification received")
	}
}

func TestHistoryRecordsLifecycle(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	_, err = f.svc.EditReservationDetails(ctx, reservation.ID, []ReservationLine{{VariantID: "v1", Quantity: 9}}, "", staffActor)
	require.NoError(t, err)

	_, err = f.svc.ChangeReservationStatus(ctx, reservation.ID, models.ReservationStatusConfirmed, staffActor, nil)
	require.NoError(t, err)

	entries, err := f.svc.GetHistory(ctx, reservation.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.ReservationUpdateTypeStatus, entries[0].UpdateType)
	assert.Equal(t, models.ReservationUpdateTypeDetails, entries[1].UpdateType)
	assert.Equal(t, "staff-1", entries[1].ActorID)
	assert.Equal(t, models.ReservationUpdateTypeStatus, entries[2].UpdateType)
	assert.Equal(t, "pending", entries[2].OldValue)
	assert.Equal(t, "confirmed", entries[2].NewValue)
}

func TestValidateLineEditReportsCeiling(t *testing.T) {
	f := newReservationFixture(simpleVariant("v1", 10))
	ctx := context.Background()

	reservation, err := f.svc.CreateReservation(ctx, "cust-1", []ReservationLine{{VariantID: "v1", Quantity: 4}}, time.Time{}, "")
	require.NoError(t, err)

	result, err := f.svc.ValidateLineEdit(ctx, reservation.ID, "v1", 12)
	require.NoError(t, err)
	assert.True(t, result.Clamped)
	assert.Equal(t, 10, result.Ceiling)
	assert.Equal(t, 10, result.Accepted)
}

func TestGetReservationNotFound(t *testing.T) {
	f := newReservationFixture()

	_, err := f.svc.GetReservation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = f.svc.ChangeReservationStatus(context.Background(), "missing", models.ReservationStatusConfirmed, staffActor, nil)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
