package services

import (
	"github.com/shopspring/decimal"
)

// StatusChangeEvent describes one reservation lifecycle transition for the
// notification channel (email plus whatever live-update transport the
// surrounding system runs).
type StatusChangeEvent struct {
	ReservationID string
	UserEmail     string
	OldStatus     int
	NewStatus     int
	TotalPrice    decimal.Decimal
}

// Notifier delivers lifecycle events to the customer. Delivery is
// fire-and-forget: a notifier failure must never roll back the stock
// transaction already committed.
type Notifier interface {
	NotifyStatusChange(event StatusChangeEvent) error
}
