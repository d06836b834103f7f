package services

import (
	"testing"

	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildStatusChangeEmailBody(t *testing.T) {
	body := BuildStatusChangeEmailBody(StatusChangeEvent{
		ReservationID: "res-123",
		OldStatus:     models.ReservationStatusPending,
		NewStatus:     models.ReservationStatusConfirmed,
		TotalPrice:    decimal.NewFromFloat(1250),
	})

	assert.Contains(t, body, "res-123")
	assert.Contains(t, body, "pending")
	assert.Contains(t, body, "confirmed")
	assert.Contains(t, body, "₱1,250.00")
}

func TestNotifyStatusChangeSkipsEmptyEmail(t *testing.T) {
	mailer := NewMailer(MailerConfig{})

	err := mailer.NotifyStatusChange(StatusChangeEvent{ReservationID: "res-123"})
	assert.NoError(t, err)
}
