package booking

import (
	"context"

	"parkwise/internal/storage"
)

// Confirmation is everything a notifier needs to tell the driver about a new booking.
type Confirmation struct {
	Booking storage.Booking
	Slot    storage.Slot
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, confirmation Confirmation) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) SendBookingConfirmation(ctx context.Context, confirmation Confirmation) error {
	return nil
}
