// Package booking keeps bookings and the status of the slots they hold in step.
//
// Every booking write that affects a slot runs in one transaction with the
// slot write, so a confirmed booking always has a reserved slot and a slot
// without one is available.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"parkwise/internal/storage"
)

const defaultNotifyTimeout = 30 * time.Second

type CreateRequest struct {
	SlotID         int64   `json:"slot_id" validate:"required,gt=0"`
	LicensePlate   string  `json:"license_plate" validate:"required,plate"`
	Email          string  `json:"email" validate:"required,email"`
	CardholderName string  `json:"cardholder_name"`
	CardNumber     string  `json:"card_number"`
	CardExpiry     string  `json:"card_expiry"`
	CardCVC        string  `json:"card_cvc"`
	BookingDate    string  `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime      string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime        string  `json:"end_time" validate:"required,datetime=15:04"`
	TotalPrice     float64 `json:"total_price" validate:"gte=0"`
}

type Manager struct {
	store         storage.Provider
	notifier      Notifier
	notifyTimeout time.Duration
	now           func() time.Time

	wg     sync.WaitGroup
	logger *slog.Logger
}

type Option func(*Manager)

// WithClock replaces time.Now, used for created_at.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(m *Manager) { m.notifyTimeout = d }
}

func NewManager(store storage.Provider, notifier Notifier, opts ...Option) *Manager {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	m := &Manager{
		store:         store,
		notifier:      notifier,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
		logger:        slog.With("component", "booking"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wait blocks until pending notifications are sent.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// storedPlate drops hyphens so the plate compares equal to what the
// recognizer reports for the same car.
func storedPlate(plate string) string {
	return strings.ReplaceAll(plate, "-", "")
}

func newCancellationToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CreateBooking stores a confirmed booking and reserves its slot. The
// confirmation is sent in the background once the booking is committed.
func (m *Manager) CreateBooking(ctx context.Context, req CreateRequest) (*storage.Booking, error) {
	req.LicensePlate = normalizePlate(req.LicensePlate)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	start, _ := time.Parse(TimeLayout, req.StartTime)
	end, _ := time.Parse(TimeLayout, req.EndTime)
	if !end.After(start) {
		return nil, &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}

	token, err := newCancellationToken()
	if err != nil {
		return nil, internal(err)
	}

	booking := &storage.Booking{
		SlotID:            req.SlotID,
		LicensePlate:      storedPlate(req.LicensePlate),
		Email:             req.Email,
		CardholderName:    req.CardholderName,
		CardNumber:        req.CardNumber,
		CardExpiry:        req.CardExpiry,
		CardCVC:           req.CardCVC,
		BookingDate:       req.BookingDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		TotalPrice:        req.TotalPrice,
		Status:            storage.BookingStatusConfirmed,
		CancellationToken: token,
		CreatedAt:         m.now().UTC(),
	}

	var slot *storage.Slot
	err = m.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		slot, err = tx.GetSlot(ctx, req.SlotID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSlotNotFound
		} else if err != nil {
			return internal(err)
		}
		if slot.Status == storage.SlotStatusReserved {
			return ErrSlotUnavailable
		}

		if err := tx.CreateBooking(ctx, booking); err != nil {
			return internal(err)
		}
		if err := tx.UpdateSlotStatus(ctx, slot.ID, storage.SlotStatusReserved); err != nil {
			return &SyncError{Op: "create booking", Entity: "slot", ID: slot.ID, Err: err}
		}
		slot.Status = storage.SlotStatusReserved
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Booking created", "booking_id", booking.ID, "slot_id", slot.ID, "date", booking.BookingDate)
	m.notify(ctx, Confirmation{Booking: *booking, Slot: *slot})
	return booking, nil
}

func (m *Manager) notify(ctx context.Context, confirmation Confirmation) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.notifyTimeout)
		defer cancel()

		if err := m.notifier.SendBookingConfirmation(ctx, confirmation); err != nil {
			m.logger.Error("Failed to send booking confirmation", "booking_id", confirmation.Booking.ID, "error", err)
			return
		}
		m.logger.Debug("Booking confirmation sent", "booking_id", confirmation.Booking.ID)
	}()
}

// UpdateBookingDetails changes contact details only. Status and slot are untouched.
func (m *Manager) UpdateBookingDetails(ctx context.Context, id int64, email string, licensePlate string) (*storage.Booking, error) {
	email = strings.TrimSpace(email)
	licensePlate = normalizePlate(licensePlate)

	if err := validateVar("email", email, "required,email"); err != nil {
		return nil, err
	}
	if err := validateVar("license_plate", licensePlate, "required,plate"); err != nil {
		return nil, err
	}

	err := m.store.UpdateBookingDetails(ctx, id, email, storedPlate(licensePlate))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrBookingNotFound
	} else if err != nil {
		return nil, internal(err)
	}

	booking, err := m.store.GetBooking(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	m.logger.Info("Booking details updated", "booking_id", id)
	return booking, nil
}

// ToggleBookingStatus moves a booking between confirmed and cancelled and
// updates its slot to match. Setting the current status again is a no-op.
func (m *Manager) ToggleBookingStatus(ctx context.Context, id int64, status storage.BookingStatus) (*storage.Booking, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be one of: confirmed cancelled"}
	}

	var booking *storage.Booking
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		booking, err = tx.GetBooking(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrBookingNotFound
		} else if err != nil {
			return internal(err)
		}

		if booking.Status == status {
			return nil
		}

		if status == storage.BookingStatusConfirmed {
			slot, err := tx.GetSlot(ctx, booking.SlotID)
			if errors.Is(err, storage.ErrNotFound) {
				return ErrSlotNotFound
			} else if err != nil {
				return internal(err)
			}
			if slot.Status == storage.SlotStatusReserved {
				return ErrSlotUnavailable
			}
		}

		if err := tx.UpdateBookingStatus(ctx, id, status); err != nil {
			return internal(err)
		}
		if err := tx.UpdateSlotStatus(ctx, booking.SlotID, storage.SlotStatusFor(status)); err != nil {
			return &SyncError{Op: "update booking status", Entity: "slot", ID: booking.SlotID, Err: err}
		}
		booking.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Booking status set", "booking_id", id, "status", status)
	return booking, nil
}

// DeleteBooking removes the booking and frees its slot if it was confirmed.
// Deleting a missing booking succeeds.
func (m *Manager) DeleteBooking(ctx context.Context, id int64) error {
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		booking, err := tx.GetBooking(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			m.logger.Debug("Booking already gone", "booking_id", id)
			return nil
		} else if err != nil {
			return internal(err)
		}

		if err := tx.DeleteBooking(ctx, id); err != nil {
			return internal(err)
		}
		if booking.Status == storage.BookingStatusConfirmed {
			if err := tx.UpdateSlotStatus(ctx, booking.SlotID, storage.SlotStatusAvailable); err != nil {
				return &SyncError{Op: "delete booking", Entity: "slot", ID: booking.SlotID, Err: err}
			}
		}
		m.logger.Info("Booking deleted", "booking_id", id, "status", booking.Status)
		return nil
	})
	return err
}

// CancelByToken cancels the confirmed booking holding the token. Unknown
// tokens and already cancelled bookings both report ErrBookingNotFound.
func (m *Manager) CancelByToken(ctx context.Context, token string) (*storage.Booking, error) {
	if token == "" {
		return nil, ErrBookingNotFound
	}

	var booking *storage.Booking
	err := m.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		booking, err = tx.GetBookingByToken(ctx, token)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrBookingNotFound
		} else if err != nil {
			return internal(err)
		}
		if booking.Status != storage.BookingStatusConfirmed {
			return ErrBookingNotFound
		}

		if err := tx.UpdateBookingStatus(ctx, booking.ID, storage.BookingStatusCancelled); err != nil {
			return internal(err)
		}
		if err := tx.UpdateSlotStatus(ctx, booking.SlotID, storage.SlotStatusAvailable); err != nil {
			return &SyncError{Op: "cancel booking", Entity: "slot", ID: booking.SlotID, Err: err}
		}
		booking.Status = storage.BookingStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Booking cancelled by token", "booking_id", booking.ID)
	return booking, nil
}

func (m *Manager) ListSlots(ctx context.Context) ([]storage.Slot, error) {
	slots, err := m.store.ListSlots(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return slots, nil
}

func (m *Manager) ListBookings(ctx context.Context) ([]storage.Booking, error) {
	bookings, err := m.store.ListBookings(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return bookings, nil
}

// ReconcileSlots repairs slot statuses that drifted from their bookings.
func (m *Manager) ReconcileSlots(ctx context.Context) (int64, error) {
	changed, err := m.store.ReconcileSlots(ctx)
	if err != nil {
		return 0, internal(err)
	}
	if changed > 0 {
		m.logger.Warn("Reconciled slot statuses", "changed", changed)
	}
	return changed, nil
}
