package entry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"parkwise/internal/barrier"
	"parkwise/internal/config"
	"parkwise/internal/plate"
	"parkwise/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recognizerFunc func(ctx context.Context, image []byte) (plate.Result, error)

func (f recognizerFunc) Recognize(ctx context.Context, image []byte) (plate.Result, error) {
	return f(ctx, image)
}

func sees(plateText string) recognizerFunc {
	return func(ctx context.Context, image []byte) (plate.Result, error) {
		return plate.Result{Plate: plateText, Confidence: 0.9, ImagePath: "uploads/frame.jpg"}, nil
	}
}

type brokenStore struct {
	storage.Provider
	lookupErr error
	logErr    error
}

func (s brokenStore) FindConfirmedBookings(ctx context.Context, licensePlate string, bookingDate string) ([]storage.Booking, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.Provider.FindConfirmedBookings(ctx, licensePlate, bookingDate)
}

func (s brokenStore) CreateParkingEntry(ctx context.Context, entry *storage.ParkingEntry) error {
	if s.logErr != nil {
		return s.logErr
	}
	return s.Provider.CreateParkingEntry(ctx, entry)
}

var frame = []byte{0xff, 0xd8, 0xff}

var slotSeq int

// 2025-03-14 09:15 UTC
var fixedNow = time.Date(2025, 3, 14, 9, 15, 0, 0, time.UTC)

func newStore(t *testing.T) storage.Provider {
	t.Helper()
	store := storage.NewProvider(&config.Storage{SQLite: &config.SQLLiteStorage{Path: ":memory:"}})
	require.NotNil(t, store)
	t.Cleanup(func() { store.Close() })
	return store
}

func addBooking(t *testing.T, store storage.Provider, plateText, date string, status storage.BookingStatus) *storage.Booking {
	t.Helper()
	ctx := context.Background()
	slotSeq++
	slot := &storage.Slot{SlotName: fmt.Sprintf("S%d", slotSeq)}
	require.NoError(t, store.CreateSlot(ctx, slot))
	booking := &storage.Booking{
		SlotID:            slot.ID,
		LicensePlate:      plateText,
		Email:             "driver@example.com",
		BookingDate:       date,
		StartTime:         "08:00",
		EndTime:           "18:00",
		Status:            status,
		CancellationToken: fmt.Sprintf("token-%d", slotSeq),
	}
	require.NoError(t, store.CreateBooking(ctx, booking))
	return booking
}

func newPipeline(recognizer plate.Recognizer, store Store, gate *barrier.Channel) *Pipeline {
	return NewPipeline(recognizer, store, gate,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC))
}

func TestCheck_AdmitsReservedPlate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	booking := addBooking(t, store, "7C25025", "2025-03-14", storage.BookingStatusConfirmed)
	gate := barrier.New()

	decision, err := newPipeline(sees("7C25025"), store, gate).Check(ctx, frame)
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
	assert.Equal(t, "7C25025", decision.Plate)
	assert.Empty(t, decision.Reason)
	assert.Equal(t, booking.ID, decision.BookingID)
	assert.NotZero(t, decision.EntryID)

	assert.Equal(t, barrier.CommandOpen, gate.PollAndConsume())
	assert.Equal(t, barrier.CommandWait, gate.PollAndConsume())

	entries, err := store.ListParkingEntries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "7C25025", entries[0].LicensePlate)
	assert.Equal(t, "uploads/frame.jpg", entries[0].ImagePath)
	assert.True(t, entries[0].EntryTime.Equal(fixedNow))
}

func TestCheck_DeniesWithoutBookingToday(t *testing.T) {
	type seeded struct {
		plate  string
		date   string
		status storage.BookingStatus
	}
	tests := []struct {
		name    string
		booking *seeded
	}{
		{"no booking", nil},
		{"booking yesterday", &seeded{"7C25025", "2025-03-13", storage.BookingStatusConfirmed}},
		{"booking tomorrow", &seeded{"7C25025", "2025-03-15", storage.BookingStatusConfirmed}},
		{"cancelled", &seeded{"7C25025", "2025-03-14", storage.BookingStatusCancelled}},
		{"other plate", &seeded{"AB123CD", "2025-03-14", storage.BookingStatusConfirmed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			if b := tt.booking; b != nil {
				addBooking(t, store, b.plate, b.date, b.status)
			}
			gate := barrier.New()

			decision, err := newPipeline(sees("7C25025"), store, gate).Check(ctx, frame)
			require.NoError(t, err)
			assert.False(t, decision.Admitted)
			assert.Equal(t, ReasonNoReservationToday, decision.Reason)
			assert.Equal(t, "7C25025", decision.Plate)
			assert.Equal(t, barrier.CommandWait, gate.Peek())

			// Denied plates are logged too
			entries, err := store.ListParkingEntries(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestCheck_NoPlateDetected(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	gate := barrier.New()
	noPlate := recognizerFunc(func(ctx context.Context, image []byte) (plate.Result, error) {
		return plate.Result{}, nil
	})

	decision, err := newPipeline(noPlate, store, gate).Check(ctx, frame)
	require.NoError(t, err)
	assert.False(t, decision.Admitted)
	assert.Equal(t, ReasonNoPlateDetected, decision.Reason)
	assert.Equal(t, barrier.CommandWait, gate.Peek())

	entries, err := store.ListParkingEntries(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheck_InvalidImage(t *testing.T) {
	ctx := context.Background()
	called := false
	recognizer := recognizerFunc(func(ctx context.Context, image []byte) (plate.Result, error) {
		called = true
		return plate.Result{}, plate.ErrInvalidImage
	})
	p := newPipeline(recognizer, newStore(t), barrier.New())

	_, err := p.Check(ctx, nil)
	assert.ErrorIs(t, err, plate.ErrInvalidImage)
	assert.False(t, called)

	_, err = p.Check(ctx, []byte("garbage"))
	assert.ErrorIs(t, err, plate.ErrInvalidImage)
	assert.True(t, called)
}

func TestCheck_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store := brokenStore{Provider: newStore(t), lookupErr: errors.New("database is locked")}
	gate := barrier.New()

	_, err := newPipeline(sees("7C25025"), store, gate).Check(ctx, frame)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, barrier.CommandWait, gate.Peek())
}

func TestCheck_EntryLogFailureDoesNotBlockAdmission(t *testing.T) {
	ctx := context.Background()
	base := newStore(t)
	addBooking(t, base, "7C25025", "2025-03-14", storage.BookingStatusConfirmed)
	store := brokenStore{Provider: base, logErr: errors.New("disk full")}
	gate := barrier.New()

	decision, err := newPipeline(sees("7C25025"), store, gate).Check(ctx, frame)
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
	assert.Zero(t, decision.EntryID)
	assert.Equal(t, barrier.CommandOpen, gate.Peek())
}

func TestCheck_MultipleBookingsStillAdmit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	addBooking(t, store, "7C25025", "2025-03-14", storage.BookingStatusConfirmed)
	addBooking(t, store, "7C25025", "2025-03-14", storage.BookingStatusConfirmed)
	gate := barrier.New()

	decision, err := newPipeline(sees("7C25025"), store, gate).Check(ctx, frame)
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
}

func TestCheck_TodayFollowsLocation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	addBooking(t, store, "7C25025", "2025-03-15", storage.BookingStatusConfirmed)
	gate := barrier.New()

	lateEvening := time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)
	p := NewPipeline(sees("7C25025"), store, gate,
		WithClock(func() time.Time { return lateEvening }),
		WithLocation(time.FixedZone("UTC+2", 2*60*60)))
	assert.Equal(t, "2025-03-15", p.Today())

	decision, err := p.Check(ctx, frame)
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := newPipeline(sees("AB123CD"), store, barrier.New())

	for range 3 {
		_, err := p.Check(ctx, frame)
		require.NoError(t, err)
	}

	entries, err := p.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
