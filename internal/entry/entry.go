// Package entry decides whether a vehicle at the gate may enter.
//
// A camera frame is read for a plate, the plate is matched against today's
// confirmed bookings and, on a match, the barrier is told to open.
package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parkwise/internal/barrier"
	"parkwise/internal/plate"
	"parkwise/internal/storage"
)

var (
	ErrStoreUnavailable = errors.New("reservation store unavailable")
)

type Reason string

const (
	ReasonNoPlateDetected    Reason = "NO_PLATE_DETECTED"
	ReasonNoReservationToday Reason = "NO_RESERVATION_TODAY"
)

type Decision struct {
	Admitted bool   `json:"admitted"`
	Plate    string `json:"plate,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
	// Matching booking, set when admitted.
	BookingID int64 `json:"booking_id,omitempty"`
	// Logged parking entry, zero if logging failed or no plate was read.
	EntryID int64 `json:"entry_id,omitempty"`
}

// Store is the part of the reservation store the pipeline reads and writes.
type Store interface {
	FindConfirmedBookings(ctx context.Context, licensePlate string, bookingDate string) ([]storage.Booking, error)
	CreateParkingEntry(ctx context.Context, entry *storage.ParkingEntry) error
	ListParkingEntries(ctx context.Context, limit int) ([]storage.ParkingEntry, error)
}

type Pipeline struct {
	recognizer plate.Recognizer
	store      Store
	barrier    *barrier.Channel
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLocation sets the zone that decides which calendar day is "today".
func WithLocation(loc *time.Location) Option {
	return func(p *Pipeline) { p.location = loc }
}

func NewPipeline(recognizer plate.Recognizer, store Store, gate *barrier.Channel, opts ...Option) *Pipeline {
	p := &Pipeline{
		recognizer: recognizer,
		store:      store,
		barrier:    gate,
		location:   time.Local,
		now:        time.Now,
		logger:     slog.With("component", "entry"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Today returns the current date as YYYY-MM-DD in the pipeline's zone.
func (p *Pipeline) Today() string {
	return p.now().In(p.location).Format("2006-01-02")
}

// Check runs one camera frame through the pipeline. Invalid images return
// plate.ErrInvalidImage and store failures ErrStoreUnavailable. Every other
// outcome is a Decision.
func (p *Pipeline) Check(ctx context.Context, image []byte) (Decision, error) {
	if len(image) == 0 {
		return Decision{}, plate.ErrInvalidImage
	}

	result, err := p.recognizer.Recognize(ctx, image)
	if err != nil {
		return Decision{}, err
	}
	if !result.Found() {
		p.logger.Info("Entry denied", "reason", ReasonNoPlateDetected)
		return Decision{Reason: ReasonNoPlateDetected}, nil
	}

	now := p.now()
	today := now.In(p.location).Format("2006-01-02")
	decision := Decision{Plate: result.Plate}

	bookings, err := p.store.FindConfirmedBookings(ctx, result.Plate, today)
	if err != nil {
		p.logger.Error("Reservation lookup failed", "plate", result.Plate, "error", err)
		return Decision{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	switch {
	case len(bookings) == 0:
		decision.Reason = ReasonNoReservationToday
	case len(bookings) > 1:
		p.logger.Warn("Multiple confirmed bookings for plate", "plate", result.Plate, "date", today, "count", len(bookings))
		fallthrough
	default:
		decision.Admitted = true
		decision.BookingID = bookings[0].ID
	}

	decision.EntryID = p.logEntry(ctx, result, now)

	if decision.Admitted {
		p.barrier.SetOpen()
		p.logger.Info("Entry admitted", "plate", result.Plate, "booking_id", decision.BookingID)
	} else {
		p.logger.Info("Entry denied", "plate", result.Plate, "reason", decision.Reason)
	}
	return decision, nil
}

// logEntry records the camera event. Failures are logged and do not change the decision.
func (p *Pipeline) logEntry(ctx context.Context, result plate.Result, at time.Time) int64 {
	entry := &storage.ParkingEntry{
		LicensePlate: result.Plate,
		EntryTime:    at.UTC(),
		ImagePath:    result.ImagePath,
	}
	if err := p.store.CreateParkingEntry(ctx, entry); err != nil {
		p.logger.Warn("Failed to log parking entry", "plate", result.Plate, "error", err)
		return 0
	}
	return entry.ID
}

// History returns logged parking entries, newest first.
func (p *Pipeline) History(ctx context.Context, limit int) ([]storage.ParkingEntry, error) {
	entries, err := p.store.ListParkingEntries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return entries, nil
}
