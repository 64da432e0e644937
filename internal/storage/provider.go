package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parkwise/internal/config"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Queries are the reads and writes shared by the provider and its
// transactions. Writes that match no row return ErrNotFound.
type Queries interface {
	GetSlot(ctx context.Context, id int64) (*Slot, error)
	UpdateSlotStatus(ctx context.Context, id int64, status SlotStatus) error

	GetBooking(ctx context.Context, id int64) (*Booking, error)
	GetBookingByToken(ctx context.Context, token string) (*Booking, error)
	CreateBooking(ctx context.Context, booking *Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, status BookingStatus) error
	UpdateBookingDetails(ctx context.Context, id int64, email string, licensePlate string) error
	DeleteBooking(ctx context.Context, id int64) error
}

// Tx is a unit of work. Everything done through it commits or rolls back together.
type Tx interface {
	Queries
}

type Provider interface {
	Queries

	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)

	// WithTx runs fn in a transaction. The transaction is committed when fn
	// returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Slot methods
	ListSlots(ctx context.Context) ([]Slot, error)
	CreateSlot(ctx context.Context, slot *Slot) error
	UpsertSlot(ctx context.Context, slot *Slot) error

	// Booking methods
	ListBookings(ctx context.Context) ([]Booking, error)
	FindConfirmedBookings(ctx context.Context, licensePlate string, bookingDate string) ([]Booking, error)

	// Parking entry log
	CreateParkingEntry(ctx context.Context, entry *ParkingEntry) error
	ListParkingEntries(ctx context.Context, limit int) ([]ParkingEntry, error)
	PruneParkingEntries(ctx context.Context, olderThan time.Time) (int64, error)

	// Maintenance
	ReconcileSlots(ctx context.Context) (int64, error)
}

func NewProvider(config *config.Storage) Provider {
	switch {
	case config.SQLite != nil:
		provider, err := NewSQLiteProvider(config)
		if err != nil {
			slog.Error("Failed to open database", "error", err)
			return nil
		}
		if err := provider.runMigrations(context.Background(), "sqlite3"); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			provider.Close()
			return nil
		}
		return provider

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil
}
