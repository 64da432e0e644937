package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parkwise/internal/config"

	"github.com/jmoiron/sqlx"
)

const slotColumns = `id, slot_name, level, type, status`

const bookingColumns = `id, slot_id, license_plate, email, cardholder_name, card_number, card_expiry, card_cvc,
	booking_date, start_time, end_time, total_price, status, cancellation_token, created_at`

const entryColumns = `id, license_plate, entry_time, image_path, exit_time`

type SQLProvider struct {
	sqlQueries

	db     *sqlx.DB
	config *config.Storage
	logger *slog.Logger
}

func NewSQLProvider(config *config.Storage, driverName string, dataSource string) (*SQLProvider, error) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}

	logger := slog.With("component", "storage")

	return &SQLProvider{
		sqlQueries: sqlQueries{ext: db},
		db:         db,
		config:     config,
		logger:     logger,
	}, nil
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := p.db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (p *SQLProvider) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&sqlTx{sqlQueries: sqlQueries{ext: tx}}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Error("Failed to roll back transaction", "error", rbErr)
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *SQLProvider) ListSlots(ctx context.Context) ([]Slot, error) {
	slots := []Slot{}
	err := p.db.SelectContext(ctx, &slots, `SELECT `+slotColumns+` FROM parking_slots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (p *SQLProvider) CreateSlot(ctx context.Context, slot *Slot) error {
	if slot.Status == "" {
		slot.Status = SlotStatusAvailable
	}
	res, err := p.db.NamedExecContext(ctx,
		`INSERT INTO parking_slots (slot_name, level, type, status) VALUES (:slot_name, :level, :type, :status)`, slot)
	if err != nil {
		return fmt.Errorf("failed to create slot %q: %w", slot.SlotName, err)
	}
	slot.ID, err = res.LastInsertId()
	return err
}

// UpsertSlot creates the slot or updates level and type of an existing slot
// with the same name. Status of an existing slot is left alone.
func (p *SQLProvider) UpsertSlot(ctx context.Context, slot *Slot) error {
	if slot.Status == "" {
		slot.Status = SlotStatusAvailable
	}
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO parking_slots (slot_name, level, type, status) VALUES (:slot_name, :level, :type, :status)
		ON CONFLICT (slot_name) DO UPDATE SET level = excluded.level, type = excluded.type`, slot)
	if err != nil {
		return fmt.Errorf("failed to upsert slot %q: %w", slot.SlotName, err)
	}
	return p.db.GetContext(ctx, slot, `SELECT `+slotColumns+` FROM parking_slots WHERE slot_name = ?`, slot.SlotName)
}

func (p *SQLProvider) ListBookings(ctx context.Context) ([]Booking, error) {
	bookings := []Booking{}
	err := p.db.SelectContext(ctx, &bookings, `SELECT `+bookingColumns+` FROM bookings ORDER BY booking_date DESC, start_time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (p *SQLProvider) FindConfirmedBookings(ctx context.Context, licensePlate string, bookingDate string) ([]Booking, error) {
	bookings := []Booking{}
	err := p.db.SelectContext(ctx, &bookings, `SELECT `+bookingColumns+` FROM bookings
		WHERE UPPER(license_plate) = ? AND booking_date = ? AND status = ?
		ORDER BY start_time`,
		strings.ToUpper(licensePlate), bookingDate, BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings for %s: %w", licensePlate, err)
	}
	return bookings, nil
}

func (p *SQLProvider) CreateParkingEntry(ctx context.Context, entry *ParkingEntry) error {
	res, err := p.db.NamedExecContext(ctx, `
		INSERT INTO parking_entries (license_plate, entry_time, image_path, exit_time)
		VALUES (:license_plate, :entry_time, :image_path, :exit_time)`, entry)
	if err != nil {
		return fmt.Errorf("failed to create parking entry: %w", err)
	}
	entry.ID, err = res.LastInsertId()
	return err
}

// ListParkingEntries returns the newest entries first. A limit of zero or less returns all.
func (p *SQLProvider) ListParkingEntries(ctx context.Context, limit int) ([]ParkingEntry, error) {
	entries := []ParkingEntry{}
	query := `SELECT ` + entryColumns + ` FROM parking_entries ORDER BY entry_time DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if err := p.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list parking entries: %w", err)
	}
	return entries, nil
}

func (p *SQLProvider) PruneParkingEntries(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM parking_entries WHERE entry_time < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune parking entries: %w", err)
	}
	return res.RowsAffected()
}

// ReconcileSlots recomputes every slot status from its confirmed bookings and
// returns the number of slots that changed.
func (p *SQLProvider) ReconcileSlots(ctx context.Context) (int64, error) {
	const expected = `CASE WHEN EXISTS (
		SELECT 1 FROM bookings b WHERE b.slot_id = parking_slots.id AND b.status = 'confirmed'
	) THEN 'reserved' ELSE 'available' END`

	res, err := p.db.ExecContext(ctx, `UPDATE parking_slots SET status = `+expected+` WHERE status <> `+expected)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile slots: %w", err)
	}
	return res.RowsAffected()
}

type sqlTx struct {
	sqlQueries
}

// sqlQueries runs against either the database or an open transaction.
type sqlQueries struct {
	ext sqlx.ExtContext
}

func (q sqlQueries) GetSlot(ctx context.Context, id int64) (*Slot, error) {
	var slot Slot
	err := sqlx.GetContext(ctx, q.ext, &slot, `SELECT `+slotColumns+` FROM parking_slots WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "slot", id)
	}
	return &slot, nil
}

func (q sqlQueries) UpdateSlotStatus(ctx context.Context, id int64, status SlotStatus) error {
	res, err := q.ext.ExecContext(ctx, `UPDATE parking_slots SET status = ? WHERE id = ?`, status, id)
	return affected(res, err, "slot", id)
}

func (q sqlQueries) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	err := sqlx.GetContext(ctx, q.ext, &booking, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &booking, nil
}

func (q sqlQueries) GetBookingByToken(ctx context.Context, token string) (*Booking, error) {
	var booking Booking
	err := sqlx.GetContext(ctx, q.ext, &booking, `SELECT `+bookingColumns+` FROM bookings WHERE cancellation_token = ?`, token)
	if err != nil {
		return nil, notFound(err, "booking", "token")
	}
	return &booking, nil
}

func (q sqlQueries) CreateBooking(ctx context.Context, booking *Booking) error {
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	res, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO bookings (slot_id, license_plate, email, cardholder_name, card_number, card_expiry, card_cvc,
			booking_date, start_time, end_time, total_price, status, cancellation_token, created_at)
		VALUES (:slot_id, :license_plate, :email, :cardholder_name, :card_number, :card_expiry, :card_cvc,
			:booking_date, :start_time, :end_time, :total_price, :status, :cancellation_token, :created_at)`, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID, err = res.LastInsertId()
	return err
}

func (q sqlQueries) UpdateBookingStatus(ctx context.Context, id int64, status BookingStatus) error {
	res, err := q.ext.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return affected(res, err, "booking", id)
}

func (q sqlQueries) UpdateBookingDetails(ctx context.Context, id int64, email string, licensePlate string) error {
	res, err := q.ext.ExecContext(ctx, `UPDATE bookings SET email = ?, license_plate = ? WHERE id = ?`, email, licensePlate, id)
	return affected(res, err, "booking", id)
}

func (q sqlQueries) DeleteBooking(ctx context.Context, id int64) error {
	res, err := q.ext.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return affected(res, err, "booking", id)
}

func notFound(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %v: %w", entity, id, err)
}

func affected(res sql.Result, err error, entity string, id any) error {
	if err != nil {
		return fmt.Errorf("failed to write %s %v: %w", entity, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write %s %v: %w", entity, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	return nil
}
