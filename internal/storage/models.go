package storage

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusReserved  SlotStatus = "reserved"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

// SlotStatusFor returns the slot status implied by a booking holding it.
func SlotStatusFor(s BookingStatus) SlotStatus {
	if s == BookingStatusConfirmed {
		return SlotStatusReserved
	}
	return SlotStatusAvailable
}

type Slot struct {
	ID       int64      `db:"id" json:"id"`
	SlotName string     `db:"slot_name" json:"slot_name" yaml:"slot_name"`
	Level    string     `db:"level" json:"level" yaml:"level"`
	Type     string     `db:"type" json:"type" yaml:"type"`
	Status   SlotStatus `db:"status" json:"status" yaml:"status,omitempty"`
}

type Booking struct {
	ID             int64  `db:"id" json:"id"`
	SlotID         int64  `db:"slot_id" json:"slot_id"`
	LicensePlate   string `db:"license_plate" json:"license_plate"`
	Email          string `db:"email" json:"email"`
	CardholderName string `db:"cardholder_name" json:"cardholder_name"`
	// Card data is stored as given and never serialized.
	CardNumber string `db:"card_number" json:"-"`
	CardExpiry string `db:"card_expiry" json:"-"`
	CardCVC    string `db:"card_cvc" json:"-"`

	BookingDate string        `db:"booking_date" json:"booking_date"` // YYYY-MM-DD
	StartTime   string        `db:"start_time" json:"start_time"`     // HH:MM
	EndTime     string        `db:"end_time" json:"end_time"`         // HH:MM
	TotalPrice  float64       `db:"total_price" json:"total_price"`
	Status      BookingStatus `db:"status" json:"status"`

	CancellationToken string    `db:"cancellation_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// ParkingEntry is a camera event with a recognized plate.
type ParkingEntry struct {
	ID           int64      `db:"id" json:"id"`
	LicensePlate string     `db:"license_plate" json:"license_plate"`
	EntryTime    time.Time  `db:"entry_time" json:"entry_time"`
	ImagePath    string     `db:"image_path" json:"image_path"`
	ExitTime     *time.Time `db:"exit_time" json:"exit_time"`
}
