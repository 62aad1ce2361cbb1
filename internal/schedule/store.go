package schedule

import (
	"context"
	"errors"

	"github.com/smarttalks/booker-agent/internal/model/booking"
)

var (
	// ErrInvalidDate signals a date outside the canonical YYYY-MM-DD format.
	ErrInvalidDate = errors.New("invalid date")
	// ErrSlotNotFound signals a (date, time) pair outside the fixed slot set.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrSlotUnavailable signals an attempt to book an already-booked slot.
	ErrSlotUnavailable = errors.New("slot unavailable")
)

// BookingFields carries the client attributes attached to a booked slot.
type BookingFields struct {
	ClientName string
	Subject    string
	Company    string
}

// Store is the narrow CRUD surface over the schedule datastore, keyed by
// date. Day never distinguishes "no stored document" from "fully
// available": a date with no document yields the default slot list.
type Store interface {
	Day(ctx context.Context, date string) (booking.DaySchedule, error)
	// SetSlotStatus transitions one slot. fields must be non-nil when
	// booking and is ignored when freeing a slot.
	SetSlotStatus(ctx context.Context, date, slotTime string, status booking.SlotStatus, fields *BookingFields) error
}
