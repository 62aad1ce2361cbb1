package schedule

import (
	"context"
	"sync"

	"github.com/smarttalks/booker-agent/internal/model/booking"
)

// MemoryStore implements Store with an in-memory map, used by tests and by
// credential-less local runs. Days are materialized lazily from the fixed
// slot policy on first touch.
type MemoryStore struct {
	mu   sync.RWMutex
	days map[string][]booking.Slot
}

// NewMemoryStore returns an empty in-memory schedule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{days: make(map[string][]booking.Slot)}
}

// Day returns the slot list for a date, synthesizing a fully-available day
// when none has been stored.
func (s *MemoryStore) Day(_ context.Context, date string) (booking.DaySchedule, error) {
	if _, err := booking.ParseDate(date); err != nil {
		return booking.DaySchedule{}, ErrInvalidDate
	}

	s.mu.RLock()
	slots, ok := s.days[date]
	s.mu.RUnlock()

	if !ok {
		return booking.DaySchedule{Date: date, Slots: booking.DefaultSlots()}, nil
	}

	copied := make([]booking.Slot, len(slots))
	copy(copied, slots)
	return booking.DaySchedule{Date: date, Slots: copied}, nil
}

// SetSlotStatus transitions one slot, materializing the day if needed.
func (s *MemoryStore) SetSlotStatus(_ context.Context, date, slotTime string, status booking.SlotStatus, fields *BookingFields) error {
	if _, err := booking.ParseDate(date); err != nil {
		return ErrInvalidDate
	}
	if !booking.SlotDefined(slotTime) {
		return ErrSlotNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.days[date]
	if !ok {
		slots = booking.DefaultSlots()
		s.days[date] = slots
	}

	for i := range slots {
		if slots[i].Time != slotTime {
			continue
		}
		if status == booking.StatusBooked && slots[i].Status == booking.StatusBooked {
			return ErrSlotUnavailable
		}

		slots[i].Status = status
		if status == booking.StatusBooked && fields != nil {
			slots[i].ClientName = fields.ClientName
			slots[i].Subject = fields.Subject
			slots[i].Company = fields.Company
		} else if status == booking.StatusAvailable {
			slots[i].ClientName = ""
			slots[i].Subject = ""
			slots[i].Company = ""
		}
		return nil
	}

	return ErrSlotNotFound
}
