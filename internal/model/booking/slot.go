package booking

import "time"

// SlotStatus is the lifecycle state of a bookable slot.
type SlotStatus string

const (
	StatusAvailable SlotStatus = "available"
	StatusBooked    SlotStatus = "booked"
)

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

// DefaultSlotTimes is the fixed daily slot policy: four morning and four
// afternoon slots, matching the team's availability window. The set of slot
// times for a date never grows or shrinks; only slot status transitions.
var DefaultSlotTimes = []string{
	"8:00", "9:00", "10:00", "11:00",
	"14:00", "15:00", "16:00", "17:00",
}

// Slot is one bookable (date, time) unit.
type Slot struct {
	Time       string     `json:"time"`
	ClientName string     `json:"clientName"`
	Status     SlotStatus `json:"status"`
	Subject    string     `json:"subject,omitempty"`
	Company    string     `json:"company,omitempty"`
}

// DaySchedule is the slot list for a single calendar day.
type DaySchedule struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// DefaultSlots returns a fresh fully-available slot list for one day.
func DefaultSlots() []Slot {
	slots := make([]Slot, 0, len(DefaultSlotTimes))
	for _, t := range DefaultSlotTimes {
		slots = append(slots, Slot{Time: t, Status: StatusAvailable})
	}
	return slots
}

// SlotDefined reports whether t belongs to the fixed daily slot set.
func SlotDefined(t string) bool {
	for _, defined := range DefaultSlotTimes {
		if defined == t {
			return true
		}
	}
	return false
}

// ParseDate validates a calendar date in the canonical format.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}
