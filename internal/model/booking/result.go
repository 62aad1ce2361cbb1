package booking

// Intent classifies what the user is trying to do with the schedule.
type Intent string

const (
	// IntentNone is the sentinel meaning no scheduling action was taken
	// this turn; the rest of the system checks for it before reporting.
	IntentNone         Intent = ""
	IntentBooking      Intent = "booking"
	IntentReschedule   Intent = "reschedule"
	IntentCancellation Intent = "cancellation"
	IntentSchedule     Intent = "schedule"
)

// Result is the structured output of the intent-extraction pass. It is
// produced once per user turn and consumed immediately by the prompt
// builder and the report log; it is not persisted beyond the turn.
type Result struct {
	Type         Intent `json:"type"`
	Message      string `json:"message"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	Duration     int    `json:"duration,omitempty"`
	PreviousDate string `json:"previousDate,omitempty"`
	PreviousTime string `json:"previousTime,omitempty"`
	ClientName   string `json:"clientName,omitempty"`
	Company      string `json:"company,omitempty"`
	Subject      string `json:"subject,omitempty"`
}

// Empty reports whether the result carries no action.
func (r Result) Empty() bool {
	return r.Type == IntentNone
}
