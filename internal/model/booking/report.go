package booking

import "time"

// ReportEntry is one row in the action-report log: a scheduling action the
// assistant executed, stamped with the wall-clock time of execution. The
// log is append-only and cleared only by explicit user action.
type ReportEntry struct {
	ID        string    `json:"id"`
	Type      Intent    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
