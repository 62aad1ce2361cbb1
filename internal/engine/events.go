package engine

import "github.com/smarttalks/booker-agent/internal/model/booking"

// Events receives the per-turn UI notifications. Implementations are
// request-scoped (typically an SSE writer); a nil Events drops everything.
// ActionExecuted and DateSelected fire at most once per turn.
type Events interface {
	// ActionExecuted reports a scheduling action the intent step executed.
	ActionExecuted(entry booking.ReportEntry)
	// DateSelected asks the calendar view to navigate to a date.
	DateSelected(date string)
	// Fragment delivers one incremental chunk of the streamed reply.
	Fragment(text string)
}

// emitter wraps a possibly-nil Events sink.
type emitter struct {
	ev Events
}

func (e emitter) actionExecuted(entry booking.ReportEntry) {
	if e.ev != nil {
		e.ev.ActionExecuted(entry)
	}
}

func (e emitter) dateSelected(date string) {
	if e.ev != nil {
		e.ev.DateSelected(date)
	}
}

func (e emitter) fragment(text string) {
	if e.ev != nil {
		e.ev.Fragment(text)
	}
}
