package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/smarttalks/booker-agent/internal/model/booking"
	"github.com/smarttalks/booker-agent/internal/model/chat"
	"github.com/smarttalks/booker-agent/internal/schedule"
)

// resultSchema is the strict contract for the extraction agent's output.
// Anything that fails it degrades to the empty-result sentinel instead of
// being trusted field by field.
const resultSchema = `{
	"type": "object",
	"required": ["type", "message"],
	"additionalProperties": false,
	"properties": {
		"type":         {"type": "string", "enum": ["", "booking", "reschedule", "cancellation", "schedule"]},
		"message":      {"type": "string"},
		"date":         {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"time":         {"type": "string"},
		"duration":     {"type": "number"},
		"previousDate": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"previousTime": {"type": "string"},
		"clientName":   {"type": "string"},
		"company":      {"type": "string"},
		"subject":      {"type": "string"}
	}
}`

// IntentAgent runs the non-streaming extraction pass and applies the
// resulting schedule mutation. The mutation and the result are one unit: a
// result that says "booked" is only returned after the store write landed,
// and write failures are folded back into the result message.
type IntentAgent struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	store  schedule.Store
	schema *gojsonschema.Schema
}

// NewIntentAgent compiles the extraction chain over the given chat model.
func NewIntentAgent(ctx context.Context, chatModel model.ChatModel, store schedule.Store) (*IntentAgent, error) {
	chain, err := newChatChain(ctx, chatModel)
	if err != nil {
		return nil, err
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(resultSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile result schema: %w", err)
	}

	return &IntentAgent{chain: chain, store: store, schema: compiled}, nil
}

// Extract runs one extraction pass over the transcript. A malformed model
// response yields the empty result with a nil error; only transport/model
// failures are returned as errors.
func (a *IntentAgent) Extract(ctx context.Context, transcript []chat.Message, systemPrompt string) (booking.Result, error) {
	msg, err := a.chain.Invoke(ctx, chainInput(systemPrompt, transcript))
	if err != nil {
		return booking.Result{}, fmt.Errorf("intent extraction call failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		log.Printf("[intent] empty model response, treating as no action")
		return booking.Result{}, nil
	}

	result, ok := a.parseResult(msg.Content)
	if !ok {
		log.Printf("[intent] malformed model response, treating as no action: %.200s", msg.Content)
		return booking.Result{}, nil
	}

	return a.apply(ctx, result), nil
}

// parseResult extracts and validates the JSON object in the model output,
// returning the Malformed variant (ok=false) on any shape violation.
func (a *IntentAgent) parseResult(content string) (booking.Result, bool) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return booking.Result{}, false
	}
	raw := trimmed[start : end+1]

	validation, err := a.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil || !validation.Valid() {
		return booking.Result{}, false
	}

	var result booking.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return booking.Result{}, false
	}
	return result, true
}

// apply executes the schedule mutation implied by the result.
func (a *IntentAgent) apply(ctx context.Context, result booking.Result) booking.Result {
	switch result.Type {
	case booking.IntentBooking:
		return a.applyBooking(ctx, result)
	case booking.IntentCancellation:
		return a.applyCancellation(ctx, result)
	case booking.IntentReschedule:
		return a.applyReschedule(ctx, result)
	case booking.IntentSchedule:
		return a.applyAvailability(ctx, result)
	default:
		return result
	}
}

func (a *IntentAgent) applyBooking(ctx context.Context, result booking.Result) booking.Result {
	fields := &schedule.BookingFields{
		ClientName: result.ClientName,
		Subject:    result.Subject,
		Company:    result.Company,
	}
	if err := a.store.SetSlotStatus(ctx, result.Date, result.Time, booking.StatusBooked, fields); err != nil {
		result.Message = mutationFailureMessage(err, result.Date, result.Time)
		return result
	}
	if result.Message == "" {
		result.Message = fmt.Sprintf("Reunião agendada para %s às %s.", result.Date, result.Time)
	}
	log.Printf("[intent] booked slot %s %s for %s", result.Date, result.Time, result.ClientName)
	return result
}

func (a *IntentAgent) applyCancellation(ctx context.Context, result booking.Result) booking.Result {
	if err := a.store.SetSlotStatus(ctx, result.Date, result.Time, booking.StatusAvailable, nil); err != nil {
		result.Message = mutationFailureMessage(err, result.Date, result.Time)
		return result
	}
	if result.Message == "" {
		result.Message = fmt.Sprintf("Reunião de %s às %s cancelada.", result.Date, result.Time)
	}
	log.Printf("[intent] cancelled slot %s %s", result.Date, result.Time)
	return result
}

func (a *IntentAgent) applyReschedule(ctx context.Context, result booking.Result) booking.Result {
	fields := &schedule.BookingFields{
		ClientName: result.ClientName,
		Subject:    result.Subject,
		Company:    result.Company,
	}
	if err := a.store.SetSlotStatus(ctx, result.Date, result.Time, booking.StatusBooked, fields); err != nil {
		result.Message = mutationFailureMessage(err, result.Date, result.Time)
		return result
	}
	if err := a.store.SetSlotStatus(ctx, result.PreviousDate, result.PreviousTime, booking.StatusAvailable, nil); err != nil {
		// New slot is held; report the stale previous slot instead of failing the turn.
		log.Printf("[intent] reschedule could not free %s %s: %v", result.PreviousDate, result.PreviousTime, err)
	}
	if result.Message == "" {
		result.Message = fmt.Sprintf("Reunião remarcada de %s às %s para %s às %s.",
			result.PreviousDate, result.PreviousTime, result.Date, result.Time)
	}
	log.Printf("[intent] rescheduled %s %s -> %s %s", result.PreviousDate, result.PreviousTime, result.Date, result.Time)
	return result
}

func (a *IntentAgent) applyAvailability(ctx context.Context, result booking.Result) booking.Result {
	if result.Date == "" {
		return result
	}
	day, err := a.store.Day(ctx, result.Date)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidDate) {
			result.Message = fmt.Sprintf("A data %s não é válida.", result.Date)
		} else {
			log.Printf("[intent] schedule store error: %v", err)
			result.Message = "Não foi possível acessar a agenda no momento."
		}
		return result
	}

	free := make([]string, 0, len(day.Slots))
	for _, slot := range day.Slots {
		if slot.Status == booking.StatusAvailable {
			free = append(free, slot.Time)
		}
	}
	if len(free) == 0 {
		result.Message = fmt.Sprintf("Nenhum horário disponível em %s.", result.Date)
	} else {
		result.Message = fmt.Sprintf("Horários disponíveis em %s: %s.", result.Date, strings.Join(free, ", "))
	}
	return result
}

// mutationFailureMessage maps store errors to user-facing Portuguese text;
// the failure is surfaced through the result, never as a fatal error.
func mutationFailureMessage(err error, date, slotTime string) string {
	switch {
	case errors.Is(err, schedule.ErrSlotNotFound), errors.Is(err, schedule.ErrInvalidDate):
		return fmt.Sprintf("O horário %s de %s não existe na agenda.", slotTime, date)
	case errors.Is(err, schedule.ErrSlotUnavailable):
		return fmt.Sprintf("O horário %s de %s já está reservado.", slotTime, date)
	default:
		log.Printf("[intent] schedule store error: %v", err)
		return "Não foi possível acessar a agenda no momento."
	}
}
