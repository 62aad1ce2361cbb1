package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smarttalks/booker-agent/internal/agent"
	"github.com/smarttalks/booker-agent/internal/model/booking"
	"github.com/smarttalks/booker-agent/internal/model/chat"
	"github.com/smarttalks/booker-agent/internal/prompt"
)

var (
	// ErrEmptyInput rejects a submission with no usable content.
	ErrEmptyInput = errors.New("empty input")
	// ErrTurnInFlight rejects a submission while another turn is running.
	ErrTurnInFlight = errors.New("turn already in flight")
	// ErrAudioUnavailable signals that no uploader is configured.
	ErrAudioUnavailable = errors.New("audio upload unavailable")
)

// State is the engine's per-turn phase.
type State string

const (
	StateIdle           State = "idle"
	StateAwaitingIntent State = "awaiting_intent"
	StateAwaitingStream State = "awaiting_response_stream"
)

// DefaultGreeting opens every fresh conversation.
const DefaultGreeting = "Hello! How can I help you with your booking today?"

// DefaultFallbackReply is the fixed user-safe message for failed turns.
const DefaultFallbackReply = "Sorry, I encountered an error while processing your request."

// IntentAgent runs the extraction pass for one turn.
type IntentAgent interface {
	Extract(ctx context.Context, transcript []chat.Message, systemPrompt string) (booking.Result, error)
}

// Responder streams the conversational reply for one turn.
type Responder interface {
	Respond(ctx context.Context, transcript []chat.Message, systemPrompt string) (agent.Stream, error)
}

// Uploader stores an audio payload and returns its public URL.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Options tune per-conversation behavior.
type Options struct {
	Greeting      string
	FallbackReply string
	// RetainPartial keeps fragments already streamed in the transcript when
	// the stream fails mid-reply; when false only the fallback is persisted.
	RetainPartial bool
}

// Engine sequences one conversation: per user turn it runs the intent pass,
// applies its side effects, then streams the reply, keeping the display and
// model-facing transcript views consistent and the action-report log
// appended. At most one turn is in flight at a time.
type Engine struct {
	intent    IntentAgent
	responder Responder
	uploader  Uploader
	prompts   *prompt.Builder
	opts      Options
	now       func() time.Time

	mu      sync.Mutex
	state   State
	epoch   int
	display []chat.Message
	api     []chat.Message
	reports []booking.ReportEntry
}

// New creates an engine for a fresh conversation. The uploader may be nil
// when object storage is not configured; audio turns are then rejected.
func New(intent IntentAgent, responder Responder, uploader Uploader, prompts *prompt.Builder, opts Options) *Engine {
	if opts.Greeting == "" {
		opts.Greeting = DefaultGreeting
	}
	if opts.FallbackReply == "" {
		opts.FallbackReply = DefaultFallbackReply
	}
	e := &Engine{
		intent:    intent,
		responder: responder,
		uploader:  uploader,
		prompts:   prompts,
		opts:      opts,
		now:       time.Now,
		state:     StateIdle,
	}
	e.display = []chat.Message{e.greetingMessage()}
	return e
}

// State returns the current turn phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// DisplayMessages returns a copy of the display transcript.
func (e *Engine) DisplayMessages() []chat.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	copied := make([]chat.Message, len(e.display))
	copy(copied, e.display)
	return copied
}

// Reports returns a copy of the action-report log.
func (e *Engine) Reports() []booking.ReportEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	copied := make([]booking.ReportEntry, len(e.reports))
	copy(copied, e.reports)
	return copied
}

// Submit runs one text turn. The returned message is the assistant reply
// appended to the transcript (the fallback one on recovered failures).
func (e *Engine) Submit(ctx context.Context, input string, ev Events) (chat.Message, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return chat.Message{}, ErrEmptyInput
	}

	userMsg := chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleUser,
		Content:   input,
		Kind:      chat.KindText,
		CreatedAt: e.now(),
	}
	return e.runTurn(ctx, ev, func(context.Context) (chat.Message, error) {
		return userMsg, nil
	})
}

// SubmitAudio runs one voice turn: the payload is uploaded to object
// storage first, and the resulting URL flows through the regular turn as an
// audio-tagged user message. Upload failure aborts the turn before any
// model call.
func (e *Engine) SubmitAudio(ctx context.Context, data []byte, contentType, filename string, ev Events) (chat.Message, error) {
	if e.uploader == nil {
		return chat.Message{}, ErrAudioUnavailable
	}
	if len(data) == 0 {
		return chat.Message{}, ErrEmptyInput
	}

	return e.runTurn(ctx, ev, func(ctx context.Context) (chat.Message, error) {
		key := fmt.Sprintf("audio-%d-%s", e.now().UnixMilli(), filename)
		url, err := e.uploader.Put(ctx, key, data, contentType)
		if err != nil {
			return chat.Message{}, fmt.Errorf("audio upload failed: %w", err)
		}
		return chat.Message{
			ID:        uuid.NewString(),
			Role:      chat.RoleUser,
			Content:   url,
			Kind:      chat.KindAudio,
			CreatedAt: e.now(),
		}, nil
	})
}

// Clear resets the conversation to its single greeting message and returns
// the new display transcript. The action-report log is not touched; an
// in-flight turn is orphaned and its late appends are dropped.
func (e *Engine) Clear() []chat.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	e.state = StateIdle
	e.display = []chat.Message{e.greetingMessage()}
	e.api = nil

	copied := make([]chat.Message, len(e.display))
	copy(copied, e.display)
	return copied
}

// ClearReports empties the action-report log.
func (e *Engine) ClearReports() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reports = nil
}

// runTurn drives the state machine for one turn. prepare runs inside the
// turn guard and produces the user message (uploading audio when needed).
func (e *Engine) runTurn(ctx context.Context, ev Events, prepare func(context.Context) (chat.Message, error)) (chat.Message, error) {
	epoch, err := e.begin()
	if err != nil {
		return chat.Message{}, err
	}
	defer e.finish(epoch)

	emit := emitter{ev: ev}

	userMsg, err := prepare(ctx)
	if err != nil {
		log.Printf("[engine] turn aborted before model call: %v", err)
		return e.failTurn(epoch), nil
	}

	// Optimistic append: the user message is visible before any model call.
	e.appendBoth(epoch, userMsg)
	transcript := e.apiSnapshot()

	result, err := e.intent.Extract(ctx, transcript, e.prompts.IntentPrompt())
	if err != nil {
		log.Printf("[engine] intent step failed: %v", err)
		return e.failTurn(epoch), nil
	}

	if !result.Empty() {
		entry := booking.ReportEntry{
			ID:        uuid.NewString(),
			Type:      result.Type,
			Message:   result.Message,
			Timestamp: e.now(),
		}
		e.appendReport(epoch, entry)
		emit.actionExecuted(entry)
		if result.Date != "" {
			emit.dateSelected(result.Date)
		}
	}

	e.setState(epoch, StateAwaitingStream)

	stream, err := e.responder.Respond(ctx, transcript, e.prompts.ConversationalPrompt(result.Message))
	if err != nil {
		log.Printf("[engine] response stream open failed: %v", err)
		return e.failTurn(epoch), nil
	}
	defer stream.Close()

	var buf strings.Builder
	for {
		frag, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			log.Printf("[engine] response stream failed mid-reply: %v", recvErr)
			if e.opts.RetainPartial && buf.Len() > 0 {
				e.appendBoth(epoch, e.assistantMessage(buf.String()))
			}
			return e.failTurn(epoch), nil
		}
		buf.WriteString(frag)
		emit.fragment(frag)
	}

	full := buf.String()
	if full == "" {
		full = "Sorry, I could not generate a response."
	}
	assistant := e.assistantMessage(full)
	e.appendBoth(epoch, assistant)
	return assistant, nil
}

// failTurn appends the fixed fallback reply to both transcript views so the
// user sees a safe message and the model sees the same history next turn.
func (e *Engine) failTurn(epoch int) chat.Message {
	fallback := e.assistantMessage(e.opts.FallbackReply)
	e.appendBoth(epoch, fallback)
	return fallback
}

func (e *Engine) assistantMessage(content string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleAssistant,
		Content:   content,
		Kind:      chat.KindText,
		CreatedAt: e.now(),
	}
}

func (e *Engine) greetingMessage() chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleAssistant,
		Content:   e.opts.Greeting,
		Kind:      chat.KindText,
		CreatedAt: e.now(),
	}
}

// begin transitions Idle -> AwaitingIntent, rejecting overlap.
func (e *Engine) begin() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return 0, ErrTurnInFlight
	}
	e.state = StateAwaitingIntent
	return e.epoch, nil
}

// finish returns the engine to Idle unless Clear superseded this turn.
func (e *Engine) finish(epoch int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch == epoch {
		e.state = StateIdle
	}
}

func (e *Engine) setState(epoch int, state State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch == epoch {
		e.state = state
	}
}

// appendBoth keeps the display and model-facing views in lockstep.
func (e *Engine) appendBoth(epoch int, msg chat.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return
	}
	e.display = append(e.display, msg)
	e.api = append(e.api, msg)
}

func (e *Engine) appendReport(epoch int, entry booking.ReportEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch {
		return
	}
	e.reports = append(e.reports, entry)
}

// apiSnapshot copies the model-facing transcript for the two agent calls.
func (e *Engine) apiSnapshot() []chat.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	copied := make([]chat.Message, len(e.api))
	copy(copied, e.api)
	return copied
}
