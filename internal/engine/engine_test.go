package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/smarttalks/booker-agent/internal/agent"
	"github.com/smarttalks/booker-agent/internal/model/booking"
	"github.com/smarttalks/booker-agent/internal/model/chat"
	"github.com/smarttalks/booker-agent/internal/prompt"
)

// fakeIntent records the transcript it was handed and returns a canned result.
type fakeIntent struct {
	result     booking.Result
	err        error
	transcript []chat.Message
	prompt     string
}

func (f *fakeIntent) Extract(_ context.Context, transcript []chat.Message, systemPrompt string) (booking.Result, error) {
	f.transcript = transcript
	f.prompt = systemPrompt
	return f.result, f.err
}

// fakeStream yields canned fragments, then a terminal error (io.EOF by
// default). gate, when set, blocks the first Recv until released.
type fakeStream struct {
	fragments []string
	terminal  error
	gate      chan struct{}
	pos       int
}

func (s *fakeStream) Recv() (string, error) {
	if s.gate != nil {
		<-s.gate
		s.gate = nil
	}
	if s.pos < len(s.fragments) {
		frag := s.fragments[s.pos]
		s.pos++
		return frag, nil
	}
	if s.terminal != nil {
		return "", s.terminal
	}
	return "", io.EOF
}

func (s *fakeStream) Close() {}

type fakeResponder struct {
	stream  *fakeStream
	openErr error
	prompt  string
}

func (f *fakeResponder) Respond(_ context.Context, _ []chat.Message, systemPrompt string) (agent.Stream, error) {
	f.prompt = systemPrompt
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

// recorder captures emitted events.
type recorder struct {
	actions   []booking.ReportEntry
	dates     []string
	fragments []string
}

func (r *recorder) ActionExecuted(entry booking.ReportEntry) { r.actions = append(r.actions, entry) }
func (r *recorder) DateSelected(date string)                 { r.dates = append(r.dates, date) }
func (r *recorder) Fragment(text string)                     { r.fragments = append(r.fragments, text) }

type fakeUploader struct {
	url string
	err error
	key string
}

func (u *fakeUploader) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	u.key = key
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

func testPrompts() *prompt.Builder {
	fixed := time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)
	return prompt.NewBuilder(func() time.Time { return fixed })
}

func newEngine(intent IntentAgent, responder Responder, uploader Uploader, opts Options) *Engine {
	return New(intent, responder, uploader, testPrompts(), opts)
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	eng := newEngine(&fakeIntent{}, &fakeResponder{stream: &fakeStream{}}, nil, Options{})

	if _, err := eng.Submit(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestSubmitOptimisticUserAppend(t *testing.T) {
	intent := &fakeIntent{err: errors.New("model down")}
	eng := newEngine(intent, &fakeResponder{stream: &fakeStream{}}, nil, Options{})

	if _, err := eng.Submit(context.Background(), "Hello", nil); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	// The user message reached the model-facing transcript before the
	// intent call observed it.
	if len(intent.transcript) != 1 || intent.transcript[0].Content != "Hello" {
		t.Fatalf("user message not in model-facing transcript: %+v", intent.transcript)
	}

	display := eng.DisplayMessages()
	if len(display) != 3 { // greeting, user, fallback
		t.Fatalf("expected 3 display messages, got %d", len(display))
	}
	if display[1].Role != chat.RoleUser || display[1].Content != "Hello" {
		t.Fatalf("user message missing from display transcript: %+v", display[1])
	}
	if display[2].Content != DefaultFallbackReply {
		t.Fatalf("fallback not appended on intent failure: %+v", display[2])
	}
	if eng.State() != StateIdle {
		t.Fatalf("engine not back to idle, state=%s", eng.State())
	}
}

func TestHappyPathBookingTurn(t *testing.T) {
	result := booking.Result{
		Type:    booking.IntentBooking,
		Message: "Booked Jane from Acme at 10:00",
		Date:    "2025-01-07",
	}
	responder := &fakeResponder{stream: &fakeStream{fragments: []string{"Confirmed ", "for ", "Tuesday 10:00."}}}
	eng := newEngine(&fakeIntent{result: result}, responder, nil, Options{})
	rec := &recorder{}

	reply, err := eng.Submit(context.Background(), "Book Tuesday at 10:00, I'm Jane from Acme", rec)
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if reply.Content != "Confirmed for Tuesday 10:00." {
		t.Fatalf("unexpected reply: %q", reply.Content)
	}
	if len(rec.actions) != 1 || rec.actions[0].Type != booking.IntentBooking {
		t.Fatalf("expected one booking action event, got %+v", rec.actions)
	}
	if rec.actions[0].Timestamp.IsZero() {
		t.Fatal("action entry missing timestamp")
	}
	if len(rec.dates) != 1 || rec.dates[0] != "2025-01-07" {
		t.Fatalf("expected selectDate for 2025-01-07, got %+v", rec.dates)
	}
	if len(rec.fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %+v", rec.fragments)
	}

	// The conversational prompt must carry the intent result's message.
	if !strings.Contains(responder.prompt, "Booked Jane from Acme at 10:00") {
		t.Fatal("conversational prompt not grounded in the intent result")
	}

	reports := eng.Reports()
	if len(reports) != 1 || reports[0].Message != "Booked Jane from Acme at 10:00" {
		t.Fatalf("report log mismatch: %+v", reports)
	}

	display := eng.DisplayMessages()
	last := display[len(display)-1]
	if last.Role != chat.RoleAssistant || last.Content != "Confirmed for Tuesday 10:00." {
		t.Fatalf("assistant reply not appended: %+v", last)
	}
}

func TestEmptyResultEmitsNothing(t *testing.T) {
	responder := &fakeResponder{stream: &fakeStream{fragments: []string{"Hi there!"}}}
	eng := newEngine(&fakeIntent{}, responder, nil, Options{})
	rec := &recorder{}

	if _, err := eng.Submit(context.Background(), "hello", rec); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if len(rec.actions) != 0 || len(rec.dates) != 0 {
		t.Fatalf("no-action turn emitted events: %+v %+v", rec.actions, rec.dates)
	}
	if len(eng.Reports()) != 0 {
		t.Fatalf("no-action turn appended a report: %+v", eng.Reports())
	}
	// Base prompt, no injected schedule message.
	if responder.prompt != testPrompts().ConversationalPrompt("") {
		t.Fatal("conversational prompt changed despite empty result")
	}
}

func TestStreamFailureDiscardsPartialByDefault(t *testing.T) {
	stream := &fakeStream{fragments: []string{"one ", "two ", "three "}, terminal: errors.New("reset")}
	eng := newEngine(&fakeIntent{}, &fakeResponder{stream: stream}, nil, Options{})
	rec := &recorder{}

	reply, err := eng.Submit(context.Background(), "hello", rec)
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	if len(rec.fragments) != 3 {
		t.Fatalf("fragments before failure should have been delivered: %+v", rec.fragments)
	}
	if reply.Content != DefaultFallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply.Content)
	}

	display := eng.DisplayMessages()
	// greeting, user, fallback: the partial text is not persisted.
	if len(display) != 3 {
		t.Fatalf("expected 3 display messages, got %+v", display)
	}
	for _, msg := range display {
		if strings.Contains(msg.Content, "one two") {
			t.Fatalf("partial text persisted despite policy: %+v", msg)
		}
	}
}

func TestStreamFailureRetainsPartialWhenConfigured(t *testing.T) {
	stream := &fakeStream{fragments: []string{"one ", "two "}, terminal: errors.New("reset")}
	eng := newEngine(&fakeIntent{}, &fakeResponder{stream: stream}, nil, Options{RetainPartial: true})

	if _, err := eng.Submit(context.Background(), "hello", nil); err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	display := eng.DisplayMessages()
	// greeting, user, partial, fallback.
	if len(display) != 4 {
		t.Fatalf("expected 4 display messages, got %+v", display)
	}
	if display[2].Content != "one two " {
		t.Fatalf("partial text not retained: %+v", display[2])
	}
	if display[3].Content != DefaultFallbackReply {
		t.Fatalf("fallback missing after partial: %+v", display[3])
	}
}

func TestClearResetsTranscriptNotReports(t *testing.T) {
	result := booking.Result{Type: booking.IntentBooking, Message: "booked", Date: "2025-01-07"}
	eng := newEngine(&fakeIntent{result: result}, &fakeResponder{stream: &fakeStream{fragments: []string{"ok"}}}, nil, Options{})

	if _, err := eng.Submit(context.Background(), "book it", nil); err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	if len(eng.Reports()) != 1 {
		t.Fatalf("expected one report before clear, got %+v", eng.Reports())
	}

	display := eng.Clear()
	if len(display) != 1 || display[0].Content != DefaultGreeting {
		t.Fatalf("clear did not reset to the single greeting: %+v", display)
	}
	if len(eng.Reports()) != 1 {
		t.Fatal("clear must not touch the report log")
	}

	eng.ClearReports()
	if len(eng.Reports()) != 0 {
		t.Fatal("ClearReports left entries behind")
	}
}

func TestConcurrentSubmitRejected(t *testing.T) {
	gate := make(chan struct{})
	stream := &fakeStream{fragments: []string{"slow"}, gate: gate}
	eng := newEngine(&fakeIntent{}, &fakeResponder{stream: stream}, nil, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := eng.Submit(context.Background(), "first", nil); err != nil {
			t.Errorf("first Submit err: %v", err)
		}
	}()

	// Wait for the first turn to occupy the engine.
	for eng.State() == StateIdle {
		time.Sleep(time.Millisecond)
	}

	if _, err := eng.Submit(context.Background(), "second", nil); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}

	close(gate)
	<-done

	if eng.State() != StateIdle {
		t.Fatalf("engine not idle after turn, state=%s", eng.State())
	}
}

func TestSubmitAudioUploadsBeforeModelCall(t *testing.T) {
	uploader := &fakeUploader{url: "https://bucket.s3.sa-east-1.amazonaws.com/audio-1-voice.webm"}
	intent := &fakeIntent{}
	eng := newEngine(intent, &fakeResponder{stream: &fakeStream{fragments: []string{"heard you"}}}, uploader, Options{})

	reply, err := eng.SubmitAudio(context.Background(), []byte("RIFF..."), "audio/webm", "voice.webm", nil)
	if err != nil {
		t.Fatalf("SubmitAudio err: %v", err)
	}
	if reply.Content != "heard you" {
		t.Fatalf("unexpected reply: %q", reply.Content)
	}

	if !strings.HasPrefix(uploader.key, "audio-") || !strings.HasSuffix(uploader.key, "-voice.webm") {
		t.Fatalf("upload key not timestamp-qualified: %q", uploader.key)
	}

	if len(intent.transcript) != 1 {
		t.Fatalf("expected one transcript message, got %+v", intent.transcript)
	}
	msg := intent.transcript[0]
	if msg.Kind != chat.KindAudio || msg.Content != uploader.url {
		t.Fatalf("audio message not URL-tagged: %+v", msg)
	}
}

func TestSubmitAudioUploadFailureAbortsTurn(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("s3 down")}
	intent := &fakeIntent{}
	eng := newEngine(intent, &fakeResponder{stream: &fakeStream{}}, uploader, Options{})

	reply, err := eng.SubmitAudio(context.Background(), []byte("RIFF..."), "audio/webm", "voice.webm", nil)
	if err != nil {
		t.Fatalf("SubmitAudio err: %v", err)
	}
	if reply.Content != DefaultFallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply.Content)
	}
	if intent.transcript != nil {
		t.Fatal("model called despite upload failure")
	}
	if eng.State() != StateIdle {
		t.Fatalf("engine not idle, state=%s", eng.State())
	}
}

func TestSubmitAudioWithoutUploader(t *testing.T) {
	eng := newEngine(&fakeIntent{}, &fakeResponder{stream: &fakeStream{}}, nil, Options{})

	if _, err := eng.SubmitAudio(context.Background(), []byte("x"), "audio/webm", "v.webm", nil); !errors.Is(err, ErrAudioUnavailable) {
		t.Fatalf("expected ErrAudioUnavailable, got %v", err)
	}
}
