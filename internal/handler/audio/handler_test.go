package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smarttalks/booker-agent/internal/agent"
	"github.com/smarttalks/booker-agent/internal/engine"
	chathandler "github.com/smarttalks/booker-agent/internal/handler/chat"
	"github.com/smarttalks/booker-agent/internal/model/booking"
	"github.com/smarttalks/booker-agent/internal/model/chat"
	"github.com/smarttalks/booker-agent/internal/prompt"
)

type fakeIntent struct{}

func (fakeIntent) Extract(context.Context, []chat.Message, string) (booking.Result, error) {
	return booking.Result{}, nil
}

type fakeStream struct {
	fragments []string
	pos       int
}

func (s *fakeStream) Recv() (string, error) {
	if s.pos < len(s.fragments) {
		frag := s.fragments[s.pos]
		s.pos++
		return frag, nil
	}
	return "", io.EOF
}

func (s *fakeStream) Close() {}

type fakeResponder struct{}

func (fakeResponder) Respond(context.Context, []chat.Message, string) (agent.Stream, error) {
	return &fakeStream{fragments: []string{"Got your voice note."}}, nil
}

type fakeUploader struct {
	key string
}

func (u *fakeUploader) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	u.key = key
	return "https://bucket.s3.sa-east-1.amazonaws.com/" + key, nil
}

func setup(uploader engine.Uploader) (*chi.Mux, string) {
	prompts := prompt.NewBuilder(func() time.Time {
		return time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)
	})
	engines := engine.NewService(func() *engine.Engine {
		return engine.New(fakeIntent{}, fakeResponder{}, uploader, prompts, engine.Options{})
	})
	session, _ := engines.CreateSession(context.Background())

	r := chi.NewRouter()
	New(engines).RegisterRoutes(r)
	return r, session.ID
}

func audioRequest(t *testing.T, sessionID string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "note.webm")
	if err != nil {
		t.Fatalf("CreateFormFile err: %v", err)
	}
	if _, err := part.Write([]byte("webm-bytes")); err != nil {
		t.Fatalf("write payload err: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/audio/"+sessionID, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadRunsVoiceTurn(t *testing.T) {
	uploader := &fakeUploader{}
	r, sessionID := setup(uploader)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, audioRequest(t, sessionID))

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, body = %s", got, rec.Body.String())
	}
	if !strings.HasPrefix(uploader.key, "audio-") || !strings.HasSuffix(uploader.key, "-note.webm") {
		t.Fatalf("upload key mismatch: %q", uploader.key)
	}

	var sawReply, sawEnd bool
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame chathandler.StreamResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("decode frame err: %v", err)
		}
		switch frame.Event {
		case "message":
			sawReply = frame.Content == "Got your voice note."
		case "end":
			sawEnd = frame.Finished
		}
	}
	if !sawReply || !sawEnd {
		t.Fatalf("incomplete stream: reply=%v end=%v body=%s", sawReply, sawEnd, rec.Body.String())
	}
}

func TestUploadUnknownSession(t *testing.T) {
	r, _ := setup(&fakeUploader{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, audioRequest(t, "nope"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	r, sessionID := setup(&fakeUploader{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/audio/"+sessionID, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
