package chat

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smarttalks/booker-agent/internal/engine"
	"github.com/smarttalks/booker-agent/internal/model/booking"
	"github.com/smarttalks/booker-agent/pkg/utils"
)

// Handler exposes the conversation surface: session lifecycle, the SSE turn
// stream, transcript reads and the action-report log.
type Handler struct {
	engines *engine.Service
}

// New creates the chat handler.
func New(engines *engine.Service) *Handler {
	return &Handler{engines: engines}
}

// RegisterRoutes mounts the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/stream/{sessionID}", h.handleStream)
	r.Get("/messages/{sessionID}", h.handleMessages)
	r.Post("/clear/{sessionID}", h.handleClear)
	r.Get("/reports/{sessionID}", h.handleReports)
	r.Delete("/reports/{sessionID}", h.handleClearReports)
}

// StreamResponse is one SSE frame. Event selects which fields are set:
// "delta" carries streamed reply text, "action" a report entry,
// "selectDate" a calendar date, "message" the full assistant reply.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Type      string `json:"type,omitempty"`
	Date      string `json:"date,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StreamSink forwards engine events to an open SSE response.
type StreamSink struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
}

// NewStreamSink binds an event sink to an SSE response.
func NewStreamSink(w http.ResponseWriter, flusher http.Flusher, sessionID string) *StreamSink {
	return &StreamSink{w: w, flusher: flusher, sessionID: sessionID}
}

func (s *StreamSink) ActionExecuted(entry booking.ReportEntry) {
	utils.SendSSEChunk(s.w, s.flusher, StreamResponse{
		Event:     "action",
		SessionID: s.sessionID,
		Type:      string(entry.Type),
		Content:   entry.Message,
		Timestamp: entry.Timestamp.Format("15:04:05"),
	})
}

func (s *StreamSink) DateSelected(date string) {
	utils.SendSSEChunk(s.w, s.flusher, StreamResponse{
		Event:     "selectDate",
		SessionID: s.sessionID,
		Date:      date,
	})
}

func (s *StreamSink) Fragment(text string) {
	utils.SendSSEChunk(s.w, s.flusher, StreamResponse{
		Event:     "delta",
		SessionID: s.sessionID,
		Content:   text,
	})
}

// SendError emits an error frame on an already open stream.
func (s *StreamSink) SendError(message string) {
	utils.SendSSEChunk(s.w, s.flusher, StreamResponse{
		Event:     "error",
		SessionID: s.sessionID,
		Error:     message,
	})
}

// SendReply emits the full assistant reply followed by the end frame.
func (s *StreamSink) SendReply(content string) {
	utils.SendSSEChunk(s.w, s.flusher, StreamResponse{
		Event:     "message",
		SessionID: s.sessionID,
		Content:   content,
	})
	utils.SendSSEChunk(s.w, s.flusher, StreamResponse{
		Event:     "end",
		SessionID: s.sessionID,
		Finished:  true,
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.engines.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleStream runs one text turn over SSE. Validation happens before the
// stream opens so failures still map to HTTP status codes.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	message := r.URL.Query().Get("message")

	eng, err := h.engines.Engine(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	if eng.State() != engine.StateIdle {
		utils.RespondError(w, http.StatusConflict, "a turn is already in flight")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	sink := NewStreamSink(w, flusher, sessionID)

	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})
	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "user", SessionID: sessionID, Content: message})

	reply, err := eng.Submit(r.Context(), message, sink)
	if err != nil {
		if errors.Is(err, engine.ErrTurnInFlight) {
			// Lost the race with another request after the idle check.
			sink.SendError("a turn is already in flight")
			return
		}
		log.Printf("[chat] turn failed for session=%s: %v", sessionID, err)
		sink.SendError(err.Error())
		return
	}

	sink.SendReply(reply.Content)
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Engine(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": eng.DisplayMessages()})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Engine(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": eng.Clear()})
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Engine(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	reports := eng.Reports()
	if reports == nil {
		reports = []booking.ReportEntry{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (h *Handler) handleClearReports(w http.ResponseWriter, r *http.Request) {
	eng, err := h.engines.Engine(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	eng.ClearReports()
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
