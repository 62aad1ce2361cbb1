package audio

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smarttalks/booker-agent/internal/engine"
	chathandler "github.com/smarttalks/booker-agent/internal/handler/chat"
	"github.com/smarttalks/booker-agent/pkg/utils"
)

// Handler accepts voice-note uploads and runs them through a regular
// conversation turn over SSE.
type Handler struct {
	engines *engine.Service
}

// New creates the audio handler.
func New(engines *engine.Service) *Handler {
	return &Handler{engines: engines}
}

// RegisterRoutes mounts the audio routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/audio/{sessionID}", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	eng, err := h.engines.Engine(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio payload")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
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
	sink := chathandler.NewStreamSink(w, flusher, sessionID)

	utils.SendSSEChunk(w, flusher, chathandler.StreamResponse{Event: "start", SessionID: sessionID})

	reply, err := eng.SubmitAudio(r.Context(), data, contentType, header.Filename, sink)
	if err != nil {
		if errors.Is(err, engine.ErrAudioUnavailable) {
			sink.SendError("audio uploads are not configured")
			return
		}
		log.Printf("[audio] turn failed for session=%s: %v", sessionID, err)
		sink.SendError(err.Error())
		return
	}

	sink.SendReply(reply.Content)
}
