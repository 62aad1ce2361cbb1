package schedule

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	scheduleStore "github.com/smarttalks/booker-agent/internal/schedule"
	"github.com/smarttalks/booker-agent/pkg/utils"
)

// Handler serves read access to the calendar so clients can render day views.
type Handler struct {
	store scheduleStore.Store
}

// New creates the schedule handler.
func New(store scheduleStore.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the schedule routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/schedule/{date}", h.handleDay)
}

func (h *Handler) handleDay(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	day, err := h.store.Day(r.Context(), date)
	if err != nil {
		if errors.Is(err, scheduleStore.ErrInvalidDate) {
			utils.RespondError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	utils.RespondJSON(w, http.StatusOK, day)
}
