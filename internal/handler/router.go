package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smarttalks/booker-agent/internal/engine"
	audioHandler "github.com/smarttalks/booker-agent/internal/handler/audio"
	chatHandler "github.com/smarttalks/booker-agent/internal/handler/chat"
	scheduleHandler "github.com/smarttalks/booker-agent/internal/handler/schedule"
	middlewarePkg "github.com/smarttalks/booker-agent/internal/middleware"
	"github.com/smarttalks/booker-agent/internal/schedule"
	"github.com/smarttalks/booker-agent/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(engines *engine.Service, store schedule.Store, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	r.Route("/api", func(api chi.Router) {
		if engines != nil {
			chatHandler.New(engines).RegisterRoutes(api)
			audioHandler.New(engines).RegisterRoutes(api)
		} else {
			// Conversation surface is down when no model is configured.
			api.HandleFunc("/session", conversationUnavailable)
			api.HandleFunc("/stream/{sessionID}", conversationUnavailable)
			api.HandleFunc("/audio/{sessionID}", conversationUnavailable)
		}

		scheduleHandler.New(store).RegisterRoutes(api)
	})

	return r
}

func conversationUnavailable(w http.ResponseWriter, _ *http.Request) {
	utils.RespondError(w, http.StatusServiceUnavailable, "conversation service unavailable")
}
