package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventsHandler "github.com/manuelcastro95/chime-backend/internal/handler/events"
	meetingHandler "github.com/manuelcastro95/chime-backend/internal/handler/meeting"
	transcriptionHandler "github.com/manuelcastro95/chime-backend/internal/handler/transcription"
	middlewarePkg "github.com/manuelcastro95/chime-backend/internal/middleware"
	eventService "github.com/manuelcastro95/chime-backend/internal/service/events"
	meetingService "github.com/manuelcastro95/chime-backend/internal/service/meeting"
	transcriptionService "github.com/manuelcastro95/chime-backend/internal/service/transcription"
	"github.com/manuelcastro95/chime-backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(registry *meetingService.Registry, coordinator *transcriptionService.Coordinator, broker *eventService.Broker, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	meetings := meetingHandler.New(registry)
	transcription := transcriptionHandler.New(coordinator)

	r.Route("/api", func(api chi.Router) {
		meetings.RegisterRoutes(api)
		transcription.RegisterRoutes(api)

		if broker != nil {
			events := eventsHandler.New(broker, log)
			events.RegisterRoutes(api)
		}
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
