package events

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	eventservice "github.com/manuelcastro95/chime-backend/internal/service/events"
	"github.com/manuelcastro95/chime-backend/pkg/utils"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	sseHeartbeat = 15 * time.Second
)

// Handler streams session lifecycle events to observers over websocket or
// SSE. Only metadata is delivered, never attendee credentials.
type Handler struct {
	broker   *eventservice.Broker
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates the events handler.
func New(broker *eventservice.Broker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		broker: broker,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes wires the event feed routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleWebSocket)
	r.Get("/events/stream", h.handleSSE)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch, cancel := h.broker.Subscribe()
	defer cancel()

	// Read pump: we expect no inbound payloads, but reading is what
	// surfaces close frames and connection drops.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(evt); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	ch, cancel := h.broker.Subscribe()
	defer cancel()

	utils.SendSSEChunk(w, flusher, map[string]any{
		"event":   "status",
		"message": "event stream established",
	})

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			utils.SendSSEEvent(w, flusher, evt.Type, evt)
		case t := <-ticker.C:
			utils.SendSSEChunk(w, flusher, map[string]any{
				"event": "heartbeat",
				"time":  t.UTC().Format(time.RFC3339),
			})
		}
	}
}
