package transcription

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manuelcastro95/chime-backend/internal/gateway"
	meetingservice "github.com/manuelcastro95/chime-backend/internal/service/meeting"
	transcriptionservice "github.com/manuelcastro95/chime-backend/internal/service/transcription"
	"github.com/manuelcastro95/chime-backend/pkg/utils"
)

// Handler exposes transcription control over HTTP.
type Handler struct {
	coordinator *transcriptionservice.Coordinator
}

// New creates the transcription handler.
func New(coordinator *transcriptionservice.Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// RegisterRoutes wires the transcription routes under the meeting tree.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/meetings/{meetingID}/transcription", h.handleStart)
	r.Post("/meetings/{meetingID}/transcription/degraded", h.handleStartDegraded)
	r.Delete("/meetings/{meetingID}/transcription", h.handleStop)
	r.Get("/meetings/{meetingID}/transcription", h.handleStatus)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	// Language and region are optional; an empty body is a valid request.
	var payload struct {
		Language string `json:"language"`
		Region   string `json:"region"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.coordinator.Start(r.Context(), meetingID, payload.Language, payload.Region)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": string(outcome)})
}

func (h *Handler) handleStartDegraded(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	if err := h.coordinator.StartDegraded(r.Context(), meetingID); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": string(transcriptionservice.OutcomeDegraded)})
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	if err := h.coordinator.Stop(r.Context(), meetingID); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	status, err := h.coordinator.CheckStatus(r.Context(), meetingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"local": map[string]interface{}{
			"enabled": status.Enabled,
			"mode":    status.Mode,
		},
		"remote": map[string]interface{}{
			"known":  status.Remote.Known,
			"active": status.Remote.Active,
		},
	})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, meetingservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "meeting not found")
	default:
		var ge *gateway.Error
		if errors.As(err, &ge) {
			utils.RespondError(w, http.StatusBadGateway, ge.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
