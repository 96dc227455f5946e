package meeting

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manuelcastro95/chime-backend/internal/gateway"
	meetingservice "github.com/manuelcastro95/chime-backend/internal/service/meeting"
	"github.com/manuelcastro95/chime-backend/pkg/utils"
)

// Handler exposes the session registry over HTTP.
type Handler struct {
	registry *meetingservice.Registry
}

// New creates the meeting handler.
func New(registry *meetingservice.Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes wires the session CRUD routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/meetings", h.handleCreate)
	r.Get("/meetings", h.handleList)
	r.Get("/meetings/{meetingID}", h.handleGet)
	r.Delete("/meetings/{meetingID}", h.handleRemove)
	r.Post("/meetings/{meetingID}/attendees", h.handleJoin)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CreatorID string `json:"creatorId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.CreatorID == "" {
		utils.RespondError(w, http.StatusBadRequest, "creatorId is required")
		return
	}

	session, err := h.registry.Create(r.Context(), payload.CreatorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"meetingId": session.ID,
		"createdAt": session.CreatedAt,
		"meeting":   session.Provider,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"meetings": h.registry.List(),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	projection, err := h.registry.GetProjection(meetingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, projection)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	var payload struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	result, err := h.registry.Join(r.Context(), meetingID, payload.UserID, payload.DisplayName)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")

	if err := h.registry.Remove(r.Context(), meetingID); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// respondServiceError maps registry errors to transport status codes:
// unknown session ids are the client's problem, provider failures a bad
// gateway.
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
