package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuelcastro95/chime-backend/internal/gateway"
	model "github.com/manuelcastro95/chime-backend/internal/model/meeting"
	meetingservice "github.com/manuelcastro95/chime-backend/internal/service/meeting"
	transcriptionservice "github.com/manuelcastro95/chime-backend/internal/service/transcription"
)

type stubGateway struct {
	startErr error
	stopErr  error
}

func (g *stubGateway) CreateMeeting(_ context.Context, _, mediaRegion, externalID string) (model.MeetingDescriptor, error) {
	return model.MeetingDescriptor{MeetingID: uuid.NewString(), ExternalID: externalID, MediaRegion: mediaRegion}, nil
}

func (g *stubGateway) CreateAttendee(_ context.Context, _, externalUserID string) (model.AttendeeDescriptor, error) {
	return model.AttendeeDescriptor{AttendeeID: uuid.NewString(), ExternalUserID: externalUserID}, nil
}

func (g *stubGateway) GetMeeting(_ context.Context, meetingID string) (model.MeetingStatus, error) {
	return model.MeetingStatus{MeetingID: meetingID}, nil
}

func (g *stubGateway) DeleteMeeting(context.Context, string) error { return nil }

func (g *stubGateway) StartTranscription(context.Context, string, model.TranscriptionRequest) error {
	return g.startErr
}

func (g *stubGateway) StopTranscription(context.Context, string) error { return g.stopErr }

func setupRouter(t *testing.T, gw *stubGateway) (*chi.Mux, string) {
	t.Helper()
	registry := meetingservice.NewRegistry(gw, nil, nil, "us-east-1")
	coordinator := transcriptionservice.NewCoordinator(registry, gw, nil, nil, "us-east-1")
	handler := New(coordinator)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	session, err := registry.Create(context.Background(), "creator-1")
	require.NoError(t, err)
	return r, session.ID
}

func do(t *testing.T, r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestStartTranscription(t *testing.T) {
	r, id := setupRouter(t, &stubGateway{})

	resp := do(t, r, http.MethodPost, "/meetings/"+id+"/transcription", []byte(`{"language":"es-ES"}`))
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "started", body["status"])
}

func TestStartTranscriptionEmptyBody(t *testing.T) {
	r, id := setupRouter(t, &stubGateway{})

	// Language and region are optional.
	resp := do(t, r, http.MethodPost, "/meetings/"+id+"/transcription", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestStartTranscriptionDegradedOutcome(t *testing.T) {
	gw := &stubGateway{startErr: &gateway.Error{Op: "StartTranscription", Status: 403, Err: errors.New("forbidden")}}
	r, id := setupRouter(t, gw)

	resp := do(t, r, http.MethodPost, "/meetings/"+id+"/transcription", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestStartTranscriptionGatewayFailure(t *testing.T) {
	gw := &stubGateway{startErr: &gateway.Error{Op: "StartTranscription", Code: "ServiceFailureException", Status: 500, Err: errors.New("unavailable")}}
	r, id := setupRouter(t, gw)

	resp := do(t, r, http.MethodPost, "/meetings/"+id+"/transcription", nil)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestStartTranscriptionUnknownMeeting(t *testing.T) {
	r, _ := setupRouter(t, &stubGateway{})

	resp := do(t, r, http.MethodPost, "/meetings/missing/transcription", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStartDegradedEndpoint(t *testing.T) {
	r, id := setupRouter(t, &stubGateway{})

	resp := do(t, r, http.MethodPost, "/meetings/"+id+"/transcription/degraded", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestStopTranscriptionFailure(t *testing.T) {
	gw := &stubGateway{stopErr: &gateway.Error{Op: "StopTranscription", Code: "ServiceFailureException", Status: 500, Err: errors.New("unavailable")}}
	r, id := setupRouter(t, gw)

	resp := do(t, r, http.MethodDelete, "/meetings/"+id+"/transcription", nil)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestTranscriptionStatus(t *testing.T) {
	r, id := setupRouter(t, &stubGateway{})

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/meetings/"+id+"/transcription", nil).Code)

	resp := do(t, r, http.MethodGet, "/meetings/"+id+"/transcription", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Local struct {
			Enabled bool   `json:"enabled"`
			Mode    string `json:"mode"`
		} `json:"local"`
		Remote struct {
			Known  bool `json:"known"`
			Active bool `json:"active"`
		} `json:"remote"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.Local.Enabled)
	assert.Equal(t, string(model.ModeProviderManaged), body.Local.Mode)
	assert.True(t, body.Remote.Known)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/meetings/missing/transcription", nil).Code)
}
