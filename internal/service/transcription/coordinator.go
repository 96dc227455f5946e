// Package transcription layers the per-session transcription state machine
// on top of the session registry: Off, provider-managed, and a degraded
// local-only mode for when the provider refuses the start for permission
// reasons.
package transcription

import (
	"context"
	"log/slog"

	"github.com/manuelcastro95/chime-backend/internal/gateway"
	"github.com/manuelcastro95/chime-backend/internal/metrics"
	model "github.com/manuelcastro95/chime-backend/internal/model/meeting"
	"github.com/manuelcastro95/chime-backend/internal/service/events"
	meetingservice "github.com/manuelcastro95/chime-backend/internal/service/meeting"
)

// Outcome tells the caller how a start request ended when it did not fail.
type Outcome string

const (
	// OutcomeStarted means the provider accepted the start request.
	OutcomeStarted Outcome = "started"
	// OutcomeDegraded means the provider rejected the caller's permissions
	// and transcription fell back to local-only bookkeeping.
	OutcomeDegraded Outcome = "degraded"
)

// contentMaskingPII is the masking policy sent with every provider start.
const contentMaskingPII = "PII"

// Status is the answer to a status check: the local state plus the
// best-effort remote view. Remote.Known is false when the provider could not
// be queried.
type Status struct {
	Enabled bool
	Mode    model.TranscriptionMode
	Remote  RemoteStatus
}

// RemoteStatus is the provider-side view of transcription.
type RemoteStatus struct {
	Known  bool
	Active bool
}

// Coordinator drives transcription transitions for sessions in the registry.
type Coordinator struct {
	registry      *meetingservice.Registry
	gw            gateway.RemoteMeetingGateway
	broker        *events.Broker
	logger        *slog.Logger
	defaultRegion string
}

// NewCoordinator wires the coordinator to the registry and provider gateway.
// defaultRegion is used when a start request names no transcribe region.
func NewCoordinator(registry *meetingservice.Registry, gw gateway.RemoteMeetingGateway, broker *events.Broker, logger *slog.Logger, defaultRegion string) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		registry:      registry,
		gw:            gw,
		broker:        broker,
		logger:        logger,
		defaultRegion: defaultRegion,
	}
}

// Start asks the provider to begin transcription. An authorization failure
// is not a hard error: the session transitions to degraded mode and the
// caller is told so it can present the fallback experience. Any other
// provider failure leaves the state untouched.
func (c *Coordinator) Start(ctx context.Context, id, language, region string) (Outcome, error) {
	if region == "" {
		region = c.defaultRegion
	}
	req := model.TranscriptionRequest{
		LanguageCode:   ResolveLocale(language),
		Region:         region,
		ContentMasking: contentMaskingPII,
	}

	outcome := OutcomeStarted
	err := c.registry.Mutate(id, func(s *model.Session) error {
		if err := c.gw.StartTranscription(ctx, s.ID, req); err != nil {
			if !gateway.IsAuthorizationFailure(err) {
				return err
			}
			c.logger.Warn("provider refused transcription, entering degraded mode",
				"meeting_id", s.ID, "error", err)
			s.Transcription = model.TranscriptionState{Enabled: true, Mode: model.ModeDegraded}
			outcome = OutcomeDegraded
			metrics.RecordDegradedTranscription()
			c.broker.Publish(events.Event{Type: events.TypeTranscriptionDegraded, MeetingID: s.ID})
			return nil
		}

		s.Transcription = model.TranscriptionState{Enabled: true, Mode: model.ModeProviderManaged}
		c.broker.Publish(events.Event{Type: events.TypeTranscriptionStarted, MeetingID: s.ID})
		c.logger.Info("transcription started", "meeting_id", s.ID, "locale", req.LanguageCode, "region", req.Region)
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// StartDegraded enters degraded mode without contacting the provider.
func (c *Coordinator) StartDegraded(ctx context.Context, id string) error {
	return c.registry.Mutate(id, func(s *model.Session) error {
		s.Transcription = model.TranscriptionState{Enabled: true, Mode: model.ModeDegraded}
		metrics.RecordDegradedTranscription()
		c.broker.Publish(events.Event{Type: events.TypeTranscriptionDegraded, MeetingID: s.ID})
		c.logger.Info("transcription started in degraded mode", "meeting_id", s.ID)
		return nil
	})
}

// Stop asks the provider to stop transcription. The stop is attempted even
// in degraded mode, since a remote transcript may still be running. Local
// state only transitions to off when the provider call succeeds; a failed
// stop keeps the state so callers are never silently desynced.
func (c *Coordinator) Stop(ctx context.Context, id string) error {
	return c.registry.Mutate(id, func(s *model.Session) error {
		if err := c.gw.StopTranscription(ctx, s.ID); err != nil {
			return err
		}
		s.Transcription = model.TranscriptionState{Enabled: false, Mode: model.ModeOff}
		c.broker.Publish(events.Event{Type: events.TypeTranscriptionStopped, MeetingID: s.ID})
		c.logger.Info("transcription stopped", "meeting_id", s.ID)
		return nil
	})
}

// CheckStatus reports the local transcription state together with a
// best-effort provider lookup. A provider failure is not fatal: the remote
// side is simply reported as unknown.
func (c *Coordinator) CheckStatus(ctx context.Context, id string) (Status, error) {
	snap, ok := c.registry.Snapshot(id)
	if !ok {
		return Status{}, meetingservice.ErrSessionNotFound
	}

	st := Status{
		Enabled: snap.Transcription.Enabled,
		Mode:    snap.Transcription.Mode,
	}

	remote, err := c.gw.GetMeeting(ctx, id)
	if err != nil {
		c.logger.Warn("remote status lookup failed", "meeting_id", id, "error", err)
		return st, nil
	}
	st.Remote = RemoteStatus{Known: true, Active: remote.TranscriptionActive}
	return st, nil
}
