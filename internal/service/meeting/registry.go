// Package meeting owns the session registry and its lifecycle: creation
// against the remote provider, idempotent joins, projections, removal and
// background expiry.
package meeting

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manuelcastro95/chime-backend/internal/gateway"
	"github.com/manuelcastro95/chime-backend/internal/metrics"
	model "github.com/manuelcastro95/chime-backend/internal/model/meeting"
	"github.com/manuelcastro95/chime-backend/internal/service/events"
)

// ErrSessionNotFound is reported for any operation on an unknown or already
// removed session id.
var ErrSessionNotFound = errors.New("session not found")

// Registry tracks live sessions and keeps them consistent with the remote
// provider. The registry lock guards only the id map; each session carries
// its own lock so a slow provider call stalls at most that one session.
type Registry struct {
	gw          gateway.RemoteMeetingGateway
	broker      *events.Broker
	logger      *slog.Logger
	mediaRegion string

	mu       sync.RWMutex
	sessions map[string]*entry
}

// entry pairs a session with its serialization lock. removed marks terminal
// entries so operations racing a removal observe not-found instead of
// mutating a ghost.
type entry struct {
	mu      sync.Mutex
	removed bool
	s       model.Session
}

// NewRegistry builds an empty registry backed by the given provider gateway.
// broker may be nil when no event feed is wanted.
func NewRegistry(gw gateway.RemoteMeetingGateway, broker *events.Broker, logger *slog.Logger, mediaRegion string) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		gw:          gw,
		broker:      broker,
		logger:      logger,
		mediaRegion: mediaRegion,
		sessions:    make(map[string]*entry),
	}
}

// Create provisions a meeting with the remote provider and, only on success,
// inserts a new session keyed by the provider-assigned id. Nothing is
// recorded locally when the provider call fails.
func (r *Registry) Create(ctx context.Context, creatorID string) (model.Session, error) {
	requestToken := uuid.NewString()
	externalID := uuid.NewString()

	desc, err := r.gw.CreateMeeting(ctx, requestToken, r.mediaRegion, externalID)
	if err != nil {
		return model.Session{}, err
	}

	s := model.Session{
		ID:            desc.MeetingID,
		ExternalID:    desc.ExternalID,
		Provider:      desc,
		CreatedAt:     time.Now().UTC(),
		CreatorID:     creatorID,
		Attendees:     make(map[string]model.Attendee),
		Transcription: model.TranscriptionState{Enabled: false, Mode: model.ModeOff},
	}

	r.mu.Lock()
	r.sessions[s.ID] = &entry{s: s}
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(size)
	r.broker.Publish(events.Event{Type: events.TypeSessionCreated, MeetingID: s.ID, UserID: creatorID})
	r.logger.Info("session created", "meeting_id", s.ID, "creator_id", creatorID)

	return s, nil
}

// List returns projections over all live sessions. It never calls the
// provider and never fails.
func (r *Registry) List() []model.Projection {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]model.Projection, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			out = append(out, e.s.Projection())
		}
		e.mu.Unlock()
	}
	return out
}

// GetProjection returns the credential-free view of one session.
func (r *Registry) GetProjection(id string) (model.Projection, error) {
	e := r.lookup(id)
	if e == nil {
		return model.Projection{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return model.Projection{}, ErrSessionNotFound
	}
	return e.s.Projection(), nil
}

// Join admits userID into the session. A repeated join with the same user id
// returns the existing attendee without contacting the provider; otherwise
// the provider mints the credential first and the session is only mutated on
// success.
func (r *Registry) Join(ctx context.Context, id, userID, displayName string) (model.JoinResult, error) {
	e := r.lookup(id)
	if e == nil {
		return model.JoinResult{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return model.JoinResult{}, ErrSessionNotFound
	}

	if existing, ok := e.s.Attendees[userID]; ok {
		return model.JoinResult{
			Meeting:   e.s.Projection(),
			Attendee:  existing,
			IsCreator: userID == e.s.CreatorID,
		}, nil
	}

	desc, err := r.gw.CreateAttendee(ctx, id, userID)
	if err != nil {
		return model.JoinResult{}, err
	}

	if displayName == "" {
		displayName = userID
	}
	attendee := model.Attendee{
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    time.Now().UTC(),
		Provider:    desc,
	}
	e.s.Attendees[userID] = attendee

	r.broker.Publish(events.Event{Type: events.TypeAttendeeJoined, MeetingID: id, UserID: userID})
	r.logger.Info("attendee joined", "meeting_id", id, "user_id", userID)

	return model.JoinResult{
		Meeting:   e.s.Projection(),
		Attendee:  attendee,
		IsCreator: userID == e.s.CreatorID,
	}, nil
}

// Remove deletes the session, attempting the remote teardown first. A
// provider failure is logged and swallowed: remote absence must never block
// local cleanup. Used by both manual deletion and the reaper.
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.remove(ctx, id, events.ReasonManual)
}

func (r *Registry) remove(ctx context.Context, id, reason string) error {
	e := r.lookup(id)
	if e == nil {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return ErrSessionNotFound
	}

	if err := r.gw.DeleteMeeting(ctx, id); err != nil {
		// Best effort: a dangling remote meeting is recoverable, a
		// dangling local record would block recreating the session.
		r.logger.Warn("remote meeting delete failed, removing locally anyway",
			"meeting_id", id, "reason", reason, "error", err)
	}
	e.removed = true
	e.mu.Unlock()

	r.mu.Lock()
	delete(r.sessions, id)
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(size)
	metrics.RecordSessionRemoved(reason)
	r.broker.Publish(events.Event{Type: events.TypeSessionRemoved, MeetingID: id, Reason: reason})
	r.logger.Info("session removed", "meeting_id", id, "reason", reason)

	return nil
}

// Mutate runs fn against the session under its serialization lock. fn may
// call the provider; only operations on the same session wait for it. An
// error from fn leaves nothing committed beyond what fn itself changed.
func (r *Registry) Mutate(id string, fn func(s *model.Session) error) error {
	e := r.lookup(id)
	if e == nil {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return ErrSessionNotFound
	}
	return fn(&e.s)
}

// Snapshot returns a copy of the session safe to read without holding any
// registry lock.
func (r *Registry) Snapshot(id string) (model.Session, bool) {
	e := r.lookup(id)
	if e == nil {
		return model.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return model.Session{}, false
	}

	snap := e.s
	snap.Attendees = make(map[string]model.Attendee, len(e.s.Attendees))
	for k, v := range e.s.Attendees {
		snap.Attendees[k] = v
	}
	return snap, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// expiredBefore snapshots the ids of sessions created before cutoff.
// CreatedAt is immutable, so reading it needs no per-session lock.
func (r *Registry) expiredBefore(cutoff time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, e := range r.sessions {
		if e.s.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Registry) lookup(id string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}
