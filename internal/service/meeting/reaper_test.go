package meeting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backdate rewinds a session's creation time so expiry can be exercised
// without waiting out the real time-to-live.
func backdate(t *testing.T, r *Registry, id string, age time.Duration) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	require.True(t, ok)
	e.s.CreatedAt = time.Now().UTC().Add(-age)
}

func TestSweepRemovesOnlyExpiredSessions(t *testing.T) {
	gw := &fakeGateway{}
	r := newRegistry(gw)
	reaper := NewReaper(r, time.Minute, time.Hour, nil)

	aged, err := r.Create(context.Background(), "creator-1")
	require.NoError(t, err)
	fresh, err := r.Create(context.Background(), "creator-2")
	require.NoError(t, err)

	backdate(t, r, aged.ID, 61*time.Minute)
	backdate(t, r, fresh.ID, 59*time.Minute)

	assert.Equal(t, 1, reaper.sweep(context.Background()))

	_, err = r.GetProjection(aged.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.GetProjection(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.deleteCalls())
}

func TestSweepContinuesPastGatewayFailures(t *testing.T) {
	gw := &fakeGateway{deleteMeetingErr: errGateway("DeleteMeeting")}
	r := newRegistry(gw)
	reaper := NewReaper(r, time.Minute, time.Hour, nil)

	first, err := r.Create(context.Background(), "creator-1")
	require.NoError(t, err)
	second, err := r.Create(context.Background(), "creator-2")
	require.NoError(t, err)

	backdate(t, r, first.ID, 2*time.Hour)
	backdate(t, r, second.ID, 2*time.Hour)

	// Remote deletes fail, local cleanup still reaps both.
	assert.Equal(t, 2, reaper.sweep(context.Background()))
	assert.Equal(t, 0, r.Len())
}

func TestSweepRacingManualRemove(t *testing.T) {
	gw := &fakeGateway{}
	r := newRegistry(gw)
	reaper := NewReaper(r, time.Minute, time.Hour, nil)

	session, err := r.Create(context.Background(), "creator-1")
	require.NoError(t, err)
	backdate(t, r, session.ID, 2*time.Hour)

	var wg sync.WaitGroup
	var manualErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		reaper.sweep(context.Background())
	}()
	go func() {
		defer wg.Done()
		manualErr = r.Remove(context.Background(), session.ID)
	}()
	wg.Wait()

	// Whoever lost the race observed not-found; the session was torn down
	// remotely exactly once either way.
	if manualErr != nil {
		require.ErrorIs(t, manualErr, ErrSessionNotFound)
	}
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1, gw.deleteCalls())
}

func TestReaperRunRemovesExpiredSessions(t *testing.T) {
	gw := &fakeGateway{}
	r := newRegistry(gw)
	reaper := NewReaper(r, 10*time.Millisecond, 30*time.Millisecond, nil)

	session, err := r.Create(context.Background(), "creator-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reaper.Run(ctx)

	require.Eventually(t, func() bool {
		_, err := r.GetProjection(session.ID)
		return errors.Is(err, ErrSessionNotFound)
	}, time.Second, 5*time.Millisecond)
}
