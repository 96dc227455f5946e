package meeting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/manuelcastro95/chime-backend/internal/service/events"
)

// Reaper removes sessions whose age exceeds the configured time-to-live. It
// drives removal through the same path as a manual delete, so remote
// teardown stays best-effort and local cleanup always wins.
type Reaper struct {
	registry *Registry
	interval time.Duration
	ttl      time.Duration
	logger   *slog.Logger
}

// NewReaper builds a reaper over the registry. interval is the sweep
// cadence, ttl the session time-to-live.
func NewReaper(registry *Registry, interval, ttl time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		registry: registry,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
	}
}

// Run sweeps until ctx is cancelled. Sweeps execute sequentially on this
// goroutine and the ticker drops ticks that fire mid-sweep, so cycles never
// overlap or queue up.
func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	rp.logger.Info("session reaper started", "interval", rp.interval, "ttl", rp.ttl)
	for {
		select {
		case <-ctx.Done():
			rp.logger.Info("session reaper stopped")
			return
		case <-ticker.C:
			rp.sweep(ctx)
		}
	}
}

// sweep removes every session past its time-to-live. One session's failure
// never prevents reaping the rest, and a session that vanished between the
// snapshot and the removal is treated as already gone.
func (rp *Reaper) sweep(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-rp.ttl)
	expired := rp.registry.expiredBefore(cutoff)
	if len(expired) == 0 {
		return 0
	}

	reaped := 0
	for _, id := range expired {
		err := rp.registry.remove(ctx, id, events.ReasonExpired)
		switch {
		case err == nil:
			reaped++
		case errors.Is(err, ErrSessionNotFound):
			// Removed concurrently, nothing left to do.
		default:
			rp.logger.Warn("failed to reap session", "meeting_id", id, "error", err)
		}
	}

	rp.logger.Info("reaper sweep finished", "expired", len(expired), "reaped", reaped)
	return reaped
}
