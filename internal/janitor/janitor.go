// Package janitor runs the background sweep over analysis sessions.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/events"
	"github.com/ashureev/productlens/internal/store"
)

// Config controls the sweep.
type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// StaleAfter fails sessions stuck in processing for longer than this.
	// Zero disables the check.
	StaleAfter time.Duration
	// Retention deletes settled sessions not updated for longer than this.
	// Zero keeps sessions forever.
	Retention time.Duration
}

// CleanupCallback is called with the id of every purged session.
type CleanupCallback func(sessionID string)

// Janitor fails abandoned analyses and purges old sessions.
type Janitor struct {
	repo      store.Repository
	cfg       Config
	publisher events.Publisher
	onCleanup CleanupCallback
	now       func() time.Time
}

// New creates a janitor. publisher and onCleanup may be nil.
func New(repo store.Repository, cfg Config, publisher events.Publisher, onCleanup CleanupCallback) *Janitor {
	return &Janitor{
		repo:      repo,
		cfg:       cfg,
		publisher: publisher,
		onCleanup: onCleanup,
		now:       time.Now,
	}
}

// Start runs the sweep on a ticker until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	if j.cfg.Interval <= 0 {
		slog.Info("Session janitor disabled")
		return
	}
	ticker := time.NewTicker(j.cfg.Interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session janitor started",
			"interval", j.cfg.Interval, "stale_after", j.cfg.StaleAfter, "retention", j.cfg.Retention)

		for {
			select {
			case <-ticker.C:
				j.Sweep(ctx)
			case <-ctx.Done():
				slog.Info("Session janitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Sweep performs one pass and returns the number of failed and purged
// sessions.
func (j *Janitor) Sweep(ctx context.Context) (failed, purged int) {
	now := j.now()
	if j.cfg.StaleAfter > 0 {
		failed = j.failStale(ctx, now.Add(-j.cfg.StaleAfter))
	}
	if j.cfg.Retention > 0 {
		purged = j.purge(ctx, now.Add(-j.cfg.Retention))
	}
	if failed > 0 || purged > 0 {
		slog.Info("Session janitor sweep completed", "failed", failed, "purged", purged)
	}
	return failed, purged
}

func (j *Janitor) failStale(ctx context.Context, cutoff time.Time) int {
	stale, err := j.repo.ListStale(ctx, domain.StatusProcessing, cutoff)
	if err != nil {
		slog.Error("Session janitor failed to list stale sessions", "error", err)
		return 0
	}

	count := 0
	for _, sess := range stale {
		updated, err := j.repo.Update(ctx, sess.ID, domain.SessionUpdate{Status: domain.StatusPtr(domain.StatusError)})
		if err != nil {
			slog.Warn("Session janitor failed to mark session as errored", "session_id", sess.ID, "error", err)
			continue
		}
		if updated == nil {
			continue
		}
		slog.Warn("Session janitor failed abandoned analysis", "session_id", sess.ID, "stuck_since", sess.UpdatedAt)
		if j.publisher != nil {
			j.publisher.Publish(events.Event{SessionID: sess.ID, Status: domain.StatusError, Error: "analysis abandoned"})
		}
		count++
	}
	return count
}

func (j *Janitor) purge(ctx context.Context, cutoff time.Time) int {
	count := 0
	for _, status := range []domain.Status{domain.StatusPending, domain.StatusCompleted, domain.StatusError} {
		old, err := j.repo.ListStale(ctx, status, cutoff)
		if err != nil {
			slog.Error("Session janitor failed to list expired sessions", "status", status, "error", err)
			continue
		}
		for _, sess := range old {
			deleted, err := j.repo.Delete(ctx, sess.ID)
			if err != nil {
				slog.Warn("Session janitor failed to delete session", "session_id", sess.ID, "error", err)
				continue
			}
			if !deleted {
				continue
			}
			if j.onCleanup != nil {
				j.onCleanup(sess.ID)
			}
			count++
		}
	}
	return count
}
