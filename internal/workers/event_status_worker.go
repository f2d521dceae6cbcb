package workers

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// EventStatusWorker marks upcoming/ongoing events whose date passed more than
// GraceHours ago as completed.
type EventStatusWorker struct {
	DB         *sql.DB
	Log        *zap.Logger
	GraceHours int           // default: 24
	Interval   time.Duration // default: 1h
	Now        func() time.Time
}

func (w *EventStatusWorker) defaults() {
	if w.GraceHours <= 0 {
		w.GraceHours = 24
	}
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	if w.Now == nil {
		w.Now = time.Now
	}
}

// Start runs one pass immediately, then one per Interval until ctx is done.
func (w *EventStatusWorker) Start(ctx context.Context) {
	w.defaults()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Log.Info("event status worker started",
		zap.Int("grace_hours", w.GraceHours),
		zap.Duration("interval", w.Interval))

	if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.Log.Warn("event status pass failed", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			w.Log.Info("event status worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.Log.Warn("event status pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce completes stale events and returns how many rows changed.
func (w *EventStatusWorker) RunOnce(ctx context.Context) (int64, error) {
	w.defaults()
	cutoff := w.Now().UTC().Add(-time.Duration(w.GraceHours) * time.Hour)

	result, err := w.DB.ExecContext(ctx, `
		UPDATE events
		SET status = 'completed', updated_at = NOW()
		WHERE status IN ('upcoming', 'ongoing')
		AND date < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.Log.Info("events completed", zap.Int64("count", n))
	}
	return n, nil
}
