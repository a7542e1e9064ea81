package watcher

import (
	"context"
	"log/slog"
	"slices"
	"time"

	cerrors "github.com/Aman-CERP/coderag/internal/errors"
	"github.com/Aman-CERP/coderag/internal/index"
)

// Updater applies an incremental index update. *index.Indexer satisfies it.
type Updater interface {
	Update(ctx context.Context) (index.UpdateStats, error)
}

// RunConfig configures Run.
type RunConfig struct {
	// Retry governs retries while another process holds the index lock.
	// Other update errors are never retried.
	Retry cerrors.RetryConfig

	// OnUpdate, when set, is called after every successful update.
	OnUpdate func(batch []FileEvent, stats index.UpdateStats)
}

// DefaultRunConfig returns the default busy-lock retry policy.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Retry: cerrors.RetryConfig{
			MaxRetries:   5,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Run applies one Update per batch until batches is closed or ctx is
// cancelled. A failed update is logged and watching continues; only a
// closed index or cancellation ends the loop.
func Run(ctx context.Context, batches <-chan []FileEvent, u Updater, cfg RunConfig) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			if err := apply(ctx, batch, u, cfg); err != nil {
				return err
			}
		}
	}
}

func apply(ctx context.Context, batch []FileEvent, u Updater, cfg RunConfig) error {
	if slices.ContainsFunc(batch, func(e FileEvent) bool { return e.Operation == OpConfigChange }) {
		slog.Warn("watch_config_changed",
			slog.String("hint", "restart coderag watch to apply configuration changes"))
	}

	start := time.Now()
	stats, err := cerrors.RetryWithResult(ctx, cfg.Retry, func() (index.UpdateStats, error) {
		stats, err := u.Update(ctx)
		if err != nil && !cerrors.HasCode(err, cerrors.ErrCodeIndexBusy) {
			return stats, cerrors.Permanent(err)
		}
		return stats, err
	})

	switch {
	case err == nil:
		slog.Info("watch_update",
			slog.Int("events", len(batch)),
			slog.Int("added", stats.Added),
			slog.Int("updated", stats.Updated),
			slog.Int("removed", stats.Removed),
			slog.Duration("duration", time.Since(start)))
		if cfg.OnUpdate != nil {
			cfg.OnUpdate(batch, stats)
		}
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case cerrors.HasCode(err, cerrors.ErrCodeIndexClosed):
		return err
	default:
		slog.Error("watch_update_failed",
			slog.Int("events", len(batch)),
			slog.String("error_code", cerrors.GetCode(err)),
			slog.String("error", err.Error()))
		return nil
	}
}
