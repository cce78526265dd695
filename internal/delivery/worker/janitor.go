package worker

import (
	"context"
	"log/slog"
	"time"

	"lumen/internal/delivery"
	"lumen/internal/usecase"

	"go.uber.org/fx"
)

// cleanupInterval is how often expired sessions are swept.
const cleanupInterval = time.Hour

// janitor periodically removes expired sessions and their access tokens.
type janitor struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
	done   chan struct{}
}

// JanitorParams holds dependencies for the session janitor
type JanitorParams struct {
	fx.In

	Lc     fx.Lifecycle
	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// NewJanitor creates the periodic session cleanup worker
func NewJanitor(params JanitorParams) delivery.Delivery {
	j := &janitor{
		authUC: params.AuthUC,
		logger: params.Logger,
		done:   make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: j.stop,
	})

	return j
}

// Serve sweeps once at startup, then on every tick until shutdown.
func (j *janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	j.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-j.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *janitor) sweep(ctx context.Context) {
	removed, err := j.authUC.CleanupExpired(ctx)
	if err != nil {
		j.logger.Error("[Janitor] Session cleanup failed", slog.Any("error", err))

		return
	}

	if removed > 0 {
		j.logger.Info("[Janitor] Expired sessions removed", slog.Int64("removed", removed))
	}
}

func (j *janitor) stop(ctx context.Context) error {
	close(j.done)

	return nil
}
