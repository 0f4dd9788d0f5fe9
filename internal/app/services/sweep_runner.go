package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/pkg/helpers"
)

// SweepRunner triggers the daily alert sweep from inside the process. The
// dedup ledger makes overlapping triggers harmless (a manually triggered
// sweep or a second instance running the same day sends nothing extra), so
// the runner only needs a coarse fire-at-hour loop.
type SweepRunner struct {
	alerts *AlertService
	hour   int
	logger zerolog.Logger

	lastRun time.Time
}

// NewSweepRunner creates a runner that fires once per day at the given hour.
func NewSweepRunner(alerts *AlertService, hour int, logger zerolog.Logger) *SweepRunner {
	return &SweepRunner{
		alerts: alerts,
		hour:   hour,
		logger: logger,
	}
}

// Start runs the scheduler loop until ctx is cancelled.
func (r *SweepRunner) Start(ctx context.Context) {
	go func() {
		r.logger.Info().Int("hour", r.hour).Msg("Alert sweep scheduler started")
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.logger.Info().Msg("Alert sweep scheduler stopped")
				return
			case now := <-ticker.C:
				if now.Hour() != r.hour || helpers.SameDate(now, r.lastRun) {
					continue
				}
				r.lastRun = now
				r.runOnce(ctx)
			}
		}
	}()
}

func (r *SweepRunner) runOnce(ctx context.Context) {
	runID := uuid.New().String()
	lgr := r.logger.With().Str("sweepRunId", runID).Logger()
	lgr.Info().Msg("Triggering daily alert sweep")

	runCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()

	result, err := r.alerts.RunDailySweep(runCtx)
	if err != nil {
		// Already-notified subjects are in the ledger; the remainder is
		// retried on the next trigger.
		lgr.Error().Err(err).Msg("Daily alert sweep aborted")
		return
	}
	lgr.Info().
		Int("visaAlerts", result.VisaAlerts).
		Int("missingDocAlerts", result.MissingDocAlerts).
		Int("expiryWarnings", result.ExpiryWarnings).
		Msg("Daily alert sweep completed")
}
