package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const boostWeek = 7 * 24 * time.Hour

// Store clears expired monetization fields. Reads never depend on the sweep:
// activeness is always derived against the current time.
type Store interface {
	ClearExpiredPremium(ctx context.Context, now time.Time) (int64, error)
	ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error)
	ResetBoostWeeks(ctx context.Context, cutoff time.Time) (int64, error)
}

type Job struct {
	store    Store
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

type Report struct {
	PremiumCleared int64
	BoostsCleared  int64
	WeeksReset     int64
}

func New(store Store, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		store:    store,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run performs one sweep. Every step runs even when an earlier one failed.
func (j *Job) Run(ctx context.Context) (Report, error) {
	if j.store == nil {
		return Report{}, fmt.Errorf("sweeper store is nil")
	}

	now := j.now().UTC()
	var (
		report   Report
		firstErr error
		err      error
	)

	if report.PremiumCleared, err = j.store.ClearExpiredPremium(ctx, now); err != nil {
		firstErr = fmt.Errorf("clear expired premium: %w", err)
	}
	if report.BoostsCleared, err = j.store.ClearExpiredBoosts(ctx, now); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("clear expired boosts: %w", err)
	}
	if report.WeeksReset, err = j.store.ResetBoostWeeks(ctx, now.Add(-boostWeek)); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("reset boost weeks: %w", err)
	}

	if report.PremiumCleared+report.BoostsCleared+report.WeeksReset > 0 {
		j.logger.Info("expiry sweep completed",
			zap.Int64("premium_cleared", report.PremiumCleared),
			zap.Int64("boosts_cleared", report.BoostsCleared),
			zap.Int64("boost_weeks_reset", report.WeeksReset),
		)
	}
	return report, firstErr
}

// Loop sweeps once immediately and then every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (j *Job) Loop(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.Run(ctx); err != nil {
			j.logger.Warn("expiry sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
