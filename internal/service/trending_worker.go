package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
)

const (
	DefaultTrendingSchedule = "@every 10m"
	DefaultTrendingHorizon  = 7 * 24 * time.Hour
)

// TrendingWorker periodically recomputes the stored trending_score so the
// trending sort decays with age even when a take receives no new votes.
type TrendingWorker struct {
	store    TrendingStore
	schedule string
	horizon  time.Duration
	now      func() time.Time

	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewTrendingWorker creates a worker on a cron schedule ("@every 10m" style or
// a standard five-field expression).
func NewTrendingWorker(store TrendingStore, schedule string, horizon time.Duration) *TrendingWorker {
	if schedule == "" {
		schedule = DefaultTrendingSchedule
	}
	if horizon <= 0 {
		horizon = DefaultTrendingHorizon
	}
	return &TrendingWorker{
		store:    store,
		schedule: schedule,
		horizon:  horizon,
		now:      time.Now,
	}
}

// Start runs one refresh immediately, then on every schedule tick until Stop
// or ctx cancellation.
func (w *TrendingWorker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(w.schedule, func() { w.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("trending schedule %q: %w", w.schedule, err)
	}
	w.cron, w.cancel = c, cancel

	log.Info().Str("schedule", w.schedule).Dur("horizon", w.horizon).Msg("trending-worker: starting")
	w.tick(runCtx)
	w.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (w *TrendingWorker) Stop() {
	if w.cron == nil {
		return
	}
	w.cancel()
	<-w.cron.Stop().Done()
	log.Info().Msg("trending-worker: stopped")
}

// tick runs one refresh cycle.
func (w *TrendingWorker) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()

	updated, err := w.store.RefreshTrending(ctx, w.now(), w.horizon)
	elapsed := time.Since(start)
	metrics.TrendingRefreshDuration.Observe(elapsed.Seconds())
	if err != nil {
		log.Error().Err(err).Msg("trending-worker: refresh failed")
		return
	}

	log.Info().Int("updated", updated).Dur("elapsed", elapsed.Round(time.Millisecond)).Msg("trending-worker: tick complete")
}
