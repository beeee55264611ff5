package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// StatusRefresher aligns the day statuses of every active journey with
// today's date.
type StatusRefresher interface {
	RefreshActive(ctx context.Context) (int, error)
}

// HealthCheck verifies that a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RefreshJob runs the periodic day status refresh.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	refresher StatusRefresher
	checks    map[string]HealthCheck

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns         int64
	SuccessfulRuns    int64
	FailedRuns        int64
	JourneysRefreshed int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Refresher StatusRefresher

	// Checks are run by health check jobs, keyed by dependency name.
	Checks map[string]HealthCheck
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		refresher: cfg.Refresher,
		checks:    cfg.Checks,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh run.
type RefreshResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Refreshed int
	Err       error
}

// Run refreshes every active journey once. Journeys that fail are reported
// in Err; the others are still refreshed.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	result.Refreshed, result.Err = j.refresher.RefreshActive(runCtx)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	event := j.logger.Info()
	if result.Err != nil {
		event = j.logger.Error().Err(result.Err)
	}
	event.
		Dur("duration", result.Duration).
		Int("refreshed", result.Refreshed).
		Msg("status refresh completed")

	return result
}

// Start runs the refresh on every interval until ctx is done.
func (j *RefreshJob) Start(ctx context.Context) {
	j.logger.Info().
		Dur("interval", j.config.Interval).
		Msg("starting status refresh schedule")

	if j.config.RunOnStart {
		j.Run(ctx)
	}

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("status refresh schedule stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

// HealthCheck runs every configured check and joins their failures.
func (j *RefreshJob) HealthCheck(ctx context.Context) error {
	names := make([]string, 0, len(j.checks))
	for name := range j.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
		err := j.checks[name](checkCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if result.Err != nil {
		j.metrics.FailedRuns++
	} else {
		j.metrics.SuccessfulRuns++
	}
	j.metrics.JourneysRefreshed += int64(result.Refreshed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		SuccessfulRuns:    j.metrics.SuccessfulRuns,
		FailedRuns:        j.metrics.FailedRuns,
		JourneysRefreshed: j.metrics.JourneysRefreshed,
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		TotalDuration:     j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":         m.TotalRuns,
		"successful_runs":    m.SuccessfulRuns,
		"failed_runs":        m.FailedRuns,
		"journeys_refreshed": m.JourneysRefreshed,
		"last_run_at":        m.LastRunAt,
		"last_run_duration":  m.LastRunDuration.String(),
		"total_duration":     m.TotalDuration.String(),
	}
}
