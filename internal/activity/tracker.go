package activity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TotalsSource answers totals for a time range without failing.
type TotalsSource interface {
	StepsAndDistance(ctx context.Context, from, to time.Time) Totals
}

// TrackerConfig holds configuration for a Tracker.
type TrackerConfig struct {
	Source TotalsSource
	Logger zerolog.Logger

	// Interval between polls (default: 1 minute).
	Interval time.Duration

	// Location defines where "today" starts (default: time.Local).
	Location *time.Location
}

// Snapshot is the latest polled totals.
type Snapshot struct {
	Today       Totals    `json:"today"`
	Period      Totals    `json:"period"`
	PeriodStart time.Time `json:"periodStart"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tracker keeps today's totals and the totals since a period start up to
// date by polling its source. It does nothing until Start is called.
type Tracker struct {
	source   TotalsSource
	logger   zerolog.Logger
	interval time.Duration
	loc      *time.Location
	now      func() time.Time

	mu          sync.RWMutex
	periodStart time.Time
	snapshot    Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker creates a stopped tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Tracker{
		source:   cfg.Source,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		loc:      cfg.Location,
		now:      time.Now,
	}
}

// SetPeriodStart sets the start of the period totals, typically the start
// date of the active journey. A zero time disables period totals.
func (t *Tracker) SetPeriodStart(start time.Time) {
	t.mu.Lock()
	t.periodStart = start
	t.mu.Unlock()
}

// Start polls once and then on every interval until Stop or ctx is done.
// Starting a running tracker has no effect.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	t.Poll(ctx)

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Poll(ctx)
			}
		}
	}()

	t.logger.Info().Dur("interval", t.interval).Msg("activity tracker started")
}

// Stop ends polling and waits for the poll loop to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.logger.Info().Msg("activity tracker stopped")
}

// Poll refreshes the snapshot immediately.
func (t *Tracker) Poll(ctx context.Context) {
	now := t.now()
	y, m, d := now.In(t.loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.loc)

	t.mu.RLock()
	periodStart := t.periodStart
	t.mu.RUnlock()

	snap := Snapshot{
		Today:       t.source.StepsAndDistance(ctx, midnight, now),
		PeriodStart: periodStart,
		UpdatedAt:   now,
	}
	if !periodStart.IsZero() {
		snap.Period = t.source.StepsAndDistance(ctx, periodStart, now)
	}

	t.mu.Lock()
	t.snapshot = snap
	t.mu.Unlock()
}

// Snapshot returns the latest polled totals.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}
