// Package worker provides background job processing for walkplan.
package worker

import (
	"time"
)

// Job types accepted on the Pub/Sub subscription.
const (
	JobStatusRefresh = "status_refresh"
	JobHealthCheck   = "health_check"
)

// RefreshConfig holds configuration for the status refresh job.
type RefreshConfig struct {
	// Interval between scheduled refreshes.
	// Default: 15 minutes
	Interval time.Duration

	// Timeout bounds a single refresh run.
	// Default: 30 seconds
	Timeout time.Duration

	// RunOnStart runs a refresh as soon as the schedule starts.
	// Default: true
	RunOnStart bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Interval:   15 * time.Minute,
		Timeout:    30 * time.Second,
		RunOnStart: true,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
