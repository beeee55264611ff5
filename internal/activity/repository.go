package activity

import (
	"context"
	"time"
)

// Repository stores activity samples.
type Repository interface {
	// Add stores samples. A sample whose ID is already stored is ignored.
	Add(ctx context.Context, samples []Sample) error

	// Sum totals the samples recorded in [from, to).
	Sum(ctx context.Context, from, to time.Time) (Totals, error)
}
