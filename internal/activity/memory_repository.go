package activity

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	samples map[string]Sample
}

var _ Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{samples: make(map[string]Sample)}
}

// Add stores samples, ignoring IDs already present.
func (r *InMemoryRepository) Add(_ context.Context, samples []Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		if _, ok := r.samples[s.ID]; !ok {
			r.samples[s.ID] = s
		}
	}
	return nil
}

// Sum totals samples recorded in [from, to).
func (r *InMemoryRepository) Sum(_ context.Context, from, to time.Time) (Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var t Totals
	for _, s := range r.samples {
		if !s.RecordedAt.Before(from) && s.RecordedAt.Before(to) {
			t = t.Add(Totals{Steps: s.Steps, DistanceMeters: s.DistanceMeters})
		}
	}
	return t, nil
}
