package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxBatchSize caps the samples accepted in one Record call.
const MaxBatchSize = 500

// ServiceConfig holds configuration for the activity service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
}

// Service records samples and answers totals.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new activity service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{repo: cfg.Repository, logger: cfg.Logger}
}

// Record validates and stores a batch of samples. Samples without an ID are
// assigned one; resubmitted IDs are ignored.
func (s *Service) Record(ctx context.Context, samples []Sample) (int, error) {
	if len(samples) > MaxBatchSize {
		return 0, fmt.Errorf("%w: at most %d samples per batch", ErrInvalidSample, MaxBatchSize)
	}

	batch := make([]Sample, len(samples))
	for i, sample := range samples {
		if err := sample.validate(); err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if sample.ID == "" {
			sample.ID = uuid.NewString()
		}
		batch[i] = sample
	}

	if err := s.repo.Add(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// Totals sums the samples recorded in [from, to).
func (s *Service) Totals(ctx context.Context, from, to time.Time) (Totals, error) {
	if to.Before(from) {
		return Totals{}, ErrInvalidRange
	}
	return s.repo.Sum(ctx, from, to)
}

// StepsAndDistance is Totals for callers that cannot act on a failure: when
// the store is unavailable the failure is logged and zero totals are returned.
func (s *Service) StepsAndDistance(ctx context.Context, from, to time.Time) Totals {
	t, err := s.Totals(ctx, from, to)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Time("from", from).
			Time("to", to).
			Msg("activity totals unavailable, using zero")
		return Totals{}
	}
	return t
}
