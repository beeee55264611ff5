package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Journey lifecycle events counted by Instruments.JourneyEvent.
const (
	EventJourneyCreated   = "journey_created"
	EventJourneyCompleted = "journey_completed"
	EventJourneyAbandoned = "journey_abandoned"
	EventDayCompleted     = "day_completed"
	EventDayReopened      = "day_reopened"
	EventDaySkipped       = "day_skipped"
	EventReplanned        = "replanned"
)

// Instruments records provider call and journey lifecycle metrics.
// A nil *Instruments is valid and records nothing.
type Instruments struct {
	providerCalls   metric.Int64Counter
	providerLatency metric.Float64Histogram
	cacheLookups    metric.Int64Counter
	journeyEvents   metric.Int64Counter
}

// NewInstruments creates the domain instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	providerCalls, err := meter.Int64Counter(
		"walkplan.provider.calls",
		metric.WithDescription("Outbound routing and geocoding calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	providerLatency, err := meter.Float64Histogram(
		"walkplan.provider.duration",
		metric.WithDescription("Duration of outbound provider calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"walkplan.cache.lookups",
		metric.WithDescription("Route and place name cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	journeyEvents, err := meter.Int64Counter(
		"walkplan.journey.events",
		metric.WithDescription("Journey and day status transitions"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &Instruments{
		providerCalls:   providerCalls,
		providerLatency: providerLatency,
		cacheLookups:    cacheLookups,
		journeyEvents:   journeyEvents,
	}, nil
}

// ProviderCall records one provider call that started at start.
func (i *Instruments) ProviderCall(ctx context.Context, provider, operation string, start time.Time, err error) {
	if i == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)

	i.providerCalls.Add(ctx, 1, attrs)
	i.providerLatency.Record(ctx, time.Since(start).Seconds(), attrs)
}

// CacheLookup counts one cache lookup for cache, split by hit and miss.
func (i *Instruments) CacheLookup(ctx context.Context, cache string, hit bool) {
	if i == nil {
		return
	}
	i.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.Bool("hit", hit),
	))
}

// JourneyEvent counts one lifecycle event.
func (i *Instruments) JourneyEvent(ctx context.Context, event string) {
	if i == nil {
		return
	}
	i.journeyEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}
