package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/walkplan/walkplan/internal/telemetry"
)

func TestStartSpan_EndSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, ok := telemetry.StartSpan(context.Background(), "planning.calculate", attribute.Int("walkplan.days", 3))
	telemetry.EndSpan(ok, nil)

	_, failed := telemetry.StartSpan(context.Background(), "replan.recalculate")
	telemetry.EndSpan(failed, errors.New("no route found"))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "planning.calculate", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("walkplan.days", 3))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "no route found", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
