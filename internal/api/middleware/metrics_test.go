package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/walkplan/walkplan/internal/api/middleware"
)

func newTestMetrics(t *testing.T) (*middleware.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := middleware.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewMetrics_GlobalMeter(t *testing.T) {
	metrics, err := middleware.NewMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, metrics)
}

func TestMetrics_Middleware_RecordsByRoute(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/v1/journeys/{journeyId}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	for _, id := range []string{"j1", "j2", "j3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/journeys/"+id, http.NoBody))
	}

	data := collect(t, reader)
	total, ok := data["http.server.request.total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1, "ids must not split the series")

	dp := total.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)
	route, _ := dp.Attributes.Value("http.route")
	assert.Equal(t, "/v1/journeys/{journeyId}", route.AsString())
	class, _ := dp.Attributes.Value("http.response.status_class")
	assert.Equal(t, "2xx", class.AsString())

	assert.Contains(t, data, "http.server.request.duration")
	assert.Contains(t, data, "http.server.response.body.size")
}

func TestMetrics_Middleware_RecordsUploadSize(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	body := strings.Repeat("x", 2048)
	req := httptest.NewRequest(http.MethodPost, "/v1/days/d1/journal/photos", strings.NewReader(body))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	size, ok := collect(t, reader)["http.server.request.body.size"].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, size.DataPoints, 1)
	assert.Equal(t, int64(2048), size.DataPoints[0].Sum)
}

func TestMetrics_Middleware_PassesThrough(t *testing.T) {
	metrics, _ := newTestMetrics(t)

	tests := []struct {
		name   string
		status int
	}{
		{"success", http.StatusOK},
		{"bad request", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/activity/samples", http.NoBody))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "body", w.Body.String())
		})
	}
}
