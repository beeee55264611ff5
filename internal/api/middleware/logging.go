package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger returns a middleware that logs one line per request. Routes are
// logged by pattern; the ids they matched are logged as separate fields.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			event := log.Info()
			switch {
			case wrapped.status >= http.StatusInternalServerError:
				event = log.Error()
			case wrapped.status >= http.StatusBadRequest:
				event = log.Warn()
			case r.URL.Path == "/v1/ops/health" || r.URL.Path == "/v1/ops/ready":
				// Probes hit these every few seconds.
				event = log.Debug()
			}

			if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
				event = event.
					Str("trace_id", spanCtx.TraceID().String()).
					Str("span_id", spanCtx.SpanID().String())
			}
			for field, id := range resourceIDs(r) {
				event = event.Str(field, id)
			}
			if owner := GetOwnerID(r.Context()); owner != "" {
				event = event.Str("owner_id", owner)
			}

			event.
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Str("path", r.URL.Path).
				Int("status", wrapped.status).
				Int64("request_bytes", r.ContentLength).
				Int64("bytes", wrapped.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request completed")
		})
	}
}
