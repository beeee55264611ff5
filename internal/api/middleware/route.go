package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// resourceParams are the URL parameters copied onto logs and spans, keyed by
// the field name they are recorded under.
var resourceParams = []struct {
	param string
	field string
}{
	{"sessionId", "session_id"},
	{"journeyId", "journey_id"},
	{"dayId", "day_id"},
	{"photoId", "photo_id"},
}

// routePattern returns the chi pattern the request matched, such as
// /v1/journeys/{journeyId}. It is only complete once routing has run, so
// callers read it after next.ServeHTTP returns.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" && pattern != "/*" {
		return pattern
	}
	return unmatchedRoute
}

// resourceIDs returns the planning session, journey, day and photo ids
// present in the matched route, keyed by field name.
func resourceIDs(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	var ids map[string]string
	for _, p := range resourceParams {
		if v := rctx.URLParam(p.param); v != "" {
			if ids == nil {
				ids = make(map[string]string, len(resourceParams))
			}
			ids[p.field] = v
		}
	}
	return ids
}

// statusRecorder captures the status code and body size written by the
// wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
