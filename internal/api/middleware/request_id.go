// Package middleware provides HTTP middleware for the walkplan API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// maxRequestIDLength caps client-supplied request ids.
const maxRequestIDLength = 64

// requestStateKey is the context key for the per-request state.
type requestStateKey struct{}

// requestState is shared by every middleware of one request. Middleware
// further in (Auth) fills it in so middleware further out (Logger) can read
// it after the handler returns.
type requestState struct {
	id    string
	owner string
}

// RequestID assigns every request an id, reusing a well-formed X-Request-Id
// sent by the client, and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if !validRequestID(requestID) {
			requestID = "req_" + uuid.NewString()
		}

		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestStateKey{}, &requestState{id: requestID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if state := stateFrom(ctx); state != nil {
		return state.id
	}
	return ""
}

func stateFrom(ctx context.Context) *requestState {
	state, _ := ctx.Value(requestStateKey{}).(*requestState)
	return state
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
