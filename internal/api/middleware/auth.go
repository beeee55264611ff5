package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/auth"
)

// ownerIDKey is the context key for the authenticated owner ID.
type ownerIDKey struct{}

// TokenValidator verifies bearer tokens and returns the owner they belong to.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth creates authentication middleware that validates JWT bearer tokens.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			// Check for Bearer prefix (case-insensitive)
			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}

			tokenString := authHeader[len(bearerPrefix):]
			if tokenString == "" {
				writeUnauthorized(w, r, "missing bearer token")
				return
			}

			ownerID, err := validator.ValidateAccessToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrAccessTokenExpired):
					writeUnauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidAccessToken):
					writeUnauthorized(w, r, "invalid access token")
				case errors.Is(err, auth.ErrNotOwner):
					writeUnauthorized(w, r, "token was not issued to this walker")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			if state := stateFrom(r.Context()); state != nil {
				state.owner = ownerID
			}
			ctx := context.WithValue(r.Context(), ownerIDKey{}, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetOwnerID retrieves the authenticated owner ID from the context.
// Returns an empty string if not authenticated. Middleware that runs before
// Auth sees the owner once the handler chain has returned.
func GetOwnerID(ctx context.Context) string {
	if id, ok := ctx.Value(ownerIDKey{}).(string); ok {
		return id
	}
	if state := stateFrom(ctx); state != nil {
		return state.owner
	}
	return ""
}
