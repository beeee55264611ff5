package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/api/middleware"
	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/planning"
	"github.com/walkplan/walkplan/internal/replan"
	"github.com/walkplan/walkplan/internal/routing"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// writeError maps a domain error to a problem response. Errors nothing
// claims are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var storageErr *journey.StorageError

	switch {
	case errors.Is(err, planning.ErrSessionNotFound),
		errors.Is(err, journey.ErrJourneyNotFound),
		errors.Is(err, journey.ErrDayRouteNotFound),
		errors.Is(err, journey.ErrPhotoNotFound):
		response.NotFound(w, r, err.Error())

	case errors.Is(err, journey.ErrActiveJourneyExists),
		errors.Is(err, geocoding.ErrSuperseded):
		response.Conflict(w, r, err.Error())

	case errors.Is(err, planning.ErrInvalidInput),
		errors.Is(err, journey.ErrInvalidPhoto),
		errors.Is(err, journey.ErrInvalidPhotoOrder),
		errors.Is(err, journey.ErrInvalidSchedule),
		errors.Is(err, activity.ErrInvalidSample),
		errors.Is(err, activity.ErrInvalidRange),
		errors.Is(err, replan.ErrInvalidRemainingDays),
		errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, err.Error(), nil)

	case errors.Is(err, planning.ErrCannotAdvance),
		errors.Is(err, planning.ErrMissingLocations),
		errors.Is(err, planning.ErrNothingToPlan),
		errors.Is(err, journey.ErrInvalidTransition),
		errors.Is(err, journey.ErrEmptySchedule),
		errors.Is(err, replan.ErrNothingToPlan),
		routing.IsNoRoute(err):
		response.Unprocessable(w, r, err.Error())

	case errors.Is(err, routing.ErrProviderUnavailable),
		errors.Is(err, routing.ErrRateLimitExceeded),
		errors.Is(err, routing.ErrInvalidGeometry),
		errors.Is(err, geocoding.ErrProviderUnavailable),
		errors.Is(err, geocoding.ErrRateLimitExceeded):
		response.BadGateway(w, r, routing.UserMessage(err))

	case errors.As(err, &storageErr):
		// Already logged where it was wrapped.
		response.ServiceUnavailable(w, r, "journey storage is unavailable, please retry")

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "request was interrupted")

	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("unhandled error")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

// decodeJSON reads a JSON body into dst, writing a 400 and returning false
// when it is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

func invalid(w http.ResponseWriter, r *http.Request, errs []models.FieldError) bool {
	if len(errs) == 0 {
		return false
	}
	response.BadRequest(w, r, "request validation failed", errs)
	return true
}
