package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
	"github.com/walkplan/walkplan/internal/journey"
)

// ActivityHandler handles step and distance telemetry.
type ActivityHandler struct {
	activity *activity.Service
	tracker  *activity.Tracker
	journeys *journey.Service
	logger   zerolog.Logger
}

// NewActivityHandler creates a new ActivityHandler. The tracker and journeys
// are only used by Live and may be nil.
func NewActivityHandler(svc *activity.Service, tracker *activity.Tracker, journeys *journey.Service, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: svc,
		tracker:  tracker,
		journeys: journeys,
		logger:   logger,
	}
}

// RecordSamples handles POST /v1/activity/samples.
func (h *ActivityHandler) RecordSamples(w http.ResponseWriter, r *http.Request) {
	var req models.RecordSamplesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.activity.Record(r.Context(), req.Samples)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.RecordSamplesResponse{Accepted: n})
}

// Totals handles GET /v1/activity/totals?from=&to=, both RFC 3339.
func (h *ActivityHandler) Totals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fieldErrs []models.FieldError
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "from", Message: "must be an RFC 3339 timestamp", Code: "format"})
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "to", Message: "must be an RFC 3339 timestamp", Code: "format"})
	}
	if invalid(w, r, fieldErrs) {
		return
	}

	totals, err := h.activity.Totals(r.Context(), from, to)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.ActivityTotalsResponse{
		From:   models.Timestamp(from),
		To:     models.Timestamp(to),
		Totals: totals,
	})
}

// Live handles GET /v1/activity/live, the tracker's latest totals for today
// and for the active journey so far.
func (h *ActivityHandler) Live(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		response.ServiceUnavailable(w, r, "live activity is not enabled")
		return
	}

	if h.journeys != nil {
		j, err := h.journeys.Active(r.Context())
		switch {
		case err == nil:
			h.tracker.SetPeriodStart(j.StartDate)
		case errors.Is(err, journey.ErrJourneyNotFound):
			h.tracker.SetPeriodStart(time.Time{})
		default:
			writeError(w, r, h.logger, err)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, h.tracker.Snapshot())
}
