package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
	"github.com/walkplan/walkplan/internal/journey"
	"github.com/walkplan/walkplan/internal/replan"
)

// DayHandler handles status changes and route modification for day routes.
type DayHandler struct {
	journeys  *journey.Service
	replanner *replan.Replanner
	logger    zerolog.Logger
}

// NewDayHandler creates a new DayHandler.
func NewDayHandler(journeys *journey.Service, replanner *replan.Replanner, logger zerolog.Logger) *DayHandler {
	return &DayHandler{
		journeys:  journeys,
		replanner: replanner,
		logger:    logger,
	}
}

// Complete handles POST /v1/days/{dayId}/completion.
func (h *DayHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journeys.MarkCompleted)
}

// UndoComplete handles DELETE /v1/days/{dayId}/completion.
func (h *DayHandler) UndoComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journeys.UndoCompleted)
}

// Skip handles POST /v1/days/{dayId}/skip.
func (h *DayHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.journeys.MarkSkipped)
}

// ReplanDefaults handles GET /v1/days/{dayId}/replan. It returns the values
// the route modification form starts from.
func (h *DayHandler) ReplanDefaults(w http.ResponseWriter, r *http.Request) {
	j, d, err := h.journeys.FindByDayRoute(r.Context(), chi.URLParam(r, "dayId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.ReplanDefaults{
		JourneyID:     j.ID,
		Day:           d,
		Destination:   j.End,
		RemainingDays: replan.InitialRemainingDays(j, d),
	})
}

// Replan handles POST /v1/days/{dayId}/replan.
func (h *DayHandler) Replan(w http.ResponseWriter, r *http.Request) {
	var req models.ReplanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if invalid(w, r, req.Validate()) {
		return
	}

	dayID := chi.URLParam(r, "dayId")
	j, err := h.replanner.Recalculate(r.Context(), dayID, req.NewEnd.Place(), req.RemainingDays)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("owner_id", GetOwnerID(r.Context())).
		Str("journey_id", j.ID).
		Str("day_route_id", dayID).
		Int("remaining_days", req.RemainingDays).
		Msg("journey replanned")

	response.JSON(w, r, http.StatusOK, detail(j))
}

func (h *DayHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string) (*journey.Journey, error)) {
	j, err := apply(r.Context(), chi.URLParam(r, "dayId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail(j))
}
