package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
	"github.com/walkplan/walkplan/internal/geocoding"
	"github.com/walkplan/walkplan/internal/planning"
)

// PlanningHandler handles the journey planning flow.
type PlanningHandler struct {
	store   *planning.Store
	planner *planning.Planner
	loc     *time.Location
	logger  zerolog.Logger
}

// NewPlanningHandler creates a new PlanningHandler. Dates in requests are
// read in loc.
func NewPlanningHandler(store *planning.Store, planner *planning.Planner, loc *time.Location, logger zerolog.Logger) *PlanningHandler {
	if loc == nil {
		loc = time.Local
	}
	return &PlanningHandler{
		store:   store,
		planner: planner,
		loc:     loc,
		logger:  logger,
	}
}

// CreateSession handles POST /v1/planning/sessions.
func (h *PlanningHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()
	response.Created(w, r, "/v1/planning/sessions/"+s.ID(), s.View())
}

// GetSession handles GET /v1/planning/sessions/{sessionId}.
func (h *PlanningHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, s.View())
}

// UpdateSession handles PATCH /v1/planning/sessions/{sessionId}.
func (h *PlanningHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.SessionUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, errs := req.Input(h.loc)
	if invalid(w, r, errs) {
		return
	}

	if err := s.Update(in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, s.View())
}

// Next handles POST /v1/planning/sessions/{sessionId}/next.
func (h *PlanningHandler) Next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Next(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, s.View())
}

// Back handles POST /v1/planning/sessions/{sessionId}/back.
func (h *PlanningHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Back()
	response.JSON(w, r, http.StatusOK, s.View())
}

// Calculate handles POST /v1/planning/sessions/{sessionId}/calculate.
// A routing failure is part of the returned view, not an HTTP error.
func (h *PlanningHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.planner.Calculate(r.Context(), s)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

// CreateJourney handles POST /v1/planning/sessions/{sessionId}/journey.
func (h *PlanningHandler) CreateJourney(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	j, err := h.planner.CreateJourney(r.Context(), s)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("owner_id", GetOwnerID(r.Context())).
		Str("session_id", s.ID()).
		Str("journey_id", j.ID).
		Msg("journey created from planning session")

	response.Created(w, r, "/v1/journeys/"+j.ID, j)
}

// SearchPlaces handles GET /v1/planning/sessions/{sessionId}/places?q=.
// A search superseded by a newer one for the same session returns 409.
func (h *PlanningHandler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	places, err := s.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if places == nil {
		places = []geocoding.Place{}
	}
	response.JSON(w, r, http.StatusOK, models.PlaceSearchResponse{Query: q, Places: places})
}

// DeleteSession handles DELETE /v1/planning/sessions/{sessionId}.
func (h *PlanningHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(chi.URLParam(r, "sessionId"))
	response.NoContent(w, r)
}

func (h *PlanningHandler) session(w http.ResponseWriter, r *http.Request) (*planning.Session, bool) {
	s, err := h.store.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return nil, false
	}
	return s, true
}
