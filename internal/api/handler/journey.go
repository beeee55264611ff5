package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/activity"
	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
	"github.com/walkplan/walkplan/internal/journey"
)

const kmlContentType = "application/vnd.google-earth.kml+xml"

// JourneyHandler handles journey endpoints.
type JourneyHandler struct {
	journeys *journey.Service
	tracker  *activity.Tracker
	logger   zerolog.Logger
}

// NewJourneyHandler creates a new JourneyHandler. The tracker is optional;
// when set, its period follows the active journey.
func NewJourneyHandler(journeys *journey.Service, tracker *activity.Tracker, logger zerolog.Logger) *JourneyHandler {
	return &JourneyHandler{
		journeys: journeys,
		tracker:  tracker,
		logger:   logger,
	}
}

// Active handles GET /v1/journeys/active. Day statuses are aligned with
// today before the journey is returned.
func (h *JourneyHandler) Active(w http.ResponseWriter, r *http.Request) {
	active, err := h.journeys.Active(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	j, err := h.journeys.RefreshStatuses(r.Context(), active.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if h.tracker != nil {
		h.tracker.SetPeriodStart(j.StartDate)
	}
	response.JSON(w, r, http.StatusOK, detail(j))
}

// List handles GET /v1/journeys?status=completed.
func (h *JourneyHandler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.ToLower(r.URL.Query().Get("status"))
	if status != "" && status != string(journey.StatusCompleted) {
		response.BadRequest(w, r, "request validation failed", []models.FieldError{
			{Field: "status", Message: "only completed journeys can be listed", Code: "enum"},
		})
		return
	}

	journeys, err := h.journeys.ListCompleted(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if journeys == nil {
		journeys = []*journey.Journey{}
	}
	response.JSON(w, r, http.StatusOK, models.JourneyList{Journeys: journeys})
}

// Get handles GET /v1/journeys/{journeyId}.
func (h *JourneyHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.journeys.Get(r.Context(), chi.URLParam(r, "journeyId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail(j))
}

// Progress handles GET /v1/journeys/{journeyId}/progress.
func (h *JourneyHandler) Progress(w http.ResponseWriter, r *http.Request) {
	j, err := h.journeys.Get(r.Context(), chi.URLParam(r, "journeyId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, journey.ComputeProgress(j))
}

// RefreshStatuses handles POST /v1/journeys/{journeyId}/statuses:refresh.
func (h *JourneyHandler) RefreshStatuses(w http.ResponseWriter, r *http.Request) {
	j, err := h.journeys.RefreshStatuses(r.Context(), chi.URLParam(r, "journeyId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail(j))
}

// Abandon handles DELETE /v1/journeys/{journeyId}.
func (h *JourneyHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "journeyId")
	if err := h.journeys.Abandon(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("owner_id", GetOwnerID(r.Context())).
		Str("journey_id", id).
		Msg("journey abandoned")

	response.NoContent(w, r)
}

// ExportKML handles GET /v1/journeys/{journeyId}/export.kml.
func (h *JourneyHandler) ExportKML(w http.ResponseWriter, r *http.Request) {
	j, err := h.journeys.Get(r.Context(), chi.URLParam(r, "journeyId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := journey.WriteKML(&buf, j); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Raw(w, r, kmlContentType, "journey-"+j.ID+".kml", buf.Bytes())
}

func detail(j *journey.Journey) models.JourneyDetail {
	return models.JourneyDetail{Journey: j, Progress: journey.ComputeProgress(j)}
}
