package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkplan/walkplan/internal/api/middleware"
	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
)

// requestWithID returns a request whose context carries a request ID, as it
// would after the RequestID middleware.
func requestWithID(t *testing.T, method, path string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	req.Header.Set("X-Request-Id", "req_fixed")

	var processed *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, processed)
	return processed
}

func TestJSON(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/journeys/active")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"title": "Seoul → Busan"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"title":"Seoul → Busan"}`, rec.Body.String())
}

func TestJSON_NilData(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/x")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCreated(t *testing.T) {
	req := requestWithID(t, http.MethodPost, "/v1/planning/sessions/s1/journey")
	rec := httptest.NewRecorder()

	response.Created(rec, req, "/v1/journeys/j1", map[string]string{"id": "j1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/journeys/j1", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"id":"j1"}`, rec.Body.String())
}

func TestRaw_QuotesFilename(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/journeys/j1/export.kml")
	rec := httptest.NewRecorder()

	response.Raw(rec, req, "application/vnd.google-earth.kml+xml", "seoul to busan.kml", []byte("<kml/>"))

	assert.Equal(t, `attachment; filename="seoul to busan.kml"`, rec.Header().Get("Content-Disposition"))
}

func TestNoContent(t *testing.T) {
	req := requestWithID(t, http.MethodDelete, "/v1/journeys/j1")
	rec := httptest.NewRecorder()

	response.NoContent(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req_fixed", rec.Header().Get("X-Request-Id"))
	assert.Empty(t, rec.Body.Bytes())
}

func TestRaw(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/journeys/j1/export.kml")
	rec := httptest.NewRecorder()

	response.Raw(rec, req, "application/vnd.google-earth.kml+xml", "journey.kml", []byte("<kml/>"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.google-earth.kml+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "6", rec.Header().Get("Content-Length"))
	assert.Equal(t, "attachment; filename=journey.kml", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "<kml/>", rec.Body.String())
}

func TestProblemWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
		typ    string
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "detail", []models.FieldError{{Field: "text"}})
		}, http.StatusBadRequest, models.ProblemTypeValidation},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "detail")
		}, http.StatusNotFound, models.ProblemTypeNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) {
			response.Conflict(w, r, "detail")
		}, http.StatusConflict, models.ProblemTypeConflict},
		{"unprocessable", func(w http.ResponseWriter, r *http.Request) {
			response.Unprocessable(w, r, "detail")
		}, http.StatusUnprocessableEntity, models.ProblemTypeUnprocessable},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			response.InternalError(w, r, "detail")
		}, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"bad gateway", func(w http.ResponseWriter, r *http.Request) {
			response.BadGateway(w, r, "detail")
		}, http.StatusBadGateway, models.ProblemTypeBadGateway},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) {
			response.ServiceUnavailable(w, r, "detail")
		}, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithID(t, http.MethodGet, "/v1/resource")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var p models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, "detail", p.Detail)
			assert.Equal(t, "/v1/resource", p.Instance)
			assert.Equal(t, "req_fixed", p.TraceID)
		})
	}
}
