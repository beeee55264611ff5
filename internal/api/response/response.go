// Package response writes walkplan API responses: JSON bodies for domain
// values, raw bodies for photos and KML, and RFC 7807 problems for errors.
// Every response echoes the request id.
package response

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/walkplan/walkplan/internal/api/middleware"
	"github.com/walkplan/walkplan/internal/api/models"
)

// JSON writes data as a JSON body. A nil data writes headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, r, status, "", data)
}

// Created writes a 201 for a new planning session, journey or photo set,
// pointing Location at it.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	writeJSON(w, r, http.StatusCreated, location, data)
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// Raw writes a non-JSON body such as a journal photo or a KML export. A
// non-empty filename is sent as an attachment.
func Raw(w http.ResponseWriter, r *http.Request, contentType, filename string, body []byte) {
	setRequestID(w, r)
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	if filename != "" {
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Problem writes p with its instance set to the request path.
func Problem(w http.ResponseWriter, r *http.Request, p *models.Problem) {
	p.Instance = r.URL.Path
	p.Write(w)
}

// BadRequest writes a 400 listing the fields that failed validation.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Problem(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, errors))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	problem(w, r, models.NewNotFound, detail)
}

// Conflict writes a 409, used when the walker already has an active journey
// or a newer calculation replaced this one.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	problem(w, r, models.NewConflict, detail)
}

// Unprocessable writes a 422 for requests that are well formed but not
// allowed in the journey's current state.
func Unprocessable(w http.ResponseWriter, r *http.Request, detail string) {
	problem(w, r, models.NewUnprocessable, detail)
}

// BadGateway writes a 502 for routing or geocoding provider failures.
func BadGateway(w http.ResponseWriter, r *http.Request, detail string) {
	problem(w, r, models.NewBadGateway, detail)
}

// InternalError writes a 500.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	problem(w, r, models.NewInternalError, detail)
}

// ServiceUnavailable writes a 503, used when storage is unreachable.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	problem(w, r, models.NewServiceUnavailable, detail)
}

func problem(w http.ResponseWriter, r *http.Request, build func(traceID, detail string) *models.Problem, detail string) {
	Problem(w, r, build(middleware.GetRequestID(r.Context()), detail))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, location string, data interface{}) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	if location != "" {
		w.Header().Set("Location", location)
	}
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
}
