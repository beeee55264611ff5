package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/walkplan/walkplan/internal/api/models"
	"github.com/walkplan/walkplan/internal/api/response"
	"github.com/walkplan/walkplan/internal/journey"
)

const (
	// photoField is the multipart field carrying uploaded images.
	photoField = "photos"

	maxPhotoUpload   = 32 << 20
	maxPhotosPerPost = 10
)

// JournalHandler handles the per-day journal.
type JournalHandler struct {
	journeys *journey.Service
	logger   zerolog.Logger
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journeys *journey.Service, logger zerolog.Logger) *JournalHandler {
	return &JournalHandler{journeys: journeys, logger: logger}
}

// Get handles GET /v1/days/{dayId}/journal.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	dayID, ok := h.day(w, r)
	if !ok {
		return
	}
	e, err := h.journeys.Journal(r.Context(), dayID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, e)
}

// SaveText handles PUT /v1/days/{dayId}/journal/text.
func (h *JournalHandler) SaveText(w http.ResponseWriter, r *http.Request) {
	dayID, ok := h.day(w, r)
	if !ok {
		return
	}
	var req models.JournalTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.journeys.SaveJournalText(r.Context(), dayID, req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, e)
}

// AddPhotos handles POST /v1/days/{dayId}/journal/photos, a multipart form
// with one or more "photos" files.
func (h *JournalHandler) AddPhotos(w http.ResponseWriter, r *http.Request) {
	dayID, ok := h.day(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUpload)
	if err := r.ParseMultipartForm(maxPhotoUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, r, "upload is too large", nil)
			return
		}
		response.BadRequest(w, r, "expected a multipart form", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[photoField]
	if fieldErrs := validateUploads(files); invalid(w, r, fieldErrs) {
		return
	}

	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			response.BadRequest(w, r, "could not read uploaded photo", nil)
			return
		}
		images = append(images, data)
	}

	e, err := h.journeys.AddPhotos(r.Context(), dayID, images)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.Created(w, r, "/v1/days/"+dayID+"/journal", e)
}

// ReorderPhotos handles PUT /v1/days/{dayId}/journal/photos:order.
func (h *JournalHandler) ReorderPhotos(w http.ResponseWriter, r *http.Request) {
	dayID, ok := h.day(w, r)
	if !ok {
		return
	}
	var req models.PhotoOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.journeys.ReorderPhotos(r.Context(), dayID, req.PhotoIDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, e)
}

// GetPhoto handles GET /v1/days/{dayId}/journal/photos/{photoId}, returning
// the image itself.
func (h *JournalHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	dayID, ok := h.day(w, r)
	if !ok {
		return
	}
	p, err := h.journeys.Photo(r.Context(), dayID, chi.URLParam(r, "photoId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	// Photo bytes never change under an id.
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	response.Raw(w, r, p.ContentType, "", p.Data)
}

// DeletePhoto handles DELETE /v1/days/{dayId}/journal/photos/{photoId}.
func (h *JournalHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	dayID, ok := h.day(w, r)
	if !ok {
		return
	}
	e, err := h.journeys.DeletePhoto(r.Context(), dayID, chi.URLParam(r, "photoId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, e)
}

// day resolves the day route so that journal calls for unknown days are 404s
// rather than orphaned entries.
func (h *JournalHandler) day(w http.ResponseWriter, r *http.Request) (string, bool) {
	_, d, err := h.journeys.FindByDayRoute(r.Context(), chi.URLParam(r, "dayId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return "", false
	}
	return d.ID, true
}

func validateUploads(files []*multipart.FileHeader) []models.FieldError {
	switch {
	case len(files) == 0:
		return []models.FieldError{{Field: photoField, Message: "at least one photo is required", Code: "required"}}
	case len(files) > maxPhotosPerPost:
		return []models.FieldError{{Field: photoField, Message: "too many photos in one upload", Code: "max_items"}}
	}
	return nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
