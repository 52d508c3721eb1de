package handlers

import (
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/placenotes/internal/photos"
)

// multipart overhead allowed on top of the photo itself
const uploadSlack = 1 << 20

// PhotoSaver stores uploaded images.
type PhotoSaver interface {
	Save(filename string, r io.Reader) (*photos.Photo, error)
}

// PhotoHandler accepts photo uploads.
type PhotoHandler struct {
	storage  PhotoSaver
	maxBytes int64
}

// NewPhotoHandler creates a photo handler accepting files up to maxBytes.
func NewPhotoHandler(storage PhotoSaver, maxBytes int64) *PhotoHandler {
	return &PhotoHandler{storage: storage, maxBytes: maxBytes}
}

// Upload stores the multipart "file" field and returns its URLs and any
// location found in the image metadata.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxBytes + uploadSlack
	if r.ContentLength > limit {
		http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file found in the request", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := h.storage.Save(header.Filename, file)
	switch {
	case errors.Is(err, photos.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	case errors.Is(err, photos.ErrTooLarge):
		http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		log.WithError(err).WithField("filename", header.Filename).Error("Failed to store photo")
		http.Error(w, "Failed to store photo", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}
