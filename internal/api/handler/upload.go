package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	mw "github.com/medleyhq/medley/internal/api/middleware"
	"github.com/medleyhq/medley/internal/api/response"
	"github.com/medleyhq/medley/internal/intake"
)

// uploadFieldName is the multipart form field carrying the audio file.
const uploadFieldName = "clip"

// UploadAccepter defines the interface the handler depends on.
type UploadAccepter interface {
	Accept(ctx context.Context, userID, language, originalName, contentType string, src io.Reader) (*intake.Result, error)
}

// NewUploadHandler returns an http.HandlerFunc for POST /api/v1/uploads.
// The request must be multipart with an audio file in the "clip" field; an
// optional "language" field declares the clip language.
func NewUploadHandler(svc UploadAccepter, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := mw.GetUserID(r)

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		file, header, err := r.FormFile(uploadFieldName)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				response.Error(w, http.StatusRequestEntityTooLarge,
					"UPLOAD_TOO_LARGE", "Uploaded file exceeds the size limit", nil)
				return
			}
			response.Error(w, http.StatusBadRequest,
				"MISSING_FILE", "A file is required in the \"clip\" field", nil)
			return
		}
		defer file.Close()

		res, err := svc.Accept(r.Context(), userID, r.FormValue("language"),
			header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			if errors.Is(err, intake.ErrUnsupportedMediaType) {
				response.Error(w, http.StatusUnsupportedMediaType,
					"INVALID_MEDIA_TYPE", "Only audio uploads are accepted", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to accept upload", nil)
			return
		}

		response.Accepted(w, res)
	}
}
