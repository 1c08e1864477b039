package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

func respondJSON(w http.ResponseWriter, logger *utils.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// errorStatus maps err to the status and client-facing message it should be
// reported with. Anything that is not an AppError is a 500.
func errorStatus(logger *utils.Logger, err error) (int, string) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := utils.AsAppError(err); ok {
		status = appErr.StatusCode
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request error", "status", status, "error", err)
	} else {
		logger.Warn("Request error", "status", status, "error", message)
	}

	return status, message
}

func respondError(w http.ResponseWriter, logger *utils.Logger, err error) {
	status, message := errorStatus(logger, err)
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// readUpload extracts the multipart "file" field, enforcing maxSize.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (*models.UploadRequest, error) {
	tooLarge := utils.NewBadRequestError("File is larger than the upload limit")

	// Check Content-Length header first to reject oversized requests early
	if r.ContentLength > maxSize+(1<<20) {
		return nil, tooLarge
	}

	// Leave headroom for the multipart envelope
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge
		}
		return nil, utils.NewBadRequestError("Invalid form data")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, utils.NewBadRequestError("No file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, utils.WrapInternalError("Failed to read file", err)
	}
	if int64(len(data)) > maxSize {
		return nil, tooLarge
	}

	return &models.UploadRequest{
		File:     data,
		Filename: filepath.Base(header.Filename),
	}, nil
}
