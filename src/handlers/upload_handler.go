package handlers

import (
	"errors"
	"net/http"

	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/security/validation"
	"github.com/username/ledgerly/backend/src/services"
	"github.com/username/ledgerly/backend/src/utils"
)

type UploadHandler struct {
	importService services.ImportService
	maxUploadSize int64
}

func NewUploadHandler(importService services.ImportService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		importService: importService,
		maxUploadSize: maxUploadSize,
	}
}

// HandleUpload accepts a multipart CSV upload and runs the import pipeline.
// The optional "source" form field selects the parser; it defaults to the
// generic layout.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		sendJSONError(w, "File too large or malformed multipart request", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, "Missing 'file' form field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validation.ValidateClientContentType(header.Header.Get("Content-Type")); err != nil {
		sendJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		sendJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	source := r.FormValue("source")
	result, err := h.importService.ImportCSV(file, userID, header.Filename, source)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParsingFailed):
			sendJSONError(w, "Could not parse the uploaded file as CSV", http.StatusBadRequest)
		case errors.Is(err, services.ErrNoParseableRows):
			sendJSONError(w, "No parseable rows found in the uploaded file", http.StatusBadRequest)
		case errors.Is(err, services.ErrNoFallbackCategory):
			logger.L.Error("Import failed: fallback category missing", "userID", userID)
			sendJSONError(w, "Account is missing its fallback category", http.StatusInternalServerError)
		default:
			logger.L.Error("Import failed", "userID", userID, "fileName", header.Filename, "error", err)
			sendJSONError(w, "Failed to import file", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}

func (h *UploadHandler) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	uploads, err := h.importService.ListUploads(userID)
	if err != nil {
		logger.L.Error("Failed to list uploads", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list uploads", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, uploads, http.StatusOK)
}

func (h *UploadHandler) HandleAvailableYears(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	years, err := h.importService.AvailableYears(userID)
	if err != nil {
		logger.L.Error("Failed to derive available years", "userID", userID, "error", err)
		sendJSONError(w, "Failed to derive available years", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string][]int{"years": years}, http.StatusOK)
}
