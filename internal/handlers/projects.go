package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/services"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

// ProjectHandler serves the JSON API under /api/v1.
type ProjectHandler struct {
	service     services.ProjectService
	maxFileSize int64
	logger      *utils.Logger
}

func NewProjectHandler(service services.ProjectService, maxFileSize int64, logger *utils.Logger) *ProjectHandler {
	return &ProjectHandler{
		service:     service,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (h *ProjectHandler) UploadProject(w http.ResponseWriter, r *http.Request) {
	req, err := readUpload(w, r, h.maxFileSize)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("File upload attempt", "filename", req.Filename, "size", len(req.File))

	resp, err := h.service.UploadProject(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, resp)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PageImage serves a PNG thumbnail of one page of a project.
func (h *ProjectHandler) PageImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("Invalid page number"))
		return
	}

	png, err := h.service.RenderPage(r.Context(), vars["id"], page)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Debug("Failed to write page image", "error", err)
	}
}
