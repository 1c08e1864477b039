package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/extractor"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/pipeline"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/render"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/repository"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/storage"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

const pdfContentType = "application/pdf"

type ProjectService interface {
	UploadProject(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	ListProjects(ctx context.Context) ([]models.ProjectSummary, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	RenderPage(ctx context.Context, id string, page int) ([]byte, error)
}

type projectService struct {
	repo         repository.ProjectRepository
	storage      storage.Storage
	processor    pipeline.Processor
	thumbnailDPI float64
	logger       *utils.Logger
	now          func() time.Time
}

func NewProjectService(repo repository.ProjectRepository, store storage.Storage, processor pipeline.Processor, thumbnailDPI float64, logger *utils.Logger) ProjectService {
	return &projectService{
		repo:         repo,
		storage:      store,
		processor:    processor,
		thumbnailDPI: thumbnailDPI,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *projectService) UploadProject(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	if !strings.EqualFold(filepath.Ext(req.Filename), ".pdf") {
		s.logger.Warn("Rejected non-PDF upload", "filename", req.Filename)
		return nil, utils.NewBadRequestError("Only PDF files are allowed")
	}

	if len(req.File) == 0 {
		return nil, utils.NewBadRequestError("Uploaded file is empty")
	}

	if mtype := mimetype.Detect(req.File); !mtype.Is(pdfContentType) {
		s.logger.Warn("Upload content is not a PDF", "filename", req.Filename, "detected", mtype.String())
		return nil, utils.NewBadRequestError(fmt.Sprintf("File content is %s, not a PDF", mtype.String()))
	}

	pageCount, err := countPages(req.File)
	if err != nil {
		s.logger.Warn("Failed to read PDF structure", "filename", req.Filename, "error", err)
		return nil, utils.NewBadRequestError("The PDF could not be read. It may be damaged or encrypted; try re-saving it and upload again")
	}

	projectID := utils.GenerateID()
	logger := s.logger.With("project_id", projectID, "filename", req.Filename)

	path, cleanup, err := stageFile(req.File)
	if err != nil {
		logger.Error("Failed to stage upload", "error", err)
		return nil, utils.NewInternalError("Failed to save uploaded file")
	}
	defer cleanup()

	results, err := s.processor.Process(ctx, path)
	if err != nil {
		var openErr *extractor.DocumentOpenError
		if errors.As(err, &openErr) {
			logger.Warn("Uploaded PDF could not be opened", "error", err)
			return nil, utils.WrapBadRequestError("The PDF could not be opened for processing", err)
		}
		logger.Error("Failed to process document", "error", err)
		return nil, utils.WrapInternalError("Failed to process document", err)
	}

	key := storage.ProjectKey(projectID)
	if err := s.storage.Upload(ctx, key, req.File, pdfContentType); err != nil {
		logger.Error("Failed to store document", "error", err, "key", key)
		return nil, utils.NewInternalError("Failed to store document")
	}

	project := &models.Project{
		ID:         projectID,
		Filename:   filepath.Base(req.Filename),
		UploadDate: s.now().UTC(),
		PageCount:  pageCount,
		Results:    results,
	}

	if err := s.repo.Create(ctx, project); err != nil {
		logger.Error("Failed to save project to database", "error", err)
		// Attempt to cleanup storage
		_ = s.storage.Delete(ctx, key)
		return nil, utils.NewInternalError("Failed to save project")
	}

	logger.Info("Project created",
		"pages", pageCount,
		"drawings", len(results.Drawings),
		"schedules", len(results.Schedules))

	return &models.UploadResponse{
		ID:         project.ID,
		Filename:   project.Filename,
		UploadDate: project.UploadDate,
		PageCount:  project.PageCount,
		Results:    project.Results,
	}, nil
}

func (s *projectService) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list projects", "error", err)
		return nil, utils.NewInternalError("Failed to list projects")
	}
	return projects, nil
}

func (s *projectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get project", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve project")
	}
	if project == nil {
		return nil, utils.NewNotFoundError("Project not found")
	}

	return project, nil
}

// DeleteProject removes the record first, then the stored PDF. A missing
// file does not fail the delete.
func (s *projectService) DeleteProject(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete project", "error", err, "id", id)
		return utils.NewInternalError("Failed to delete project")
	}
	if !deleted {
		return utils.NewNotFoundError("Project not found")
	}

	if err := s.storage.Delete(ctx, storage.ProjectKey(id)); err != nil {
		s.logger.Warn("Failed to delete stored document", "error", err, "id", id)
	}

	s.logger.Info("Project deleted", "id", id)
	return nil
}

// RenderPage returns a PNG thumbnail of one page of the project's PDF.
func (s *projectService) RenderPage(ctx context.Context, id string, page int) ([]byte, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if page < 1 || (project.PageCount > 0 && page > project.PageCount) {
		return nil, utils.NewNotFoundError("Page not found")
	}

	data, err := s.storage.Download(ctx, storage.ProjectKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, utils.NewNotFoundError("Project file not found")
	}
	if err != nil {
		s.logger.Error("Failed to load stored document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to load document")
	}

	path, cleanup, err := stageFile(data)
	if err != nil {
		s.logger.Error("Failed to stage document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to load document")
	}
	defer cleanup()

	png, err := render.RenderPNG(path, page, s.thumbnailDPI)
	if errors.Is(err, render.ErrPageOutOfRange) {
		return nil, utils.NewNotFoundError("Page not found")
	}
	if err != nil {
		s.logger.Error("Failed to render page", "error", err, "id", id, "page", page)
		return nil, utils.NewInternalError("Failed to render page")
	}

	return png, nil
}

// stageFile writes data to a temporary .pdf file for the PDF libraries, which
// read from paths.
func stageFile(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "plumbing-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}

	return f.Name(), cleanup, nil
}
