package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/db"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/extractor"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/pdftest"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/repository"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/storage"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

type fakeProcessor struct {
	result *models.ProcessingResult
	err    error
	paths  []string
}

func (p *fakeProcessor) Process(ctx context.Context, path string) (*models.ProcessingResult, error) {
	p.paths = append(p.paths, path)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type fixture struct {
	service   ProjectService
	repo      repository.ProjectRepository
	uploadDir string
	processor *fakeProcessor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, db.RunMigrations(dbPath))
	conn, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	uploadDir := filepath.Join(dir, "uploads")
	store, err := storage.NewLocalStorage(uploadDir)
	require.NoError(t, err)

	repo := repository.NewProjectRepository(conn)
	proc := &fakeProcessor{result: &models.ProcessingResult{
		Drawings:  []models.PageRecord{{PageNumber: 2, SheetNumber: "PD101", SheetTitle: "Fixture Layout"}},
		Schedules: []models.PageRecord{},
	}}

	return &fixture{
		service:   NewProjectService(repo, store, proc, 20, utils.NewNopLogger()),
		repo:      repo,
		uploadDir: uploadDir,
		processor: proc,
	}
}

func samplePDF() []byte {
	return pdftest.Build(
		pdftest.Letter(pdftest.Text{X: 60, Y: 700, S: "COVER"}),
		pdftest.Letter(pdftest.Text{X: 520, Y: 40, S: "PD101"}),
		pdftest.Letter(pdftest.Text{X: 60, Y: 700, S: "NOTES"}),
	)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, status, appErr.StatusCode)
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestUploadProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.UploadProject(ctx, &models.UploadRequest{File: samplePDF(), Filename: "Tower Set.PDF"})
	require.NoError(t, err)

	assert.True(t, utils.IsValidID(resp.ID))
	assert.Equal(t, "Tower Set.PDF", resp.Filename)
	assert.Equal(t, 3, resp.PageCount)
	assert.WithinDuration(t, time.Now(), resp.UploadDate, time.Minute)
	assert.Equal(t, f.processor.result, resp.Results)

	// the staged copy is removed once processing is done
	require.Len(t, f.processor.paths, 1)
	_, err = os.Stat(f.processor.paths[0])
	assert.True(t, os.IsNotExist(err))

	stored, err := os.ReadFile(filepath.Join(f.uploadDir, resp.ID+".pdf"))
	require.NoError(t, err)
	assert.Equal(t, samplePDF(), stored)

	project, err := f.service.GetProject(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, f.processor.result, project.Results)
	assert.Equal(t, 3, project.PageCount)
}

func TestUploadProjectRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "wrong extension", filename: "set.docx", data: samplePDF()},
		{name: "empty file", filename: "set.pdf", data: nil},
		{name: "not a pdf", filename: "set.pdf", data: []byte("just some text, not a drawing set")},
		{name: "truncated pdf", filename: "set.pdf", data: samplePDF()[:120]},
		{name: "bytes before header", filename: "set.pdf", data: append([]byte("junk\n"), samplePDF()...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.service.UploadProject(context.Background(), &models.UploadRequest{File: tt.data, Filename: tt.filename})
			requireStatus(t, err, http.StatusBadRequest)
			assert.Empty(t, f.processor.paths)
			assert.Zero(t, countFiles(t, f.uploadDir))
		})
	}
}

func TestUploadProjectOpenErrorIsBadRequest(t *testing.T) {
	f := newFixture(t)
	f.processor.err = &extractor.DocumentOpenError{Path: "x.pdf", Err: errors.New("malformed xref")}

	_, err := f.service.UploadProject(context.Background(), &models.UploadRequest{File: samplePDF(), Filename: "set.pdf"})
	requireStatus(t, err, http.StatusBadRequest)

	var openErr *extractor.DocumentOpenError
	assert.ErrorAs(t, err, &openErr)
	assert.Zero(t, countFiles(t, f.uploadDir))

	projects, err := f.service.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestUploadProjectProcessingFailure(t *testing.T) {
	f := newFixture(t)
	f.processor.err = errors.New("unexpected")

	_, err := f.service.UploadProject(context.Background(), &models.UploadRequest{File: samplePDF(), Filename: "set.pdf"})
	requireStatus(t, err, http.StatusInternalServerError)
}

func TestListProjectsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ps := f.service.(*projectService)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.pdf", "b.pdf"} {
		at := base.Add(time.Duration(i) * time.Minute)
		ps.now = func() time.Time { return at }
		_, err := f.service.UploadProject(ctx, &models.UploadRequest{File: samplePDF(), Filename: name})
		require.NoError(t, err)
	}

	projects, err := f.service.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "b.pdf", projects[0].Filename)
	assert.Equal(t, "a.pdf", projects[1].Filename)
}

func TestGetProjectNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetProject(context.Background(), "missing")
	requireStatus(t, err, http.StatusNotFound)
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.UploadProject(ctx, &models.UploadRequest{File: samplePDF(), Filename: "set.pdf"})
	require.NoError(t, err)
	require.Equal(t, 1, countFiles(t, f.uploadDir))

	require.NoError(t, f.service.DeleteProject(ctx, resp.ID))
	assert.Zero(t, countFiles(t, f.uploadDir))

	_, err = f.service.GetProject(ctx, resp.ID)
	requireStatus(t, err, http.StatusNotFound)

	err = f.service.DeleteProject(ctx, resp.ID)
	requireStatus(t, err, http.StatusNotFound)
}

func TestDeleteProjectWithMissingFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.UploadProject(ctx, &models.UploadRequest{File: samplePDF(), Filename: "set.pdf"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.uploadDir, resp.ID+".pdf")))

	assert.NoError(t, f.service.DeleteProject(ctx, resp.ID))
}

func TestRenderPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.UploadProject(ctx, &models.UploadRequest{File: samplePDF(), Filename: "set.pdf"})
	require.NoError(t, err)

	png, err := f.service.RenderPage(ctx, resp.ID, 2)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	for _, page := range []int{0, 4} {
		_, err := f.service.RenderPage(ctx, resp.ID, page)
		requireStatus(t, err, http.StatusNotFound)
	}

	_, err = f.service.RenderPage(ctx, "missing", 1)
	requireStatus(t, err, http.StatusNotFound)
}
