package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	List(ctx context.Context) ([]models.ProjectSummary, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// dateLayout is RFC 3339 in UTC with a fixed-width fraction, so stored dates
// sort lexically in time order.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// projectRow mirrors the projects table.
type projectRow struct {
	ID         string `db:"project_id"`
	Filename   string `db:"filename"`
	UploadDate string `db:"upload_date"`
	PageCount  int    `db:"page_count"`
	Results    string `db:"results"`
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	results := project.Results
	if results == nil {
		results = models.NewProcessingResult()
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	query := `
		INSERT INTO projects (project_id, filename, upload_date, page_count, results)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.ExecContext(ctx, query,
		project.ID,
		project.Filename,
		project.UploadDate.UTC().Format(dateLayout),
		project.PageCount,
		string(resultsJSON),
	)

	return err
}

func (r *projectRepository) List(ctx context.Context) ([]models.ProjectSummary, error) {
	var rows []projectRow

	query := `
		SELECT project_id, filename, upload_date, page_count
		FROM projects
		ORDER BY upload_date DESC, project_id
	`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	projects := make([]models.ProjectSummary, 0, len(rows))
	for _, row := range rows {
		uploaded, err := parseDate(row.UploadDate)
		if err != nil {
			return nil, err
		}
		projects = append(projects, models.ProjectSummary{
			ID:         row.ID,
			Filename:   row.Filename,
			UploadDate: uploaded,
			PageCount:  row.PageCount,
		})
	}

	return projects, nil
}

// GetByID returns nil, nil when no project has the given id.
func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var row projectRow

	query := `
		SELECT project_id, filename, upload_date, page_count, results
		FROM projects
		WHERE project_id = $1
	`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	uploaded, err := parseDate(row.UploadDate)
	if err != nil {
		return nil, err
	}

	results := models.NewProcessingResult()
	if row.Results != "" {
		if err := json.Unmarshal([]byte(row.Results), results); err != nil {
			return nil, fmt.Errorf("failed to decode results for project %s: %w", id, err)
		}
	}
	if results.Drawings == nil {
		results.Drawings = []models.PageRecord{}
	}
	if results.Schedules == nil {
		results.Schedules = []models.PageRecord{}
	}

	return &models.Project{
		ID:         row.ID,
		Filename:   row.Filename,
		UploadDate: uploaded,
		PageCount:  row.PageCount,
		Results:    results,
	}, nil
}

// Delete reports whether a row was removed.
func (r *projectRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE project_id = $1`, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid upload_date %q: %w", s, err)
	}
	return t, nil
}
