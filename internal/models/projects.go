package models

import (
	"time"
)

// Classification is the label the vision model assigns to a rendered page.
type Classification string

const (
	ClassificationDrawing  Classification = "Plumbing Drawing"
	ClassificationSchedule Classification = "Plumbing Schedule"
	ClassificationUnknown  Classification = "Unknown"
)

// UnknownTitle is used when no sheet title could be extracted.
const UnknownTitle = "Unknown"

// Valid reports whether c is one of the labels the pipeline routes on.
func (c Classification) Valid() bool {
	return c == ClassificationDrawing || c == ClassificationSchedule
}

// CandidatePage is a page whose title block matched the sheet-number pattern.
type CandidatePage struct {
	PageNumber  int    `json:"page_number"`
	SheetNumber string `json:"sheet_number"`
}

type ClassificationResult struct {
	Classification Classification `json:"classification"`
	SheetTitle     string         `json:"sheet_title"`
}

// UnknownResult is the fallback returned whenever classification fails.
func UnknownResult() ClassificationResult {
	return ClassificationResult{
		Classification: ClassificationUnknown,
		SheetTitle:     UnknownTitle,
	}
}

type PageRecord struct {
	PageNumber  int    `json:"page_number"`
	SheetNumber string `json:"sheet_number"`
	SheetTitle  string `json:"sheet_title"`
}

// ProcessingResult is the pipeline output. The JSON keys are part of the
// persisted format and must not change.
type ProcessingResult struct {
	Drawings  []PageRecord `json:"Plumbing Drawings"`
	Schedules []PageRecord `json:"Plumbing Schedules"`
}

// NewProcessingResult returns a result with both buckets empty (not nil), so
// it serializes as two empty arrays.
func NewProcessingResult() *ProcessingResult {
	return &ProcessingResult{
		Drawings:  []PageRecord{},
		Schedules: []PageRecord{},
	}
}

type Project struct {
	ID         string            `json:"project_id" db:"project_id"`
	Filename   string            `json:"filename" db:"filename"`
	UploadDate time.Time         `json:"upload_date" db:"upload_date"`
	PageCount  int               `json:"page_count" db:"page_count"`
	Results    *ProcessingResult `json:"results,omitempty" db:"-"`
}

// ProjectSummary is the dashboard listing row; it omits the results payload.
type ProjectSummary struct {
	ID         string    `json:"project_id" db:"project_id"`
	Filename   string    `json:"filename" db:"filename"`
	UploadDate time.Time `json:"upload_date" db:"upload_date"`
	PageCount  int       `json:"page_count" db:"page_count"`
}

type UploadRequest struct {
	File     []byte
	Filename string
}

type UploadResponse struct {
	ID         string            `json:"project_id"`
	Filename   string            `json:"filename"`
	UploadDate time.Time         `json:"upload_date"`
	PageCount  int               `json:"page_count"`
	Results    *ProcessingResult `json:"results"`
}
