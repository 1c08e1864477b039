package pipeline

import (
	"context"
	"image"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/classifier"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/metrics"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

// Scanner finds candidate plumbing pages. It fails only when the document
// cannot be opened.
type Scanner interface {
	Scan(path string) ([]models.CandidatePage, error)
}

// Renderer rasterizes the requested pages. Pages it could not render are
// absent from the result.
type Renderer interface {
	Render(ctx context.Context, path string, pages []int) map[int]image.Image
}

type Processor interface {
	Process(ctx context.Context, path string) (*models.ProcessingResult, error)
}

type processor struct {
	scanner     Scanner
	renderer    Renderer
	classifier  classifier.Classifier
	concurrency int
	logger      *utils.Logger
}

// NewProcessor wires the scan, render and classify stages. concurrency bounds
// how many pages are classified at once; values below 1 mean one at a time.
func NewProcessor(scanner Scanner, renderer Renderer, cls classifier.Classifier, concurrency int, logger *utils.Logger) Processor {
	if concurrency < 1 {
		concurrency = 1
	}

	return &processor{
		scanner:     scanner,
		renderer:    renderer,
		classifier:  cls,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (p *processor) Process(ctx context.Context, path string) (*models.ProcessingResult, error) {
	start := time.Now()
	defer func() { metrics.ObservePipeline(time.Since(start)) }()

	logger := p.logger.With("path", path)
	result := models.NewProcessingResult()

	candidates, err := p.scanner.Scan(path)
	if err != nil {
		metrics.IncDocument("open_error")
		logger.Error("Failed to open document", "error", err)
		return nil, err
	}
	metrics.AddCandidates(len(candidates))

	if len(candidates) == 0 {
		metrics.IncDocument("no_candidates")
		logger.Info("No plumbing pages found")
		return result, nil
	}

	pageNumbers := make([]int, len(candidates))
	for i, c := range candidates {
		pageNumbers[i] = c.PageNumber
	}

	images := p.renderer.Render(ctx, path, pageNumbers)
	metrics.AddRendered(len(images))
	if len(images) == 0 {
		metrics.IncRenderFailure()
		logger.Warn("No candidate pages could be rendered", "candidates", len(candidates))
	}

	classified := p.classifyAll(ctx, candidates, images)

	for i, c := range candidates {
		cr, ok := classified[i]
		if !ok {
			continue
		}

		record := models.PageRecord{
			PageNumber:  c.PageNumber,
			SheetNumber: c.SheetNumber,
			SheetTitle:  cr.SheetTitle,
		}

		switch cr.Classification {
		case models.ClassificationDrawing:
			result.Drawings = append(result.Drawings, record)
		case models.ClassificationSchedule:
			result.Schedules = append(result.Schedules, record)
		default:
			logger.Info("Dropping unclassified page", "page", c.PageNumber, "sheet", c.SheetNumber)
		}
	}

	metrics.IncDocument("ok")
	logger.Info("Document processed",
		"candidates", len(candidates),
		"rendered", len(images),
		"drawings", len(result.Drawings),
		"schedules", len(result.Schedules),
		"duration", time.Since(start))

	return result, nil
}

// classifyAll classifies every rendered candidate and returns the results
// keyed by candidate index. Candidates without an image are left out.
func (p *processor) classifyAll(ctx context.Context, candidates []models.CandidatePage, images map[int]image.Image) map[int]models.ClassificationResult {
	out := make([]*models.ClassificationResult, len(candidates))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	seen := make(map[int]bool, len(candidates))
	for i, c := range candidates {
		img, ok := images[c.PageNumber]
		if !ok {
			p.logger.Debug("Skipping page without image", "page", c.PageNumber)
			continue
		}
		// a page number appears at most once in the output
		if seen[c.PageNumber] {
			continue
		}
		seen[c.PageNumber] = true

		g.Go(func() error {
			cr := p.classifier.Classify(ctx, img)
			out[i] = &cr
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[int]models.ClassificationResult, len(candidates))
	for i, cr := range out {
		if cr != nil {
			results[i] = *cr
		}
	}
	return results
}
