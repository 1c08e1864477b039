package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"

	"github.com/gen2brain/go-fitz"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

// DefaultDPI is the resolution pages are rasterized at for classification.
const DefaultDPI = 100

// ErrPageOutOfRange is returned by RenderPNG for a page the document does not have.
var ErrPageOutOfRange = errors.New("page out of range")

// Renderer rasterizes PDF pages with MuPDF.
type Renderer struct {
	dpi    float64
	logger *utils.Logger
}

func NewRenderer(dpi float64, logger *utils.Logger) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{dpi: dpi, logger: logger}
}

// Render rasterizes the requested 1-based pages of the PDF at path. Work is
// confined to the span [min(pages), max(pages)]. Pages outside the document are
// left out of the result. Any rendering failure drops the whole batch: the
// result is then empty and no error is returned.
func (r *Renderer) Render(ctx context.Context, path string, pages []int) map[int]image.Image {
	images := map[int]image.Image{}
	if len(pages) == 0 {
		return images
	}

	wanted := uniqueSorted(pages)
	first, last := wanted[0], wanted[len(wanted)-1]

	err := withDocument(path, func(doc *fitz.Document) error {
		numPages := doc.NumPage()
		for _, p := range wanted {
			if p < 1 || p > numPages {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			img, err := doc.ImageDPI(p-1, r.dpi)
			if err != nil {
				return fmt.Errorf("render page %d: %w", p, err)
			}
			images[p] = img
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Page rendering failed, dropping batch",
			"error", err,
			"first_page", first,
			"last_page", last,
			"requested", len(wanted))
		return map[int]image.Image{}
	}

	r.logger.Debug("Rendered pages",
		"first_page", first,
		"last_page", last,
		"rendered", len(images),
		"dpi", r.dpi)

	return images
}

// RenderPNG renders a single 1-based page as PNG bytes, for thumbnails.
func RenderPNG(path string, page int, dpi float64) ([]byte, error) {
	var buf bytes.Buffer

	err := withDocument(path, func(doc *fitz.Document) error {
		if page < 1 || page > doc.NumPage() {
			return fmt.Errorf("page %d of %d: %w", page, doc.NumPage(), ErrPageOutOfRange)
		}

		img, err := doc.ImageDPI(page-1, dpi)
		if err != nil {
			return fmt.Errorf("render page %d: %w", page, err)
		}
		return png.Encode(&buf, img)
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// withDocument opens path with go-fitz and converts MuPDF panics into errors.
func withDocument(path string, fn func(doc *fitz.Document) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("mupdf panic: %v", rec)
		}
	}()

	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("open PDF: %w", err)
	}
	defer doc.Close()

	return fn(doc)
}

func uniqueSorted(pages []int) []int {
	seen := make(map[int]bool, len(pages))
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}
