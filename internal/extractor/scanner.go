package extractor

import (
	"fmt"
	"regexp"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

// DefaultSheetPattern matches a P followed by optional alphanumerics and at
// least one digit, e.g. P101 or PD205.
const DefaultSheetPattern = `(?i)\bP[A-Za-z0-9]*\d+`

// Document is a paginated source of positioned text. Pages are 1-based.
type Document interface {
	NumPage() int
	Page(num int) (PageText, error)
}

type PageText struct {
	MediaBox Box
	Glyphs   []Glyph
}

// Scanner finds plumbing sheet numbers in the title-block region of each page.
type Scanner struct {
	region  Region
	pattern *regexp.Regexp
	logger  *utils.Logger
}

func NewScanner(region Region, pattern string, logger *utils.Logger) (*Scanner, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("region must have positive size, got %vx%v", region.Width, region.Height)
	}
	if region.Anchor == "" {
		region.Anchor = AnchorBottomRight
	}
	if pattern == "" {
		pattern = DefaultSheetPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid sheet pattern: %w", err)
	}

	return &Scanner{region: region, pattern: re, logger: logger}, nil
}

// Scan opens the PDF at path and returns one candidate per matching page, in
// page order. Only a failure to open the document is reported as an error.
func (s *Scanner) Scan(path string) ([]models.CandidatePage, error) {
	doc, closer, err := openDocument(path)
	if err != nil {
		return nil, &DocumentOpenError{Path: path, Err: err}
	}
	defer closer()

	return s.ScanDocument(doc), nil
}

func (s *Scanner) ScanDocument(doc Document) []models.CandidatePage {
	candidates := []models.CandidatePage{}

	numPages := doc.NumPage()
	for i := 1; i <= numPages; i++ {
		page, err := doc.Page(i)
		if err != nil {
			s.logger.Debug("Skipping unreadable page", "page", i, "error", err)
			continue
		}

		sheet, ok := s.Match(page)
		if !ok {
			continue
		}

		candidates = append(candidates, models.CandidatePage{
			PageNumber:  i,
			SheetNumber: sheet,
		})
	}

	s.logger.Info("Scanned document for sheet numbers",
		"pages", numPages,
		"candidates", len(candidates))

	return candidates
}

// Match returns the first sheet number found inside the region of page.
func (s *Scanner) Match(page PageText) (string, bool) {
	text := regionText(page.Glyphs, s.region.Rect(page.MediaBox))
	if text == "" {
		return "", false
	}

	match := s.pattern.FindString(norm.NFKC.String(text))
	return match, match != ""
}

// ledongthuc/pdf panics on some malformed inputs, so every call into it is guarded.

type ledongthucDocument struct {
	reader *pdf.Reader
}

func openDocument(path string) (doc Document, closer func(), err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, nil, err
	}

	return &ledongthucDocument{reader: reader}, func() { f.Close() }, nil
}

func (d *ledongthucDocument) NumPage() int {
	return d.reader.NumPage()
}

func (d *ledongthucDocument) Page(num int) (text PageText, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", num, r)
		}
	}()

	page := d.reader.Page(num)
	if page.V.IsNull() {
		return PageText{}, fmt.Errorf("page %d not found", num)
	}

	content := page.Content()
	glyphs := make([]Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}

	return PageText{MediaBox: mediaBox(page.V), Glyphs: glyphs}, nil
}

// US Letter, used when neither the page nor its ancestors declare a MediaBox.
var letterBox = Box{URX: 612, URY: 792}

// mediaBox resolves the (possibly inherited) MediaBox of a page dictionary.
func mediaBox(v pdf.Value) Box {
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			box := Box{
				LLX: mb.Index(0).Float64(),
				LLY: mb.Index(1).Float64(),
				URX: mb.Index(2).Float64(),
				URY: mb.Index(3).Float64(),
			}
			if box.URX < box.LLX {
				box.LLX, box.URX = box.URX, box.LLX
			}
			if box.URY < box.LLY {
				box.LLY, box.URY = box.URY, box.LLY
			}
			return box
		}
		v = v.Key("Parent")
	}
	return letterBox
}
