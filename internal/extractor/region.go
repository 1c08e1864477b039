package extractor

import (
	"fmt"
	"sort"
	"strings"
)

// Anchor names the page corner the scan rectangle is attached to.
type Anchor string

const (
	AnchorBottomRight Anchor = "bottom-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorTopLeft     Anchor = "top-left"
)

func ParseAnchor(s string) (Anchor, error) {
	switch a := Anchor(strings.ToLower(strings.TrimSpace(s))); a {
	case AnchorBottomRight, AnchorBottomLeft, AnchorTopRight, AnchorTopLeft:
		return a, nil
	case "":
		return AnchorBottomRight, nil
	default:
		return "", fmt.Errorf("unknown region anchor %q", s)
	}
}

// Region is the title-block rectangle, in PDF user-space units.
type Region struct {
	Width  float64
	Height float64
	Anchor Anchor
}

// DefaultRegion is a 200x100 box in the bottom-right corner.
var DefaultRegion = Region{Width: 200, Height: 100, Anchor: AnchorBottomRight}

// Box is a rectangle in PDF user space (origin bottom-left, y grows upward).
type Box struct {
	LLX, LLY, URX, URY float64
}

func (b Box) Contains(x, y float64) bool {
	return x >= b.LLX && x <= b.URX && y >= b.LLY && y <= b.URY
}

// Rect places the region on a page with the given media box.
func (r Region) Rect(page Box) Box {
	var box Box

	switch r.Anchor {
	case AnchorBottomLeft, AnchorTopLeft:
		box.LLX, box.URX = page.LLX, page.LLX+r.Width
	default:
		box.LLX, box.URX = page.URX-r.Width, page.URX
	}

	switch r.Anchor {
	case AnchorTopRight, AnchorTopLeft:
		box.LLY, box.URY = page.URY-r.Height, page.URY
	default:
		box.LLY, box.URY = page.LLY, page.LLY+r.Height
	}

	return box
}

// Glyph is one positioned run of text from a page content stream. X and Y are
// the baseline origin.
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// regionText assembles the glyphs whose origin lies in box into lines, read
// top to bottom and left to right.
func regionText(glyphs []Glyph, box Box) string {
	var in []Glyph
	for _, g := range glyphs {
		if g.S != "" && box.Contains(g.X, g.Y) {
			in = append(in, g)
		}
	}
	if len(in) == 0 {
		return ""
	}

	sort.SliceStable(in, func(i, j int) bool { return in[i].Y > in[j].Y })

	var lines [][]Glyph
	var lineY float64
	for _, g := range in {
		if len(lines) == 0 || lineY-g.Y > lineTolerance(g) {
			lines = append(lines, nil)
			lineY = g.Y
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], g)
	}

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sort.SliceStable(line, func(a, b int) bool { return line[a].X < line[b].X })
		for j, g := range line {
			if j > 0 && needsSpace(line[j-1], g) {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.S)
		}
	}

	return sb.String()
}

func lineTolerance(g Glyph) float64 {
	if t := g.FontSize / 2; t > 2 {
		return t
	}
	return 2
}

// needsSpace reports a visible gap between two glyphs on the same line. Glyphs
// without width information never get a separator.
func needsSpace(prev, cur Glyph) bool {
	if prev.W <= 0 || strings.HasSuffix(prev.S, " ") || strings.HasPrefix(cur.S, " ") {
		return false
	}
	size := prev.FontSize
	if size <= 0 {
		size = 10
	}
	return cur.X-(prev.X+prev.W) > size*0.25
}
