// Package pdftest builds small, valid PDF documents with text placed at exact
// coordinates. It exists so scanner, renderer and service tests can run
// against real files without checked-in fixtures.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Text is a single line of Helvetica text with its baseline origin at X, Y.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Page describes one page. A zero Width or Height leaves the MediaBox off the
// page so it is inherited from the page tree (US Letter).
type Page struct {
	Width, Height float64
	Texts         []Text
}

// Letter returns a US Letter page holding texts.
func Letter(texts ...Text) Page {
	return Page{Width: 612, Height: 792, Texts: texts}
}

// Build renders pages into a complete PDF file.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) int {
		offsets = append(offsets, buf.Len())
		id := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
		return id
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// Object ids are fixed up front: catalog 1, page tree 2, font 3, then a
	// (page, contents) pair per page.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding" +
		" /FirstChar 32 /LastChar 126 /Widths [" + strings.TrimSpace(strings.Repeat("556 ", 95)) + "] >>")

	for i, p := range pages {
		mediaBox := ""
		if p.Width > 0 && p.Height > 0 {
			mediaBox = fmt.Sprintf(" /MediaBox [0 0 %g %g]", p.Width, p.Height)
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			mediaBox, 5+2*i))

		stream := contentStream(p.Texts)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// Write builds the document into dir/name and returns the full path.
func Write(dir, name string, pages ...Page) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func contentStream(texts []Text) string {
	var sb strings.Builder
	for _, t := range texts {
		size := t.Size
		if size <= 0 {
			size = 10
		}
		fmt.Fprintf(&sb, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, t.X, t.Y, escape(t.S))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
