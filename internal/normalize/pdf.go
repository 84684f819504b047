package normalize

import (
	"sort"
	"strings"

	"github.com/kbsmith/kbsmith/internal/document"
	"github.com/kbsmith/kbsmith/internal/pdfextract"
)

// Heuristics are the tunable thresholds for PDF layout reconstruction.
// OCR and extraction quality vary wildly between sources, so these are
// configuration, not contracts.
type Heuristics struct {
	// ColumnGap is the horizontal gap (points) between fragments that
	// starts a new table cell.
	ColumnGap float64
	// HeadingRatio is the minimum font-size ratio over the page median
	// for a line to qualify as a heading.
	HeadingRatio float64
	// ParagraphGap is the vertical gap, as a multiple of the line's font
	// size, that starts a new paragraph.
	ParagraphGap float64
}

// DefaultHeuristics returns thresholds that behave well on digitally
// produced PDFs.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		ColumnGap:    18,
		HeadingRatio: 1.2,
		ParagraphGap: 1.8,
	}
}

// line is a horizontal band of fragments grouped by Y position.
type line struct {
	y        float64
	fontSize float64
	bold     bool
	cells    []string
}

func (l line) text() string {
	return strings.Join(l.cells, " ")
}

// PDFPages converts extracted pages into an ordered block sequence using
// positional hints: Y gaps group lines into paragraphs, column-aligned
// X gaps mark table rows, font size relative to the page median marks
// headings. The conversion is deterministic for identical input.
func PDFPages(pages []pdfextract.Page, h Heuristics) []document.Block {
	if h.ColumnGap <= 0 || h.HeadingRatio <= 0 || h.ParagraphGap <= 0 {
		h = DefaultHeuristics()
	}

	var blocks []document.Block
	for _, page := range pages {
		blocks = append(blocks, pageBlocks(page, h)...)
	}
	return blocks
}

func pageBlocks(page pdfextract.Page, h Heuristics) []document.Block {
	lines := buildLines(page.Fragments, h)
	if len(lines) == 0 {
		return nil
	}
	median := medianFontSize(lines)

	var blocks []document.Block
	var para []string
	var prev *line

	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, document.Paragraph(strings.Join(para, " ")))
			para = nil
		}
	}

	i := 0
	for i < len(lines) {
		ln := lines[i]

		// A run of multi-cell lines is a table region.
		if len(ln.cells) >= 2 {
			j := i
			for j < len(lines) && len(lines[j].cells) >= 2 {
				j++
			}
			if j-i >= 2 {
				flushPara()
				rows := make([][]string, 0, j-i)
				for _, tl := range lines[i:j] {
					rows = append(rows, tl.cells)
				}
				blocks = append(blocks, document.Table(rows))
				prev = nil
				i = j
				continue
			}
			// A lone multi-cell line reads as ordinary text.
		}

		if level := headingLevelFor(ln, median, h); level > 0 {
			flushPara()
			blocks = append(blocks, document.Heading(level, ln.text()))
			prev = nil
			i++
			continue
		}

		if prev != nil && prev.y-ln.y > h.ParagraphGap*ln.fontSize {
			flushPara()
		}
		para = append(para, ln.text())
		cur := ln
		prev = &cur
		i++
	}
	flushPara()

	return blocks
}

// buildLines groups fragments into lines by Y band, then splits each line
// into cells by X gap. Fragments are fully ordered before grouping so the
// result does not depend on extraction order.
func buildLines(frags []pdfextract.Fragment, h Heuristics) []line {
	if len(frags) == 0 {
		return nil
	}
	sorted := make([]pdfextract.Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Text < sorted[j].Text
	})

	var lines []line
	var band []pdfextract.Fragment
	bandY := sorted[0].Y

	flush := func() {
		if len(band) > 0 {
			lines = append(lines, buildLine(band, h))
			band = nil
		}
	}

	for _, f := range sorted {
		tol := 0.4 * f.FontSize
		if tol < 2 {
			tol = 2
		}
		if len(band) > 0 && bandY-f.Y > tol {
			flush()
		}
		if len(band) == 0 {
			bandY = f.Y
		}
		band = append(band, f)
	}
	flush()

	return lines
}

func buildLine(band []pdfextract.Fragment, h Heuristics) line {
	sort.SliceStable(band, func(i, j int) bool { return band[i].X < band[j].X })

	ln := line{y: band[0].Y, bold: true}
	var cell strings.Builder
	var prevEnd float64

	for i, f := range band {
		if f.FontSize > ln.fontSize {
			ln.fontSize = f.FontSize
		}
		if !f.Bold {
			ln.bold = false
		}
		gap := f.X - prevEnd
		switch {
		case i == 0:
			cell.WriteString(f.Text)
		case gap > h.ColumnGap:
			ln.cells = append(ln.cells, strings.TrimSpace(cell.String()))
			cell.Reset()
			cell.WriteString(f.Text)
		case gap > 1:
			cell.WriteString(" ")
			cell.WriteString(f.Text)
		default:
			cell.WriteString(f.Text)
		}
		prevEnd = f.X + f.W
	}
	if cell.Len() > 0 {
		ln.cells = append(ln.cells, strings.TrimSpace(cell.String()))
	}
	return ln
}

func headingLevelFor(ln line, median float64, h Heuristics) int {
	if len(ln.cells) != 1 || median <= 0 {
		return 0
	}
	text := ln.text()
	if len(text) > 120 {
		return 0
	}
	ratio := ln.fontSize / median
	switch {
	case ratio >= 1.25*h.HeadingRatio:
		return 1
	case ratio >= h.HeadingRatio:
		return 2
	case ln.bold && ratio >= 1 && len(text) <= 80:
		return 3
	}
	return 0
}

func medianFontSize(lines []line) float64 {
	sizes := make([]float64, 0, len(lines))
	for _, l := range lines {
		if l.fontSize > 0 {
			sizes = append(sizes, l.fontSize)
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}
