// Package render serializes structural blocks into the canonical
// Markdown-like text used everywhere downstream. Rendering is a pure
// function of the block sequence: identical input yields byte-identical
// output.
package render

import (
	"strings"

	"github.com/kbsmith/kbsmith/internal/document"
)

// Markdown renders blocks in order:
//
//	Heading(level)  ->  level '#' markers, text, blank line
//	Paragraph       ->  text, blank line
//	Table           ->  pipe-delimited rows, separator row after row 1, blank line
//	ListItem        ->  "- " marker indented two spaces per level; a blank
//	                    line follows the last item of a run
func Markdown(blocks []document.Block) string {
	var sb strings.Builder

	for i, b := range blocks {
		switch b.Kind {
		case document.KindHeading:
			sb.WriteString(strings.Repeat("#", b.Level))
			sb.WriteString(" ")
			sb.WriteString(b.Text)
			sb.WriteString("\n\n")

		case document.KindParagraph:
			sb.WriteString(b.Text)
			sb.WriteString("\n\n")

		case document.KindTable:
			writeTable(&sb, b.Rows)

		case document.KindListItem:
			sb.WriteString(strings.Repeat("  ", b.Indent))
			sb.WriteString("- ")
			sb.WriteString(b.Text)
			sb.WriteString("\n")
			// Close the list run with a blank line.
			if i+1 >= len(blocks) || blocks[i+1].Kind != document.KindListItem {
				sb.WriteString("\n")
			}
		}
	}

	out := strings.TrimRight(sb.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func writeTable(sb *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	for i, row := range rows {
		writeRow(sb, row)
		if i == 0 {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			writeRow(sb, sep)
		}
	}
	sb.WriteString("\n")
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(sanitizeCell(cell))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

// sanitizeCell keeps pipe rows parseable: embedded pipes and newlines
// would break the row structure of the rendered table.
func sanitizeCell(cell string) string {
	cell = strings.ReplaceAll(cell, "|", "\\|")
	cell = strings.ReplaceAll(cell, "\n", " ")
	return strings.TrimSpace(cell)
}

// StripEmpty returns blocks with zero-content entries removed. Used for
// the normalized rendering; the raw rendering keeps everything.
func StripEmpty(blocks []document.Block) []document.Block {
	out := make([]document.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Empty() {
			continue
		}
		out = append(out, b)
	}
	return out
}
