package document

import "strings"

// BlockKind tags the variant of a structural block.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindTable     BlockKind = "table"
	KindListItem  BlockKind = "list_item"
)

// Block is one unit of reading-order content extracted from a source page.
// Only the fields relevant to its Kind are populated.
type Block struct {
	Kind BlockKind

	Text  string // Heading, Paragraph, ListItem
	Level int    // Heading: 1-6

	Rows [][]string // Table: ordered rows of ordered cells

	Indent int // ListItem: nesting depth, 0-based
}

// Heading builds a heading block. Level is clamped to 1-6.
func Heading(level int, text string) Block {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Block{Kind: KindHeading, Level: level, Text: text}
}

// Paragraph builds a paragraph block.
func Paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

// Table builds a table block. Ragged rows are right-padded with empty
// cells to the widest row observed.
func Table(rows [][]string) Block {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	padded := make([][]string, len(rows))
	for i, row := range rows {
		padded[i] = make([]string, cols)
		copy(padded[i], row)
	}
	return Block{Kind: KindTable, Rows: padded}
}

// ListItem builds a list item block at the given nesting depth.
func ListItem(text string, indent int) Block {
	if indent < 0 {
		indent = 0
	}
	return Block{Kind: KindListItem, Text: text, Indent: indent}
}

// Empty reports whether the block carries no content.
func (b Block) Empty() bool {
	switch b.Kind {
	case KindTable:
		for _, row := range b.Rows {
			for _, cell := range row {
				if strings.TrimSpace(cell) != "" {
					return false
				}
			}
		}
		return true
	default:
		return strings.TrimSpace(b.Text) == ""
	}
}
