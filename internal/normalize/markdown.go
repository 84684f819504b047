package normalize

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kbsmith/kbsmith/internal/document"
)

// Markdown parses already-normalized Markdown (uploaded .md files fed to
// the generation stage) back into blocks, so the generator works off one
// representation regardless of source.
func Markdown(src []byte) []document.Block {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	var blocks []document.Block
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, mdBlocks(n, src, 0)...)
	}
	return blocks
}

func mdBlocks(n ast.Node, src []byte, listDepth int) []document.Block {
	switch node := n.(type) {
	case *ast.Heading:
		return []document.Block{document.Heading(node.Level, string(node.Text(src)))}

	case *east.Table:
		var rows [][]string
		for row := node.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, strings.TrimSpace(string(cell.Text(src))))
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return []document.Block{document.Table(rows)}

	case *ast.List:
		var blocks []document.Block
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			blocks = append(blocks, mdListItem(item, src, listDepth)...)
		}
		return blocks

	default:
		t := mdText(n, src)
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []document.Block{document.Paragraph(t)}
	}
}

// mdListItem walks the item's children in order, emitting text runs
// and nested list items as they appear.
func mdListItem(item ast.Node, src []byte, depth int) []document.Block {
	var blocks []document.Block
	var own []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		if nested, ok := c.(*ast.List); ok {
			if len(own) > 0 {
				blocks = append(blocks, document.ListItem(strings.Join(own, " "), depth))
				own = nil
			}
			for it := nested.FirstChild(); it != nil; it = it.NextSibling() {
				blocks = append(blocks, mdListItem(it, src, depth+1)...)
			}
			continue
		}
		if t := strings.TrimSpace(mdText(c, src)); t != "" {
			own = append(own, t)
		}
	}
	if len(own) > 0 {
		// Text after the last sublist stays after it in reading order.
		blocks = append(blocks, document.ListItem(strings.Join(own, " "), depth))
	}
	return blocks
}

// mdText collects the raw text of a block node and its inline children.
func mdText(n ast.Node, src []byte) string {
	var buf strings.Builder
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
			if i < lines.Len()-1 {
				buf.WriteByte('\n')
			}
		}
		if buf.Len() > 0 {
			return strings.TrimSpace(buf.String())
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(mdText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
