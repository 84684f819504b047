package normalize

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/kbsmith/kbsmith/internal/document"
)

// skippedElements are dropped entirely during the walk: scripts, styling,
// navigation chrome, and interactive widgets carry no document content.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "button": true, "input": true, "select": true, "textarea": true,
	"iframe": true, "svg": true, "canvas": true, "video": true, "audio": true,
}

// HTML converts an HTML document into an ordered block sequence. The walk
// is a deterministic depth-first traversal of the parse tree: identical
// input yields an identical block sequence.
func HTML(r io.Reader) (blocks []document.Block, title string, err error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, "", err
	}

	title = findTitle(root)

	w := &htmlWalker{}
	body := findElement(root, "body")
	if body == nil {
		body = root
	}
	w.walk(body)
	w.flushParagraph()

	return w.blocks, title, nil
}

type htmlWalker struct {
	blocks []document.Block
	para   strings.Builder
}

func (w *htmlWalker) flushParagraph() {
	t := collapseSpace(w.para.String())
	if t != "" {
		w.blocks = append(w.blocks, document.Paragraph(t))
	}
	w.para.Reset()
}

func (w *htmlWalker) walk(n *html.Node) {
	if n.Type == html.TextNode {
		w.para.WriteString(n.Data)
		return
	}
	if n.Type != html.ElementNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
		return
	}

	if skippedElements[n.Data] {
		return
	}

	if level := headingLevel(n.Data); level > 0 {
		w.flushParagraph()
		if t := collapseSpace(textContent(n)); t != "" {
			w.blocks = append(w.blocks, document.Heading(level, t))
		}
		return
	}

	switch n.Data {
	case "table":
		w.flushParagraph()
		if rows := tableRows(n); len(rows) > 0 {
			w.blocks = append(w.blocks, document.Table(rows))
		}
		return

	case "ul", "ol":
		w.flushParagraph()
		w.walkList(n, 0)
		return

	case "p", "blockquote":
		w.flushParagraph()
		if t := collapseSpace(textContent(n)); t != "" {
			w.blocks = append(w.blocks, document.Paragraph(t))
		}
		return

	case "pre":
		w.flushParagraph()
		if t := strings.TrimRight(textContent(n), "\n "); strings.TrimSpace(t) != "" {
			w.blocks = append(w.blocks, document.Paragraph(t))
		}
		return

	case "br":
		w.para.WriteString(" ")
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// walkList emits list items with indent tracking the ul/ol nesting depth.
func (w *htmlWalker) walkList(list *html.Node, depth int) {
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "li":
			if t := collapseSpace(shallowText(c)); t != "" {
				w.blocks = append(w.blocks, document.ListItem(t, depth))
			}
			for g := c.FirstChild; g != nil; g = g.NextSibling {
				if g.Type == html.ElementNode && (g.Data == "ul" || g.Data == "ol") {
					w.walkList(g, depth+1)
				}
			}
		case "ul", "ol":
			// Malformed but common: a list nested directly in a list.
			w.walkList(c, depth+1)
		}
	}
}

// tableRows collects the cell text of every tr in document order.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, collapseSpace(textContent(c)))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)
	return rows
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

// shallowText is textContent minus nested lists and tables, for li nodes
// whose sublists are emitted separately.
func shallowText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode {
			switch {
			case skippedElements[n.Data], n.Data == "ul", n.Data == "ol", n.Data == "table":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extract(c)
	}
	return buf.String()
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return collapseSpace(textContent(t))
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
