package normalize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kbsmith/kbsmith/internal/document"
	"github.com/kbsmith/kbsmith/internal/render"
)

func TestMarkdown_ParsesBlocks(t *testing.T) {
	src := []byte(`# Title

Intro paragraph.

| a | b |
| --- | --- |
| 1 | 2 |

- one
- two
  - nested
`)

	blocks := Markdown(src)
	want := []document.Block{
		document.Heading(1, "Title"),
		document.Paragraph("Intro paragraph."),
		document.Table([][]string{{"a", "b"}, {"1", "2"}}),
		document.ListItem("one", 0),
		document.ListItem("two", 0),
		document.ListItem("nested", 1),
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("expected %+v, got %+v", want, blocks)
	}
}

func TestMarkdown_ListItemTextAfterSublistKeepsOrder(t *testing.T) {
	src := []byte(strings.Join([]string{
		"- intro line",
		"  - nested line",
		"",
		"  outro line",
	}, "\n") + "\n")

	blocks := Markdown(src)
	want := []document.Block{
		document.ListItem("intro line", 0),
		document.ListItem("nested line", 1),
		document.ListItem("outro line", 0),
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("expected %+v, got %+v", want, blocks)
	}
}

// Canonical markdown must survive a parse-and-render cycle unchanged:
// the stored filtered file can be re-ingested without drift.
func TestMarkdown_RenderRoundTrip(t *testing.T) {
	canonical := strings.Join([]string{
		"# Title",
		"",
		"Paragraph one.",
		"",
		"| a | b |",
		"| --- | --- |",
		"| 1 | 2 |",
		"",
		"- item one",
		"- item two",
		"",
		"Tail paragraph.",
	}, "\n") + "\n"

	rendered := render.Markdown(Markdown([]byte(canonical)))
	if rendered != canonical {
		t.Errorf("round trip drifted:\nwant:\n%q\ngot:\n%q", canonical, rendered)
	}
}

func TestMarkdown_EmptyInput(t *testing.T) {
	if blocks := Markdown(nil); blocks != nil {
		t.Errorf("expected nil blocks, got %v", blocks)
	}
}
