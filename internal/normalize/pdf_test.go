package normalize

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/kbsmith/kbsmith/internal/document"
	"github.com/kbsmith/kbsmith/internal/pdfextract"
)

func frag(text string, x, y, w, size float64) pdfextract.Fragment {
	return pdfextract.Fragment{Text: text, X: x, Y: y, W: w, FontSize: size}
}

// reportPage lays out a heading, a two-line paragraph, and a 2x3
// column-aligned table.
func reportPage() pdfextract.Page {
	return pdfextract.Page{
		Number: 1,
		Fragments: []pdfextract.Fragment{
			frag("Introduction", 50, 700, 120, 18),

			frag("This is the first line of the body", 50, 670, 220, 10),
			frag("and this is the second line.", 50, 658, 180, 10),

			frag("Metric", 50, 600, 40, 10),
			frag("Value", 200, 600, 40, 10),
			frag("Latency", 50, 588, 50, 10),
			frag("12ms", 200, 588, 30, 10),
			frag("Throughput", 50, 576, 70, 10),
			frag("900rps", 200, 576, 45, 10),
		},
	}
}

func TestPDFPages_HeadingParagraphTable(t *testing.T) {
	blocks := PDFPages([]pdfextract.Page{reportPage()}, DefaultHeuristics())

	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks (heading, paragraph, table), got %d: %+v", len(blocks), blocks)
	}

	if blocks[0].Kind != document.KindHeading || blocks[0].Level != 1 {
		t.Errorf("expected level-1 heading, got kind=%s level=%d", blocks[0].Kind, blocks[0].Level)
	}
	if blocks[0].Text != "Introduction" {
		t.Errorf("expected heading %q, got %q", "Introduction", blocks[0].Text)
	}

	if blocks[1].Kind != document.KindParagraph {
		t.Fatalf("expected paragraph, got %s", blocks[1].Kind)
	}
	wantPara := "This is the first line of the body and this is the second line."
	if blocks[1].Text != wantPara {
		t.Errorf("expected paragraph %q, got %q", wantPara, blocks[1].Text)
	}

	if blocks[2].Kind != document.KindTable {
		t.Fatalf("expected table, got %s", blocks[2].Kind)
	}
	wantRows := [][]string{
		{"Metric", "Value"},
		{"Latency", "12ms"},
		{"Throughput", "900rps"},
	}
	if !reflect.DeepEqual(blocks[2].Rows, wantRows) {
		t.Errorf("expected rows %v, got %v", wantRows, blocks[2].Rows)
	}
}

func TestPDFPages_DeterministicUnderFragmentOrder(t *testing.T) {
	base := reportPage()
	want := PDFPages([]pdfextract.Page{base}, DefaultHeuristics())

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 10; trial++ {
		shuffled := pdfextract.Page{Number: 1, Fragments: append([]pdfextract.Fragment(nil), base.Fragments...)}
		rng.Shuffle(len(shuffled.Fragments), func(i, j int) {
			shuffled.Fragments[i], shuffled.Fragments[j] = shuffled.Fragments[j], shuffled.Fragments[i]
		})
		got := PDFPages([]pdfextract.Page{shuffled}, DefaultHeuristics())
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("trial %d: output depends on fragment order", trial)
		}
	}
}

func TestPDFPages_BoldShortLineIsSubheading(t *testing.T) {
	page := pdfextract.Page{
		Number: 1,
		Fragments: []pdfextract.Fragment{
			{Text: "Details", X: 50, Y: 700, W: 50, FontSize: 10, Bold: true},
			frag("Plain body text under the bold line.", 50, 670, 200, 10),
			frag("More body to weigh the median.", 50, 658, 180, 10),
		},
	}

	blocks := PDFPages([]pdfextract.Page{page}, DefaultHeuristics())
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != document.KindHeading || blocks[0].Level != 3 {
		t.Errorf("expected level-3 heading for bold short line, got kind=%s level=%d", blocks[0].Kind, blocks[0].Level)
	}
}

func TestPDFPages_ParagraphGapSplits(t *testing.T) {
	page := pdfextract.Page{
		Number: 1,
		Fragments: []pdfextract.Fragment{
			frag("First paragraph line.", 50, 700, 120, 10),
			// 40pt vertical gap, well past 1.8x the font size.
			frag("Second paragraph line.", 50, 660, 130, 10),
		},
	}

	blocks := PDFPages([]pdfextract.Page{page}, DefaultHeuristics())
	if len(blocks) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %+v", len(blocks), blocks)
	}
	for i, b := range blocks {
		if b.Kind != document.KindParagraph {
			t.Errorf("block %d: expected paragraph, got %s", i, b.Kind)
		}
	}
}

func TestPDFPages_EmptyInput(t *testing.T) {
	if blocks := PDFPages(nil, DefaultHeuristics()); blocks != nil {
		t.Errorf("expected nil blocks, got %v", blocks)
	}
	empty := pdfextract.Page{Number: 1}
	if blocks := PDFPages([]pdfextract.Page{empty}, DefaultHeuristics()); blocks != nil {
		t.Errorf("expected nil blocks for empty page, got %v", blocks)
	}
}
