package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplit_SmallTextSingleChunk(t *testing.T) {
	text := "# Title\n\nA short document.\n"
	chunks := Split(text, 2000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk to equal input, got %q", chunks[0].Text)
	}
	if chunks[0].Start != 0 || chunks[0].End != len(text) {
		t.Errorf("expected offsets [0,%d), got [%d,%d)", len(text), chunks[0].Start, chunks[0].End)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("", 2000); chunks != nil {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_PartitionReconstructsInput(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "## Section %d\n\n", i)
		fmt.Fprintf(&sb, "Paragraph body for section %d with some filler text to add volume.\n\n", i)
		if i%5 == 0 {
			sb.WriteString("| k | v |\n| --- | --- |\n| a | 1 |\n\n")
		}
		if i%7 == 0 {
			sb.WriteString("- first item\n- second item\n\n")
		}
	}
	text := strings.TrimRight(sb.String(), "\n") + "\n"

	chunks := Split(text, 300)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	var rejoined strings.Builder
	prevEnd := 0
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
		}
		if c.Start != prevEnd {
			t.Errorf("chunk %d: expected start %d, got %d (gap or overlap)", i, prevEnd, c.Start)
		}
		if c.Text != text[c.Start:c.End] {
			t.Errorf("chunk %d: text does not match its offsets", i)
		}
		prevEnd = c.End
		rejoined.WriteString(c.Text)
	}
	if prevEnd != len(text) {
		t.Errorf("expected final chunk to end at %d, got %d", len(text), prevEnd)
	}
	if rejoined.String() != text {
		t.Error("concatenated chunks do not reconstruct the input")
	}
}

func TestSplit_OversizedTableStaysWhole(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Intro paragraph.\n\n")
	sb.WriteString("| col_a | col_b |\n| --- | --- |\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "| value_%04d | something_longer_%04d |\n", i, i)
	}
	sb.WriteString("\nClosing paragraph.\n")
	text := sb.String()

	chunks := Split(text, 2000)

	// The table run must land in exactly one chunk even though it is
	// far larger than the budget.
	tableChunks := 0
	for _, c := range chunks {
		if strings.Contains(c.Text, "value_0000") || strings.Contains(c.Text, "value_0199") {
			tableChunks++
			if !strings.Contains(c.Text, "value_0000") || !strings.Contains(c.Text, "value_0199") {
				t.Fatal("table was split across chunks")
			}
			if len(c.Text) <= 2000 {
				t.Errorf("expected oversized chunk, got %d chars", len(c.Text))
			}
		}
	}
	if tableChunks != 1 {
		t.Fatalf("expected table in exactly 1 chunk, got %d", tableChunks)
	}

	var rejoined strings.Builder
	for _, c := range chunks {
		rejoined.WriteString(c.Text)
	}
	if rejoined.String() != text {
		t.Error("concatenated chunks do not reconstruct the input")
	}
}

func TestSplit_HeadingStaysWithBody(t *testing.T) {
	filler := strings.Repeat("x", 180)
	text := "First paragraph " + filler + ".\n\n## Attached Heading\n\nBody under the heading.\n"

	chunks := Split(text, 200)
	for _, c := range chunks {
		if strings.Contains(c.Text, "## Attached Heading") {
			if !strings.Contains(c.Text, "Body under the heading.") {
				t.Error("heading separated from its body")
			}
		}
	}
}

func TestSplit_RespectsBudgetForNormalSegments(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "Paragraph number %d with enough words to be non-trivial.\n\n", i)
	}
	text := strings.TrimRight(sb.String(), "\n") + "\n"

	max := 250
	chunks := Split(text, max)
	for i, c := range chunks {
		if len(c.Text) > max {
			// Only permissible when the chunk is a single segment.
			if strings.Count(strings.TrimRight(c.Text, "\n"), "\n\n") > 0 {
				t.Errorf("chunk %d exceeds budget (%d > %d) with multiple segments", i, len(c.Text), max)
			}
		}
	}
}
