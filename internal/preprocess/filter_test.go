package preprocess

import (
	"strings"
	"testing"
)

func TestFilter_CollapsesBlankLines(t *testing.T) {
	in := "one\n\n\n\ntwo\n\n\nthree\n"
	got := Filter(in)
	want := "one\n\ntwo\n\nthree\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFilter_StripsTrailingWhitespace(t *testing.T) {
	got := Filter("hello   \nworld\t\n")
	want := "hello\nworld\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFilter_NormalizesCRLF(t *testing.T) {
	got := Filter("a\r\nb\r\n")
	want := "a\nb\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFilter_EmptyInput(t *testing.T) {
	if got := Filter(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	if got := Filter("\n\n\n"); got != "" {
		t.Errorf("expected empty output for blank-only input, got %q", got)
	}
}

func TestFilter_RepairsRaggedTable(t *testing.T) {
	in := strings.Join([]string{
		"| a | b | c |",
		"| --- | --- |",
		"| 1 | 2 |",
		"",
	}, "\n")

	got := Filter(in)
	want := strings.Join([]string{
		"| a | b | c |",
		"| --- | --- | --- |",
		"| 1 | 2 |  |",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestFilter_KeepsEscapedPipesInCells(t *testing.T) {
	in := "| a\\|b | c |\n| 1 | 2 |\n"
	got := Filter(in)
	if !strings.Contains(got, `a\|b`) {
		t.Errorf("expected escaped pipe preserved, got %q", got)
	}
	// The escaped pipe must not have split the cell.
	if !strings.Contains(got, "| a\\|b | c |") {
		t.Errorf("expected two cells in first row, got %q", got)
	}
}

func TestFilterWithOptions_StripsPageNumbers(t *testing.T) {
	in := strings.Join([]string{
		"Intro text.",
		"3",
		"Page 4",
		"12 of 140",
		"Seite 7 von 12",
		"More text with 42 inline.",
		"",
	}, "\n")

	got := FilterWithOptions(in, Options{StripPageArtifacts: true})
	want := "Intro text.\nMore text with 42 inline.\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFilterWithOptions_StripsRunningHeaders(t *testing.T) {
	header := "ACME Corp Annual Report"
	in := strings.Join([]string{
		header,
		"Body one.",
		header,
		"Body two.",
		header,
		"Body three.",
		"",
	}, "\n")

	got := FilterWithOptions(in, Options{StripPageArtifacts: true})
	if strings.Contains(got, header) {
		t.Errorf("expected running header removed, got %q", got)
	}
	for _, body := range []string{"Body one.", "Body two.", "Body three."} {
		if !strings.Contains(got, body) {
			t.Errorf("expected %q retained, got %q", body, got)
		}
	}
}

func TestFilterWithOptions_KeepsRepeatedHeadingsAndTableRows(t *testing.T) {
	in := strings.Join([]string{
		"# Chapter",
		"text",
		"# Chapter",
		"text",
		"# Chapter",
		"text",
		"",
	}, "\n")

	got := FilterWithOptions(in, Options{StripPageArtifacts: true})
	if strings.Count(got, "# Chapter") != 3 {
		t.Errorf("expected markdown headings exempt from running-line removal, got %q", got)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	inputs := []string{
		"one\n\n\n\ntwo  \n| a | b |\n| --- |\n| 1 | 2 | 3 |\n\n\nthree\n",
		"# Title\n\nBody text here.\n\n- item\n  - nested\n",
		"| x\\|y | z |\n| 1 | 2 |\n",
		"",
	}
	for i, in := range inputs {
		once := Filter(in)
		twice := Filter(once)
		if once != twice {
			t.Errorf("case %d: filter not idempotent:\nonce:  %q\ntwice: %q", i, once, twice)
		}
	}
}

func TestFilterWithOptions_IdempotentWithPageArtifacts(t *testing.T) {
	in := "Header line\nBody.\nHeader line\nBody.\nHeader line\n3\nPage 4\n"
	once := FilterWithOptions(in, Options{StripPageArtifacts: true})
	twice := FilterWithOptions(once, Options{StripPageArtifacts: true})
	if once != twice {
		t.Errorf("filter not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}
