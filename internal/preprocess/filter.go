// Package preprocess cleans normalized text into its canonical filtered
// form. The transform chain is idempotent: Filter(Filter(x)) == Filter(x).
package preprocess

import (
	"regexp"
	"strings"
)

// Options controls source-specific cleaning.
type Options struct {
	// StripPageArtifacts removes page-number-only lines and repeated
	// running headers/footers. Set for PDF-sourced documents.
	StripPageArtifacts bool
}

// Filter applies the default transform chain: trailing-whitespace strip,
// table repair, blank-line collapse.
func Filter(text string) string {
	return FilterWithOptions(text, Options{})
}

// FilterWithOptions runs the full chain. Each step is idempotent on its
// own output, so the chain as a whole is too.
func FilterWithOptions(text string, opts Options) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}

	if opts.StripPageArtifacts {
		lines = stripPageNumbers(lines)
		lines = stripRunningLines(lines)
	}

	lines = repairTables(lines)
	lines = collapseBlank(lines)

	out := strings.Join(lines, "\n")
	out = strings.Trim(out, "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

var pageNumberRe = regexp.MustCompile(`^(?i)(?:page|seite)?\s*\d{1,4}(?:\s*(?:/|of|von)\s*\d{1,4})?$`)

func stripPageNumbers(lines []string) []string {
	out := lines[:0]
	for _, line := range lines {
		if line != "" && pageNumberRe.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// stripRunningLines removes short plain-text lines repeated verbatim three
// or more times, the signature of running headers and footers carried over
// page boundaries.
func stripRunningLines(lines []string) []string {
	const (
		minRepeats = 3
		maxLineLen = 80
	)
	counts := make(map[string]int)
	for _, line := range lines {
		if isPlainShortLine(line, maxLineLen) {
			counts[line]++
		}
	}
	out := lines[:0]
	for _, line := range lines {
		if isPlainShortLine(line, maxLineLen) && counts[line] >= minRepeats {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isPlainShortLine(line string, maxLen int) bool {
	if line == "" || len(line) > maxLen {
		return false
	}
	switch line[0] {
	case '#', '|', '-':
		return false
	}
	return true
}

// repairTables re-pads every row of each pipe table to the widest row in
// that table and re-renders rows in canonical form.
func repairTables(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], "|") {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) && strings.HasPrefix(lines[j], "|") {
			j++
		}
		out = append(out, repairTable(lines[i:j])...)
		i = j
	}
	return out
}

func repairTable(rows []string) []string {
	parsed := make([][]string, len(rows))
	cols := 0
	for i, row := range rows {
		parsed[i] = splitRow(row)
		if len(parsed[i]) > cols {
			cols = len(parsed[i])
		}
	}
	out := make([]string, len(rows))
	for i, cells := range parsed {
		pad := ""
		if isSeparatorRow(cells) {
			pad = "---"
		}
		for len(cells) < cols {
			cells = append(cells, pad)
		}
		var sb strings.Builder
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" ")
			sb.WriteString(c)
			sb.WriteString(" |")
		}
		out[i] = sb.String()
	}
	return out
}

// splitRow splits a pipe row into trimmed cells, honoring escaped pipes.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")

	var cells []string
	var cur strings.Builder
	escaped := false
	for _, r := range row {
		switch {
		case escaped:
			cur.WriteRune('\\')
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}

var separatorCellRe = regexp.MustCompile(`^:?-{3,}:?$`)

func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorCellRe.MatchString(c) {
			return false
		}
	}
	return true
}

func collapseBlank(lines []string) []string {
	out := lines[:0]
	blank := false
	for _, line := range lines {
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return out
}
