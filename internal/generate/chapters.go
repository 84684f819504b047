package generate

import (
	"regexp"
	"strings"
)

// chapter is one generation unit of a document.
type chapter struct {
	Title string
	Text  string
}

var chapterHeadingRe = regexp.MustCompile(`(?i)^#{1,6}\s*chapter\s+(\d+)(?::\s*(.*))?$`)

// splitChapters cuts canonical markdown at "Chapter N" headings of any
// level. Text before the first chapter heading is dropped; when no
// heading matches, the whole text becomes a single "Full Document"
// chapter.
func splitChapters(text string) []chapter {
	var out []chapter
	var title string
	var body []string

	flush := func() {
		if title == "" {
			return
		}
		out = append(out, chapter{Title: title, Text: strings.TrimSpace(strings.Join(body, "\n"))})
	}

	for _, line := range strings.Split(text, "\n") {
		m := chapterHeadingRe.FindStringSubmatch(strings.TrimRight(line, " \t"))
		if m == nil {
			body = append(body, line)
			continue
		}
		flush()
		title = "Chapter " + m[1]
		if sub := strings.TrimSpace(m[2]); sub != "" {
			title += ": " + sub
		}
		body = nil
	}
	flush()

	if len(out) == 0 {
		return []chapter{{Title: "Full Document", Text: strings.TrimSpace(text)}}
	}
	return out
}
