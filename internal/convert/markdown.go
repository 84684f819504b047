package convert

import (
	"fmt"
	"strings"

	"github.com/kbsmith/kbsmith/internal/generate"
)

// renderQA lays generated sections out as a markdown Q&A document,
// one "**Qn:** / **An:**" block per pair under its chapter heading.
func renderQA(res *generate.QAResult) string {
	var sb strings.Builder
	sb.WriteString("# Q&A Pairs\n\n")
	for _, sec := range res.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", sec.Title)
		for i, p := range sec.Pairs {
			fmt.Fprintf(&sb, "**Q%d:** %s\n\n**A%d:** %s\n\n", i+1, p.Question, i+1, p.Answer)
		}
	}
	writeSkipped(&sb, res.SkippedChunks)
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func renderSummary(res *generate.SummaryResult) string {
	var sb strings.Builder
	sb.WriteString("# Chapter Summaries\n\n")
	for _, sec := range res.Sections {
		fmt.Fprintf(&sb, "## %s Summary\n\n%s\n\n", sec.Title, sec.Summary)
	}
	writeSkipped(&sb, res.SkippedChunks)
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeSkipped(sb *strings.Builder, skipped []generate.SkippedChunk) {
	if len(skipped) == 0 {
		return
	}
	sb.WriteString("## Skipped Sections\n\n")
	for _, sc := range skipped {
		fmt.Fprintf(sb, "- chunk %d: %s\n", sc.Index, sc.Reason)
	}
}
