package generate

import (
	"regexp"
	"strings"
)

// QAPair is one generated question with its answer.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SkippedChunk records a chunk whose generation failed after a retry.
type SkippedChunk struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// QASection holds the pairs generated for one chapter.
type QASection struct {
	Title string   `json:"title"`
	Pairs []QAPair `json:"pairs"`
}

// QAResult aggregates Q&A sections over all chapters of a document.
type QAResult struct {
	DocID         string         `json:"doc_id"`
	Sections      []QASection    `json:"sections"`
	SkippedChunks []SkippedChunk `json:"skipped_chunks,omitempty"`
	ChunkCount    int            `json:"chunk_count"`
}

// PairCount reports the total pairs across all sections.
func (r *QAResult) PairCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Pairs)
	}
	return n
}

// SummarySection is the summary of one chapter.
type SummarySection struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// SummaryResult holds per-chapter summaries plus bookkeeping.
type SummaryResult struct {
	DocID         string           `json:"doc_id"`
	Sections      []SummarySection `json:"sections"`
	SkippedChunks []SkippedChunk   `json:"skipped_chunks,omitempty"`
	ChunkCount    int              `json:"chunk_count"`
}

var (
	questionLeadRe = regexp.MustCompile(`^\s*(?:\d+[.)]\s*)?(?:[-*]\s*)?(.*)$`)
	interrogative  = regexp.MustCompile(`(?i)^(what|why|how|when|where|who|whom|whose|which|is|are|do|does|did|can|could|should|would|will)\b`)
)

// ParseQuestions extracts question lines from a completion, stripping
// list numbering and bullets. Lines that neither end with "?" nor open
// with an interrogative word are dropped.
func ParseQuestions(completion string) []string {
	var out []string
	for _, line := range strings.Split(completion, "\n") {
		m := questionLeadRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		q := strings.TrimSpace(m[1])
		if q == "" {
			continue
		}
		if !strings.HasSuffix(q, "?") && !interrogative.MatchString(q) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// dedupePairs removes pairs whose question already appeared in seen,
// comparing case-insensitively and keeping the first occurrence. The
// seen set spans the whole document so a question repeated in a later
// chapter is still dropped.
func dedupePairs(pairs []QAPair, seen map[string]struct{}) []QAPair {
	out := pairs[:0]
	for _, p := range pairs {
		key := strings.ToLower(strings.TrimSpace(p.Question))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
