// Package chunker splits canonical filtered text into bounded-size,
// boundary-safe chunks for generation calls.
//
// Boundaries are derived from the text itself: the canonical rendering
// preserves structure (heading lines, pipe tables, list markers), so
// segments can be recovered without the original block sequence. Chunks
// partition the input: concatenating chunk texts in order reconstructs
// it byte for byte.
package chunker

import (
	"strings"

	"github.com/kbsmith/kbsmith/internal/document"
)

// DefaultMaxChars is the fallback chunk budget.
const DefaultMaxChars = 2000

// segment is a half-open byte range [start, end) that must not be split.
type segment struct {
	start, end int
	heading    bool
}

// Split chunks text into at most maxChars-sized pieces. A heading is never
// separated from the segment that follows it, and a pipe table is never
// split. A single segment larger than maxChars is emitted as one oversized
// chunk rather than truncated.
func Split(text string, maxChars int) []document.Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	segs := mergeHeadings(segments(text))

	var chunks []document.Chunk
	start := 0
	end := 0

	flush := func() {
		if end > start {
			chunks = append(chunks, document.Chunk{
				Index: len(chunks),
				Text:  text[start:end],
				Start: start,
				End:   end,
			})
			start = end
		}
	}

	for _, seg := range segs {
		if end > start && seg.end-start > maxChars {
			flush()
		}
		end = seg.end
	}
	flush()

	return chunks
}

// segments tiles the whole text: every byte belongs to exactly one
// segment. A segment is a run of lines of one structural shape (table,
// heading, paragraph, list run) plus the blank lines that follow it.
func segments(text string) []segment {
	var segs []segment
	pos := 0
	n := len(text)

	for pos < n {
		segStart := pos
		line, next := readLine(text, pos)

		switch {
		case strings.HasPrefix(line, "|"):
			// Table: consume all consecutive pipe lines.
			pos = next
			for pos < n {
				l, nx := readLine(text, pos)
				if !strings.HasPrefix(l, "|") {
					break
				}
				pos = nx
			}
			pos = consumeBlank(text, pos)
			segs = append(segs, segment{start: segStart, end: pos})

		case isHeadingLine(line):
			pos = consumeBlank(text, next)
			segs = append(segs, segment{start: segStart, end: pos, heading: true})

		case isListLine(line):
			pos = next
			for pos < n {
				l, nx := readLine(text, pos)
				if !isListLine(l) {
					break
				}
				pos = nx
			}
			pos = consumeBlank(text, pos)
			segs = append(segs, segment{start: segStart, end: pos})

		case strings.TrimSpace(line) == "":
			// Stray blank lines become their own segment; greedy
			// accumulation folds them into the preceding chunk.
			pos = consumeBlank(text, next)
			segs = append(segs, segment{start: segStart, end: pos})

		default:
			// Paragraph: consume until a blank or structural line.
			pos = next
			for pos < n {
				l, nx := readLine(text, pos)
				if strings.TrimSpace(l) == "" || strings.HasPrefix(l, "|") ||
					isHeadingLine(l) || isListLine(l) {
					break
				}
				pos = nx
			}
			pos = consumeBlank(text, pos)
			segs = append(segs, segment{start: segStart, end: pos})
		}
	}

	return segs
}

// mergeHeadings folds each heading segment into the segment that follows
// it, so a chunk boundary can never fall between a heading and its body.
func mergeHeadings(segs []segment) []segment {
	var out []segment
	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		for seg.heading && i+1 < len(segs) {
			i++
			seg.end = segs[i].end
			seg.heading = segs[i].heading
		}
		out = append(out, seg)
	}
	return out
}

func readLine(text string, pos int) (line string, next int) {
	end := strings.IndexByte(text[pos:], '\n')
	if end < 0 {
		return text[pos:], len(text)
	}
	return text[pos : pos+end], pos + end + 1
}

func consumeBlank(text string, pos int) int {
	for pos < len(text) {
		line, next := readLine(text, pos)
		if strings.TrimSpace(line) != "" {
			return pos
		}
		pos = next
	}
	return pos
}

func isHeadingLine(line string) bool {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	return i >= 1 && i <= 6 && i < len(line) && line[i] == ' '
}

func isListLine(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	return strings.HasPrefix(trimmed, "- ")
}
