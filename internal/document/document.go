// Package document defines the canonical data model shared by the
// ingestion pipeline: a Document with its text variants, the ordered
// structural blocks it was built from, and the chunks derived from it.
package document

// SourceKind identifies where a document came from.
type SourceKind string

const (
	SourcePDF      SourceKind = "pdf"
	SourceURL      SourceKind = "url"
	SourceDOCX     SourceKind = "docx"
	SourceMarkdown SourceKind = "markdown"
)

// Document is the normalized representation of one source (a PDF file, a
// crawled page, an uploaded DOCX or Markdown file).
//
// RawText is immutable once set. FilteredText, when present, is derived
// from NormalizedText alone by the preprocessor.
type Document struct {
	// ID is the source identity: the page URL or the uploaded filename.
	ID     string
	Source SourceKind
	Title  string

	Blocks []Block // reading order, load-bearing for rendering

	RawText        string
	NormalizedText string
	FilteredText   string // empty until preprocessed

	CrawlDepth int // 0 for non-crawled sources
}

// Text returns the best available text variant for downstream generation:
// filtered if the document was preprocessed, normalized otherwise.
func (d *Document) Text() string {
	if d.FilteredText != "" {
		return d.FilteredText
	}
	return d.NormalizedText
}

// Chunk is a contiguous, boundary-safe segment of a document's filtered
// text. Chunks partition the text: no gaps, no overlap, concatenating all
// chunk texts in order reconstructs the source text exactly.
type Chunk struct {
	Index int
	Text  string
	Start int // byte offset into the owning text, inclusive
	End   int // byte offset, exclusive
	DocID string
}
