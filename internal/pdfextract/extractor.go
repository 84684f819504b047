// Package pdfextract provides the PDF text extraction capability: per-page
// positioned text fragments that the layout normalizer turns into blocks.
package pdfextract

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Fragment is one positioned piece of text on a page. Coordinates are in
// PDF user space (origin bottom-left, Y grows upward).
type Fragment struct {
	Text     string
	X, Y     float64
	W        float64 // advance width
	FontSize float64
	Bold     bool
}

// Page holds the raw extraction output for one page.
type Page struct {
	Number    int
	Fragments []Fragment
}

// Extractor is the capability interface consumed by the converter.
type Extractor interface {
	Extract(data []byte) ([]Page, error)
}

// Error reports a failed extraction: corrupt, encrypted, or otherwise
// unreadable input.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf extraction: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("pdf extraction: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// TextExtractor extracts positioned text using ledongthuc/pdf.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Extract(data []byte) (pages []Page, err error) {
	if len(data) == 0 {
		return nil, &Error{Reason: "empty input"}
	}

	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &Error{Reason: fmt.Sprintf("malformed pdf: %v", r)}
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &Error{Reason: "open pdf", Err: err}
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		frags := make([]Fragment, 0, len(content.Text))
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			frags = append(frags, Fragment{
				Text:     t.S,
				X:        t.X,
				Y:        t.Y,
				W:        t.W,
				FontSize: t.FontSize,
				Bold:     strings.Contains(t.Font, "Bold"),
			})
		}
		if len(frags) == 0 {
			continue
		}
		pages = append(pages, Page{Number: i, Fragments: frags})
	}

	if len(pages) == 0 {
		return nil, &Error{Reason: "no extractable text"}
	}
	return pages, nil
}
