// Package convert orchestrates the conversion pipeline: extract or
// fetch a source, normalize it into blocks, render markdown, filter
// it, and persist the results.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/kbsmith/kbsmith/internal/artifact"
	"github.com/kbsmith/kbsmith/internal/crawler"
	"github.com/kbsmith/kbsmith/internal/document"
	"github.com/kbsmith/kbsmith/internal/generate"
	"github.com/kbsmith/kbsmith/internal/normalize"
	"github.com/kbsmith/kbsmith/internal/pdfextract"
	"github.com/kbsmith/kbsmith/internal/preprocess"
	"github.com/kbsmith/kbsmith/internal/render"
)

// Options carries the tunables shared by all conversions.
type Options struct {
	PDFHeuristics    normalize.Heuristics
	CrawlMaxPages    int
	CrawlMaxDepth    int
	CrawlConcurrency int
}

// Service wires the conversion stages together. It is safe for
// concurrent use.
type Service struct {
	crawler *crawler.Crawler
	pdf     pdfextract.Extractor
	gen     *generate.Generator
	store   *artifact.Store
	log     *slog.Logger
	opts    Options
}

func NewService(cr *crawler.Crawler, pdf pdfextract.Extractor, gen *generate.Generator, store *artifact.Store, log *slog.Logger, opts Options) *Service {
	if opts.CrawlMaxPages <= 0 {
		opts.CrawlMaxPages = 25
	}
	if opts.CrawlMaxDepth <= 0 {
		opts.CrawlMaxDepth = 2
	}
	if opts.CrawlConcurrency <= 0 {
		opts.CrawlConcurrency = 4
	}
	return &Service{crawler: cr, pdf: pdf, gen: gen, store: store, log: log, opts: opts}
}

// ConvertedDocument summarizes one persisted conversion result.
type ConvertedDocument struct {
	DocID         string `json:"doc_id"`
	Source        string `json:"source"`
	Title         string `json:"title,omitempty"`
	Stem          string `json:"stem"`
	RawChars      int    `json:"raw_chars"`
	FilteredChars int    `json:"filtered_chars"`
}

// URLResult is the outcome of a URL conversion: converted documents
// plus every crawl node touched.
type URLResult struct {
	Documents []ConvertedDocument `json:"documents"`
	Nodes     []*crawler.Node     `json:"nodes"`
}

// ConvertPDF extracts positional text from a PDF, reconstructs its
// layout into blocks, and persists the raw and filtered markdown.
func (s *Service) ConvertPDF(ctx context.Context, filename string, data []byte, doPreprocess bool) (*ConvertedDocument, error) {
	pages, err := s.pdf.Extract(data)
	if err != nil {
		return nil, err
	}
	blocks := normalize.PDFPages(pages, s.opts.PDFHeuristics)
	doc := s.newDocument(document.SourcePDF, filename, "", blocks)
	s.renderAndFilter(doc, doPreprocess, preprocess.Options{StripPageArtifacts: true})
	return s.persist(ctx, doc)
}

// ConvertDOCX parses a Word document body into blocks and persists
// the raw and filtered markdown.
func (s *Service) ConvertDOCX(ctx context.Context, filename string, data []byte, doPreprocess bool) (*ConvertedDocument, error) {
	blocks, err := normalize.DOCX(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	doc := s.newDocument(document.SourceDOCX, filename, "", blocks)
	s.renderAndFilter(doc, doPreprocess, preprocess.Options{})
	return s.persist(ctx, doc)
}

// ConvertMarkdown re-parses markdown input into blocks so that its
// persisted form is canonical.
func (s *Service) ConvertMarkdown(ctx context.Context, filename string, data []byte, doPreprocess bool) (*ConvertedDocument, error) {
	blocks := normalize.Markdown(data)
	doc := s.newDocument(document.SourceMarkdown, filename, "", blocks)
	s.renderAndFilter(doc, doPreprocess, preprocess.Options{})
	return s.persist(ctx, doc)
}

// ConvertURL crawls from seed within the default scope and persists
// every page document produced. With pageOnly set, only the seed page
// is converted.
func (s *Service) ConvertURL(ctx context.Context, seed string, pageOnly, doPreprocess bool) (*URLResult, error) {
	canonical, err := crawler.Canonicalize(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed url: %w", err)
	}
	parsed, err := url.Parse(canonical)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid seed url %q", seed)
	}
	cfg := crawler.Config{
		MaxPages:    s.opts.CrawlMaxPages,
		MaxDepth:    s.opts.CrawlMaxDepth,
		Concurrency: s.opts.CrawlConcurrency,
		Preprocess:  doPreprocess,
		Scope:       crawler.DefaultScope(parsed, pageOnly),
	}
	if pageOnly {
		cfg.MaxPages = 1
		cfg.MaxDepth = 0
	}

	// A cancelled crawl still returns the pages converted before the
	// cancellation; those are persisted and handed back as a partial
	// result alongside the context error.
	res, crawlErr := s.crawler.Crawl(ctx, canonical, cfg)
	if res == nil || len(res.Documents) == 0 {
		if crawlErr != nil {
			return nil, crawlErr
		}
		return nil, fmt.Errorf("crawl of %s produced no documents", canonical)
	}

	out := &URLResult{Nodes: res.Nodes}
	for _, doc := range res.Documents {
		conv, err := s.persist(ctx, doc)
		if err != nil {
			s.log.Error("persist page failed", "url", doc.ID, "error", err)
			continue
		}
		out.Documents = append(out.Documents, *conv)
	}
	if len(out.Documents) == 0 {
		return nil, fmt.Errorf("crawl of %s produced no documents", canonical)
	}
	return out, crawlErr
}

// GenerateQA converts a stored document's filtered text into Q&A pairs
// and persists them as a markdown artifact.
func (s *Service) GenerateQA(ctx context.Context, stem, modelRef string) (*generate.QAResult, error) {
	doc, err := s.loadFiltered(stem)
	if err != nil {
		return nil, err
	}
	// A cancelled run that produced sections is still persisted and
	// returned as a partial result with the context error.
	res, genErr := s.gen.QA(ctx, doc, modelRef)
	if res == nil {
		return nil, genErr
	}
	if err := s.store.SaveArtifact(stem, artifact.VariantQA, renderQA(res)); err != nil {
		return nil, err
	}
	return res, genErr
}

// GenerateSummary summarizes a stored document's filtered text and
// persists the summary as a markdown artifact.
func (s *Service) GenerateSummary(ctx context.Context, stem, modelRef string) (*generate.SummaryResult, error) {
	doc, err := s.loadFiltered(stem)
	if err != nil {
		return nil, err
	}
	res, genErr := s.gen.Summary(ctx, doc, modelRef)
	if res == nil {
		return nil, genErr
	}
	if err := s.store.SaveArtifact(stem, artifact.VariantSummary, renderSummary(res)); err != nil {
		return nil, err
	}
	return res, genErr
}

func (s *Service) newDocument(kind document.SourceKind, source, title string, blocks []document.Block) *document.Document {
	return &document.Document{
		ID:     source,
		Source: kind,
		Title:  title,
		Blocks: blocks,
	}
}

// renderAndFilter fills the document's text fields from its blocks.
// Raw text keeps every block; normalized text drops empty blocks; the
// filtered text is the preprocessor output, or the normalized text
// verbatim when preprocessing is off.
func (s *Service) renderAndFilter(doc *document.Document, doPreprocess bool, opts preprocess.Options) {
	doc.RawText = render.Markdown(doc.Blocks)
	doc.NormalizedText = render.Markdown(render.StripEmpty(doc.Blocks))
	if doPreprocess {
		doc.FilteredText = preprocess.FilterWithOptions(doc.NormalizedText, opts)
	} else {
		doc.FilteredText = doc.NormalizedText
	}
}

func (s *Service) persist(ctx context.Context, doc *document.Document) (*ConvertedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stem, err := s.store.SaveDocument(doc.ID, doc.RawText, doc.FilteredText)
	if err != nil {
		return nil, fmt.Errorf("persist %s: %w", doc.ID, err)
	}
	s.log.Info("document converted",
		"doc_id", doc.ID,
		"source", string(doc.Source),
		"stem", stem,
		"raw_chars", len(doc.RawText),
		"filtered_chars", len(doc.FilteredText),
	)
	return &ConvertedDocument{
		DocID:         doc.ID,
		Source:        string(doc.Source),
		Title:         doc.Title,
		Stem:          stem,
		RawChars:      len(doc.RawText),
		FilteredChars: len(doc.FilteredText),
	}, nil
}

// loadFiltered rebuilds a minimal document from a stored filtered
// rendering so that generation always runs over canonical text.
func (s *Service) loadFiltered(stem string) (*document.Document, error) {
	text, err := s.store.Read(stem, artifact.VariantFiltered)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", stem, err)
	}
	return &document.Document{
		ID:           stem,
		Source:       document.SourceMarkdown,
		FilteredText: text,
	}, nil
}
