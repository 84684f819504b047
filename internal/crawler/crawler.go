// Package crawler discovers and fetches the bounded set of pages
// reachable from a seed URL. Traversal is breadth-first over an explicit
// frontier with a visited set keyed by canonical URL, so link cycles and
// duplicate spellings are a non-issue by construction.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kbsmith/kbsmith/internal/document"
	"github.com/kbsmith/kbsmith/internal/fetch"
	"github.com/kbsmith/kbsmith/internal/normalize"
	"github.com/kbsmith/kbsmith/internal/preprocess"
	"github.com/kbsmith/kbsmith/internal/render"
)

// NodeStatus is the lifecycle state of one discovered URL.
type NodeStatus string

const (
	StatusPending          NodeStatus = "pending"
	StatusFetched          NodeStatus = "fetched"
	StatusFailed           NodeStatus = "failed"
	StatusSkippedScope     NodeStatus = "skipped-scope"
	StatusSkippedDuplicate NodeStatus = "skipped-duplicate"
	StatusSkipped          NodeStatus = "skipped"
)

// Node is one entry in the crawl graph, keyed by canonical URL.
type Node struct {
	URL    string     `json:"url"`
	Depth  int        `json:"depth"`
	Status NodeStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// Config bounds one crawl.
type Config struct {
	MaxPages    int
	MaxDepth    int
	Concurrency int
	Preprocess  bool
	Scope       ScopePolicy
}

// Result is the outcome of a crawl: the documents produced plus every
// node touched, in discovery order.
type Result struct {
	Documents []*document.Document
	Nodes     []*Node
}

// Crawler runs bounded breadth-first crawls using an injected fetcher.
type Crawler struct {
	fetcher fetch.Fetcher
	log     *slog.Logger
}

func New(fetcher fetch.Fetcher, log *slog.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, log: log}
}

// Crawl traverses from seed. Per-page failures mark the node failed and
// continue; only a failed seed with no documents at all is a crawl-level
// error. Cancellation returns the partial result along with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, seed string, cfg Config) (*Result, error) {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Scope.PageOnly {
		cfg.MaxPages = 1
		cfg.MaxDepth = 0
	}

	canonical, err := Canonicalize(seed)
	if err != nil {
		return nil, fmt.Errorf("seed url: %w", err)
	}

	res := &Result{}
	seen := map[string]*Node{}
	addNode := func(n *Node) {
		seen[n.URL] = n
		res.Nodes = append(res.Nodes, n)
	}

	seedNode := &Node{URL: canonical, Depth: 0, Status: StatusPending}
	addNode(seedNode)

	wave := []*Node{seedNode}

	// Sites that publish a sitemap get their listed pages seeded into the
	// first wave, so discovery does not depend on every page being linked
	// from the seed. Link extraction below still fills in the rest.
	if !cfg.Scope.PageOnly {
		seeds := c.sitemapSeeds(ctx, canonical, cfg.Scope)
		for _, su := range seeds {
			if _, dup := seen[su]; dup {
				continue
			}
			child := &Node{URL: su, Depth: 1, Status: StatusPending}
			addNode(child)
			wave = append(wave, child)
		}
		if len(seeds) > 0 {
			c.log.Info("sitemap discovery", "seed", canonical, "urls", len(seeds))
		}
	}

	fetched := 0
	cancelled := false

	for len(wave) > 0 && !cancelled && fetched < cfg.MaxPages {
		var next []*Node

		// Fetch the wave in concurrency-sized batches so the page budget
		// is re-checked between batches; link discovery stays on this
		// goroutine, keeping the frontier single-writer.
		for start := 0; start < len(wave); start += cfg.Concurrency {
			if ctx.Err() != nil {
				cancelled = true
				break
			}
			if fetched >= cfg.MaxPages {
				break
			}
			end := min(start+cfg.Concurrency, len(wave))
			batch := wave[start:end]
			results := c.fetchBatch(ctx, batch)

			for i, node := range batch {
				if fetched >= cfg.MaxPages {
					break
				}
				r := results[i]
				if r.err != nil {
					node.Status = StatusFailed
					node.Error = r.err.Error()
					c.log.Warn("page fetch failed", "url", node.URL, "error", r.err)
					continue
				}

				doc, derr := pageDocument(node, r.res.Body, cfg.Preprocess)
				if derr != nil {
					node.Status = StatusFailed
					node.Error = derr.Error()
					continue
				}
				node.Status = StatusFetched
				fetched++
				res.Documents = append(res.Documents, doc)

				if cfg.Scope.PageOnly || node.Depth+1 > cfg.MaxDepth {
					continue
				}
				for _, link := range extractLinks(node.URL, r.res.Body) {
					canon, cerr := Canonicalize(link)
					if cerr != nil {
						continue
					}
					if _, dup := seen[canon]; dup {
						// Two spellings of one page collapse onto the
						// existing node.
						continue
					}
					if !cfg.Scope.InScope(canon) {
						addNode(&Node{URL: canon, Depth: node.Depth + 1, Status: StatusSkippedScope})
						continue
					}
					child := &Node{URL: canon, Depth: node.Depth + 1, Status: StatusPending}
					addNode(child)
					next = append(next, child)
				}
			}
		}

		wave = next
	}

	// Budget or cancellation exhausted: everything still pending was
	// never fetched, which is a bounded-crawl outcome, not an error.
	for _, n := range res.Nodes {
		if n.Status == StatusPending {
			n.Status = StatusSkipped
		}
	}

	if cancelled {
		return res, ctx.Err()
	}
	if len(res.Documents) == 0 {
		return res, &fetch.Error{URL: canonical, Err: fmt.Errorf("seed produced no document: %s", seedNode.Error)}
	}
	return res, nil
}

type fetchResult struct {
	res *fetch.Result
	err error
}

// fetchBatch retrieves a batch concurrently; results are index-aligned
// with the batch so output order matches discovery order.
func (c *Crawler) fetchBatch(ctx context.Context, batch []*Node) []fetchResult {
	results := make([]fetchResult, len(batch))
	done := make(chan int, len(batch))
	for i, node := range batch {
		go func(i int, url string) {
			res, err := c.fetcher.Fetch(ctx, url)
			if err == nil && !isHTML(res.ContentType) {
				err = &fetch.Error{URL: url, Err: fmt.Errorf("unsupported content type %q", res.ContentType)}
			}
			results[i] = fetchResult{res: res, err: err}
			done <- i
		}(i, node.URL)
	}
	for range batch {
		<-done
	}
	return results
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	return strings.Contains(contentType, "text/html") || strings.Contains(contentType, "xhtml")
}

// pageDocument runs one fetched page through the normalize → render →
// preprocess stages.
func pageDocument(node *Node, body []byte, doPreprocess bool) (*document.Document, error) {
	blocks, title, err := normalize.HTML(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", node.URL, err)
	}
	if title == "" {
		title = node.URL
	}

	doc := &document.Document{
		ID:             node.URL,
		Source:         document.SourceURL,
		Title:          title,
		Blocks:         blocks,
		RawText:        render.Markdown(blocks),
		NormalizedText: render.Markdown(render.StripEmpty(blocks)),
		CrawlDepth:     node.Depth,
	}
	if doPreprocess {
		doc.FilteredText = preprocess.Filter(doc.NormalizedText)
	} else {
		doc.FilteredText = doc.NormalizedText
	}
	return doc, nil
}
