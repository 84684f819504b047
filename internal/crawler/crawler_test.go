package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/kbsmith/kbsmith/internal/fetch"
)

// fakeFetcher serves pages from an in-memory map and counts fetches.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, u string) (*fetch.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, u)
	f.mu.Unlock()

	body, ok := f.pages[u]
	if !ok {
		return nil, &fetch.Error{URL: u, StatusCode: 404, Err: fmt.Errorf("not found")}
	}
	return &fetch.Result{
		URL:         u,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(body),
	}, nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func page(title string, links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>" + title + "</title></head><body>")
	sb.WriteString("<h1>" + title + "</h1><p>Content of " + title + ".</p>")
	for _, l := range links {
		sb.WriteString(`<a href="` + l + `">link</a>`)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func testScope(t *testing.T, seed string) ScopePolicy {
	t.Helper()
	u, err := url.Parse(seed)
	if err != nil {
		t.Fatalf("bad seed url: %v", err)
	}
	return DefaultScope(u, false)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCrawl_PageOnly(t *testing.T) {
	seed := "https://docs.example.com/guide"
	f := &fakeFetcher{pages: map[string]string{
		seed: page("Guide", "/guide/intro", "/guide/advanced"),
	}}

	u, _ := url.Parse(seed)
	cfg := Config{MaxPages: 10, MaxDepth: 3, Scope: DefaultScope(u, true)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(res.Documents))
	}
	if f.fetchCount() != 1 {
		t.Errorf("expected exactly 1 fetch, got %d", f.fetchCount())
	}
	if res.Documents[0].Title != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", res.Documents[0].Title)
	}
}

func TestCrawl_MaxPagesBound(t *testing.T) {
	seed := "https://docs.example.com/start"
	pages := map[string]string{}
	var links []string
	for i := 0; i < 9; i++ {
		u := fmt.Sprintf("https://docs.example.com/p%d", i)
		links = append(links, u)
		pages[u] = page(fmt.Sprintf("Page %d", i))
	}
	pages[seed] = page("Start", links...)

	f := &fakeFetcher{pages: pages}
	cfg := Config{MaxPages: 3, MaxDepth: 2, Concurrency: 2, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 3 {
		t.Fatalf("expected exactly 3 documents, got %d", len(res.Documents))
	}
	// All discovered-but-unfetched nodes must be marked skipped.
	for _, n := range res.Nodes {
		if n.Status == StatusPending {
			t.Errorf("node %s left pending", n.URL)
		}
	}
	skipped := 0
	for _, n := range res.Nodes {
		if n.Status == StatusSkipped {
			skipped++
		}
	}
	if skipped == 0 {
		t.Error("expected some nodes skipped by the page budget")
	}
}

func TestCrawl_DeduplicatesCanonicalVariants(t *testing.T) {
	seed := "https://docs.example.com/home"
	target := "https://docs.example.com/about"
	f := &fakeFetcher{pages: map[string]string{
		seed: page("Home",
			"/about",
			"/about/",
			"https://DOCS.EXAMPLE.COM/about#team",
		),
		target: page("About"),
	}}

	cfg := Config{MaxPages: 10, MaxDepth: 1, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents (seed + deduped about), got %d", len(res.Documents))
	}
	aboutNodes := 0
	for _, n := range res.Nodes {
		if strings.Contains(n.URL, "about") {
			aboutNodes++
		}
	}
	if aboutNodes != 1 {
		t.Errorf("expected 1 about node after canonical dedup, got %d", aboutNodes)
	}
}

func TestCrawl_ScopeExcludesOffHostAndKeywords(t *testing.T) {
	seed := "https://docs.example.com/home"
	f := &fakeFetcher{pages: map[string]string{
		seed: page("Home",
			"https://other-host.com/page",
			"/login",
			"/privacy-policy",
			"/styles.css",
			"/ok-page",
		),
		"https://docs.example.com/ok-page": page("OK"),
	}}

	cfg := Config{MaxPages: 10, MaxDepth: 1, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Documents))
	}
	for _, n := range res.Nodes {
		switch {
		case strings.Contains(n.URL, "other-host"),
			strings.Contains(n.URL, "login"),
			strings.Contains(n.URL, "privacy"):
			if n.Status != StatusSkippedScope {
				t.Errorf("expected %s skipped by scope, got %s", n.URL, n.Status)
			}
		}
	}
	for _, u := range f.calls {
		if strings.Contains(u, "other-host") || strings.Contains(u, "login") {
			t.Errorf("out-of-scope url was fetched: %s", u)
		}
	}
}

func TestCrawl_FailedPageContinues(t *testing.T) {
	seed := "https://docs.example.com/home"
	f := &fakeFetcher{pages: map[string]string{
		seed: page("Home", "/missing", "/alive"),
		"https://docs.example.com/alive": page("Alive"),
	}}

	cfg := Config{MaxPages: 10, MaxDepth: 1, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Documents))
	}
	var failed *Node
	for _, n := range res.Nodes {
		if strings.Contains(n.URL, "missing") {
			failed = n
		}
	}
	if failed == nil {
		t.Fatal("expected a node for the missing page")
	}
	if failed.Status != StatusFailed || failed.Error == "" {
		t.Errorf("expected failed node with error, got status=%s error=%q", failed.Status, failed.Error)
	}
}

func TestCrawl_SeedFailureIsError(t *testing.T) {
	seed := "https://docs.example.com/gone"
	f := &fakeFetcher{pages: map[string]string{}}

	cfg := Config{MaxPages: 5, MaxDepth: 1, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err == nil {
		t.Fatal("expected error when seed produces no document")
	}
	var fe *fetch.Error
	if !errors.As(err, &fe) {
		t.Errorf("expected fetch.Error, got %T", err)
	}
	if len(res.Documents) != 0 {
		t.Errorf("expected no documents, got %d", len(res.Documents))
	}
}

func TestCrawl_RespectsMaxDepth(t *testing.T) {
	seed := "https://docs.example.com/d0"
	f := &fakeFetcher{pages: map[string]string{
		seed: page("D0", "/d1"),
		"https://docs.example.com/d1": page("D1", "/d2"),
		"https://docs.example.com/d2": page("D2", "/d3"),
	}}

	cfg := Config{MaxPages: 10, MaxDepth: 1, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents (depth 0 and 1), got %d", len(res.Documents))
	}
	for _, u := range f.calls {
		if strings.HasSuffix(u, "/d2") {
			t.Error("page beyond max depth was fetched")
		}
	}
}

func TestCrawl_SitemapSeedsFrontier(t *testing.T) {
	seed := "https://docs.example.com/home"
	sitemap := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://docs.example.com/unlinked</loc></url>
  <url><loc>https://docs.example.com/orphan</loc></url>
  <url><loc>https://other-host.com/page</loc></url>
</urlset>`
	f := &fakeFetcher{pages: map[string]string{
		seed: page("Home"),
		"https://docs.example.com/sitemap.xml": sitemap,
		"https://docs.example.com/unlinked":    page("Unlinked"),
		"https://docs.example.com/orphan":      page("Orphan"),
	}}

	cfg := Config{MaxPages: 10, MaxDepth: 2, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The seed page links to nothing, so both extra documents can only
	// have come from the sitemap.
	if len(res.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(res.Documents))
	}
	for _, u := range f.calls {
		if strings.Contains(u, "other-host") {
			t.Errorf("off-host sitemap url was fetched: %s", u)
		}
	}
}

func TestCrawl_MalformedSitemapFallsBackToLinks(t *testing.T) {
	seed := "https://docs.example.com/home"
	f := &fakeFetcher{pages: map[string]string{
		seed: page("Home", "/child"),
		"https://docs.example.com/sitemap.xml": "<urlset><url><loc>https://docs.example.com/never",
		"https://docs.example.com/child":       page("Child"),
	}}

	cfg := Config{MaxPages: 10, MaxDepth: 1, Scope: testScope(t, seed)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents from link discovery, got %d", len(res.Documents))
	}
	for _, u := range f.calls {
		if strings.Contains(u, "never") {
			t.Errorf("url from malformed sitemap was fetched: %s", u)
		}
	}
}

func TestCrawl_PageOnlySkipsSitemap(t *testing.T) {
	seed := "https://docs.example.com/guide"
	f := &fakeFetcher{pages: map[string]string{
		seed: page("Guide"),
		"https://docs.example.com/sitemap.xml": `<urlset><url><loc>https://docs.example.com/extra</loc></url></urlset>`,
		"https://docs.example.com/extra":       page("Extra"),
	}}

	u, _ := url.Parse(seed)
	cfg := Config{MaxPages: 10, MaxDepth: 3, Scope: DefaultScope(u, true)}
	res, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(res.Documents))
	}
	if f.fetchCount() != 1 {
		t.Errorf("expected exactly 1 fetch in page-only mode, got %d", f.fetchCount())
	}
}

func TestSitemapLocs(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc> https://example.com/a </loc><lastmod>2024-01-01</lastmod></url>
  <url><loc>https://example.com/b</loc></url>
</urlset>`)
	got := sitemapLocs(data)
	want := []string{"https://example.com/a", "https://example.com/b"}
	if len(got) != len(want) {
		t.Fatalf("expected %d locs, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			t.Errorf("loc %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if locs := sitemapLocs([]byte("<urlset><loc>broken")); locs != nil {
		t.Errorf("expected nil for malformed sitemap, got %v", locs)
	}
}

func TestCrawl_NonHTMLContentFails(t *testing.T) {
	seed := "https://docs.example.com/data"
	f := &binaryFetcher{}

	cfg := Config{MaxPages: 1, Scope: testScope(t, seed)}
	_, err := New(f, discard()).Crawl(context.Background(), seed, cfg)
	if err == nil {
		t.Fatal("expected error for non-HTML seed")
	}
}

type binaryFetcher struct{}

func (binaryFetcher) Fetch(ctx context.Context, u string) (*fetch.Result, error) {
	return &fetch.Result{
		URL:         u,
		StatusCode:  200,
		ContentType: "application/octet-stream",
		Body:        []byte{0x00, 0x01},
	}, nil
}
