package crawler

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludeKeywords filters account/legal boilerplate pages that add
// noise to a knowledge base.
var defaultExcludeKeywords = []string{
	"signup", "login", "contact", "help", "terms", "privacy", "copyright", "contrib",
}

// staticExtensions are link targets that are never HTML pages.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true, ".mp4": true, ".webm": true,
	".mp3": true, ".zip": true, ".tar": true, ".gz": true, ".pdf": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// ScopePolicy decides whether a discovered link is eligible for crawling.
// The zero value restricts nothing; Default builds the usual same-host
// policy.
type ScopePolicy struct {
	// PageOnly disables link extraction entirely: the crawl degenerates
	// to fetching exactly the seed.
	PageOnly bool

	// SameHost restricts the crawl to the seed's host.
	SameHost bool
	Host     string

	// PathPrefix, when set, restricts the crawl to URLs under it.
	PathPrefix string

	// ExcludeKeywords skips links whose URL contains any of them.
	ExcludeKeywords []string
}

// DefaultScope returns the same-host policy for a seed URL.
func DefaultScope(seed *url.URL, pageOnly bool) ScopePolicy {
	return ScopePolicy{
		PageOnly:        pageOnly,
		SameHost:        true,
		Host:            strings.ToLower(seed.Host),
		ExcludeKeywords: defaultExcludeKeywords,
	}
}

// InScope reports whether a canonical URL is eligible for fetching.
func (p ScopePolicy) InScope(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if p.SameHost && !strings.EqualFold(u.Host, p.Host) {
		return false
	}
	if p.PathPrefix != "" && !strings.HasPrefix(u.Path, p.PathPrefix) {
		return false
	}
	if staticExtensions[strings.ToLower(path.Ext(u.Path))] {
		return false
	}
	lower := strings.ToLower(canonical)
	for _, kw := range p.ExcludeKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
