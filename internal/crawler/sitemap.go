package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"net/url"
	"strings"
)

// sitemapSeeds fetches /sitemap.xml on the seed's host and returns the
// canonical in-scope URLs it lists. Sites without a sitemap, or with
// one that does not parse, fall back to plain link discovery; neither
// case is an error.
func (c *Crawler) sitemapSeeds(ctx context.Context, seed string, scope ScopePolicy) []string {
	u, err := url.Parse(seed)
	if err != nil || u.Host == "" {
		return nil
	}
	sitemapURL := u.Scheme + "://" + u.Host + "/sitemap.xml"

	res, err := c.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil
	}

	var out []string
	for _, loc := range sitemapLocs(res.Body) {
		canonical, err := Canonicalize(strings.TrimSpace(loc))
		if err != nil || !scope.InScope(canonical) {
			continue
		}
		out = append(out, canonical)
	}
	return out
}

// sitemapLocs collects every <loc> entry in a sitemap document. A
// malformed document yields nothing rather than a partial list.
func sitemapLocs(data []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var locs []string
	inLoc := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return locs
		}
		if err != nil {
			return nil
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inLoc = t.Name.Local == "loc"
		case xml.EndElement:
			inLoc = false
		case xml.CharData:
			if inLoc {
				if loc := strings.TrimSpace(string(t)); loc != "" {
					locs = append(locs, loc)
				}
			}
		}
	}
}
