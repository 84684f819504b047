package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractLinks pulls every href from a page, resolved against the page
// URL, in document order. Non-navigational schemes are dropped.
func extractLinks(pageURL string, body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
			return
		}
		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsed)
		resolved.Fragment = ""
		links = append(links, resolved.String())
	})
	return links
}
