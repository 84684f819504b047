package crawler

import (
	"net/url"
	"strings"
)

// Canonicalize normalizes a URL into the form used as the dedup key:
// lowercase scheme and host, no fragment, no trailing slash. Two
// spellings of the same page must collapse to the same canonical form.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}
