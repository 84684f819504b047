// Package artifact persists rendered documents and generated outputs
// as markdown files under a single data directory, and sweeps stale
// files on a schedule.
package artifact

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	rawPrefix      = "result_raw_"
	filteredPrefix = "result_filtered_"

	maxStemLen = 50
)

// Variant selects which persisted file of a document to address.
type Variant string

const (
	VariantRaw      Variant = "raw"
	VariantFiltered Variant = "filtered"
	VariantQA       Variant = "qa"
	VariantSummary  Variant = "summary"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// FileSafeName derives a filesystem-safe stem from a document source.
// URLs contribute their host plus path; any other source is used
// verbatim. Unsafe characters become underscores, and names longer
// than 50 characters are truncated with an 8-hex SHA-1 suffix so
// distinct long sources stay distinct.
func FileSafeName(source string) string {
	name := source
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "document"
	}
	if len(name) > maxStemLen {
		sum := sha1.Sum([]byte(source))
		suffix := hex.EncodeToString(sum[:])[:8]
		name = name[:maxStemLen-len(suffix)-1] + "_" + suffix
	}
	return name
}

// Entry describes one stored file.
type Entry struct {
	Name     string    `json:"name"`
	Stem     string    `json:"stem"`
	Variant  Variant   `json:"variant"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store writes and serves markdown artifacts under dir.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// SaveDocument writes the raw and filtered renderings of a document as
// a pair of markdown files sharing one stem. It returns the stem.
func (s *Store) SaveDocument(source, rawText, filteredText string) (string, error) {
	stem := FileSafeName(source)
	if err := s.write(rawPrefix+stem+".md", rawText); err != nil {
		return "", err
	}
	if err := s.write(filteredPrefix+stem+".md", filteredText); err != nil {
		return "", err
	}
	return stem, nil
}

// SaveArtifact writes a generated output (Q&A or summary) next to the
// document files it was derived from.
func (s *Store) SaveArtifact(stem string, v Variant, content string) error {
	name, err := fileName(stem, v)
	if err != nil {
		return err
	}
	return s.write(name, content)
}

// Read returns the content of one variant of a stored document.
func (s *Store) Read(stem string, v Variant) (string, error) {
	name, err := fileName(stem, v)
	if err != nil {
		return "", err
	}
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// List returns all stored files, most recent first.
func (s *Store) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	var entries []Entry
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".md") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		stem, v, ok := parseName(de.Name())
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Name:     de.Name(),
			Stem:     stem,
			Variant:  v,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Modified.After(entries[j].Modified)
	})
	return entries, nil
}

// Sweep deletes stored files older than maxAge and reports how many
// were removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.Modified.After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) write(name, content string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// resolve joins name under the data dir and rejects anything that
// would escape it.
func (s *Store) resolve(name string) (string, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func fileName(stem string, v Variant) (string, error) {
	if stem == "" || stem != filepath.Base(stem) {
		return "", fmt.Errorf("invalid artifact stem %q", stem)
	}
	switch v {
	case VariantRaw:
		return rawPrefix + stem + ".md", nil
	case VariantFiltered:
		return filteredPrefix + stem + ".md", nil
	case VariantQA:
		return stem + "_qa.md", nil
	case VariantSummary:
		return stem + "_summary.md", nil
	default:
		return "", fmt.Errorf("unknown variant %q", v)
	}
}

func parseName(name string) (stem string, v Variant, ok bool) {
	base := strings.TrimSuffix(name, ".md")
	switch {
	case strings.HasPrefix(base, rawPrefix):
		return strings.TrimPrefix(base, rawPrefix), VariantRaw, true
	case strings.HasPrefix(base, filteredPrefix):
		return strings.TrimPrefix(base, filteredPrefix), VariantFiltered, true
	case strings.HasSuffix(base, "_qa"):
		return strings.TrimSuffix(base, "_qa"), VariantQA, true
	case strings.HasSuffix(base, "_summary"):
		return strings.TrimSuffix(base, "_summary"), VariantSummary, true
	}
	return "", "", false
}
