// Package normalize converts raw source content (HTML pages, positioned
// PDF page text, DOCX files, Markdown uploads) into the ordered block
// sequence that the renderer serializes. Every converter here is
// deterministic: identical input produces an identical block sequence,
// with no dependence on map iteration order or wall-clock state.
package normalize
