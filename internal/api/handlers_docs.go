package api

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/kbsmith/kbsmith/internal/artifact"
)

// handleListDocuments lists every stored artifact file.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []artifact.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": entries})
}

// handleDownload serves one variant of a stored document as markdown.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	stem := chi.URLParam(r, "stem")
	variant := artifact.Variant(chi.URLParam(r, "variant"))

	content, err := s.store.Read(stem, variant)
	if err != nil {
		if os.IsNotExist(err) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read document: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(content))
}
