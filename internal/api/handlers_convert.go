package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kbsmith/kbsmith/internal/pipeline"
)

func (s *Server) handleConvertPDF(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, pipeline.KindConvertPDF, ".pdf")
}

func (s *Server) handleConvertDOCX(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, pipeline.KindConvertDOCX, ".docx")
}

func (s *Server) handleConvertMarkdown(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, pipeline.KindConvertMarkdown, ".md", ".markdown")
}

// handleUpload accepts a multipart file upload and queues a conversion
// job for it. The optional preprocess form field defaults to true.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, kind pipeline.JobKind, allowedExts ...string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extAllowed(filename, allowedExts) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(kind, filename)
	job.Preprocess = formBool(r, "preprocess", true)
	job.SetFileData(data)

	s.submit(w, job)
}

func (s *Server) handleConvertURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL        string `json:"url"`
		PageOnly   bool   `json:"page_only"`
		Preprocess *bool  `json:"preprocess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(pipeline.KindConvertURL, req.URL)
	job.PageOnly = req.PageOnly
	job.Preprocess = req.Preprocess == nil || *req.Preprocess

	s.submit(w, job)
}

func (s *Server) submit(w http.ResponseWriter, job *pipeline.Job) {
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func extAllowed(filename string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func formBool(r *http.Request, key string, fallback bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}
