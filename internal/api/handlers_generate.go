package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kbsmith/kbsmith/internal/pipeline"
)

// handleGenerateQA queues Q&A generation over a stored document.
func (s *Server) handleGenerateQA(w http.ResponseWriter, r *http.Request) {
	s.handleGenerate(w, r, pipeline.KindGenerateQA)
}

// handleGenerateSummary queues summarization of a stored document.
func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	s.handleGenerate(w, r, pipeline.KindGenerateSummary)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, kind pipeline.JobKind) {
	var req struct {
		Stem  string `json:"stem"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Stem == "" {
		jsonError(w, "stem is required", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(kind, req.Stem)
	job.Stem = req.Stem
	job.Model = req.Model

	s.submit(w, job)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}
