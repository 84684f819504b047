package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbsmith/kbsmith/internal/convert"
	"github.com/kbsmith/kbsmith/internal/crawler"
)

// JobKind selects which pipeline operation a job runs.
type JobKind string

const (
	KindConvertPDF      JobKind = "convert_pdf"
	KindConvertDOCX     JobKind = "convert_docx"
	KindConvertMarkdown JobKind = "convert_markdown"
	KindConvertURL      JobKind = "convert_url"
	KindGenerateQA      JobKind = "generate_qa"
	KindGenerateSummary JobKind = "generate_summary"
)

// JobStatus represents the state of a pipeline job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusConverting JobStatus = "converting"
	StatusCrawling   JobStatus = "crawling"
	StatusGenerating JobStatus = "generating"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of one conversion or generation run.
type Job struct {
	mu sync.Mutex

	ID   string  `json:"job_id"`
	Kind JobKind `json:"kind"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	// Source is the uploaded filename or the seed URL.
	Source string `json:"source"`
	// Stem addresses a stored document for generation jobs.
	Stem string `json:"stem,omitempty"`
	// Model overrides the configured model for generation jobs.
	Model string `json:"model,omitempty"`

	Preprocess bool `json:"preprocess"`
	PageOnly   bool `json:"page_only,omitempty"`

	Progress Progress `json:"progress"`

	Documents []convert.ConvertedDocument `json:"documents,omitempty"`
	Nodes     []*crawler.Node             `json:"nodes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks per-job counters.
type Progress struct {
	Pages         int      `json:"pages"`
	Chunks        int      `json:"chunks"`
	ChunksSkipped int      `json:"chunks_skipped"`
	QAPairs       int      `json:"qa_pairs"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job with a fresh ID.
func NewJob(kind JobKind, source string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusQueued,
		Phase:     "queued",
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw upload bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

func (j *Job) setDocuments(docs []convert.ConvertedDocument, nodes []*crawler.Node) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Documents = docs
	j.Nodes = nodes
	j.Progress.Pages = len(docs)
	// Upload bytes are no longer needed once conversion finished.
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

func (j *Job) setGeneration(stem string, chunks, skipped, pairs int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Stem = stem
	j.Progress.Chunks = chunks
	j.Progress.ChunksSkipped = skipped
	j.Progress.QAPairs = pairs
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string                      `json:"job_id"`
	Kind       JobKind                     `json:"kind"`
	Status     JobStatus                   `json:"status"`
	Phase      string                      `json:"phase"`
	Source     string                      `json:"source"`
	Stem       string                      `json:"stem,omitempty"`
	Model      string                      `json:"model,omitempty"`
	Preprocess bool                        `json:"preprocess"`
	Progress   Progress                    `json:"progress"`
	Documents  []convert.ConvertedDocument `json:"documents,omitempty"`
	Nodes      []*crawler.Node             `json:"nodes,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:         j.ID,
		Kind:       j.Kind,
		Status:     j.Status,
		Phase:      j.Phase,
		Source:     j.Source,
		Stem:       j.Stem,
		Model:      j.Model,
		Preprocess: j.Preprocess,
		Progress: Progress{
			Pages:         j.Progress.Pages,
			Chunks:        j.Progress.Chunks,
			ChunksSkipped: j.Progress.ChunksSkipped,
			QAPairs:       j.Progress.QAPairs,
			Errors:        errs,
		},
		Documents: j.Documents,
		Nodes:     j.Nodes,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
