package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kbsmith/kbsmith/internal/convert"
)

// Worker runs one job at a time against the conversion service.
type Worker struct {
	svc *convert.Service
	log *slog.Logger
}

func NewWorker(svc *convert.Service, log *slog.Logger) *Worker {
	return &Worker{svc: svc, log: log}
}

// Process dispatches a job by kind and drives it to a terminal status.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", string(job.Kind), "source", job.Source)

	switch job.Kind {
	case KindConvertPDF, KindConvertDOCX, KindConvertMarkdown:
		w.processUpload(ctx, job, log)
	case KindConvertURL:
		w.processCrawl(ctx, job, log)
	case KindGenerateQA:
		w.processQA(ctx, job, log)
	case KindGenerateSummary:
		w.processSummary(ctx, job, log)
	default:
		job.AddError(fmt.Sprintf("unknown job kind %q", job.Kind))
		job.SetStatus(StatusFailed, "dispatch")
	}
}

func (w *Worker) processUpload(ctx context.Context, job *Job, log *slog.Logger) {
	job.SetStatus(StatusConverting, "converting")

	var (
		doc *convert.ConvertedDocument
		err error
	)
	data := job.FileData()
	switch job.Kind {
	case KindConvertPDF:
		doc, err = w.svc.ConvertPDF(ctx, job.Source, data, job.Preprocess)
	case KindConvertDOCX:
		doc, err = w.svc.ConvertDOCX(ctx, job.Source, data, job.Preprocess)
	default:
		doc, err = w.svc.ConvertMarkdown(ctx, job.Source, data, job.Preprocess)
	}
	if err != nil {
		log.Error("conversion failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "converting")
		return
	}

	job.setDocuments([]convert.ConvertedDocument{*doc}, nil)
	job.SetStatus(StatusCompleted, "done")
	log.Info("conversion complete", "stem", doc.Stem)
}

func (w *Worker) processCrawl(ctx context.Context, job *Job, log *slog.Logger) {
	job.SetStatus(StatusCrawling, "crawling")

	// A nil result means nothing was produced at all. A result paired
	// with an error is a cancelled crawl whose converted pages survive
	// as a partial job.
	res, err := w.svc.ConvertURL(ctx, job.Source, job.PageOnly, job.Preprocess)
	if res == nil {
		log.Error("crawl failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "crawling")
		return
	}

	job.setDocuments(res.Documents, res.Nodes)
	failed := 0
	for _, n := range res.Nodes {
		if n.Error != "" {
			failed++
			job.AddError(fmt.Sprintf("%s: %s", n.URL, n.Error))
		}
	}
	if err != nil {
		job.AddError(err.Error())
	}
	if err != nil || failed > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("crawl complete", "documents", len(res.Documents), "nodes", len(res.Nodes), "failed", failed)
}

func (w *Worker) processQA(ctx context.Context, job *Job, log *slog.Logger) {
	job.SetStatus(StatusGenerating, "generating")

	res, err := w.svc.GenerateQA(ctx, job.Stem, job.Model)
	if res == nil {
		log.Error("qa generation failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "generating")
		return
	}

	job.setGeneration(job.Stem, res.ChunkCount, len(res.SkippedChunks), res.PairCount())
	for _, sc := range res.SkippedChunks {
		job.AddError(fmt.Sprintf("chunk %d: %s", sc.Index, sc.Reason))
	}
	if err != nil {
		job.AddError(err.Error())
	}
	if err != nil || len(res.SkippedChunks) > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("qa generation complete", "pairs", res.PairCount(), "skipped", len(res.SkippedChunks))
}

func (w *Worker) processSummary(ctx context.Context, job *Job, log *slog.Logger) {
	job.SetStatus(StatusGenerating, "generating")

	res, err := w.svc.GenerateSummary(ctx, job.Stem, job.Model)
	if res == nil {
		log.Error("summary generation failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "generating")
		return
	}

	job.setGeneration(job.Stem, res.ChunkCount, len(res.SkippedChunks), 0)
	for _, sc := range res.SkippedChunks {
		job.AddError(fmt.Sprintf("chunk %d: %s", sc.Index, sc.Reason))
	}
	if err != nil {
		job.AddError(err.Error())
	}
	if err != nil || len(res.SkippedChunks) > 0 {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("summary generation complete", "chunks", res.ChunkCount, "skipped", len(res.SkippedChunks))
}
