package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kbsmith/kbsmith/internal/chunker"
	"github.com/kbsmith/kbsmith/internal/document"
)

// Config bounds generation work for one Generator. Model is the
// default model reference, used when a call does not name one.
type Config struct {
	Model         string
	MaxChunkChars int
	Concurrency   int
	CallTimeout   time.Duration
}

var (
	questionConstraints = Constraints{MaxTokens: 1024, Temperature: 0.2}
	answerConstraints   = Constraints{MaxTokens: 1024, Temperature: 0.2}
	summaryConstraints  = Constraints{MaxTokens: 2048, Temperature: 0.3}
)

// Generator produces Q&A pairs and summaries from documents by
// splitting their canonical text into chapters and chunks and
// prompting a TextGenerator per chunk.
type Generator struct {
	gen TextGenerator
	log *slog.Logger
	cfg Config
}

func NewGenerator(gen TextGenerator, log *slog.Logger, cfg Config) *Generator {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = chunker.DefaultMaxChars
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Minute
	}
	return &Generator{gen: gen, log: log, cfg: cfg}
}

type chunkOutcome[T any] struct {
	value   T
	skipped *SkippedChunk
	done    bool
}

// QA generates question/answer pairs chapter by chapter. Each chapter
// is chunked under the configured budget; a chunk whose generation
// fails twice is skipped and recorded. Surviving chunks contribute
// their pairs in chunk order, with questions deduped across the whole
// document case-insensitively keeping the first occurrence.
// Cancellation keeps the sections produced so far: they are returned
// alongside the context error instead of being discarded.
func (g *Generator) QA(ctx context.Context, doc *document.Document, modelRef string) (*QAResult, error) {
	if modelRef == "" {
		modelRef = g.cfg.Model
	}
	res := &QAResult{DocID: doc.ID}
	seen := make(map[string]struct{})

	base := 0
	var cancelErr error
	for _, ch := range splitChapters(doc.Text()) {
		chunks := chunker.Split(ch.Text, g.cfg.MaxChunkChars)
		if len(chunks) == 0 {
			continue
		}

		outcomes, err := mapChunks(ctx, g.cfg.Concurrency, chunks, func(ctx context.Context, c document.Chunk) ([]QAPair, error) {
			return g.chunkPairs(ctx, c, modelRef)
		})

		var pairs []QAPair
		for i, o := range outcomes {
			if o.skipped != nil {
				sk := *o.skipped
				sk.Index += base
				res.SkippedChunks = append(res.SkippedChunks, sk)
				g.log.Warn("chunk skipped", "doc_id", doc.ID, "chapter", ch.Title, "chunk", base+i, "reason", sk.Reason)
				continue
			}
			pairs = append(pairs, o.value...)
		}
		if pairs = dedupePairs(pairs, seen); len(pairs) > 0 {
			res.Sections = append(res.Sections, QASection{Title: ch.Title, Pairs: pairs})
		}

		res.ChunkCount += len(chunks)
		base += len(chunks)
		if err != nil {
			cancelErr = err
			break
		}
	}

	if cancelErr != nil {
		if len(res.Sections) == 0 {
			return nil, cancelErr
		}
		return res, cancelErr
	}
	if res.ChunkCount == 0 {
		return nil, &Error{Reason: "document has no text to generate from"}
	}
	if len(res.Sections) == 0 {
		return nil, &Error{Reason: "no questions could be generated"}
	}
	return res, nil
}

func (g *Generator) chunkPairs(ctx context.Context, c document.Chunk, modelRef string) ([]QAPair, error) {
	completion, err := g.completeWithRetry(ctx, buildQuestionPrompt(c.Text), modelRef, questionConstraints)
	if err != nil {
		return nil, err
	}
	questions := ParseQuestions(completion)
	if len(questions) == 0 {
		return nil, nil
	}

	pairs := make([]QAPair, 0, len(questions))
	for _, q := range questions {
		answer, err := g.completeWithRetry(ctx, buildAnswerPrompt(c.Text, q), modelRef, answerConstraints)
		if err != nil {
			return nil, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			continue
		}
		pairs = append(pairs, QAPair{Question: q, Answer: answer})
	}
	return pairs, nil
}

// Summary summarizes a document chapter by chapter. Each chapter's
// chunks are summarized and their summaries concatenated; when the
// concatenation exceeds the chunk limit, one combine pass is run over
// it. If the combine pass fails after its retry, the intermediate is
// kept as-is. Cancellation keeps the sections produced so far: they
// are returned alongside the context error instead of being discarded.
func (g *Generator) Summary(ctx context.Context, doc *document.Document, modelRef string) (*SummaryResult, error) {
	if modelRef == "" {
		modelRef = g.cfg.Model
	}
	res := &SummaryResult{DocID: doc.ID}

	base := 0
	var cancelErr error
	for _, ch := range splitChapters(doc.Text()) {
		chunks := chunker.Split(ch.Text, g.cfg.MaxChunkChars)
		if len(chunks) == 0 {
			continue
		}

		outcomes, err := mapChunks(ctx, g.cfg.Concurrency, chunks, func(ctx context.Context, c document.Chunk) (string, error) {
			s, err := g.completeWithRetry(ctx, buildSummaryPrompt(c.Text), modelRef, summaryConstraints)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(s), nil
		})

		var parts []string
		for i, o := range outcomes {
			if o.skipped != nil {
				sk := *o.skipped
				sk.Index += base
				res.SkippedChunks = append(res.SkippedChunks, sk)
				g.log.Warn("chunk skipped", "doc_id", doc.ID, "chapter", ch.Title, "chunk", base+i, "reason", sk.Reason)
				continue
			}
			if o.value != "" {
				parts = append(parts, o.value)
			}
		}

		res.ChunkCount += len(chunks)
		base += len(chunks)

		if len(parts) > 0 {
			summary := strings.Join(parts, "\n\n")
			if len(parts) > 1 && len(summary) > g.cfg.MaxChunkChars && err == nil {
				combined, cerr := g.completeWithRetry(ctx, buildCombinePrompt(parts), modelRef, summaryConstraints)
				if cerr != nil {
					g.log.Warn("combine pass failed, keeping intermediate summary", "doc_id", doc.ID, "chapter", ch.Title, "error", cerr)
				} else if s := strings.TrimSpace(combined); s != "" {
					summary = s
				}
			}
			res.Sections = append(res.Sections, SummarySection{Title: ch.Title, Summary: summary})
		}

		if err != nil {
			cancelErr = err
			break
		}
	}

	if cancelErr != nil {
		if len(res.Sections) == 0 {
			return nil, cancelErr
		}
		return res, cancelErr
	}
	if res.ChunkCount == 0 {
		return nil, &Error{Reason: "document has no text to generate from"}
	}
	if len(res.Sections) == 0 {
		return nil, &Error{Reason: "all chunks failed summarization"}
	}
	return res, nil
}

// completeWithRetry issues one completion, retrying exactly once with
// the same input on failure. Context cancellation is never retried.
func (g *Generator) completeWithRetry(ctx context.Context, prompt, modelRef string, c Constraints) (string, error) {
	out, err := g.completeOnce(ctx, prompt, modelRef, c)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return g.completeOnce(ctx, prompt, modelRef, c)
}

func (g *Generator) completeOnce(ctx context.Context, prompt, modelRef string, c Constraints) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()
	return g.gen.Complete(callCtx, prompt, modelRef, c)
}

// mapChunks runs fn over chunks with bounded concurrency and returns
// outcomes aligned with chunk order. A chunk error becomes a skip
// record. Cancellation stops launching new chunks but never discards
// completed work: the populated outcomes come back with the context
// error, and chunks that never ran are marked skipped.
func mapChunks[T any](ctx context.Context, concurrency int, chunks []document.Chunk, fn func(context.Context, document.Chunk) (T, error)) ([]chunkOutcome[T], error) {
	outcomes := make([]chunkOutcome[T], len(chunks))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

launch:
	for i, c := range chunks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break launch
		}

		wg.Add(1)
		go func(i int, c document.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			v, err := fn(ctx, c)
			if err != nil {
				outcomes[i] = chunkOutcome[T]{done: true, skipped: &SkippedChunk{
					Index:  c.Index,
					Reason: fmt.Sprintf("generation failed after retry: %v", err),
				}}
				return
			}
			outcomes[i] = chunkOutcome[T]{done: true, value: v}
		}(i, c)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		for i := range outcomes {
			if !outcomes[i].done {
				outcomes[i] = chunkOutcome[T]{done: true, skipped: &SkippedChunk{
					Index:  chunks[i].Index,
					Reason: "cancelled before generation",
				}}
			}
		}
		return outcomes, err
	}
	return outcomes, nil
}
