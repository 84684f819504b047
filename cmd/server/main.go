package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbsmith/kbsmith/internal/api"
	"github.com/kbsmith/kbsmith/internal/artifact"
	"github.com/kbsmith/kbsmith/internal/config"
	"github.com/kbsmith/kbsmith/internal/convert"
	"github.com/kbsmith/kbsmith/internal/crawler"
	"github.com/kbsmith/kbsmith/internal/fetch"
	"github.com/kbsmith/kbsmith/internal/generate"
	"github.com/kbsmith/kbsmith/internal/normalize"
	"github.com/kbsmith/kbsmith/internal/pdfextract"
	"github.com/kbsmith/kbsmith/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := artifact.NewStore(cfg.DataDir)
	if err != nil {
		log.Error("artifact store init failed", "error", err)
		os.Exit(1)
	}

	// Initialize clients.
	stats := generate.NewStats(time.Hour)
	llm := generate.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, stats)
	gen := generate.NewGenerator(llm, log, generate.Config{
		Model:         cfg.LLMModel,
		MaxChunkChars: cfg.MaxChunkChars,
		Concurrency:   cfg.GenConcurrency,
		CallTimeout:   cfg.GenTimeout,
	})

	fetcher := fetch.NewHTTP(cfg.FetchTimeout, cfg.FetchRPS)
	cr := crawler.New(fetcher, log)

	svc := convert.NewService(cr, pdfextract.NewTextExtractor(), gen, store, log, convert.Options{
		PDFHeuristics: normalize.Heuristics{
			ColumnGap:    cfg.PDFColumnGap,
			HeadingRatio: cfg.PDFHeadingRatio,
			ParagraphGap: cfg.PDFParagraphGap,
		},
		CrawlMaxPages:    cfg.CrawlMaxPages,
		CrawlMaxDepth:    cfg.CrawlMaxDepth,
		CrawlConcurrency: cfg.CrawlConcurrency,
	})

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, svc, store, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, store, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llm.Close()
	}()

	log.Info("starting server", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
