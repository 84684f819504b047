package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// LLM endpoint (OpenAI-compatible chat completions)
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Artifact storage
	DataDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Chunking and generation
	MaxChunkChars  int
	GenConcurrency int
	GenTimeout     time.Duration

	// Fetching
	FetchTimeout time.Duration
	FetchRPS     float64

	// Crawling
	CrawlMaxPages    int
	CrawlMaxDepth    int
	CrawlConcurrency int

	// PDF layout heuristics
	PDFColumnGap    float64
	PDFHeadingRatio float64
	PDFParagraphGap float64

	// Retention
	ArtifactTTL   time.Duration
	SweepInterval time.Duration
	JobTTL        time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("API_KEY"),

		LLMBaseURL: envOr("LLM_BASE_URL", "https://llm.scads.ai/v1"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   envOr("LLM_MODEL", "meta-llama/Llama-4-Scout-17B-16E-Instruct"),

		DataDir: envOr("DATA_DIR", "data"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		MaxChunkChars:  envInt("MAX_CHUNK_CHARS", 2000),
		GenConcurrency: envInt("GEN_CONCURRENCY", 2),
		GenTimeout:     envDuration("GEN_TIMEOUT", 2*time.Minute),

		FetchTimeout: envDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchRPS:     envFloat("FETCH_RPS", 2),

		CrawlMaxPages:    envInt("CRAWL_MAX_PAGES", 25),
		CrawlMaxDepth:    envInt("CRAWL_MAX_DEPTH", 2),
		CrawlConcurrency: envInt("CRAWL_CONCURRENCY", 4),

		PDFColumnGap:    envFloat("PDF_COLUMN_GAP", 18),
		PDFHeadingRatio: envFloat("PDF_HEADING_RATIO", 1.2),
		PDFParagraphGap: envFloat("PDF_PARAGRAPH_GAP", 1.8),

		ArtifactTTL:   envDuration("ARTIFACT_TTL", 30*time.Minute),
		SweepInterval: envDuration("SWEEP_INTERVAL", 10*time.Minute),
		JobTTL:        envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = 2000
	}
	if cfg.GenConcurrency <= 0 {
		cfg.GenConcurrency = 2
	}
	if cfg.GenTimeout <= 0 {
		cfg.GenTimeout = 2 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.FetchRPS <= 0 {
		cfg.FetchRPS = 2
	}
	if cfg.CrawlMaxPages <= 0 {
		cfg.CrawlMaxPages = 25
	}
	if cfg.CrawlMaxDepth < 0 {
		cfg.CrawlMaxDepth = 0
	}
	if cfg.CrawlConcurrency <= 0 {
		cfg.CrawlConcurrency = 4
	}
	if cfg.ArtifactTTL <= 0 {
		cfg.ArtifactTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 10 * time.Minute
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
