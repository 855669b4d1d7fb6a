package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	minDirectMaxBytes  = 5 * 1024 * 1024
	minSegmentSeconds  = 120
	minRateWindow      = time.Minute
	defaultCacheSize   = 256
	defaultBatchFanout = 4
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	Log           LogConfig
	Extraction    ExtractionConfig
	OCR           OCRConfig
	Transcription TranscriptionConfig
	Retrieval     RetrievalConfig
	LLM           LLMConfig
	Ingest        IngestConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// StoreConfig points at the SQLite file used for job and audit state.
// An empty Path keeps everything in memory.
type StoreConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string // "text" | "json"
}

type ExtractionConfig struct {
	CacheSize        int
	BatchConcurrency int
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	MaxPages       int
	DPI            int
	TesseractLang  string
	TessdataDir    string
	OpenAIFallback bool
	OpenAIMaxPages int
}

// TranscriptionConfig covers both the transcriber and the job registry limits.
type TranscriptionConfig struct {
	Model             string
	MaxBytes          int64
	DirectMaxBytes    int64
	SegmentSeconds    int
	RateLimit         int
	RateWindow        time.Duration
	MaxConcurrentJobs int
	Retention         int
	Workers           int
	JobTimeout        time.Duration
}

type RetrievalConfig struct {
	TopK int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

type IngestConfig struct {
	Roots    []string
	Debounce time.Duration
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8081"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Extraction: ExtractionConfig{
			CacheSize:        getEnvAsInt("EXTRACT_CACHE_SIZE", defaultCacheSize),
			BatchConcurrency: getEnvAsInt("EXTRACT_BATCH_CONCURRENCY", defaultBatchFanout),
		},
		OCR: OCRConfig{
			MaxPages:       getEnvAsInt("OCR_MAX_PAGES", 6),
			DPI:            getEnvAsInt("OCR_IMAGE_DPI", 220),
			TesseractLang:  getEnv("OCR_TESSERACT_LANG", "rus+eng"),
			TessdataDir:    getEnv("TESSDATA_PREFIX", ""),
			OpenAIFallback: getEnvAsBool("OCR_OPENAI_FALLBACK", true),
			OpenAIMaxPages: getEnvAsInt("OCR_OPENAI_MAX_PAGES", 3),
		},
		Transcription: TranscriptionConfig{
			Model:             getEnv("OPENAI_TRANSCRIBE_MODEL", "gpt-4o-mini-transcribe"),
			MaxBytes:          getEnvAsInt64("TRANSCRIPTION_MAX_BYTES", 512*1024*1024),
			DirectMaxBytes:    getEnvAsInt64("TRANSCRIPTION_DIRECT_MAX_BYTES", 20*1024*1024),
			SegmentSeconds:    getEnvAsInt("TRANSCRIPTION_SEGMENT_SECONDS", 900),
			RateLimit:         getEnvAsInt("TRANSCRIBE_RATE_LIMIT", 8),
			RateWindow:        getEnvAsDuration("TRANSCRIBE_RATE_WINDOW", 15*time.Minute),
			MaxConcurrentJobs: getEnvAsInt("TRANSCRIBE_MAX_CONCURRENT_JOBS", 2),
			Retention:         getEnvAsInt("JOB_RETENTION", 150),
			Workers:           getEnvAsInt("JOB_WORKERS", 4),
			JobTimeout:        getEnvAsDuration("JOB_TIMEOUT", 2*time.Hour),
		},
		Retrieval: RetrievalConfig{
			TopK: getEnvAsInt("RAG_TOP_K", 4),
		},
		LLM: LLMConfig{
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:             getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			Timeout:           getEnvAsDuration("OPENAI_TIMEOUT", 3*time.Minute),
			RequestsPerSecond: getEnvAsFloat64("OPENAI_RPS", 2),
		},
		Ingest: IngestConfig{
			Roots:    getEnvAsList("INBOX_DIRS"),
			Debounce: getEnvAsDuration("INBOX_DEBOUNCE", 750*time.Millisecond),
		},
	}
	cfg.applyFloors()
	return cfg
}

func (c *Config) applyFloors() {
	if c.Transcription.DirectMaxBytes < minDirectMaxBytes {
		c.Transcription.DirectMaxBytes = minDirectMaxBytes
	}
	if c.Transcription.SegmentSeconds < minSegmentSeconds {
		c.Transcription.SegmentSeconds = minSegmentSeconds
	}
	if c.Transcription.RateWindow < minRateWindow {
		c.Transcription.RateWindow = minRateWindow
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Transcription.RateLimit < 1 {
		return NewAppError("CONFIG_ERROR", "TRANSCRIBE_RATE_LIMIT must be positive", ErrInvalidInput)
	}
	if c.Transcription.MaxConcurrentJobs < 1 {
		return NewAppError("CONFIG_ERROR", "TRANSCRIBE_MAX_CONCURRENT_JOBS must be positive", ErrInvalidInput)
	}
	if c.Transcription.Retention < 1 {
		return NewAppError("CONFIG_ERROR", "JOB_RETENTION must be positive", ErrInvalidInput)
	}
	if c.Transcription.MaxBytes < c.Transcription.DirectMaxBytes {
		return NewAppError("CONFIG_ERROR",
			fmt.Sprintf("TRANSCRIPTION_MAX_BYTES (%d) is below the direct upload threshold (%d)", c.Transcription.MaxBytes, c.Transcription.DirectMaxBytes),
			ErrInvalidInput)
	}
	if c.Retrieval.TopK < 1 {
		return NewAppError("CONFIG_ERROR", "RAG_TOP_K must be positive", ErrInvalidInput)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_BASE_URL is required", ErrInvalidInput)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return NewAppError("CONFIG_ERROR", "LOG_FORMAT must be text or json", ErrInvalidInput)
	}
	return nil
}
