package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	TopKRetrieval int

	// Ingestion
	MaxFileSizeMB     int
	AllowedExtensions []string
	IngestWorkers     int
	IngestQueueSize   int
	IngestTimeout     time.Duration

	// Embeddings
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string

	// Vector backend
	VectorBackend    string // "qdrant" or "memory"
	QdrantURL        string
	QdrantVectorSize int

	// Storage
	DBPath string

	// Server
	APIPort string

	// Logging
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		VectorBackend:      getEnv("VECTOR_BACKEND", "qdrant"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		DBPath:             getEnv("DB_PATH", "./data/personarag.db"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}

	cfg.TopKRetrieval, err = getEnvInt("TOP_K_RETRIEVAL", 5)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSizeMB, err = getEnvInt("MAX_FILE_SIZE_MB", 10)
	if err != nil {
		return nil, err
	}
	cfg.IngestWorkers, err = getEnvInt("INGEST_WORKERS", 2)
	if err != nil {
		return nil, err
	}
	cfg.IngestQueueSize, err = getEnvInt("INGEST_QUEUE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	timeoutSecs, err := getEnvInt("INGEST_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	cfg.IngestTimeout = time.Duration(timeoutSecs) * time.Second

	cfg.AllowedExtensions = splitList(getEnv("ALLOWED_EXTENSIONS", "pdf,docx,txt,md"))
	if len(cfg.AllowedExtensions) == 0 {
		return nil, fmt.Errorf("ALLOWED_EXTENSIONS must not be empty")
	}

	// Parse QDRANT_VECTOR_SIZE
	// Note: This must match the output vector size of the embeddings model.
	// If the embedding model changes, every persona collection must be rebuilt,
	// since distances across different embedding spaces are not comparable.
	switch cfg.VectorBackend {
	case "qdrant":
		vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
		if vectorSizeStr == "" {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required when VECTOR_BACKEND=qdrant")
		}
		vectorSize, err := strconv.Atoi(vectorSizeStr)
		if err != nil {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
		}
		if vectorSize <= 0 {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
		}
		cfg.QdrantVectorSize = vectorSize
	case "memory":
		cfg.QdrantVectorSize, err = getEnvInt("QDRANT_VECTOR_SIZE", 384)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be \"qdrant\" or \"memory\", got %q", cfg.VectorBackend)
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	// Create ./data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty entries. Extensions are normalized to lowercase without a leading dot.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), ".")))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
