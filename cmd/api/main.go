package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"personarag/internal/config"
	"personarag/internal/extractor"
	"personarag/internal/handlers"
	"personarag/internal/http"
	"personarag/internal/ingest"
	"personarag/internal/knowledge"
	"personarag/internal/llm"
	"personarag/internal/rag"
	"personarag/internal/storage"
	"personarag/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	documentRepo := storage.NewDocumentRepo(db)

	// Initialize the vector backend
	ctx := context.Background()

	var store vectorstore.VectorStore
	switch cfg.VectorBackend {
	case "memory":
		store = vectorstore.NewMemoryStore()
		slog.Info("Using in-memory vector store")
	default:
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		store = qdrantStore
		slog.Info("Qdrant vector store ready", "url", cfg.QdrantURL, "vector_size", cfg.QdrantVectorSize)
	}

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Knowledge index and retrieval
	index := knowledge.NewIndex(store, embedder, cfg.QdrantVectorSize, cfg.TopKRetrieval)
	contextBuilder := rag.NewContextBuilder(index)

	// Ingestion pipeline and background worker
	pipeline := ingest.NewPipeline(
		extractor.DefaultRegistry(),
		cfg.ChunkSize,
		cfg.ChunkOverlap,
		cfg.MaxFileSizeMB,
		cfg.AllowedExtensions,
	)
	worker := ingest.NewWorker(pipeline, index, documentRepo, cfg.IngestWorkers, cfg.IngestQueueSize, cfg.IngestTimeout)
	worker.Start()
	slog.Info("Ingestion worker started", "workers", cfg.IngestWorkers, "queue_size", cfg.IngestQueueSize, "timeout", cfg.IngestTimeout)

	// Create router with dependencies
	deps := &http.Deps{
		Health:    handlers.NewHealthHandler(db, store),
		Documents: handlers.NewDocumentsHandler(documentRepo, pipeline, worker, index),
		Search:    handlers.NewSearchHandler(index, contextBuilder),
		Stats:     handlers.NewStatsHandler(index),
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	// Wait for shutdown signal, then drain in-flight work
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("API server failed: %v", err)
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		slog.Error("Worker drain timed out", "error", err)
	}
	slog.Info("Shutdown complete")
}
