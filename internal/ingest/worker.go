package ingest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"personarag/internal/contextutil"
)

// Job describes one document waiting to be ingested.
type Job struct {
	DocumentID string
	PersonaID  int64
	FilePath   string
	Metadata   map[string]any
}

// StatusStore is the callback contract through which the worker reports
// document lifecycle transitions back to the document-store collaborator.
type StatusStore interface {
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, vectorRef string, wordCount, chunkCount int) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// Indexer is the slice of the vector index the worker needs.
type Indexer interface {
	AddDocument(ctx context.Context, personaID int64, documentID string, chunks []string, metadata map[string]any) bool
	CollectionName(personaID int64) string
}

// Worker consumes ingest jobs from a bounded queue with a fixed pool of
// goroutines. Enqueueing never blocks the caller; each document is
// processed under its own deadline and failures end in FAILED status
// rather than a crash.
type Worker struct {
	pipeline *Pipeline
	index    Indexer
	statuses StatusStore
	jobs     chan Job
	workers  int
	timeout  time.Duration
	logger   *slog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWorker creates a worker pool. Start must be called before Enqueue.
func NewWorker(pipeline *Pipeline, index Indexer, statuses StatusStore, workers, queueSize int, timeout time.Duration) *Worker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Worker{
		pipeline: pipeline,
		index:    index,
		statuses: statuses,
		jobs:     make(chan Job, queueSize),
		workers:  workers,
		timeout:  timeout,
		logger:   slog.Default(),
	}
}

// Start launches the worker goroutines.
func (w *Worker) Start() {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
}

// Enqueue adds a job to the queue without blocking. Returns ErrQueueFull
// when the queue is at capacity so the caller can reject the upload.
func (w *Worker) Enqueue(job Job) error {
	select {
	case w.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to drain, or for ctx
// to expire. Enqueue must not be called after Stop.
func (w *Worker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.jobs) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer w.wg.Done()
	for job := range w.jobs {
		w.handle(job)
	}
}

func (w *Worker) handle(job Job) {
	logger := w.logger.With("document_id", job.DocumentID, "persona_id", job.PersonaID)

	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	ctx = contextutil.WithLogger(ctx, logger)

	if err := w.statuses.MarkProcessing(ctx, job.DocumentID); err != nil {
		logger.Error("failed to mark document processing", "error", err)
		return
	}

	res := w.pipeline.ProcessDocument(ctx, job.FilePath, job.Metadata)
	if !res.Success {
		w.fail(ctx, logger, job.DocumentID, res.Error)
		return
	}

	if ok := w.index.AddDocument(ctx, job.PersonaID, job.DocumentID, res.Chunks, res.Metadata); !ok {
		w.fail(ctx, logger, job.DocumentID, "vector index rejected document")
		return
	}

	wordCount := len(strings.Fields(res.Text))
	vectorRef := w.index.CollectionName(job.PersonaID)
	if err := w.statuses.MarkCompleted(ctx, job.DocumentID, vectorRef, wordCount, len(res.Chunks)); err != nil {
		logger.Error("failed to mark document completed", "error", err)
		return
	}

	logger.Info("document ingested", "chunks", len(res.Chunks), "words", wordCount)
}

// fail records the FAILED transition using a fresh context so a document
// that timed out still ends up with its error persisted.
func (w *Worker) fail(ctx context.Context, logger *slog.Logger, documentID, reason string) {
	markCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		markCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := w.statuses.MarkFailed(markCtx, documentID, reason); err != nil {
		logger.Error("failed to mark document failed", "reason", reason, "error", err)
		return
	}
	logger.Warn("document ingestion failed", "reason", reason)
}
