package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"personarag/internal/extractor"
	"personarag/internal/knowledge"
)

// fakeStatusStore records transitions and signals when a document reaches
// a terminal state.
type fakeStatusStore struct {
	mu       sync.Mutex
	statuses map[string]string
	failures map[string]string
	done     chan string
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{
		statuses: make(map[string]string),
		failures: make(map[string]string),
		done:     make(chan string, 16),
	}
}

func (s *fakeStatusStore) MarkProcessing(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = "processing"
	return nil
}

func (s *fakeStatusStore) MarkCompleted(ctx context.Context, id string, vectorRef string, wordCount, chunkCount int) error {
	s.mu.Lock()
	s.statuses[id] = "completed"
	s.mu.Unlock()
	s.done <- id
	return nil
}

func (s *fakeStatusStore) MarkFailed(ctx context.Context, id string, reason string) error {
	s.mu.Lock()
	s.statuses[id] = "failed"
	s.failures[id] = reason
	s.mu.Unlock()
	s.done <- id
	return nil
}

func (s *fakeStatusStore) status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

func (s *fakeStatusStore) failure(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[id]
}

// fakeIndexer records AddDocument calls.
type fakeIndexer struct {
	mu     sync.Mutex
	added  map[string][]string
	reject bool
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{added: make(map[string][]string)}
}

func (f *fakeIndexer) AddDocument(ctx context.Context, personaID int64, documentID string, chunks []string, metadata map[string]any) bool {
	if f.reject {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[documentID] = chunks
	return true
}

func (f *fakeIndexer) CollectionName(personaID int64) string {
	return knowledge.CollectionName(personaID)
}

func waitForDocument(t *testing.T, statuses *fakeStatusStore, id string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-statuses.done:
			if got == id {
				return
			}
		case <-deadline:
			t.Fatalf("document %s never reached a terminal state", id)
		}
	}
}

func TestWorkerIngestsDocument(t *testing.T) {
	pipeline := newTestPipeline()
	index := newFakeIndexer()
	statuses := newFakeStatusStore()

	w := NewWorker(pipeline, index, statuses, 2, 8, time.Minute)
	w.Start()
	defer func() {
		_ = w.Stop(context.Background())
	}()

	path := writeTempFile(t, "doc.txt", "Some document content for ingestion.")
	err := w.Enqueue(Job{
		DocumentID: "doc-1",
		PersonaID:  1,
		FilePath:   path,
		Metadata:   map[string]any{"title": "Doc"},
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	waitForDocument(t, statuses, "doc-1")

	if got := statuses.status("doc-1"); got != "completed" {
		t.Errorf("status = %q, want completed (failure: %q)", got, statuses.failure("doc-1"))
	}
	index.mu.Lock()
	chunks := index.added["doc-1"]
	index.mu.Unlock()
	if len(chunks) == 0 {
		t.Error("no chunks reached the index")
	}
}

func TestWorkerMarksFailedOnPipelineError(t *testing.T) {
	pipeline := newTestPipeline()
	index := newFakeIndexer()
	statuses := newFakeStatusStore()

	w := NewWorker(pipeline, index, statuses, 1, 4, time.Minute)
	w.Start()
	defer func() {
		_ = w.Stop(context.Background())
	}()

	if err := w.Enqueue(Job{DocumentID: "doc-1", PersonaID: 1, FilePath: "/nonexistent.txt"}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	waitForDocument(t, statuses, "doc-1")

	if got := statuses.status("doc-1"); got != "failed" {
		t.Errorf("status = %q, want failed", got)
	}
	if reason := statuses.failure("doc-1"); reason == "" {
		t.Error("failure reason should be recorded")
	}
}

func TestWorkerMarksFailedOnIndexRejection(t *testing.T) {
	pipeline := newTestPipeline()
	index := newFakeIndexer()
	index.reject = true
	statuses := newFakeStatusStore()

	w := NewWorker(pipeline, index, statuses, 1, 4, time.Minute)
	w.Start()
	defer func() {
		_ = w.Stop(context.Background())
	}()

	path := writeTempFile(t, "doc.txt", "content that extracts fine")
	if err := w.Enqueue(Job{DocumentID: "doc-1", PersonaID: 1, FilePath: path}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	waitForDocument(t, statuses, "doc-1")

	if got := statuses.status("doc-1"); got != "failed" {
		t.Errorf("status = %q, want failed", got)
	}
}

func TestWorkerQueueFull(t *testing.T) {
	pipeline := newTestPipeline()
	index := newFakeIndexer()
	statuses := newFakeStatusStore()

	// Not started: jobs stay queued, so capacity is observable.
	w := NewWorker(pipeline, index, statuses, 1, 2, time.Minute)

	path := writeTempFile(t, "doc.txt", "content")
	for i := 0; i < 2; i++ {
		if err := w.Enqueue(Job{DocumentID: fmt.Sprintf("doc-%d", i), PersonaID: 1, FilePath: path}); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}

	if err := w.Enqueue(Job{DocumentID: "doc-overflow", PersonaID: 1, FilePath: path}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue on full queue = %v, want ErrQueueFull", err)
	}
}

func TestWorkerStopDrains(t *testing.T) {
	pipeline := NewPipeline(extractor.DefaultRegistry(), 1000, 200, 10, []string{"txt"})
	index := newFakeIndexer()
	statuses := newFakeStatusStore()

	w := NewWorker(pipeline, index, statuses, 1, 8, time.Minute)

	path := writeTempFile(t, "doc.txt", "content to drain")
	for i := 0; i < 3; i++ {
		if err := w.Enqueue(Job{DocumentID: fmt.Sprintf("doc-%d", i), PersonaID: 1, FilePath: path}); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}

	w.Start()
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("doc-%d", i)
		if got := statuses.status(id); got != "completed" {
			t.Errorf("document %s status = %q, want completed", id, got)
		}
	}
}
