package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"personarag/internal/extractor"
	"personarag/internal/ingest"
	"personarag/internal/storage"
	"personarag/internal/storage/mocks"
)

type fakeQueue struct {
	jobs []ingest.Job
	err  error
}

func (f *fakeQueue) Enqueue(job ingest.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeDeindexer struct {
	deleted []string
	result  bool
}

func (f *fakeDeindexer) DeleteDocument(ctx context.Context, personaID int64, documentID string) bool {
	f.deleted = append(f.deleted, documentID)
	return f.result
}

func testHandlerPipeline() *ingest.Pipeline {
	return ingest.NewPipeline(extractor.DefaultRegistry(), 1000, 200, 10, []string{"pdf", "docx", "txt", "md"})
}

func writeUploadFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestDocumentsHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockDocumentStore(ctrl)
	queue := &fakeQueue{}
	handler := NewDocumentsHandler(store, testHandlerPipeline(), queue, &fakeDeindexer{result: true})

	path := writeUploadFile(t, "report.txt", "quarterly report content")

	store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *storage.Document) error {
		doc.ProcessingStatus = storage.StatusPending
		return nil
	})

	body, _ := json.Marshal(CreateDocumentRequest{
		FilePath:  path,
		PersonaID: 7,
		Metadata:  map[string]any{"source": "upload"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body %s", w.Code, w.Body.String())
	}

	var resp DocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ProcessingStatus != string(storage.StatusPending) {
		t.Errorf("status = %q, want pending", resp.ProcessingStatus)
	}
	if resp.PersonaID != 7 || resp.FileName != "report.txt" || resp.FileType != "txt" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.DocumentID != resp.ID || job.PersonaID != 7 {
		t.Errorf("unexpected job: %+v", job)
	}
	if job.Metadata["title"] != "report.txt" {
		t.Errorf("job metadata should default title to file name: %v", job.Metadata)
	}
	if job.Metadata["source"] != "upload" {
		t.Errorf("caller metadata should pass through: %v", job.Metadata)
	}
}

func TestDocumentsHandler_CreateValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockDocumentStore(ctrl)
	handler := NewDocumentsHandler(store, testHandlerPipeline(), &fakeQueue{}, &fakeDeindexer{result: true})

	csvPath := writeUploadFile(t, "table.csv", "a,b")

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", "{not json"},
		{"missing fields", `{}`},
		{"missing file", `{"file_path":"/nonexistent.txt","persona_id":1}`},
		{"disallowed extension", `{"file_path":"` + csvPath + `","persona_id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()

			handler.Create(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestDocumentsHandler_CreateQueueFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockDocumentStore(ctrl)
	queue := &fakeQueue{err: ingest.ErrQueueFull}
	handler := NewDocumentsHandler(store, testHandlerPipeline(), queue, &fakeDeindexer{result: true})

	path := writeUploadFile(t, "doc.txt", "content")

	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().MarkFailed(gomock.Any(), gomock.Any(), "ingestion queue full").Return(nil)

	body, _ := json.Marshal(CreateDocumentRequest{FilePath: path, PersonaID: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

// withURLParam injects a chi route parameter into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestDocumentsHandler_ListByPersona(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockDocumentStore(ctrl)
	handler := NewDocumentsHandler(store, testHandlerPipeline(), &fakeQueue{}, &fakeDeindexer{result: true})

	store.EXPECT().ListByPersona(gomock.Any(), int64(3)).Return([]*storage.Document{
		{ID: "doc-1", PersonaID: 3, ProcessingStatus: storage.StatusCompleted},
		{ID: "doc-2", PersonaID: 3, ProcessingStatus: storage.StatusPending},
	}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/personas/3/documents", nil), "personaID", "3")
	w := httptest.NewRecorder()

	handler.ListByPersona(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp []DocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "doc-1" || resp[1].ID != "doc-2" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestDocumentsHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockDocumentStore(ctrl)
	handler := NewDocumentsHandler(store, testHandlerPipeline(), &fakeQueue{}, &fakeDeindexer{result: true})

	store.EXPECT().GetByID(gomock.Any(), "doc-1").Return(&storage.Document{
		ID:               "doc-1",
		PersonaID:        3,
		ProcessingStatus: storage.StatusCompleted,
		ChunkCount:       4,
	}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil), "documentID", "doc-1")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp DocumentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "doc-1" || resp.ChunkCount != 4 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestDocumentsHandler_GetNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockDocumentStore(ctrl)
	handler := NewDocumentsHandler(store, testHandlerPipeline(), &fakeQueue{}, &fakeDeindexer{result: true})

	store.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/documents/missing", nil), "documentID", "missing")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDocumentsHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockDocumentStore(ctrl)
	deindexer := &fakeDeindexer{result: true}
	handler := NewDocumentsHandler(store, testHandlerPipeline(), &fakeQueue{}, deindexer)

	store.EXPECT().GetByID(gomock.Any(), "doc-1").Return(&storage.Document{ID: "doc-1", PersonaID: 2}, nil)
	store.EXPECT().Delete(gomock.Any(), "doc-1").Return(nil)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1", nil), "documentID", "doc-1")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if len(deindexer.deleted) != 1 || deindexer.deleted[0] != "doc-1" {
		t.Errorf("chunks not removed from index: %v", deindexer.deleted)
	}
}
