package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"personarag/internal/extractor"
	"personarag/internal/handlers"
	"personarag/internal/ingest"
	"personarag/internal/knowledge"
	"personarag/internal/rag"
	"personarag/internal/storage"
	"personarag/internal/vectorstore"
)

type noopQueue struct{}

func (noopQueue) Enqueue(job ingest.Job) error { return nil }

type staticEmbedder struct{}

func (staticEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	store := vectorstore.NewMemoryStore()
	index := knowledge.NewIndex(store, staticEmbedder{}, 4, 5)
	pipeline := ingest.NewPipeline(extractor.DefaultRegistry(), 1000, 200, 10, []string{"txt", "md"})
	documentRepo := storage.NewDocumentRepo(db)

	deps := &Deps{
		Health:    handlers.NewHealthHandler(db, store),
		Documents: handlers.NewDocumentsHandler(documentRepo, pipeline, noopQueue{}, index),
		Search:    handlers.NewSearchHandler(index, rag.NewContextBuilder(index)),
		Stats:     handlers.NewStatsHandler(index),
	}
	return NewRouter(deps)
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"list documents", http.MethodGet, "/api/personas/1/documents", "", http.StatusOK},
		{"search", http.MethodPost, "/api/personas/1/search", `{"query":"hello"}`, http.StatusOK},
		{"context", http.MethodGet, "/api/personas/1/context?query=hello", "", http.StatusOK},
		{"stats", http.MethodGet, "/api/personas/1/stats", "", http.StatusOK},
		{"clear knowledge", http.MethodDelete, "/api/personas/1/knowledge", "", http.StatusNoContent},
		{"document not found", http.MethodGet, "/api/documents/missing", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/unknown", "", http.StatusNotFound},
		{"bad persona", http.MethodGet, "/api/personas/abc/stats", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d; body %s", tt.method, tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
