package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"personarag/internal/knowledge"
)

// KnowledgeSearcher is the slice of the knowledge index the search
// handlers need.
type KnowledgeSearcher interface {
	SearchSimilarContent(ctx context.Context, personaID int64, query string, n int, filters map[string]any) []knowledge.SimilarityResult
}

// ContextProvider assembles a prompt-ready context block.
type ContextProvider interface {
	RelevantContext(ctx context.Context, personaID int64, query string) string
}

// SearchHandler handles similarity search and context assembly for a persona.
type SearchHandler struct {
	searcher KnowledgeSearcher
	builder  ContextProvider
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher KnowledgeSearcher, builder ContextProvider) *SearchHandler {
	return &SearchHandler{searcher: searcher, builder: builder}
}

// SearchRequest represents the HTTP request payload for similarity search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query   string         `json:"query"`
	TopK    int            `json:"top_k,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
}

// SearchResultResponse represents one retrieved chunk.
//
// swagger:model SearchResultResponse
type SearchResultResponse struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float32        `json:"score"`
}

// SearchResponse represents the HTTP response payload for similarity search.
//
// swagger:model SearchResponse
type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
}

// ContextResponse carries the assembled knowledge context block.
//
// swagger:model ContextResponse
type ContextResponse struct {
	Context string `json:"context"`
}

// personaID extracts and validates the persona path parameter.
func personaID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "personaID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Search runs a similarity search over the persona's knowledge base.
//
// swagger:route POST /api/personas/{personaID}/search searchKnowledge
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := personaID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid persona ID")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results := h.searcher.SearchSimilarContent(ctx, id, req.Query, req.TopK, req.Filters)

	resp := SearchResponse{Results: make([]SearchResultResponse, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, SearchResultResponse{
			ID:       res.ID,
			Content:  res.Content,
			Metadata: res.Metadata,
			Score:    res.Distance,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Context assembles the knowledge context block for a query.
//
// swagger:route GET /api/personas/{personaID}/context getContext
func (h *SearchHandler) Context(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := personaID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid persona ID")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	writeJSON(w, http.StatusOK, ContextResponse{
		Context: h.builder.RelevantContext(ctx, id, query),
	})
}
