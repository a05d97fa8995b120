package handlers

import (
	"context"
	"net/http"

	"personarag/internal/contextutil"
	"personarag/internal/knowledge"
)

// KnowledgeAdmin is the slice of the knowledge index the stats and
// clear handlers need.
type KnowledgeAdmin interface {
	GetCollectionStats(ctx context.Context, personaID int64) (knowledge.Stats, error)
	ClearPersonaCollection(ctx context.Context, personaID int64) bool
}

// StatsHandler reports and clears a persona's knowledge base.
type StatsHandler struct {
	index KnowledgeAdmin
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(index KnowledgeAdmin) *StatsHandler {
	return &StatsHandler{index: index}
}

// StatsResponse summarizes a persona's knowledge base.
//
// swagger:model StatsResponse
type StatsResponse struct {
	TotalChunks        int `json:"total_chunks"`
	EstimatedDocuments int `json:"estimated_documents"`
}

// Stats returns the chunk count and document estimate for a persona.
//
// swagger:route GET /api/personas/{personaID}/stats getKnowledgeStats
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := personaID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid persona ID")
		return
	}

	stats, err := h.index.GetCollectionStats(ctx, id)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load knowledge stats", "persona_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalChunks:        stats.TotalChunks,
		EstimatedDocuments: stats.EstimatedDocuments,
	})
}

// Clear drops the persona's entire knowledge collection.
//
// swagger:route DELETE /api/personas/{personaID}/knowledge clearKnowledge
func (h *StatsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := personaID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid persona ID")
		return
	}

	if ok := h.index.ClearPersonaCollection(ctx, id); !ok {
		writeError(w, http.StatusInternalServerError, "failed to clear knowledge base")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
