package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"personarag/internal/contextutil"
	"personarag/internal/ingest"
	"personarag/internal/storage"
)

// Enqueuer is the slice of the ingest worker the handler needs.
type Enqueuer interface {
	Enqueue(job ingest.Job) error
}

// Deindexer removes a document's chunks from the vector index.
type Deindexer interface {
	DeleteDocument(ctx context.Context, personaID int64, documentID string) bool
}

// DocumentsHandler handles document upload registration, lookup and removal.
type DocumentsHandler struct {
	documents storage.DocumentStore
	pipeline  *ingest.Pipeline
	queue     Enqueuer
	index     Deindexer
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(documents storage.DocumentStore, pipeline *ingest.Pipeline, queue Enqueuer, index Deindexer) *DocumentsHandler {
	return &DocumentsHandler{
		documents: documents,
		pipeline:  pipeline,
		queue:     queue,
		index:     index,
	}
}

// CreateDocumentRequest registers a file for ingestion. The file must
// already be on local disk; upload transport is the caller's concern.
//
// swagger:model CreateDocumentRequest
type CreateDocumentRequest struct {
	FilePath  string         `json:"file_path"`
	PersonaID int64          `json:"persona_id"`
	Title     string         `json:"title,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// DocumentResponse represents a document record in API responses.
//
// swagger:model DocumentResponse
type DocumentResponse struct {
	ID               string     `json:"id"`
	PersonaID        int64      `json:"persona_id"`
	Title            string     `json:"title"`
	FileName         string     `json:"file_name"`
	FileType         string     `json:"file_type"`
	FileSize         int64      `json:"file_size"`
	ProcessingStatus string     `json:"processing_status"`
	ProcessingError  string     `json:"processing_error,omitempty"`
	WordCount        int        `json:"word_count"`
	ChunkCount       int        `json:"chunk_count"`
	VectorStoreRef   string     `json:"vector_store_ref,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	Warnings         []string   `json:"warnings,omitempty"`
}

func documentResponse(doc *storage.Document) DocumentResponse {
	return DocumentResponse{
		ID:               doc.ID,
		PersonaID:        doc.PersonaID,
		Title:            doc.Title,
		FileName:         doc.FileName,
		FileType:         doc.FileType,
		FileSize:         doc.FileSize,
		ProcessingStatus: string(doc.ProcessingStatus),
		ProcessingError:  doc.ProcessingError,
		WordCount:        doc.WordCount,
		ChunkCount:       doc.ChunkCount,
		VectorStoreRef:   doc.VectorStoreRef,
		CreatedAt:        doc.CreatedAt,
		ProcessedAt:      doc.ProcessedAt,
	}
}

// Create registers a document and enqueues it for background ingestion.
// Responds 202 Accepted with the pending record.
//
// swagger:route POST /api/documents createDocument
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FilePath == "" || req.PersonaID <= 0 {
		writeError(w, http.StatusBadRequest, "file_path and persona_id are required")
		return
	}

	validation := h.pipeline.ValidateFile(req.FilePath)
	if !validation.Valid {
		writeError(w, http.StatusBadRequest, strings.Join(validation.Errors, "; "))
		return
	}

	info, err := os.Stat(req.FilePath)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file not found")
		return
	}

	fileName := filepath.Base(req.FilePath)
	title := req.Title
	if title == "" {
		title = fileName
	}

	doc := &storage.Document{
		ID:        uuid.New().String(),
		PersonaID: req.PersonaID,
		Title:     title,
		FileName:  fileName,
		FilePath:  req.FilePath,
		FileType:  strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")),
		FileSize:  info.Size(),
	}
	if err := h.documents.Create(ctx, doc); err != nil {
		logger.ErrorContext(ctx, "failed to create document record", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create document")
		return
	}

	metadata := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if _, ok := metadata["title"]; !ok {
		metadata["title"] = title
	}

	job := ingest.Job{
		DocumentID: doc.ID,
		PersonaID:  doc.PersonaID,
		FilePath:   doc.FilePath,
		Metadata:   metadata,
	}
	if err := h.queue.Enqueue(job); err != nil {
		logger.WarnContext(ctx, "ingestion queue rejected document", "document_id", doc.ID, "error", err)
		if err := h.documents.MarkFailed(ctx, doc.ID, "ingestion queue full"); err != nil {
			logger.ErrorContext(ctx, "failed to mark document failed", "document_id", doc.ID, "error", err)
		}
		writeError(w, http.StatusServiceUnavailable, "ingestion queue full, try again later")
		return
	}

	resp := documentResponse(doc)
	resp.Warnings = validation.Warnings
	writeJSON(w, http.StatusAccepted, resp)
}

// ListByPersona returns a persona's documents, newest first.
//
// swagger:route GET /api/personas/{personaID}/documents listDocuments
func (h *DocumentsHandler) ListByPersona(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := personaID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid persona ID")
		return
	}

	docs, err := h.documents.ListByPersona(ctx, id)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list documents", "persona_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, documentResponse(doc))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a document record by ID.
//
// swagger:route GET /api/documents/{documentID} getDocument
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "documentID")
	doc, err := h.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	writeJSON(w, http.StatusOK, documentResponse(doc))
}

// Delete removes a document's chunks from the vector index and deletes
// the record. Chunk removal is best-effort; a missing collection does
// not block deleting the record.
//
// swagger:route DELETE /api/documents/{documentID} deleteDocument
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "documentID")
	doc, err := h.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		logger.ErrorContext(ctx, "failed to load document", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}

	if ok := h.index.DeleteDocument(ctx, doc.PersonaID, doc.ID); !ok {
		logger.WarnContext(ctx, "no chunks removed for document", "document_id", doc.ID)
	}

	if err := h.documents.Delete(ctx, id); err != nil {
		logger.ErrorContext(ctx, "failed to delete document record", "document_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
