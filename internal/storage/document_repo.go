package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks personarag/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned when a status update would move a
	// document backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// DocumentStore defines the interface for document storage operations.
// Status transitions are forward-only; terminal states are set exactly once.
type DocumentStore interface {
	// Create inserts a new document in pending status.
	Create(ctx context.Context, doc *Document) error
	// GetByID gets a document by ID. Returns nil and ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*Document, error)
	// ListByPersona lists a persona's documents, newest first.
	ListByPersona(ctx context.Context, personaID int64) ([]*Document, error)
	// MarkProcessing moves a pending document to processing.
	MarkProcessing(ctx context.Context, id string) error
	// MarkCompleted moves a processing document to completed and records
	// the ingestion results.
	MarkCompleted(ctx context.Context, id string, vectorRef string, wordCount, chunkCount int) error
	// MarkFailed moves a pending or processing document to failed with a reason.
	MarkFailed(ctx context.Context, id string, reason string) error
	// Delete removes a document record.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id, persona_id, title, file_name, file_path, file_type, file_size,
	processing_status, processing_error, word_count, chunk_count, vector_store_ref,
	created_at, updated_at, processed_at`

// Create inserts a new document in pending status.
func (r *DocumentRepo) Create(ctx context.Context, doc *Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, persona_id, title, file_name, file_path, file_type, file_size, processing_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.PersonaID, doc.Title, doc.FileName, doc.FilePath, doc.FileType, doc.FileSize, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	doc.ProcessingStatus = StatusPending
	return nil
}

// GetByID gets a document by ID.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*Document, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// ListByPersona lists a persona's documents, newest first.
func (r *DocumentRepo) ListByPersona(ctx context.Context, personaID int64) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE persona_id = ? ORDER BY created_at DESC, id DESC",
		personaID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// MarkProcessing moves a pending document to processing.
func (r *DocumentRepo) MarkProcessing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND processing_status = ?`,
		StatusProcessing, id, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark document processing: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

// MarkCompleted moves a processing document to completed and records the
// ingestion results.
func (r *DocumentRepo) MarkCompleted(ctx context.Context, id string, vectorRef string, wordCount, chunkCount int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = ?, vector_store_ref = ?, word_count = ?,
		 chunk_count = ?, processing_error = NULL, updated_at = CURRENT_TIMESTAMP,
		 processed_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND processing_status = ?`,
		StatusCompleted, vectorRef, wordCount, chunkCount, id, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark document completed: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

// MarkFailed moves a pending or processing document to failed with a reason.
func (r *DocumentRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = ?, processing_error = ?,
		 updated_at = CURRENT_TIMESTAMP, processed_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND processing_status IN (?, ?)`,
		StatusFailed, reason, id, StatusPending, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark document failed: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

// Delete removes a document record.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// checkTransition distinguishes a missing record from a disallowed
// transition when a guarded status update matched no rows.
func (r *DocumentRepo) checkTransition(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrInvalidTransition
}

// scanner abstracts *sql.Row and *sql.Rows for scanDocument.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*Document, error) {
	var doc Document
	var processingError, vectorRef sql.NullString
	var createdAt, updatedAt string
	var processedAt sql.NullString

	err := s.Scan(&doc.ID, &doc.PersonaID, &doc.Title, &doc.FileName, &doc.FilePath,
		&doc.FileType, &doc.FileSize, &doc.ProcessingStatus, &processingError,
		&doc.WordCount, &doc.ChunkCount, &vectorRef, &createdAt, &updatedAt, &processedAt)
	if err != nil {
		return nil, err
	}

	doc.ProcessingError = processingError.String
	doc.VectorStoreRef = vectorRef.String

	if doc.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if doc.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	if processedAt.Valid {
		t, err := parseTimestamp(processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse processed_at timestamp: %w", err)
		}
		doc.ProcessedAt = &t
	}

	return &doc, nil
}

// parseTimestamp parses a SQLite DATETIME string.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err == nil {
		return t, nil
	}
	// SQLite might use a different format
	return time.Parse(time.RFC3339, value)
}
