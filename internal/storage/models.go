package storage

import "time"

// Status is the processing state of an uploaded document.
// Transitions are forward-only: pending -> processing -> completed|failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document represents an uploaded document tracked through ingestion.
type Document struct {
	ID               string // UUID
	PersonaID        int64
	Title            string
	FileName         string
	FilePath         string
	FileType         string // Extension without dot, e.g. "pdf"
	FileSize         int64  // Bytes
	ProcessingStatus Status
	ProcessingError  string // Set only when status is failed
	WordCount        int
	ChunkCount       int
	VectorStoreRef   string // Collection the chunks were stored in
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProcessedAt      *time.Time // Set when a terminal status is reached
}
