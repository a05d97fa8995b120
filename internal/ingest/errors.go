package ingest

import "errors"

var (
	// ErrFileNotFound is returned when the input file does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrExtractionFailed wraps an extractor-internal failure.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrEmptyExtraction is returned when extraction yields no usable text.
	ErrEmptyExtraction = errors.New("no text extracted from document")
	// ErrQueueFull is returned by Enqueue when the ingest queue is at capacity.
	ErrQueueFull = errors.New("ingest queue is full")
)
