// Package ingest turns uploaded files into chunked, metadata-tagged text
// ready for the vector index, and runs that transformation as background
// work decoupled from the request that triggered the upload.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"personarag/internal/chunker"
	"personarag/internal/contextutil"
	"personarag/internal/extractor"
)

// Result is the outcome of processing a single document. Pipelines never
// propagate errors to their caller; failures are reported through Success
// and Error so background callers can record state and move on.
type Result struct {
	Text     string
	Chunks   []string
	Metadata map[string]any
	Success  bool
	Error    string
}

// Pipeline orchestrates extraction, chunking and metadata assembly for one
// document at a time. It performs no storage side effects; callers persist
// status transitions and forward chunks to the vector index.
type Pipeline struct {
	registry      *extractor.Registry
	chunkSize     int
	chunkOverlap  int
	maxFileSizeMB int
	allowedExts   map[string]bool
}

// NewPipeline creates a processing pipeline.
func NewPipeline(registry *extractor.Registry, chunkSize, chunkOverlap, maxFileSizeMB int, allowedExtensions []string) *Pipeline {
	allowed := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Pipeline{
		registry:      registry,
		chunkSize:     chunkSize,
		chunkOverlap:  chunkOverlap,
		maxFileSizeMB: maxFileSizeMB,
		allowedExts:   allowed,
	}
}

// ProcessDocument runs the full pipeline for the file at filePath. Each
// step is a hard precondition for the next: existence check, extractor
// lookup, extraction, non-empty check, chunking, metadata assembly.
// All failures are converted into Result{Success: false}.
func (p *Pipeline) ProcessDocument(ctx context.Context, filePath string, metadata map[string]any) Result {
	logger := contextutil.LoggerFromContext(ctx)

	res, err := p.process(ctx, filePath, metadata)
	if err != nil {
		logger.ErrorContext(ctx, "document processing failed", "path", filePath, "error", err)
		return Result{
			Metadata: overlayMetadata(nil, metadata),
			Success:  false,
			Error:    err.Error(),
		}
	}

	logger.InfoContext(ctx, "document processed",
		"path", filePath,
		"chunks", len(res.Chunks),
		"words", res.Metadata["word_count"],
	)
	return res
}

func (p *Pipeline) process(ctx context.Context, filePath string, metadata map[string]any) (Result, error) {
	info, err := os.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{}, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	ext, err := p.registry.ForFile(filePath)
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	text, err := ext.ExtractText(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, filepath.Base(filePath), err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrEmptyExtraction, filepath.Base(filePath))
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	chunks := chunker.Split(text, p.chunkSize, p.chunkOverlap)

	// File-derived facts first, caller metadata layered on top: explicitly
	// provided caller keys override derived ones.
	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	facts := map[string]any{
		"file_name":   filepath.Base(filePath),
		"file_size":   info.Size(),
		"file_type":   fileType,
		"word_count":  len(strings.Fields(text)),
		"chunk_count": len(chunks),
	}

	return Result{
		Text:     text,
		Chunks:   chunks,
		Metadata: overlayMetadata(facts, metadata),
		Success:  true,
	}, nil
}

// overlayMetadata merges overlay onto base without mutating either.
func overlayMetadata(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
