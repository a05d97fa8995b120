// Package extractor provides per-format text extraction for uploaded
// documents. Each format implements Extractor; a Registry dispatches by
// file extension so new formats register by adding a variant.
package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned when no extractor handles a file's extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor extracts plain text from one family of file formats.
type Extractor interface {
	// Extensions returns the supported file extensions, lowercase, without a leading dot.
	Extensions() []string

	// ExtractText reads the file at path and returns its textual content.
	ExtractText(path string) (string, error)
}

// Registry maps file extensions to extractors. Built once at startup.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds a registry from the given extractors. Later extractors
// win extension conflicts.
func NewRegistry(extractors ...Extractor) *Registry {
	byExt := make(map[string]Extractor)
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			byExt[strings.ToLower(ext)] = e
		}
	}
	return &Registry{byExt: byExt}
}

// DefaultRegistry returns a registry with all built-in extractors.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPlainText(),
		NewMarkdown(),
		NewDOCX(),
		NewPDF(),
	)
}

// ForFile returns the extractor matching the file's extension
// (case-insensitive). Returns ErrUnsupportedFormat when none matches.
func (r *Registry) ForFile(path string) (Extractor, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return e, nil
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
