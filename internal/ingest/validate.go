package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// largeFileWarnMB is the size above which validation warns that processing
// may be slow, without rejecting the file.
const largeFileWarnMB = 5

// Validation reports whether a file can be processed and why not.
type Validation struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateFile checks a file against the pipeline's constraints before it is
// queued: existence, allowed extension, extractor availability and maximum
// size. Intended for upload handlers to reject bad input early.
func (p *Pipeline) ValidateFile(path string) Validation {
	var v Validation

	info, err := os.Stat(path)
	if err != nil {
		v.Errors = append(v.Errors, "file not found")
		return v
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !p.allowedExts[ext] {
		v.Errors = append(v.Errors, fmt.Sprintf("extension %q is not allowed", ext))
		return v
	}
	if _, err := p.registry.ForFile(path); err != nil {
		v.Errors = append(v.Errors, fmt.Sprintf("no extractor for extension %q", ext))
		return v
	}

	sizeMB := float64(info.Size()) / (1024 * 1024)
	if sizeMB > float64(p.maxFileSizeMB) {
		v.Errors = append(v.Errors, fmt.Sprintf("file too large: %.1fMB (maximum: %dMB)", sizeMB, p.maxFileSizeMB))
		return v
	}
	if sizeMB > largeFileWarnMB {
		v.Warnings = append(v.Warnings, "large file may take a while to process")
	}

	v.Valid = true
	return v
}
