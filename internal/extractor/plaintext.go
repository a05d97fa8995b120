package extractor

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// PlainText extracts text from plain-text files. Content is read as UTF-8;
// files that are not valid UTF-8 are decoded as ISO 8859-1 (Latin-1), which
// maps every byte so the fallback cannot fail.
type PlainText struct{}

// NewPlainText creates a new plain-text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extensions returns the supported file extensions.
func (e *PlainText) Extensions() []string {
	return []string{"txt"}
}

// ExtractText reads the file and returns its content.
func (e *PlainText) ExtractText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file %s: %w", path, err)
	}

	if utf8.Valid(content) {
		return string(content), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("failed to decode text file %s: %w", path, err)
	}
	return string(decoded), nil
}
