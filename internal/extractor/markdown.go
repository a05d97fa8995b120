package extractor

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	htmlTags      = regexp.MustCompile(`<[^>]+>`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Markdown extracts text from markdown files by rendering to HTML with
// goldmark, then stripping markup tags and decoding HTML entities.
type Markdown struct {
	renderer goldmark.Markdown
}

// NewMarkdown creates a new markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{
		renderer: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Extensions returns the supported file extensions.
func (e *Markdown) Extensions() []string {
	return []string{"md", "markdown"}
}

// ExtractText reads the file, renders the markdown and returns plain text.
func (e *Markdown) ExtractText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read markdown file %s: %w", path, err)
	}

	var rendered bytes.Buffer
	if err := e.renderer.Convert(content, &rendered); err != nil {
		return "", fmt.Errorf("failed to render markdown file %s: %w", path, err)
	}

	text := htmlTags.ReplaceAllString(rendered.String(), "")
	text = html.UnescapeString(text)
	text = multiNewlines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
