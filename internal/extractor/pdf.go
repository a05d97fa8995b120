package extractor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text from paginated PDF documents. Each page's text is
// prefixed with a page marker; pages that fail extraction are skipped with
// a logged warning, so a single bad page never fails the whole document.
type PDF struct {
	logger *slog.Logger
}

// NewPDF creates a new PDF extractor.
func NewPDF() *PDF {
	return &PDF{logger: slog.Default()}
}

// Extensions returns the supported file extensions.
func (e *PDF) Extensions() []string {
	return []string{"pdf"}
}

// ExtractText concatenates per-page text with page markers. Opening the
// file is fatal; individual page failures are tolerated.
func (e *PDF) ExtractText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	var pages []string
	total := reader.NumPage()
	for num := 1; num <= total; num++ {
		text, err := e.pageText(reader, num)
		if err != nil {
			e.logger.Warn("skipping pdf page", "path", path, "page", num, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, fmt.Sprintf("--- Page %d ---\n%s", num, text))
	}

	return strings.Join(pages, "\n"), nil
}

// pageText extracts one page, converting parser panics on malformed
// content streams into page-level errors.
func (e *PDF) pageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page extraction panicked: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is missing", num)
	}
	return page.GetPlainText(nil)
}
