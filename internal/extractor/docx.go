package extractor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCX extracts text from word-processor documents (OOXML). Paragraph text
// is concatenated in document order, followed by table rows rendered as
// pipe-delimited lines.
type DOCX struct{}

// NewDOCX creates a new DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

// Extensions returns the supported file extensions.
func (e *DOCX) Extensions() []string {
	return []string{"docx"}
}

// ExtractText opens the document archive and extracts its text.
func (e *DOCX) ExtractText(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx file %s: %w", path, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document.xml in %s: %w", path, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml in %s: %w", path, err)
		}

		text, err := parseDocumentXML(content)
		if err != nil {
			return "", fmt.Errorf("failed to parse docx file %s: %w", path, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("docx file %s has no word/document.xml", path)
}

// documentXML mirrors the parts of word/document.xml we extract text from.
// encoding/xml matches local element names, so "p" matches "w:p".
type documentXML struct {
	Body struct {
		Paragraphs []paragraphXML `xml:"p"`
		Tables     []tableXML     `xml:"tbl"`
	} `xml:"body"`
}

type paragraphXML struct {
	Runs []runXML `xml:"r"`
}

type runXML struct {
	Text []textXML `xml:"t"`
}

type textXML struct {
	Content string `xml:",chardata"`
}

type tableXML struct {
	Rows []rowXML `xml:"tr"`
}

type rowXML struct {
	Cells []cellXML `xml:"tc"`
}

type cellXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

// parseDocumentXML extracts paragraph text in document order, then table
// rows as " | "-joined cell text.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	var lines []string
	for _, para := range doc.Body.Paragraphs {
		if text := paragraphText(para); text != "" {
			lines = append(lines, text)
		}
	}

	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				var parts []string
				for _, para := range cell.Paragraphs {
					if text := paragraphText(para); text != "" {
						parts = append(parts, text)
					}
				}
				cells = append(cells, strings.Join(parts, " "))
			}
			rowText := strings.Join(cells, " | ")
			if strings.TrimSpace(rowText) != "" {
				lines = append(lines, rowText)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

func paragraphText(para paragraphXML) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, text := range run.Text {
			b.WriteString(text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}
