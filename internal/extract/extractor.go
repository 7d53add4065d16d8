// Package extract provides page-oriented text extraction from document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
)

// Extractor extracts text pages from document files. Formats with a native
// page-like unit (PDF pages, spreadsheet sheets, presentation slides) keep
// that unit; flat formats yield a single page.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads the file at path and returns its pages.
func (e *Extractor) ExtractFile(path string) ([]models.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.Pages(content, ext)
}

// Pages extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Page numbers are
// 1-based and contiguous. Unknown extensions are treated as plain text.
func (e *Extractor) Pages(content []byte, ext string) ([]models.Page, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx", ".odt", ".rtf":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".pptx":
		return extractPPTX(content)
	case ".odp":
		return extractODP(content)
	case ".ods":
		return extractODS(content)
	case ".txt", ".md", ".rst", "":
		return extractPlain(content)
	default:
		return extractPlain(content)
	}
}

// singlePage wraps flat text as a one-page document.
func singlePage(text string) []models.Page {
	return []models.Page{{Text: text, Number: 1}}
}
