package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/kurabe/internal/models"
)

// extractPDF extracts text from PDF bytes, one Page per PDF page.
// Pages that cannot be dereferenced are kept as empty pages so page
// numbers in citations line up with the source document.
func extractPDF(content []byte) ([]models.Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	pages := make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, models.Page{Text: text, Number: i})
	}
	return pages, nil
}
