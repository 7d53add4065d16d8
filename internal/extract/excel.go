package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/kurabe/internal/models"
)

// extractExcel extracts text from .xlsx bytes, one Page per sheet.
// Rows are joined with tabs so cell boundaries stay visible.
func extractExcel(content []byte) ([]models.Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	pages := make([]models.Page, 0, len(sheets))
	for i, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		var buf strings.Builder
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
		pages = append(pages, models.Page{Text: strings.TrimSpace(buf.String()), Number: i + 1})
	}
	return pages, nil
}
