package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
)

// odsContentPath is the path to the main content inside an .ods zip (OpenDocument Spreadsheet).
const odsContentPath = "content.xml"

// odsTextTags match OpenDocument text elements in spreadsheet cells (with optional attributes).
var (
	odsTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odsTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
)

// extractODS extracts text from .ods bytes as a single page. ODS is a ZIP
// containing content.xml (OpenDocument); cell content lives in text:p and
// text:span elements.
func extractODS(content []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODS: not a zip: %w", err)
	}
	contentXML, err := readZipFile(zr, odsContentPath)
	if err != nil {
		return nil, fmt.Errorf("extract ODS: %w", err)
	}
	s := string(contentXML)
	var b strings.Builder
	appendSubmatches(&b, odsTextP.FindAllStringSubmatch(s, -1))
	appendSubmatches(&b, odsTextSpan.FindAllStringSubmatch(s, -1))
	return singlePage(strings.TrimSpace(b.String())), nil
}
