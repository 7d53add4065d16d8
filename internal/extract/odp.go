package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
)

// odpContentPath is the path to the main content inside an .odp zip (OpenDocument Presentation).
const odpContentPath = "content.xml"

// odpTextTags match OpenDocument text elements (with optional attributes). We use separate patterns
// so opening and closing tags match (e.g. <text:p>...</text:p> only).
var (
	odpTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odpTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odpTextH    = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)
)

// extractODP extracts text from .odp bytes as a single page. ODP is a ZIP
// containing content.xml (OpenDocument); text:p, text:span, and text:h
// elements carry the visible text.
func extractODP(content []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODP: not a zip: %w", err)
	}
	contentXML, err := readZipFile(zr, odpContentPath)
	if err != nil {
		return nil, fmt.Errorf("extract ODP: %w", err)
	}
	s := string(contentXML)
	var b strings.Builder
	appendSubmatches(&b, odpTextP.FindAllStringSubmatch(s, -1))
	appendSubmatches(&b, odpTextSpan.FindAllStringSubmatch(s, -1))
	appendSubmatches(&b, odpTextH.FindAllStringSubmatch(s, -1))
	return singlePage(strings.TrimSpace(b.String())), nil
}

// readZipFile reads a single named entry out of a zip archive.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		_ = rc.Close()
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%s not found", name)
}

// appendSubmatches writes the first capture group of each match, space separated.
func appendSubmatches(b *strings.Builder, parts [][]string) {
	for _, p := range parts {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(p[1]))
	}
}
