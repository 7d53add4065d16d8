package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
)

// slideNameRe matches slide XML files inside a .pptx zip and captures the slide number.
var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// atTag matches <a:t>text</a:t> or <a:t xml:space="preserve">text</a:t> (and any other attributes).
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX extracts text from .pptx bytes, one Page per slide. PPTX is a
// ZIP containing ppt/slides/slideN.xml (Office Open XML); zip entry order is
// arbitrary, so slides are sorted by the number in their file name.
func extractPPTX(content []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}
	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]models.Page, 0, len(slides))
	for i, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: open %s: %w", s.file.Name, err)
		}
		var slideBuf bytes.Buffer
		if _, err := slideBuf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("extract PPTX: read %s: %w", s.file.Name, err)
		}
		_ = rc.Close()
		var b strings.Builder
		for _, p := range atTag.FindAllStringSubmatch(slideBuf.String(), -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(p[1]))
		}
		pages = append(pages, models.Page{Text: strings.TrimSpace(b.String()), Number: i + 1})
	}
	return pages, nil
}
