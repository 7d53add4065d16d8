// Package chunker splits extracted pages into overlapping text chunks.
package chunker

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/kurabe/internal/models"
)

// separators are tried in order when looking for a natural cut point
// inside a window. Paragraph breaks beat line breaks beat sentence
// ends beat plain spaces.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits page text into overlapping character-based chunks.
// Sizes are measured in runes so multi-byte text does not get cut
// mid-character. Chunks never span page boundaries, so every chunk
// maps to exactly one source page.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a chunker with the given size and overlap (in runes).
// Overlap is clamped below size so windows always make progress.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits the pages of fileName into DocumentChunks. Pages with no
// text yield no chunks. Consecutive chunks within a page share
// chunkOverlap runes; the final window of a page is emitted even when
// it is shorter than chunkSize, so the tail of the page is never lost.
func (c *Chunker) Chunk(fileName string, pages []models.Page) []models.DocumentChunk {
	var chunks []models.DocumentChunk
	now := time.Now()
	for _, page := range pages {
		for _, text := range c.split(page.Text) {
			chunks = append(chunks, models.DocumentChunk{
				ID:         uuid.New().String(),
				Text:       text,
				PageNumber: page.Number,
				FileName:   fileName,
				CreatedAt:  now,
			})
		}
	}
	return chunks
}

// split windows text into overlapping segments of at most chunkSize runes.
func (c *Chunker) split(text string) []string {
	runes := []rune(text)
	if len(strings.TrimSpace(text)) == 0 {
		return nil
	}
	var out []string
	start := 0
	for {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if end < len(runes) {
			end = c.cutPoint(runes, start, end)
		}
		out = append(out, string(runes[start:end]))
		next := end - c.chunkOverlap
		if next <= start || next >= len(runes) {
			break
		}
		start = next
	}
	return out
}

// cutPoint finds the best boundary to end a window that starts at start
// and would hard-cut at limit. It prefers the last occurrence of each
// separator, but only accepts cuts deep enough into the window that the
// following window still advances. Falls back to the hard cut.
func (c *Chunker) cutPoint(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + len([]rune(window[:idx])) + len([]rune(sep))
		if cut > start+c.chunkOverlap {
			return cut
		}
	}
	return limit
}
