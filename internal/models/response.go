package models

import (
	"fmt"
	"strings"
)

// SourcesMarker delimits the citation section in generated answers.
const SourcesMarker = "Sources:"

// NoCitations is the sentinel returned when no citation section can be produced.
const NoCitations = "No citations provided"

// Citation identifies one chunk used to support an answer.
type Citation struct {
	PageNumber int    `json:"page_number"`
	ChunkID    string `json:"chunk_id"`
}

// String renders the citation in the "Page N, Chunk ID: X" form.
func (c Citation) String() string {
	return fmt.Sprintf("Page %d, Chunk ID: %s", c.PageNumber, c.ChunkID)
}

// Response is an engine's answer to one query. Citations carry the metadata of
// the chunks actually retrieved for the call; CitationsText is the rendered
// "Sources:" block shown to the user.
type Response struct {
	Answer        string     `json:"answer"`
	Citations     []Citation `json:"citations"`
	CitationsText string     `json:"citations_text"`
}

// CitationsFrom derives citations from retrieved chunk metadata, in retrieval order.
func CitationsFrom(chunks []DocumentChunk) []Citation {
	citations := make([]Citation, 0, len(chunks))
	for _, ch := range chunks {
		citations = append(citations, Citation{PageNumber: ch.PageNumber, ChunkID: ch.ID})
	}
	return citations
}

// RenderCitations formats citations as a "Sources:" block, one citation per line.
// An empty set renders the NoCitations sentinel.
func RenderCitations(citations []Citation) string {
	if len(citations) == 0 {
		return NoCitations
	}
	lines := make([]string, len(citations))
	for i, c := range citations {
		lines[i] = c.String()
	}
	return SourcesMarker + "\n" + strings.Join(lines, "\n")
}
