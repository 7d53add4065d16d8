package rag

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
)

// FormatHistory renders conversation turns as Q:/A: blocks for prompts.
// Turns are expected oldest first; an empty history renders the NoHistory
// sentinel so prompts never contain a dangling section.
func FormatHistory(turns []models.ConversationTurn) string {
	if len(turns) == 0 {
		return NoHistory
	}
	blocks := make([]string, len(turns))
	for i, turn := range turns {
		blocks[i] = fmt.Sprintf("Q: %s\nA: %s", turn.Question, turn.Answer)
	}
	return strings.Join(blocks, "\n\n")
}

// FormatChunks renders retrieved chunks as labelled passages so the model
// can cite pages and chunk IDs it actually saw.
func FormatChunks(chunks []models.DocumentChunk) string {
	if len(chunks) == 0 {
		return "No passages retrieved."
	}
	blocks := make([]string, len(chunks))
	for i, ch := range chunks {
		blocks[i] = fmt.Sprintf("[Page %d, Chunk ID: %s]\n%s", ch.PageNumber, ch.ID, ch.Text)
	}
	return strings.Join(blocks, "\n\n")
}
