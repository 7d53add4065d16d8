package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/kurabe/internal/llm"
	"github.com/hyperjump/kurabe/internal/models"
)

// Expander rewrites follow-up questions into self-contained queries using a
// pipeline's own conversation history.
type Expander struct {
	gen llm.Generator
}

// NewExpander returns an expander over gen.
func NewExpander(gen llm.Generator) *Expander {
	return &Expander{gen: gen}
}

// Expand returns the query rewritten with context from history. With no
// history the query passes through byte-for-byte and no model call is made.
// Expansion failures propagate to the caller; there is no retry here.
func (e *Expander) Expand(ctx context.Context, query string, history []models.ConversationTurn) (string, error) {
	if len(history) == 0 {
		return query, nil
	}
	prompt := fmt.Sprintf(expansionPrompt, FormatHistory(history), query)
	expanded, err := e.gen.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("expand query: %w", err)
	}
	expanded = strings.TrimSpace(expanded)
	if expanded == "" {
		return query, nil
	}
	return expanded, nil
}
