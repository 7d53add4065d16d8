package rag

import (
	"context"
	"fmt"

	"github.com/hyperjump/kurabe/internal/llm"
	"github.com/hyperjump/kurabe/internal/models"
)

// TraditionalEngine is the single-pass chain: expand the query with history,
// retrieve once, synthesize the answer in one model call. Citations are
// derived from the chunks actually retrieved, not parsed from model output,
// so they always point at real records.
type TraditionalEngine struct {
	gen       llm.Generator
	retriever Retriever
	expander  *Expander
	topK      int
}

var _ Engine = (*TraditionalEngine)(nil)

// NewTraditionalEngine builds a single-pass engine over gen and retriever.
func NewTraditionalEngine(gen llm.Generator, retriever Retriever, topK int) *TraditionalEngine {
	if topK <= 0 {
		topK = 3
	}
	return &TraditionalEngine{
		gen:       gen,
		retriever: retriever,
		expander:  NewExpander(gen),
		topK:      topK,
	}
}

// Type identifies this engine's history partition.
func (e *TraditionalEngine) Type() models.RAGType {
	return models.RAGTraditional
}

// Respond answers query in a single retrieve-then-generate pass.
func (e *TraditionalEngine) Respond(ctx context.Context, query string, history []models.ConversationTurn) (*models.Response, error) {
	expanded, err := e.expander.Expand(ctx, query, history)
	if err != nil {
		return nil, err
	}

	chunks, err := e.retriever.Retrieve(ctx, expanded, e.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	prompt := fmt.Sprintf(synthesisPrompt, FormatHistory(history), FormatChunks(chunks), query)
	raw, err := e.gen.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0})
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	// Drop any model-emitted Sources section; the authoritative one is
	// rendered from retrieval metadata below.
	answer, _ := SplitAnswerSources(raw)
	citations := models.CitationsFrom(chunks)
	return &models.Response{
		Answer:        answer,
		Citations:     citations,
		CitationsText: models.RenderCitations(citations),
	}, nil
}
