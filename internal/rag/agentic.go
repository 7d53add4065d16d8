package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/kurabe/internal/llm"
	"github.com/hyperjump/kurabe/internal/models"
)

// stage is one step of the agent pipeline.
type stage int

const (
	stageContextExpansion stage = iota
	stageResearch
	stageWriting
	stageDone
	stageFailed
)

// String names the stage for error messages and logs.
func (s stage) String() string {
	switch s {
	case stageContextExpansion:
		return "context_expansion"
	case stageResearch:
		return "research"
	case stageWriting:
		return "writing"
	case stageDone:
		return "done"
	case stageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AgenticEngine is the three-role pipeline: a context analyzer expands the
// query, a researcher extracts cited findings from retrieved passages, and a
// writer composes the final answer from those findings alone. The stages run
// as an explicit state machine: each consumes the previous stage's output
// and any failure stops the pipeline with the failing stage named.
type AgenticEngine struct {
	gen       llm.Generator
	retriever Retriever
	topK      int
}

var _ Engine = (*AgenticEngine)(nil)

// NewAgenticEngine builds a three-role engine over gen and retriever.
func NewAgenticEngine(gen llm.Generator, retriever Retriever, topK int) *AgenticEngine {
	if topK <= 0 {
		topK = 3
	}
	return &AgenticEngine{
		gen:       gen,
		retriever: retriever,
		topK:      topK,
	}
}

// Type identifies this engine's history partition.
func (e *AgenticEngine) Type() models.RAGType {
	return models.RAGAgentic
}

// Respond runs the three stages in order.
func (e *AgenticEngine) Respond(ctx context.Context, query string, history []models.ConversationTurn) (*models.Response, error) {
	var (
		expanded string
		chunks   []models.DocumentChunk
		notes    string
		answer   string
		err      error
	)

	for current := stageContextExpansion; current != stageDone; {
		switch current {
		case stageContextExpansion:
			expanded, err = e.expandContext(ctx, query, history)
		case stageResearch:
			chunks, notes, err = e.research(ctx, expanded)
		case stageWriting:
			answer, err = e.write(ctx, query, notes)
		}
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", current, err)
		}
		current++
	}

	body, _ := SplitAnswerSources(answer)
	citations := models.CitationsFrom(chunks)
	return &models.Response{
		Answer:        body,
		Citations:     citations,
		CitationsText: models.RenderCitations(citations),
	}, nil
}

// expandContext is the analyzer role. It always issues the generation call,
// even with no history, in which case the prompt carries the NoHistory
// sentinel and the model produces a degenerate expansion of the raw query.
// A blank expansion falls back to the query itself.
func (e *AgenticEngine) expandContext(ctx context.Context, query string, history []models.ConversationTurn) (string, error) {
	prompt := fmt.Sprintf(expansionPrompt, FormatHistory(history), query)
	expanded, err := e.gen.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0})
	if err != nil {
		return "", err
	}
	if expanded = strings.TrimSpace(expanded); expanded == "" {
		return query, nil
	}
	return expanded, nil
}

// research retrieves passages for the expanded query and has the researcher
// role turn them into cited notes.
func (e *AgenticEngine) research(ctx context.Context, expanded string) ([]models.DocumentChunk, string, error) {
	chunks, err := e.retriever.Retrieve(ctx, expanded, e.topK)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve: %w", err)
	}
	prompt := fmt.Sprintf(researchPrompt, expanded, FormatChunks(chunks))
	notes, err := e.gen.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0})
	if err != nil {
		return nil, "", err
	}
	return chunks, notes, nil
}

// write has the writer role compose the final response from research notes.
func (e *AgenticEngine) write(ctx context.Context, query, notes string) (string, error) {
	return e.gen.Generate(ctx, fmt.Sprintf(writingPrompt, query, notes), llm.GenerateOptions{Temperature: 0})
}
