package rag

import (
	"context"

	"github.com/hyperjump/kurabe/internal/models"
)

// Retriever returns the top-k document chunks for a query. The store's
// document-scoped retriever satisfies this.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.DocumentChunk, error)
}

// Engine answers one query given the pipeline's prior turns. Engines are
// built fresh per query and hold no state across calls; all continuity
// lives in the store.
type Engine interface {
	Respond(ctx context.Context, query string, history []models.ConversationTurn) (*models.Response, error)
	Type() models.RAGType
}
