// Package models defines core data structures for documents, records, and responses.
package models

import (
	"fmt"
	"time"
)

// RAGType identifies which retrieval pipeline produced or owns a conversation record.
type RAGType string

const (
	// RAGTraditional is the single-pass retrieval chain.
	RAGTraditional RAGType = "traditional"
	// RAGAgentic is the three-role agent pipeline.
	RAGAgentic RAGType = "agentic"
)

// Valid reports whether t is a known RAG type.
func (t RAGType) Valid() bool {
	return t == RAGTraditional || t == RAGAgentic
}

// RecordType discriminates the two record kinds held by the unified store.
// It is a closed enumeration validated at write time so a filter typo can
// never silently merge the chunk and conversation partitions.
type RecordType string

const (
	// RecordPDFChunk is a document chunk record.
	RecordPDFChunk RecordType = "pdf_chunk"
	// RecordConversation is a stored question/answer turn.
	RecordConversation RecordType = "conversation"
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	return t == RecordPDFChunk || t == RecordConversation
}

// Record is the persisted unit in the unified store: a tagged union over
// document chunks and conversation turns, discriminated by Type.
type Record struct {
	ID        string     `json:"id" db:"id"`
	Type      RecordType `json:"type" db:"type"`
	Text      string     `json:"text" db:"text"`
	Embedding []float32  `json:"-" db:"-"`

	// Chunk fields (Type == RecordPDFChunk).
	PageNumber int    `json:"page_number,omitempty" db:"page_number"`
	FileName   string `json:"file_name,omitempty" db:"file_name"`

	// Conversation fields (Type == RecordConversation).
	Question string  `json:"question,omitempty" db:"question"`
	Answer   string  `json:"answer,omitempty" db:"answer"`
	RAGType  RAGType `json:"rag_type,omitempty" db:"rag_type"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the record's discriminant and required fields for its kind.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record ID cannot be empty")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("unknown record type: %q", r.Type)
	}
	switch r.Type {
	case RecordPDFChunk:
		if r.Text == "" {
			return fmt.Errorf("chunk record text cannot be empty")
		}
		if r.PageNumber <= 0 {
			return fmt.Errorf("chunk record page number must be positive, got %d", r.PageNumber)
		}
	case RecordConversation:
		if !r.RAGType.Valid() {
			return fmt.Errorf("unknown rag type: %q", r.RAGType)
		}
	}
	return nil
}
