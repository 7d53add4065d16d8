package models

import "time"

// Page is one page of extracted document text, upstream of chunking.
type Page struct {
	Text   string `json:"text"`
	Number int    `json:"number"`
}

// DocumentChunk is a contiguous span of one page's text, used for semantic retrieval.
type DocumentChunk struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	PageNumber int       `json:"page_number"`
	FileName   string    `json:"file_name,omitempty"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
