package models

import "time"

// ConversationTurn is the recall-time projection of a stored conversation record.
// Similarity search order is not chronological; callers receive turns re-sorted
// ascending by Timestamp.
type ConversationTurn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}
