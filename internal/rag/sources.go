package rag

import (
	"strings"

	"github.com/hyperjump/kurabe/internal/models"
)

// SplitAnswerSources splits generated text at the first "Sources:" marker.
// The part before the marker is the answer body; the marker and everything
// after it is the citations text. Text without a marker yields the whole
// body and the NoCitations sentinel. The function never fails: a missing
// section is a normal outcome, not an error.
func SplitAnswerSources(text string) (answer, citations string) {
	idx := strings.Index(text, models.SourcesMarker)
	if idx < 0 {
		return strings.TrimSpace(text), models.NoCitations
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx:])
}
