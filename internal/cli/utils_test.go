package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kurabe/internal/models"
)

func sampleComparison() *ComparisonView {
	return &ComparisonView{
		Query: "how does onboarding work?",
		Traditional: &VariantView{
			RAGType: models.RAGTraditional,
			Answer:  "Onboarding takes one week.",
			Citations: []models.Citation{
				{PageNumber: 1, ChunkID: "chunk-1"},
			},
			CitationsText: "Sources:\nPage 1, Chunk ID: chunk-1",
		},
		Agentic: &VariantView{
			RAGType: models.RAGAgentic,
			Answer:  "New hires finish onboarding in their first week.",
			Citations: []models.Citation{
				{PageNumber: 1, ChunkID: "chunk-1"},
			},
		},
	}
}

func TestWriteComparison_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteComparison(&buf, sampleComparison(), OutputJSON); err != nil {
		t.Fatalf("WriteComparison(json): %v", err)
	}
	var decoded ComparisonView
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "how does onboarding work?" {
		t.Errorf("decoded query = %q", decoded.Query)
	}
	if decoded.Traditional == nil || decoded.Traditional.Answer != "Onboarding takes one week." {
		t.Errorf("decoded traditional = %+v", decoded.Traditional)
	}
	if decoded.Agentic == nil || len(decoded.Agentic.Citations) != 1 {
		t.Errorf("decoded agentic = %+v", decoded.Agentic)
	}
}

func TestWriteComparison_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteComparison(&buf, sampleComparison(), OutputText); err != nil {
		t.Fatalf("WriteComparison(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		"how does onboarding work?",
		"Traditional RAG",
		"Agentic RAG",
		"Onboarding takes one week.",
		"Page 1, Chunk ID: chunk-1",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteComparison_variantError(t *testing.T) {
	result := sampleComparison()
	result.Agentic = &VariantView{RAGType: models.RAGAgentic, Error: "request timed out"}
	var buf bytes.Buffer
	if err := WriteComparison(&buf, result, OutputText); err != nil {
		t.Fatalf("WriteComparison(text): %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Error: request timed out") {
		t.Errorf("expected variant error in output:\n%s", out)
	}
	if !strings.Contains(out, "Onboarding takes one week.") {
		t.Errorf("healthy variant should still render:\n%s", out)
	}
}

func TestWriteStatus_text(t *testing.T) {
	status := &StatusView{
		CurrentFile:   "handbook.pdf",
		Chunks:        12,
		Conversations: 4,
		Model:         "gpt-4o-mini",
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatalf("WriteStatus(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"handbook.pdf", "12", "4", "gpt-4o-mini"} {
		if !strings.Contains(out, sub) {
			t.Errorf("status output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteStatus_noDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatus(&buf, &StatusView{Model: "gpt-4o-mini"}, OutputText); err != nil {
		t.Fatalf("WriteStatus(text): %v", err)
	}
	if !strings.Contains(buf.String(), "(none uploaded)") {
		t.Errorf("expected placeholder for missing document:\n%s", buf.String())
	}
}

func TestWriteStatus_JSON(t *testing.T) {
	var buf bytes.Buffer
	status := &StatusView{Chunks: 3, Conversations: 1, Model: "scripted"}
	if err := WriteStatus(&buf, status, OutputJSON); err != nil {
		t.Fatalf("WriteStatus(json): %v", err)
	}
	var decoded StatusView
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded != *status {
		t.Errorf("decoded = %+v, want %+v", decoded, *status)
	}
}

