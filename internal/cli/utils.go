// Package cli provides CLI utilities for Kurabe.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kurabe/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// VariantView is one pipeline's answer as returned by the ask endpoint.
type VariantView struct {
	RAGType       models.RAGType    `json:"rag_type"`
	Answer        string            `json:"answer,omitempty"`
	Citations     []models.Citation `json:"citations,omitempty"`
	CitationsText string            `json:"citations_text,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// ComparisonView is the ask endpoint's response: both pipelines side by side.
type ComparisonView struct {
	Query       string       `json:"query"`
	Traditional *VariantView `json:"traditional"`
	Agentic     *VariantView `json:"agentic"`
}

// StatusView is the status endpoint's response.
type StatusView struct {
	CurrentFile   string `json:"current_file,omitempty"`
	Chunks        int    `json:"chunks"`
	Conversations int    `json:"conversations"`
	Model         string `json:"model"`
}

// WriteComparison writes both pipelines' answers to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteComparison(w io.Writer, result *ComparisonView, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(w, "\nQuery: %s\n", result.Query)
	writeVariantText(w, "Traditional RAG", result.Traditional)
	writeVariantText(w, "Agentic RAG", result.Agentic)
	return nil
}

func writeVariantText(w io.Writer, title string, v *VariantView) {
	fmt.Fprintf(w, "\n─── %s ───────────────────────────────────────\n", title)
	if v == nil {
		fmt.Fprintln(w, "(no result)")
		return
	}
	if v.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", v.Error)
		return
	}
	fmt.Fprintf(w, "%s\n", v.Answer)
	if len(v.Citations) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, c := range v.Citations {
			fmt.Fprintf(w, "  - %s\n", c.String())
		}
	}
}

// WriteStatus writes the server status to w in the given format.
func WriteStatus(w io.Writer, status *StatusView, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	if status.CurrentFile != "" {
		fmt.Fprintf(w, "Document:      %s\n", status.CurrentFile)
	} else {
		fmt.Fprintln(w, "Document:      (none uploaded)")
	}
	fmt.Fprintf(w, "Chunks:        %d\n", status.Chunks)
	fmt.Fprintf(w, "Conversations: %d\n", status.Conversations)
	fmt.Fprintf(w, "Model:         %s\n", status.Model)
	return nil
}
