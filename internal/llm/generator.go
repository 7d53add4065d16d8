// Package llm provides text generation over OpenAI-compatible chat APIs.
package llm

import "context"

// GenerateOptions controls a single generation call.
type GenerateOptions struct {
	// MaxTokens caps the completion length; 0 means provider default.
	MaxTokens int

	// Temperature controls sampling randomness. It is always sent, so 0
	// requests deterministic output rather than the provider default.
	Temperature float64
}

// Generator produces text completions from prompts.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string
	Close() error
}
