package llm

import (
	"context"
	"sync"
)

// ScriptedGenerator is a test generator that returns canned responses in
// order and records every prompt it receives.
type ScriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
	err       error
}

// NewScriptedGenerator returns a generator that yields the given responses
// in sequence. After the script runs out, the last response repeats.
func NewScriptedGenerator(responses ...string) *ScriptedGenerator {
	return &ScriptedGenerator{responses: responses}
}

// Fail makes every subsequent Generate call return err.
func (g *ScriptedGenerator) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Generate records the prompt and returns the next scripted response.
func (g *ScriptedGenerator) Generate(ctx context.Context, prompt string, _ GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	resp := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return resp, nil
}

// Prompts returns a copy of all prompts seen so far.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}

// ModelName identifies the mock in logs and telemetry.
func (g *ScriptedGenerator) ModelName() string { return "scripted" }

// Close is a no-op.
func (g *ScriptedGenerator) Close() error { return nil }
