package llm

import "context"

// Options are the per-call generation parameters recorded alongside each
// ledger attempt.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator is the external text-generation collaborator. Implementations wrap
// a provider SDK; failures come back as plain errors and are classified by the
// caller.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}
