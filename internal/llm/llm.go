package llm

import "context"

// Generator is a pluggable prompt completion backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
