package ai

import "context"

// Generator defines the interface for one-shot AI text completion. The
// pipeline only needs raw text back; response shaping is the normalizer's
// job, not the adapter's.
type Generator interface {
	// GenerateText sends a prompt and returns the model's text reply.
	GenerateText(ctx context.Context, prompt string) (string, error)
}
