package llm

import "context"

// Provider performs one chat completion against a generation backend.
// Implementations return the complete response text or an error — never a
// partial stream; streamed backends buffer fully before returning.
type Provider interface {
	Chat(ctx context.Context, model, systemPrompt, prompt string) (string, error)
	Name() string
}
