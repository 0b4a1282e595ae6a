package core

import "context"

// Generator produces source code for a prompt. A transport failure surfaces
// as an error string in the return value, never as a panic or partial text:
// the training loop treats any non-empty string as code to evaluate, and the
// analyzers are expected to degrade gracefully on garbage input.
type Generator interface {
	Generate(ctx context.Context, prompt, model, systemPrompt string) string
}

// Evaluator scores one source file. A returned error means the file itself
// was unreadable; analysis failures never surface here — each category falls
// back to worst-case-safe defaults so callers branch on metric values only.
type Evaluator interface {
	Evaluate(ctx context.Context, codePath string) (EvaluationResult, error)
}

// FeedbackWriter turns an evaluation into the critique text that conditions
// the next generation round.
type FeedbackWriter interface {
	Generate(code string, result EvaluationResult, iteration int) string
}
