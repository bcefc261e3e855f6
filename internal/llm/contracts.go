package llm

import "context"

// Completer is the interface the pipeline depends on: one rendered prompt
// in, one completion out. Implementations make a single attempt; retry
// policy belongs to the caller.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
