// Package generate derives question/answer pairs and summaries from a
// normalized document through a backend-agnostic text generation
// capability.
package generate

import (
	"context"
	"fmt"
)

// Constraints are passed through to the backend untouched; the core never
// branches on a specific backend's identity.
type Constraints struct {
	MaxTokens   int
	Temperature float64
}

// TextGenerator is the generation capability. modelRef selects the
// backend model at call time.
type TextGenerator interface {
	Complete(ctx context.Context, prompt, modelRef string, c Constraints) (string, error)
}

// Error reports a failed generation call.
type Error struct {
	Reason    string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
