// Package llm wraps the chat-completion backends used by the analysis
// providers behind a narrow JSON-in, JSON-out contract.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no credential is available for the
// selected backend.
var ErrNotConfigured = errors.New("llm backend not configured")

// Request is one completion call. The backend is asked to answer with a
// single JSON object.
type Request struct {
	SessionID string
	Kind      string
	System    string
	User      string
}

// Completer produces the raw JSON text answering a Request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
