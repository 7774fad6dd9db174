package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/skillforge/internal/llm"
)

// Kind classifies a failed generation call.
type Kind int

const (
	// Transport covers provider outages, network errors and cancellation.
	Transport Kind = iota
	// Timeout means the call outlived the gateway deadline.
	Timeout
	// Malformed means the provider answered but the payload was unusable.
	Malformed
)

func (k Kind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Malformed:
		return "malformed"
	default:
		return "transport"
	}
}

// Error is the only error a Gateway request returns for a failed call.
// Callers are expected to substitute a deterministic fallback.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("generation %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a generation *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == k
}

func malformed(op string, err error) *Error {
	return &Error{Kind: Malformed, Op: op, Err: err}
}

// classify maps a provider error onto a Kind.
func classify(op string, err error) *Error {
	var (
		inv    *llm.ErrInvalidResponse
		maxTok *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: Timeout, Op: op, Err: err}
	case errors.As(err, &inv), errors.As(err, &maxTok):
		return &Error{Kind: Malformed, Op: op, Err: err}
	default:
		return &Error{Kind: Transport, Op: op, Err: err}
	}
}
