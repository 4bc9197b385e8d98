package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies a failed analysis.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindUpstream
	KindStorage
	KindComputation
)

// Sentinels for errors.Is checks against *Error.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream error")
	ErrStorage      = errors.New("storage error")
	ErrComputation  = errors.New("computation error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindUpstream:
		return ErrUpstream
	case KindStorage:
		return ErrStorage
	case KindComputation:
		return ErrComputation
	}
	return nil
}

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstream:
		return "upstream"
	case KindStorage:
		return "storage"
	case KindComputation:
		return "computation"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every failed ProduceAnalysis call.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func invalidInputErr(err error) *Error {
	return &Error{Kind: KindInvalidInput, Cause: err}
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
