// Package mtsieveerr defines the typed error kinds the sieve engine can
// surface. main() maps a Kind to a process exit code instead of calling
// os.Exit from deep inside the engine.
package mtsieveerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a CoreError per spec.md section 7.
type Kind int

const (
	ConfigError Kind = iota
	ParseError
	IoError
	VerifyFailure
	TermCountMismatch
	RateBelowTarget
	UserInterrupt
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case ParseError:
		return "ParseError"
	case IoError:
		return "IoError"
	case VerifyFailure:
		return "VerifyFailure"
	case TermCountMismatch:
		return "TermCountMismatch"
	case RateBelowTarget:
		return "RateBelowTarget"
	case UserInterrupt:
		return "UserInterrupt"
	default:
		return "UnknownError"
	}
}

// CoreError is the typed error every engine boundary returns instead of
// exiting the process directly.
type CoreError struct {
	Kind  Kind
	Cause error
}

func (e *CoreError) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *CoreError) Unwrap() error { return e.Cause }

// Wrap builds a CoreError of the given kind, preserving the pkg/errors stack
// of cause if it has one.
func Wrap(kind Kind, cause error, msg string) *CoreError {
	return &CoreError{Kind: kind, Cause: errors.Wrap(cause, msg)}
}

// New builds a CoreError with a formatted message and no wrapped cause.
func New(kind Kind, format string, args ...interface{}) *CoreError {
	return &CoreError{Kind: kind, Cause: errors.Errorf(format, args...)}
}

// ExitCode maps a Kind to the process exit code specified in spec.md section 7.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *CoreError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case RateBelowTarget, UserInterrupt:
			return 0
		default:
			return 1
		}
	}
	return 1
}
