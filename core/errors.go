package core

import "fmt"

// ErrKind classifies a failure the way spec.md §7 taxonomizes them, so HTTP
// handlers can map a Failure straight to a status code without re-deriving
// the category from an error string.
type ErrKind uint8

const (
	// ErrInput covers empty bodies and missing query parameters (HTTP 400).
	ErrInput ErrKind = iota
	// ErrAdmission covers rate-limit denial (HTTP 429).
	ErrAdmission
	// ErrVerify covers parse failures, signature failures, and DAG
	// invariant violations (HTTP 500).
	ErrVerify
	// ErrTransport covers client-side connection/timeout failures (HTTP 503
	// at the boundary; client-side callers see a {error: ...} map instead).
	ErrTransport
)

// Failure pairs an ErrKind with a human-readable message. It implements
// error so it composes with fmt.Errorf/%w like any other Go error.
type Failure struct {
	Kind    ErrKind
	Message string
}

func (f *Failure) Error() string { return f.Message }

// Fail constructs a *Failure.
func Fail(kind ErrKind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
