// Package errkit declares the error-kind taxonomy shared across the
// ingestion pipeline, so callers can branch on kind with errors.As instead
// of string matching.
package errkit

import "fmt"

// Kind classifies a pipeline error for status-transition and retry logic.
type Kind string

const (
	// KindConfigMissing is a missing env var or unknown provider. Fatal at
	// startup.
	KindConfigMissing Kind = "CONFIG_MISSING"
	// KindAuthFailure is a provider or warehouse authentication failure.
	// Non-retryable; fails the current stage.
	KindAuthFailure Kind = "AUTH_FAILURE"
	// KindTransport is a timeout, 5xx, or connection error. Retried up to
	// max_attempts with backoff.
	KindTransport Kind = "TRANSPORT"
	// KindValidation is a trip schema mismatch. Counted per-trip; the block
	// still completes.
	KindValidation Kind = "VALIDATION"
	// KindNotFoundBlob is an Extract blob missing at DB-Sync time.
	KindNotFoundBlob Kind = "NOT_FOUND_BLOB"
	// KindPlatform is a Socrata upsert reporting errors > 0.
	KindPlatform Kind = "PLATFORM"
)

// Error is a typed pipeline error carrying a Kind plus provider/block
// context for logging.
type Error struct {
	Kind     Kind
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s[%s]: %v", e.Kind, e.Op, e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, errkit.Sentinel(errkit.KindTransport))-style
// matching by kind when the target is a bare Kind wrapped in an *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New wraps err with a Kind and operation label.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithProvider attaches a provider name to an existing *Error, returning a
// copy so the original is not mutated.
func WithProvider(err *Error, provider string) *Error {
	cp := *err
	cp.Provider = provider
	return &cp
}

// Sentinel returns a bare *Error usable as an errors.Is target for a kind,
// e.g. errors.Is(err, errkit.Sentinel(errkit.KindTransport)).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
