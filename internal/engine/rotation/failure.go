package rotation

import (
	"errors"
	"fmt"
)

// Kind is the coarse failure class seen by callers of Execute.
type Kind int

const (
	// KindInvalidInput means the pool was empty; the user must configure keys.
	KindInvalidInput Kind = iota + 1
	// KindQuotaExhausted means every key from the start index onward hit its quota.
	KindQuotaExhausted
	// KindOperationError is any other failure of the underlying call.
	KindOperationError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindQuotaExhausted:
		return "quota_exhausted"
	case KindOperationError:
		return "operation_error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrNoCredentials is wrapped by KindInvalidInput failures.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrPoolExhausted is wrapped by KindQuotaExhausted failures.
	ErrPoolExhausted = errors.New("all credentials exhausted")
	// ErrQuotaExhausted lets an operation report quota exhaustion explicitly.
	// Wrap it (fmt.Errorf("...: %w", ErrQuotaExhausted)) to force rotation.
	ErrQuotaExhausted = errors.New("credential quota exhausted")
)

// Failure is the error returned by Execute.
type Failure struct {
	Kind     Kind
	Message  string
	Err      error
	Attempts int
}

func newFailure(kind Kind, err error, attempts int) *Failure {
	return &Failure{Kind: kind, Message: err.Error(), Err: err, Attempts: attempts}
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the failure kind carried by err, or 0 if err is not a *Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// ContentError marks a failure decided by the response content (a safety
// block, missing data, text where an image was expected). IsQuotaExhaustion
// always rejects it, whatever the wrapped message says.
type ContentError struct {
	Err error
}

func (e *ContentError) Error() string { return e.Err.Error() }

func (e *ContentError) Unwrap() error { return e.Err }

// NotQuota wraps err as a ContentError. A nil err stays nil.
func NotQuota(err error) error {
	if err == nil {
		return nil
	}
	return &ContentError{Err: err}
}

// NoCredentials returns the KindInvalidInput failure for an empty pool, for
// callers that check the pool before doing any other work.
func NoCredentials() *Failure {
	return newFailure(KindInvalidInput, ErrNoCredentials, 0)
}
