package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for store outcomes. Match them with errors.Is; the
// concrete error returned by a repository is a *StoreError.
var (
	// ErrNotFound indicates a lookup targeted a record that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a write violated a uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDuplicateToken indicates a session token is already held by
	// another user. It also matches ErrDuplicateKey.
	ErrDuplicateToken = errors.New("duplicate session token")

	// ErrWriteFailed indicates the store rejected or could not complete a
	// write for a reason other than a uniqueness conflict.
	ErrWriteFailed = errors.New("write failed")

	// ErrReadFailed indicates the store could not serve a read.
	ErrReadFailed = errors.New("read failed")
)

// Kind classifies a store failure.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindDuplicateKey
	KindDuplicateToken
	KindWriteFailed
	KindReadFailed
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindDuplicateKey:
		return ErrDuplicateKey
	case KindDuplicateToken:
		return ErrDuplicateToken
	case KindWriteFailed:
		return ErrWriteFailed
	case KindReadFailed:
		return ErrReadFailed
	}
	return nil
}

// String returns the name of the kind.
func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// StoreError is the typed failure returned by every repository operation.
type StoreError struct {
	Op   string // e.g. "users.insert"
	Kind Kind
	Err  error // driver error, may be nil for NotFound
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind. A duplicate
// token is also a duplicate key.
func (e *StoreError) Is(target error) bool {
	if target == e.Kind.sentinel() {
		return true
	}
	return e.Kind == KindDuplicateToken && target == ErrDuplicateKey
}

// Outcome is the tagged result of a store operation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeDuplicateKey
	OutcomeDuplicateToken
	OutcomeWriteFailed
	OutcomeReadFailed
	OutcomeUnknown
)

var outcomeNames = [...]string{
	OutcomeOK:             "ok",
	OutcomeNotFound:       "not_found",
	OutcomeDuplicateKey:   "duplicate_key",
	OutcomeDuplicateToken: "duplicate_token",
	OutcomeWriteFailed:    "write_failed",
	OutcomeReadFailed:     "read_failed",
	OutcomeUnknown:        "unknown",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// OutcomeOf derives the outcome of an operation from its returned error.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrDuplicateToken):
		return OutcomeDuplicateToken
	case errors.Is(err, ErrDuplicateKey):
		return OutcomeDuplicateKey
	case errors.Is(err, ErrWriteFailed):
		return OutcomeWriteFailed
	case errors.Is(err, ErrReadFailed):
		return OutcomeReadFailed
	}
	return OutcomeUnknown
}
