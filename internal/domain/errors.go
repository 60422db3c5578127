package domain

import (
	"errors"
	"fmt"
)

// Business errors. The transport layer maps each to a typed response;
// none of them is fatal to the process.
var (
	// ErrDuplicateClaim reports a claim id collision in any of the
	// ledger's maps, not just the primary one.
	ErrDuplicateClaim = errors.New("claim already exists")

	// ErrClaimNotFound reports an operation against an unknown claim id.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrInvalidState reports an attempt to re-set an already-set
	// lifecycle field, e.g. a second remittance for the same claim.
	ErrInvalidState = errors.New("invalid claim state transition")
)

// IsDuplicateClaim reports whether err is a duplicate-claim rejection.
func IsDuplicateClaim(err error) bool { return errors.Is(err, ErrDuplicateClaim) }

// IsClaimNotFound reports whether err references an unknown claim.
func IsClaimNotFound(err error) bool { return errors.Is(err, ErrClaimNotFound) }

// IsInvalidState reports whether err is a lifecycle violation.
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }

// ParseError reports a malformed currency literal or wire pair.
type ParseError struct {
	Input string
	cause error
}

func (e *ParseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid currency amount %q: %v", e.Input, e.cause)
	}
	return fmt.Sprintf("invalid currency amount %q", e.Input)
}

func (e *ParseError) Unwrap() error { return e.cause }
