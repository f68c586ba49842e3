// Package errs defines the error taxonomy shared by the sync core.
//
// Every component classifies its failures into one of four codes so the
// storage facade can decide what is recoverable (network, parse), what
// must surface to the caller (not found), and what is merely suspicious
// (conflict ambiguity). Wrapped stdlib errors are preserved via Unwrap.
package errs

import (
	"errors"
	"fmt"
)

// Code categorizes sync errors.
type Code string

const (
	// CodeNetwork indicates the remote store was unreachable or timed out.
	// Recovered locally; never fatal to a user-visible operation.
	CodeNetwork Code = "NETWORK_ERROR"

	// CodeNotFound indicates an id was missing from a lookup.
	// Surfaced to the caller; no retry.
	CodeNotFound Code = "NOT_FOUND"

	// CodeParse indicates a corrupted cached payload.
	// Recovered by treating the collection as empty.
	CodeParse Code = "PARSE_ERROR"

	// CodeConflictAmbiguity indicates a delta referenced a tombstoned id.
	// Resolved by tombstone precedence (delete wins) but logged, since it
	// may mask a legitimate re-creation.
	CodeConflictAmbiguity Code = "CONFLICT_AMBIGUITY"
)

// SyncError is a classified error raised by the sync core.
type SyncError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Collection names the affected collection, when known.
	Collection string

	// ID names the affected record, when known.
	ID string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Collection != "" && e.ID != "" {
		msg = fmt.Sprintf("%s (collection=%s, id=%s)", msg, e.Collection, e.ID)
	} else if e.Collection != "" {
		msg = fmt.Sprintf("%s (collection=%s)", msg, e.Collection)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// Network builds a NETWORK_ERROR wrapping err.
func Network(message string, err error) *SyncError {
	return &SyncError{Code: CodeNetwork, Message: message, Err: err}
}

// NotFound builds a NOT_FOUND for the given record.
func NotFound(collection, id string) *SyncError {
	return &SyncError{
		Code:       CodeNotFound,
		Message:    "record not found",
		Collection: collection,
		ID:         id,
	}
}

// Parse builds a PARSE_ERROR for a corrupted collection payload.
func Parse(collection string, err error) *SyncError {
	return &SyncError{
		Code:       CodeParse,
		Message:    "corrupted cached payload",
		Collection: collection,
		Err:        err,
	}
}

// ConflictAmbiguity builds a CONFLICT_AMBIGUITY for a tombstoned id.
func ConflictAmbiguity(collection, id string) *SyncError {
	return &SyncError{
		Code:       CodeConflictAmbiguity,
		Message:    "delta for tombstoned id suppressed",
		Collection: collection,
		ID:         id,
	}
}

// codeIs reports whether err is a SyncError with the given code.
// Uses errors.As to handle wrapped errors.
func codeIs(err error, code Code) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsNetwork reports whether err is a NETWORK_ERROR.
func IsNetwork(err error) bool { return codeIs(err, CodeNetwork) }

// IsNotFound reports whether err is a NOT_FOUND.
func IsNotFound(err error) bool { return codeIs(err, CodeNotFound) }

// IsParse reports whether err is a PARSE_ERROR.
func IsParse(err error) bool { return codeIs(err, CodeParse) }

// IsConflictAmbiguity reports whether err is a CONFLICT_AMBIGUITY.
func IsConflictAmbiguity(err error) bool { return codeIs(err, CodeConflictAmbiguity) }
