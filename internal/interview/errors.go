package interview

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidTranscript marks malformed caller input. Not retryable.
	ErrInvalidTranscript = errors.New("invalid transcript")

	// ErrOracleUnavailable marks a failed or empty oracle call. Retrying
	// the same step is safe.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrOracleContractViolation marks oracle output that arrived but broke
	// the response contract.
	ErrOracleContractViolation = errors.New("oracle contract violation")
)

// ViolationError carries the reason an oracle reply was rejected and the
// raw content when there was any. It matches ErrOracleContractViolation.
type ViolationError struct {
	Reason  string
	Content json.RawMessage
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrOracleContractViolation, e.Reason)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrOracleContractViolation
}

// Violation builds a *ViolationError from a formatted reason.
func Violation(format string, args ...any) *ViolationError {
	return &ViolationError{Reason: fmt.Sprintf(format, args...)}
}
