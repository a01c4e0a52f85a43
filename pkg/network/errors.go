package network

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeOutOfRange  = errors.New("node index out of range")
	ErrSelfLoop        = errors.New("self-loop not allowed")
	ErrAsymmetric      = errors.New("adjacency is not symmetric")
	ErrNonZeroDiagonal = errors.New("adjacency diagonal is not zero")
	ErrInvalidSize     = errors.New("invalid network size")
	ErrExhaustedSearch = errors.New("no eligible node")
)

// InvariantError describes a structural violation of the network. These are
// logic defects, never expected outcomes of a valid run.
type InvariantError struct {
	Op    string // Operation that detected the violation (e.g., "SetEdge", "Validate")
	Node  int    // First node involved
	Other int    // Second node involved, -1 when not applicable
	Cause error  // Underlying sentinel
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Other >= 0 {
		return fmt.Sprintf("%s (%d,%d): %v", e.Op, e.Node, e.Other, e.Cause)
	}
	return fmt.Sprintf("%s %d: %v", e.Op, e.Node, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *InvariantError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *InvariantError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// IsInvariantViolation reports whether err carries an InvariantError.
func IsInvariantViolation(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
