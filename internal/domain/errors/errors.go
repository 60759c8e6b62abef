// Package errors defines the discriminated error taxonomy the
// calculator returns. Every kind is a distinct struct so callers can
// recover it with errors.As and branch on it, matching the plain
// fmt.Errorf/%w style used throughout this module rather than a
// third-party errors package.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vsinha/mrp/internal/domain/entities"
)

// ConfigurationError means startup configuration (service URL, token,
// category id) was missing or invalid.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// TransportError means the inventory service could not be reached
// after the retry policy was exhausted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DataError means the calculation encountered data it cannot trust: an
// unresolvable part id. A cycle in the BOM graph is reported as
// CycleDetectedError instead, which ExitCode maps to the same code.
type DataError struct {
	Reason string
	PartId entities.PartId
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error for part %d: %s", e.PartId, e.Reason)
}

// NewNotFoundError wraps a part id the inventory service does not
// recognize into a fatal DataError. The conversion is not confined to
// one place: the orchestrator calls it during validation and bulk
// fetch, and the BOM engine calls it during both passes.
func NewNotFoundError(id entities.PartId) *DataError {
	return &DataError{Reason: "part not found in inventory service", PartId: id}
}

// CycleDetectedError means the same part appeared twice on one
// traversal path. The BOM graph is assumed acyclic; this is fatal.
type CycleDetectedError struct {
	Path []entities.PartId
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected in BOM graph: %v", e.Path)
}

// ValidationError means the caller's demand input was malformed: a
// non-assembly root, or a non-positive quantity.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// CanceledError and DeadlineExceededError wrap context cancellation so
// the Orchestrator can map them onto the exit codes of spec §6.4
// without inspecting context.Context directly at every call site.
type CanceledError struct{ Err error }

func (e *CanceledError) Error() string { return fmt.Sprintf("canceled: %v", e.Err) }
func (e *CanceledError) Unwrap() error { return e.Err }

type DeadlineExceededError struct{ Err error }

func (e *DeadlineExceededError) Error() string { return fmt.Sprintf("deadline exceeded: %v", e.Err) }
func (e *DeadlineExceededError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by the orchestrator onto the process
// exit codes of spec §6.4, looking through %w wrapping with errors.As.
// nil maps to 0 and an error of none of these kinds maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		configErr   *ConfigurationError
		transportEr *TransportError
		dataErr     *DataError
		cycleErr    *CycleDetectedError
		validErr    *ValidationError
		canceledErr *CanceledError
		deadlineErr *DeadlineExceededError
	)
	switch {
	case stderrors.As(err, &configErr):
		return 2
	case stderrors.As(err, &transportEr):
		return 3
	case stderrors.As(err, &dataErr), stderrors.As(err, &cycleErr), stderrors.As(err, &validErr):
		return 4
	case stderrors.As(err, &canceledErr), stderrors.As(err, &deadlineErr):
		return 5
	default:
		return 1
	}
}
