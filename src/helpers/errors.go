package helpers

import (
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PipelineError struct {
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Distinct error types mapping the pipeline's failure taxonomy:
// validation rejections, transform failures, transport/connection failures
// and storage failures.
type ValidationError struct{ PipelineError }
type TransformError struct{ PipelineError }
type ConnectionError struct{ PipelineError }
type StorageError struct{ PipelineError }

// -----------------------------------------------------------------------------

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{PipelineError{Message: fmt.Sprintf(format, args...)}}
}

func NewTransformError(cause error, format string, args ...interface{}) *TransformError {
	return &TransformError{PipelineError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func NewConnectionError(cause error, format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{PipelineError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}
