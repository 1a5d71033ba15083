package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMalformedIndex   ErrorType = "MALFORMED_INDEX"
	ErrTypeDuplicateKey     ErrorType = "DUPLICATE_KEY"
	ErrTypeTransform        ErrorType = "TRANSFORM"
	ErrTypePoolConstruction ErrorType = "POOL_CONSTRUCTION"
	ErrTypeTimeout          ErrorType = "TIMEOUT"
	ErrTypeCancelled        ErrorType = "CANCELLED"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeConfig           ErrorType = "CONFIG"
)

// Pipeline stages an error can be attributed to.
const (
	StageRead        = "read"
	StageReconstruct = "reconstruct"
	StageTransform   = "transform"
	StageWrite       = "write"
	StagePool        = "pool"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Stage   string
	Path    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.Stage != "" {
		prefix = fmt.Sprintf("[%s] %s", e.Type, e.Stage)
	}
	if e.Path != "" {
		prefix = fmt.Sprintf("%s %s", prefix, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithPath attributes the error to an input file.
func (e *AppError) WithPath(path string) *AppError {
	e.Path = path
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, stage, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewMalformedIndexError reports a reconstruction line whose index cell is not an integer.
func NewMalformedIndexError(line int, cell string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedIndex, StageReconstruct,
		fmt.Sprintf("line %d: cannot parse index %q", line, cell), cause).
		WithContext("line", line).
		WithContext("cell", cell)
}

// NewDuplicateKeyError reports a (timestamp, ID) pair seen twice while pivoting.
func NewDuplicateKeyError(timestamp, id string) *AppError {
	return NewAppError(ErrTypeDuplicateKey, StageTransform,
		fmt.Sprintf("duplicate entry for timestamp %q and ID %q", timestamp, id), nil).
		WithContext("timestamp", timestamp).
		WithContext("id", id)
}

// NewTransformError creates a coercion or shape error
func NewTransformError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTransform, StageTransform, message, cause)
}

// NewPoolConstructionError creates a batch-fatal pool error
func NewPoolConstructionError(message string, cause error) *AppError {
	return NewAppError(ErrTypePoolConstruction, StagePool, message, cause)
}

// NewTimeoutError creates a per-task timeout error
func NewTimeoutError(stage string, cause error) *AppError {
	return NewAppError(ErrTypeTimeout, stage, "task exceeded its deadline", cause)
}

// NewCancelledError creates an error for a task that was never run or was interrupted
func NewCancelledError(stage string, cause error) *AppError {
	return NewAppError(ErrTypeCancelled, stage, "task cancelled", cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(stage, message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, stage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, "", message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// StageOf returns the stage of the first AppError in err's chain.
func StageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Stage
	}
	return ""
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
