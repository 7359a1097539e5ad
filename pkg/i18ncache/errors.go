package i18ncache

import "fmt"

// Stable error codes carried by every cache error.
const (
	CodeValidation    = "cache_validation"
	CodeStorage       = "cache_storage"
	CodeSerialization = "cache_serialization"
)

// CacheError is the base error type for cache failures. Every error
// carries a stable code and optional structured details.
type CacheError struct {
	Code    string
	Message string
	Details map[string]any
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ValidationError indicates a malformed configuration or cache key.
// Surfaced synchronously; nothing is partially applied.
type ValidationError struct {
	CacheError
}

// NewValidationError creates a validation error with optional details.
func NewValidationError(message string, details map[string]any) *ValidationError {
	return &ValidationError{CacheError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
	}}
}

// StorageError indicates a persistence read or write failure. The cache
// logs these and keeps serving from memory.
type StorageError struct {
	CacheError
}

// NewStorageError wraps a persistence failure.
func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{CacheError{
		Code:    CodeStorage,
		Message: message,
		Cause:   cause,
	}}
}

// SerializationError indicates a snapshot serialize or deserialize
// failure.
type SerializationError struct {
	CacheError
}

// NewSerializationError wraps a serialization failure.
func NewSerializationError(message string, cause error) *SerializationError {
	return &SerializationError{CacheError{
		Code:    CodeSerialization,
		Message: message,
		Cause:   cause,
	}}
}
