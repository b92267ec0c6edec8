package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors for logging and HTTP mapping.
type ErrorType string

const (
	ErrTypeFormat          ErrorType = "FORMAT"
	ErrTypeParsing         ErrorType = "PARSING"
	ErrTypeAuthentication  ErrorType = "AUTHENTICATION"
	ErrTypeDeserialization ErrorType = "DESERIALIZATION"
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeConfig          ErrorType = "CONFIG"
	ErrTypeInternal        ErrorType = "INTERNAL"
)

// Sentinel errors for the ingestion-and-protection pipeline. Callers
// match with errors.Is; AppError wraps these so the chain survives
// fmt.Errorf("%w") composition.
var (
	// ErrUnsupportedFormat: the input is neither a raw payload nor a
	// recognized archive.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidPayload: a raw payload failed the root-marker check.
	ErrInvalidPayload = errors.New("invalid payload format")

	// ErrPayloadNotFound: no payload entry was found in the archive.
	ErrPayloadNotFound = errors.New("payload not found in archive")

	// ErrParse: the payload document itself is not well formed. Bad
	// individual records are skipped and never raise this.
	ErrParse = errors.New("payload is not well-formed")

	// ErrAuthentication: AEAD tag verification failed. Wrong key,
	// wrong IV or tampered ciphertext all land here.
	ErrAuthentication = errors.New("authentication failed")

	// ErrDeserialization: the plaintext authenticated but could not be
	// decoded into the expected structure. Distinct from
	// ErrAuthentication so callers can tell a wrong key from a blob
	// that was valid ciphertext of garbage.
	ErrDeserialization = errors.New("decrypted payload is not valid")

	// ErrSessionNotFound: no live session is registered under the
	// requested ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionSealed: the session no longer accepts chunks.
	ErrSessionSealed = errors.New("session already sealed")
)

// AppError is the application error carrier: a type for classification,
// a human-readable message and an optional cause preserved for
// errors.Is / errors.As.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for diagnostics.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewFormatError wraps a container/format failure.
func NewFormatError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause)
}

// NewParsingError wraps a fatal document parse failure.
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewAuthenticationError wraps an AEAD verification failure.
func NewAuthenticationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeAuthentication, message, cause)
}

// NewDeserializationError wraps a post-decrypt decode failure.
func NewDeserializationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDeserialization, message, cause)
}

// NewValidationError creates a request validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not-found error for a named resource.
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(cause error) *AppError {
	return NewAppError(ErrTypeInternal, "internal error", cause)
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
