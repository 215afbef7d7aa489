package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Pipeline errors
	CodeMissingInput         ErrorCode = "MISSING_INPUT"
	CodeExtractionFailed     ErrorCode = "EXTRACTION_FAILED"
	CodeEmptyDocument        ErrorCode = "EMPTY_DOCUMENT"
	CodeUnsupportedMediaType ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	CodeGenerationFailed     ErrorCode = "GENERATION_FAILED"
	CodeMissingCredential    ErrorCode = "MISSING_CREDENTIAL"

	// Session state errors
	CodeNoQuizContext        ErrorCode = "NO_QUIZ_CONTEXT"
	CodeBusy                 ErrorCode = "BUSY"
	CodeQuizAlreadyGenerated ErrorCode = "QUIZ_ALREADY_GENERATED"
	CodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface. The cause is never serialized.
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a key/value pair that is returned to the client as error details.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether err is (or wraps) a DomainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Helper functions for common errors

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewMissingInputError(field string) *DomainError {
	return NewError(CodeMissingInput, fmt.Sprintf("%s is required", field), nil).WithContext("field", field)
}

func NewExtractionFailedError(cause error) *DomainError {
	return NewError(CodeExtractionFailed, "Failed to extract text from the document", cause)
}

func NewEmptyDocumentError() *DomainError {
	return NewError(CodeEmptyDocument, "Document contains no extractable text", nil)
}

func NewUnsupportedMediaTypeError(mediaType string) *DomainError {
	return NewError(CodeUnsupportedMediaType, fmt.Sprintf("Unsupported document type: %s", mediaType), nil).
		WithContext("media_type", mediaType)
}

func NewGenerationFailedError(cause error) *DomainError {
	return NewError(CodeGenerationFailed, "Failed to generate a response", cause)
}

func NewMissingCredentialError(provider string) *DomainError {
	return NewError(CodeMissingCredential, "Generation service credential is not configured", nil).
		WithContext("provider", provider)
}

func NewNoQuizContextError() *DomainError {
	return NewError(CodeNoQuizContext, "No quiz has been generated for this session yet", nil)
}

func NewBusyError() *DomainError {
	return NewError(CodeBusy, "Another request is already in progress for this session", nil)
}

func NewQuizAlreadyGeneratedError() *DomainError {
	return NewError(CodeQuizAlreadyGenerated, "A quiz has already been generated for this session", nil)
}

func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewError(CodeSessionNotFound, fmt.Sprintf("Session not found: %s", sessionID), nil)
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors collects every problem found in a request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeInvalidFormat,
		Message: fmt.Sprintf("%s has an invalid format", field),
		Value:   value,
	}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("%s must be between %d and %d", field, min, max),
		Value:   value,
	}
}
