package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type ErrorCode string

const (
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeRetrievalFailure     ErrorCode = "RETRIEVAL_FAILURE"
	ErrCodeExtractionFailure    ErrorCode = "EXTRACTION_FAILURE"
	ErrCodeGenerationBlocked    ErrorCode = "GENERATION_BLOCKED"
	ErrCodeGenerationIncomplete ErrorCode = "GENERATION_INCOMPLETE"
	ErrCodeEmptyOutput          ErrorCode = "EMPTY_OUTPUT"
	ErrCodeMalformedOutput      ErrorCode = "MALFORMED_OUTPUT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"

	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRequestFailed ErrorCode = "LLM_REQUEST_FAILED"

	ErrCodeSearchTimeout       ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSearchRequestFailed ErrorCode = "SEARCH_REQUEST_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
)

// GenericApology is the only message shown to end users for failures that
// are not client visible.
const GenericApology = "⚠️ Ocorreu um erro ao processar a resposta da IA. Por favor, tente novamente."

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns the same error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewRetrievalFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalFailure,
		Message:   "Source retrieval failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExtractionFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailure,
		Message:   "Keyword extraction failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewGenerationBlockedError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationBlocked,
		Message:   fmt.Sprintf("A solicitação foi bloqueada por motivos de segurança: %s", reason),
		Details:   fmt.Sprintf("blockReason: %s", reason),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewGenerationIncompleteError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationIncomplete,
		Message:   fmt.Sprintf("A geração da resposta foi interrompida: %s", reason),
		Details:   fmt.Sprintf("finishReason: %s", reason),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEmptyOutputError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyOutput,
		Message:   "Model returned no text",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewMalformedOutputError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedOutput,
		Message:   "Model output did not match the expected shape",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM request timeout",
		Details:   fmt.Sprintf("LLM call exceeded %s timeout", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMRequestFailed,
		Message:   "LLM provider error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchTimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search provider timeout",
		Details:   fmt.Sprintf("provider: %s", provider),
		Retryable: false, // retrieval degrades to an empty result instead
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchRequestFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchRequestFailed,
		Message:   "Search provider error",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize unwraps err into a StandardError. Anything that is not already
// one becomes INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// Is reports whether err carries a StandardError with the given code.
func Is(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsClientVisible reports whether the error message may be shown to the
// end user verbatim.
func IsClientVisible(code ErrorCode) bool {
	switch code {
	case ErrCodeValidation, ErrCodeGenerationBlocked, ErrCodeGenerationIncomplete:
		return true
	default:
		return false
	}
}

func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation, ErrCodeGenerationBlocked:
		return http.StatusBadRequest
	case ErrCodeGenerationIncomplete:
		return http.StatusBadGateway
	case ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidation:
		return "CLIENT"
	case ErrCodeGenerationBlocked, ErrCodeGenerationIncomplete, ErrCodeEmptyOutput,
		ErrCodeMalformedOutput, ErrCodeLLMTimeout, ErrCodeLLMRequestFailed, ErrCodeExtractionFailure:
		return "GENERATION"
	case ErrCodeRetrievalFailure, ErrCodeSearchTimeout, ErrCodeSearchRequestFailed:
		return "RETRIEVAL"
	case ErrCodeDatabaseConnectionFailed, ErrCodeDatabaseInsertFailed:
		return "STORAGE"
	default:
		return "INTERNAL"
	}
}
