package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"
)

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// Detail returns a detail value, or "" when it is not set
func (e AppError) Detail(key string) string {
	return e.Details[key]
}

// HasCode reports whether err is (or wraps) an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first AppError in err's chain
func CodeOf(err error) ErrorCode {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Code
	}
	if err == nil {
		return ErrorCode_UNSPECIFIED
	}
	return ErrorCode_INTERNAL
}

func newAppError(httpCode int, code ErrorCode, message string, raw error) AppError {
	return AppError{
		Raw:       raw,
		HTTPCode:  httpCode,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// General Errors
func ErrInternal(err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_INTERNAL, "Internal server error", err)
}

func ErrInvalidArgument(message string) AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_ARGUMENT, message, nil)
}

func ErrNotFound(resource string) AppError {
	return newAppError(http.StatusNotFound, ErrorCode_NOT_FOUND, fmt.Sprintf("%s not found", resource), nil)
}

func ErrInvalidPayload() AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_PAYLOAD, "Invalid payload", nil)
}

func ErrServiceUnavailable(message string) AppError {
	return newAppError(http.StatusServiceUnavailable, ErrorCode_UNAVAILABLE, message, nil)
}

// Speech-to-text Errors

// ErrMissingCredential is returned before any network call when the provider has no API key.
func ErrMissingCredential(provider string) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_STT_MISSING_CREDENTIAL,
		"Speech-to-text credential is not configured", nil).
		WithDetail("provider", provider)
}

// ErrUnreadableAudio is returned when the local audio file cannot be read.
func ErrUnreadableAudio(path string, err error) AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_ARGUMENT,
		"Audio file is not readable", err).
		WithDetail("file_path", path)
}

// ErrUploadFailed carries the raw upload response when no asset reference came back.
func ErrUploadFailed(payload string, err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_STT_UPLOAD_FAILED,
		"Failed to upload audio file", err).
		WithDetail("payload", payload)
}

// ErrSubmissionFailed carries the raw submission response when no result reference came back.
func ErrSubmissionFailed(payload string, err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_STT_SUBMISSION_FAILED,
		"Failed to initiate transcription", err).
		WithDetail("payload", payload)
}

// ErrTranscriptionFailed carries the raw poll payload of a job the server reported as failed.
func ErrTranscriptionFailed(payload string) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_STT_TRANSCRIPTION_FAILED,
		"Transcription failed", nil).
		WithDetail("payload", payload)
}

// ErrTranscriptionTimeout is returned when the poll loop exhausts its attempts or deadline.
func ErrTranscriptionTimeout(attempts int, elapsed time.Duration) AppError {
	return newAppError(http.StatusGatewayTimeout, ErrorCode_STT_TIMEOUT,
		"Transcription did not finish in time", nil).
		WithDetail("attempts", fmt.Sprintf("%d", attempts)).
		WithDetail("elapsed", elapsed.Truncate(time.Millisecond).String())
}

func ErrPollFailed(payload string, err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_STT_POLL_FAILED,
		"Failed to fetch transcription result", err).
		WithDetail("payload", payload)
}

func ErrTranscriptionCancelled(err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_STT_CANCELLED,
		"Transcription cancelled", err)
}

func ErrUnknownProvider(name string) AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_STT_UNKNOWN_PROVIDER,
		"Unknown speech-to-text provider", nil).
		WithDetail("provider", name)
}

// Transcript Errors
func ErrTranscriptNotFound(jobID string) AppError {
	return ErrNotFound("Transcription job").WithDetail("job_id", jobID)
}

func ErrTranscriptNotReady(jobID, state string) AppError {
	return newAppError(http.StatusConflict, ErrorCode_TRANSCRIPT_NOT_READY,
		"Transcript is not ready", nil).
		WithDetail("job_id", jobID).
		WithDetail("state", state)
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_INTEGRATION_STORAGE_FAILED,
		fmt.Sprintf("Storage operation failed: %s", operation), err)
}

func ErrCacheFailed(operation string, err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_INTEGRATION_CACHE_FAILED,
		fmt.Sprintf("Cache operation failed: %s", operation), err)
}

// Database Errors
func ErrDBQueryFailed(query string, err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_DB_QUERY_FAILED,
		"Database query failed", err).
		WithDetail("query", query)
}
