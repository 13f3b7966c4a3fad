package errors

// ErrorCode identifies an application error independently of its HTTP status.
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0
	ErrorCode_HTTP_OK     ErrorCode = 200

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1004
	ErrorCode_UNAVAILABLE      ErrorCode = 1005

	// Speech-to-text job lifecycle
	ErrorCode_STT_MISSING_CREDENTIAL   ErrorCode = 2000
	ErrorCode_STT_UPLOAD_FAILED        ErrorCode = 2001
	ErrorCode_STT_SUBMISSION_FAILED    ErrorCode = 2002
	ErrorCode_STT_TRANSCRIPTION_FAILED ErrorCode = 2003
	ErrorCode_STT_TIMEOUT              ErrorCode = 2004
	ErrorCode_STT_POLL_FAILED          ErrorCode = 2005
	ErrorCode_STT_CANCELLED            ErrorCode = 2006
	ErrorCode_STT_UNKNOWN_PROVIDER     ErrorCode = 2007

	// Transcripts
	ErrorCode_TRANSCRIPT_NOT_READY ErrorCode = 3000

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 4000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 4001
	ErrorCode_DB_QUERY_FAILED            ErrorCode = 4002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_UNAVAILABLE:                "UNAVAILABLE",
	ErrorCode_STT_MISSING_CREDENTIAL:     "STT_MISSING_CREDENTIAL",
	ErrorCode_STT_UPLOAD_FAILED:          "STT_UPLOAD_FAILED",
	ErrorCode_STT_SUBMISSION_FAILED:      "STT_SUBMISSION_FAILED",
	ErrorCode_STT_TRANSCRIPTION_FAILED:   "STT_TRANSCRIPTION_FAILED",
	ErrorCode_STT_TIMEOUT:                "STT_TIMEOUT",
	ErrorCode_STT_POLL_FAILED:            "STT_POLL_FAILED",
	ErrorCode_STT_CANCELLED:              "STT_CANCELLED",
	ErrorCode_STT_UNKNOWN_PROVIDER:       "STT_UNKNOWN_PROVIDER",
	ErrorCode_TRANSCRIPT_NOT_READY:       "TRANSCRIPT_NOT_READY",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies.
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
