package ingest

import "net/http"

// Code classifies user-facing ingestion failures.
type Code string

const (
	CodeBadRequest           Code = "bad_request"
	CodePayloadTooLarge      Code = "payload_too_large"
	CodeMissingManifest      Code = "missing_manifest"
	CodeInvalidPlatform      Code = "invalid_platform"
	CodeInappropriateContent Code = "inappropriate_content"
	CodeUnauthorized         Code = "unauthorized"
	CodeNotFound             Code = "not_found"
	CodeStorageError         Code = "storage_error"
)

// Error is a taxonomy-coded failure. Message is safe to show to the
// client; Err carries the internal cause for logs only.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the code onto an HTTP response status. Storage and
// unknown codes collapse to 500 so internals never leak.
func (e *Error) Status() int {
	switch e.Code {
	case CodeBadRequest, CodePayloadTooLarge, CodeMissingManifest,
		CodeInvalidPlatform, CodeInappropriateContent:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func fail(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func storageError(err error) *Error {
	return &Error{Code: CodeStorageError, Message: "internal storage error", Err: err}
}
