package core

// Error codes for domain errors.
const (
	ErrCodeNoAccess       = "no_access"
	ErrCodeInvalidStatus  = "invalid_status"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeInternal       = "internal_error"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
