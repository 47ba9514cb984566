package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidFormat   = "invalid_format"
	ErrCodeInvalidLength   = "invalid_length"
	ErrCodeNameTaken       = "name_taken"
	ErrCodeNotLoggedIn     = "not_logged_in"
	ErrCodeAlreadyLoggedIn = "already_logged_in"
	ErrCodeUnknownRequest  = "unknown_request"
)

var (
	ErrInvalidFormat   = errors.New("username must contain only letters or digits")
	ErrInvalidLength   = errors.New("username must be 1 to 15 characters")
	ErrNameTaken       = errors.New("username already taken")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrClientClosed    = errors.New("client closed")
)

// CoreError wraps a code and the human-readable message shown to the client.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}
