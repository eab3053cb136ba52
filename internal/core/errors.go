package core

import "errors"

// Error codes surfaced to clients. Only the password gate produces a
// wire-visible error; everything else in the protocol resolves to a
// silent no-op or a pointer reset.
const (
	ErrCodePasswordRequired  = "password_required"
	ErrCodePasswordIncorrect = "password_incorrect"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrClientNotFound  = errors.New("client not found")
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
