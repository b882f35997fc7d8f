package apperrors

import (
	"errors"
	"fmt"
)

// Error is a coded application error. Message is safe to show to clients;
// Cause is kept for logs only.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// New returns an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with the given code and message that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Internal wraps a storage or infrastructure failure.
func Internal(message string, cause error) *Error {
	return Wrap(CodeInternal, message, cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same code, so sentinel-style checks work:
// errors.Is(err, apperrors.New(apperrors.CodeTeamNotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind returns the category of the error code.
func (e *Error) Kind() Kind { return e.Code.Kind() }

// WithMetadata returns a copy of e with key=value added to its metadata.
func (e *Error) WithMetadata(key, value string) *Error {
	cp := *e
	cp.Metadata = make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// KindOf returns the category of err; non-coded errors are Internal.
func KindOf(err error) Kind {
	return GetCode(err).Kind()
}

// As returns the *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
