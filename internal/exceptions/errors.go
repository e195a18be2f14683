package exceptions

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindTransport Kind = iota + 1
	KindServer
	KindUnauthorized
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is the error type returned by the API layer. Message is the text
// the server supplied for display, empty when it sent none.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

func Server(status int, message string) *Error {
	if status == http.StatusUnauthorized {
		return &Error{Kind: KindUnauthorized, StatusCode: status, Message: message}
	}
	return &Error{Kind: KindServer, StatusCode: status, Message: message}
}

var (
	ErrAccessDenied     = errors.New("access denied")
	ErrThrottled        = errors.New("too many attempts")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Denied wraps ErrAccessDenied with the text shown to the user.
func Denied(text string) error {
	return &Error{Kind: KindServer, StatusCode: http.StatusForbidden, Message: text, Err: ErrAccessDenied}
}

func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsUnauthorized(err error) bool { return IsKind(err, KindUnauthorized) }

// Message returns the server-supplied text carried by err, or fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	switch {
	case errors.Is(err, ErrThrottled):
		return "Too many attempts, please wait and try again."
	case errors.Is(err, ErrNotAuthenticated):
		return "User not authenticated. Please log in."
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match."
	}
	return fallback
}
