package transcribe

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable code attached to every error this
// library raises. Callers branch on the kind rather than parsing messages.
type ErrorKind string

const (
	KindNetworkError     ErrorKind = "network_error"
	KindJSONError        ErrorKind = "json_error"
	KindAPIError         ErrorKind = "api_error"
	KindNotInitialized   ErrorKind = "not_initialized"
	KindTimeout          ErrorKind = "timeout"
	KindConnectionClosed ErrorKind = "connection_closed"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindUnexpectedError  ErrorKind = "unexpected_error"
)

// Error is the single structured error type returned by every operation.
// ServerCode carries the service's own numeric code when Code is KindAPIError.
type Error struct {
	Code       ErrorKind
	Message    string
	ServerCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsKind reports whether err is a library error with the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == kind
}

func networkError(format string, args ...any) *Error {
	return &Error{Code: KindNetworkError, Message: fmt.Sprintf(format, args...)}
}

func jsonError(err error) *Error {
	return &Error{Code: KindJSONError, Message: fmt.Sprintf("malformed response: %v", err)}
}

func apiError(serverCode int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("server reported error %d", serverCode)
	}
	return &Error{Code: KindAPIError, Message: message, ServerCode: serverCode}
}

func notInitialized(op string) *Error {
	return &Error{Code: KindNotInitialized, Message: op + " requires a started stream"}
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Code: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func unexpectedError(format string, args ...any) *Error {
	return &Error{Code: KindUnexpectedError, Message: fmt.Sprintf(format, args...)}
}

func timeoutError(format string, args ...any) *Error {
	return &Error{Code: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

func connectionClosed() *Error {
	return &Error{Code: KindConnectionClosed, Message: "connection closed"}
}

// contextError maps a context failure observed while waiting on the network
// or a retry backoff.
func contextError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError("deadline exceeded: %v", err)
	}
	return unexpectedError("operation canceled: %v", err)
}
