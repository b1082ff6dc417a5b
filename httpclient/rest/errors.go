package rest

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// KindBadRequest means the request could not be built.
	KindBadRequest ErrorKind = iota
	// KindNetwork means the transport failed before any response arrived.
	KindNetwork
	// KindParsing means the body was not even a bare envelope.
	KindParsing
	// KindUnknown covers server-reported errors and schema mismatches.
	KindUnknown
)

var kindNames = map[ErrorKind]string{
	KindBadRequest: "bad_request",
	KindNetwork:    "network",
	KindParsing:    "parsing",
	KindUnknown:    "unknown",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Default messages.
const (
	MessageUnknown          = "Unknown error"
	MessageUnexpectedFormat = "Response is not in expected format"
	MessageUnparseable      = "Unable to parse."
	MessageCanceled         = "request canceled"
)

// ErrNotConfigured is the panic value of calls made on a client without a
// base URL.
var ErrNotConfigured = errors.New("rest: client is not configured with a base URL")

// Error is the failure side of a Result.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("rest: %s: %s", e.Kind, e.Message)
}

// NewBadRequestError creates a request-construction error.
func NewBadRequestError(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// NewNetworkError creates a transport error.
func NewNetworkError(msg string) *Error {
	return &Error{Kind: KindNetwork, Message: msg}
}

// NewParsingError creates an error for an unparseable body.
func NewParsingError(msg string) *Error {
	return &Error{Kind: KindParsing, Message: msg}
}

// NewUnknownError creates a server-reported or schema-mismatch error.
func NewUnknownError(msg string) *Error {
	return &Error{Kind: KindUnknown, Message: msg}
}

// KindOf returns the kind of err if it is an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func hasKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsBadRequest checks if err is a request-construction error.
func IsBadRequest(err error) bool { return hasKind(err, KindBadRequest) }

// IsNetwork checks if err is a transport error.
func IsNetwork(err error) bool { return hasKind(err, KindNetwork) }

// IsParsing checks if err is a parsing error.
func IsParsing(err error) bool { return hasKind(err, KindParsing) }

// IsUnknown checks if err is a server-reported or schema-mismatch error.
func IsUnknown(err error) bool { return hasKind(err, KindUnknown) }
