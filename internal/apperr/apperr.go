// Package apperr defines the structured error taxonomy shared across the
// audio server. Lower layers either recover locally or return a tagged
// *Error; the command router is the only layer that turns one into a
// miniserver-wire response.
package apperr

import "net/http"

// Kind classifies an error into one of the taxonomy buckets from the
// server's error handling design. It drives the HTTP status mapping.
type Kind string

const (
	KindConfig    Kind = "CONFIG"    // missing/malformed config, unknown backend or provider key
	KindTransport Kind = "TRANSPORT" // connection refused, timeout, socket closed
	KindProtocol  Kind = "PROTOCOL"  // malformed vendor payload
	KindLookup    Kind = "LOOKUP"    // unknown id in provider/favorite/zone
	KindInvariant Kind = "INVARIANT" // e.g. slot discontinuity during reorder
	KindResource  Kind = "RESOURCE"  // disk full, permission denied
)

// Error is a structured application error with an HTTP status code.
// JSON field names follow the teacher's AppError shape for wire parity.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string { return e.Message }

// New builds an Error of the given kind with a default status for that kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Code: string(kind), Message: msg, Status: statusFor(kind)}
}

func statusFor(kind Kind) int {
	switch kind {
	case KindConfig:
		return http.StatusBadRequest
	case KindTransport:
		return http.StatusBadGateway
	case KindProtocol:
		return http.StatusBadGateway
	case KindLookup:
		return http.StatusNotFound
	case KindInvariant:
		return http.StatusConflict
	case KindResource:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Convenience constructors mirroring the teacher's models.ErrNotFound style.
var (
	NotFound    = func(msg string) *Error { return New(KindLookup, msg) }
	BadRequest  = func(msg string) *Error { return New(KindConfig, msg) }
	Transport   = func(msg string) *Error { return New(KindTransport, msg) }
	Protocol    = func(msg string) *Error { return New(KindProtocol, msg) }
	Invariant   = func(msg string) *Error { return New(KindInvariant, msg) }
	Resource    = func(msg string) *Error { return New(KindResource, msg) }
	Internal    = func(msg string) *Error { return &Error{Kind: KindResource, Code: "INTERNAL", Message: msg, Status: http.StatusInternalServerError} }
)

// As reports whether err is an *Error and returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
