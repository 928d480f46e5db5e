package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a request failure so the transport layer can map it
// to a status without inspecting message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindRateLimited
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	}
	return "unknown"
}

// Error is a classified request failure. Field is set for validation
// failures, RetryAfter for rate-limit rejections.
type Error struct {
	Kind       Kind
	Msg        string
	Field      string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports bad input with field-level detail for the
// content-editing surface.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Field: field}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// RateLimited reports a quota rejection. retryAfter is advice for the
// caller's backoff; zero means no recommendation.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Msg: "too many posts, slow down", RetryAfter: retryAfter}
}

// UpstreamUnavailable wraps a dependency failure that the caller may
// retry with backoff.
func UpstreamUnavailable(err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Msg: "upstream unavailable", Err: err}
}

// KindOf returns the failure kind of err, or KindUnknown when err does
// not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
