// Package resilience wraps calls to remote inference services with retry,
// backoff, error classification and a bounded log of terminal failures.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Kind classifies a failure for retry purposes.
type Kind string

// Failure kinds.
const (
	// KindClient covers bad input, missing credentials and policy rejections. Never retried.
	KindClient Kind = "client"
	// KindTransient covers timeouts, network faults and 5xx responses.
	KindTransient Kind = "transient"
	// KindRateLimited is a throttling response, optionally carrying a retry hint.
	KindRateLimited Kind = "rate_limited"
	// KindProtocol is a response that does not match the expected shape. Never retried.
	KindProtocol Kind = "protocol"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrClient      = errors.New("client error")
	ErrTransient   = errors.New("transient error")
	ErrRateLimited = errors.New("rate limited")
	ErrProtocol    = errors.New("protocol error")
)

// Error is a classified failure from a remote call.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	RetryAfter time.Duration
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " [%d attempts]", e.Attempts)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrClient:
		return e.Kind == KindClient
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrProtocol:
		return e.Kind == KindProtocol
	}
	return false
}

// Client marks err as a non-retryable client error.
func Client(err error) *Error {
	return &Error{Kind: KindClient, Err: err}
}

// Transient marks err as retryable.
func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Err: err}
}

// RateLimited marks err as a throttling response with an optional retry hint.
func RateLimited(err error, retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, RetryAfter: retryAfter, Err: err}
}

// Protocol marks err as a malformed or unexpected response.
func Protocol(err error) *Error {
	return &Error{Kind: KindProtocol, Err: err}
}

// Protocolf formats a protocol error.
func Protocolf(format string, args ...any) *Error {
	return Protocol(fmt.Errorf(format, args...))
}

// Classify returns the failure kind of err.
// Errors that carry no classification are treated as client errors unless
// they are timeouts or network faults.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindClient
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindClient
}

// IsRetryable reports whether err is transient or rate limited.
func IsRetryable(err error) bool {
	switch Classify(err) {
	case KindTransient, KindRateLimited:
		return true
	}
	return false
}

// RetryAfterOf returns the retry hint carried by err, if any.
func RetryAfterOf(err error) time.Duration {
	var re *Error
	if errors.As(err, &re) {
		return re.RetryAfter
	}
	return 0
}

// AttemptsOf returns how many attempts produced err, or 0 if unknown.
func AttemptsOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Attempts
	}
	return 0
}
