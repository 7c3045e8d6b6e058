package models

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies failures surfaced by the query service and pipeline.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindInvalidArgument     ErrorKind = "invalid_argument"
	KindStoreUnavailable    ErrorKind = "store_unavailable"
	KindUpstreamDataMissing ErrorKind = "upstream_data_missing"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
)

// Error is a classified domain error.
type Error struct {
	Kind      ErrorKind
	Op        string
	Msg       string
	Err       error
	retriable bool
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Unwrap returns underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Retriable reports whether retrying the same unit of work may succeed.
func (e *Error) Retriable() bool { return e.retriable }

// Details returns the underlying message without the op prefix.
func (e *Error) Details() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

// NotFound creates a NotFound error.
func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

// InvalidArgument creates an InvalidArgument error.
func InvalidArgument(op, msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: msg}
}

// StoreUnavailable wraps a store failure.
func StoreUnavailable(op string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Op: op, Err: err, retriable: IsTransient(err)}
}

// UpstreamDataMissing marks empty or malformed upstream data.
func UpstreamDataMissing(op, msg string) *Error {
	return &Error{Kind: KindUpstreamDataMissing, Op: op, Msg: msg}
}

// UpstreamUnavailable wraps a network/API failure of an upstream source.
func UpstreamUnavailable(op string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Op: op, Err: err, retriable: IsTransient(err)}
}

// KindOf returns the kind of err, or "" when err is not a domain error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a domain error of kind k.
func IsKind(err error, k ErrorKind) bool { return KindOf(err) == k }

// IsTransient reports network and timeout failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
