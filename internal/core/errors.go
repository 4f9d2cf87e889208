package core

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure for callers. HTTP and CLI layers map kinds to
// status codes and exit messages.
type Kind string

const (
	KindInvalidDate      Kind = "invalid_date"
	KindInvalidRange     Kind = "invalid_range"
	KindStoreUnavailable Kind = "store_unavailable"
	KindTimeout          Kind = "timeout"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindValidation       Kind = "validation"
	KindInternal         Kind = "internal"
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindTimeout}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func InvalidDateError(op, input string, err error) *Error {
	return &Error{Kind: KindInvalidDate, Op: op, Msg: fmt.Sprintf("invalid date %q", input), Err: err}
}

func InvalidRangeError(op, msg string) *Error {
	return &Error{Kind: KindInvalidRange, Op: op, Msg: msg}
}

func StoreUnavailableError(op string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Op: op, Msg: "ledger store unavailable", Err: err}
}

func TimeoutError(op string, err error) *Error {
	return &Error{Kind: KindTimeout, Op: op, Msg: "operation timed out", Err: err}
}

func NotFoundError(op, entity string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: entity + " not found"}
}

func ConflictError(op, msg string) *Error {
	return &Error{Kind: KindConflict, Op: op, Msg: msg}
}

func ValidationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
// Deadline errors without a classification are reported as timeouts.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// StoreError classifies a raw store failure: deadline and cancellation map to
// a timeout, already-classified errors pass through, anything else means the
// store could not serve the request.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(op, err)
	}
	return StoreUnavailableError(op, err)
}
