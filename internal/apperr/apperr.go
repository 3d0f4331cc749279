// Package apperr defines the error taxonomy shared by every service. Kinds map
// to stable error codes that callers can branch on; the wrapped cause is kept
// for logging and never rendered into a public code.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindStorage
	KindToken
	KindNotFound
	KindForbidden
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeStorage    = "DATABASE_ERROR"
	CodeToken      = "TOKEN_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeForbidden  = "FORBIDDEN"
	CodeInternal   = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrToken      = &Error{Kind: KindToken}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindForbidden}
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.defaultMessage()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, ErrStorage) matches any
// storage error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Public returns the message safe to show to a caller. Storage and internal
// errors hide their cause.
func (e *Error) Public() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.defaultMessage()
	}
	switch e.Kind {
	case KindStorage, KindInternal:
		if e.Op != "" {
			return msg + " while " + e.Op
		}
		return msg
	default:
		return msg
	}
}

func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return CodeValidation
	case KindStorage:
		return CodeStorage
	case KindToken:
		return CodeToken
	case KindNotFound:
		return CodeNotFound
	case KindForbidden:
		return CodeForbidden
	default:
		return CodeInternal
	}
}

func (k Kind) defaultMessage() string {
	switch k {
	case KindValidation:
		return "invalid input"
	case KindStorage:
		return "database error"
	case KindToken:
		return "token error"
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	default:
		return "unexpected error"
	}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Token(msg string, err error) error {
	return &Error{Kind: KindToken, Msg: msg, Err: err}
}

// Storage wraps a backend failure. op reads as a gerund phrase, e.g.
// "saving comments". Errors that already carry a kind are passed through.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Code returns the stable error code for err.
func Code(err error) string {
	return KindOf(err).Code()
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Public()
	}
	return KindInternal.defaultMessage()
}
