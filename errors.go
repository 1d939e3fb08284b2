package uci

import (
	"errors"
	"fmt"
)

// Kind identifies the class of failure returned by a Context operation.
type Kind string

const (
	// KindNotFound indicates a path that does not resolve to a complete element.
	KindNotFound Kind = "not_found"
	// KindUnsupportedType indicates a value of a shape that cannot be stored.
	KindUnsupportedType Kind = "unsupported_type"
	// KindInvalidArgument indicates a malformed call: bad names, wrong component count.
	KindInvalidArgument Kind = "invalid_argument"
	// KindInternal indicates a resolved pointer in a state the operation cannot act on.
	KindInternal Kind = "internal"
	// KindStorage indicates an I/O or parse failure while loading or persisting a package.
	KindStorage Kind = "storage"
	// KindNotImplemented indicates a reserved operation.
	KindNotImplemented Kind = "not_implemented"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrInternal        = &Error{Kind: KindInternal}
	ErrStorage         = &Error{Kind: KindStorage}
	ErrNotImplemented  = &Error{Kind: KindNotImplemented}
)

// Error is the single failure type returned by the engine.
type Error struct {
	Kind    Kind
	Message string
	// Package names the package the failure concerns, if any.
	Package string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Package != "" {
		msg += fmt.Sprintf(" (package %q)", e.Package)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap gives errors.Is/As access to the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error) //nolint:errorlint // comparing kinds, not chains
	if !ok || e == nil {
		return false
	}

	return e.Kind == t.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr.Kind
	}

	return ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(p Path) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("entry %q not found", p.String()), Package: p.Package}
}

func storageError(pkg, msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Package: pkg, Err: err}
}

// ParseError describes a malformed line in a config or delta file.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}

	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}
