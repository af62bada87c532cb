// Package errs defines the error taxonomy shared across lyradb's storage,
// index, planning, and execution layers.
//
// Every operation that can fail returns one of the sentinel errors below, or
// a typed error that wraps one via errors.Is. Callers should match on the
// sentinel with errors.Is rather than on the concrete type, since the typed
// wrappers may gain fields over time.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors. Each typed error below wraps exactly one of these so
// errors.Is(err, errs.ErrXxx) works regardless of which constructor produced
// the error.
var (
	// ErrParse indicates a lexical or syntactic failure in SQL input.
	ErrParse = errors.New("parse error")
	// ErrName indicates an unknown table, column, or index.
	ErrName = errors.New("name error")
	// ErrType indicates incompatible types in an expression or a row arity mismatch.
	ErrType = errors.New("type error")
	// ErrArithmetic indicates division or modulo by zero.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrInvalidFrame indicates a corrupted codec frame, magic mismatch, or CRC mismatch.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrIO indicates a host I/O failure.
	ErrIO = errors.New("io error")
	// ErrCapacity indicates the buffer cache is full of pinned pages or a hash index is full.
	ErrCapacity = errors.New("capacity error")
	// ErrConflict indicates a duplicate table, index, or unique key.
	ErrConflict = errors.New("conflict error")
)

// ParseError carries source position context for a lexical/syntactic failure.
type ParseError struct {
	Line    int
	Col     int
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d near %q: %s", e.Line, e.Col, e.Token, e.Message)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// NameError identifies the missing table, column, or index.
type NameError struct {
	Kind string // "table", "column", "index"
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.Kind, e.Name)
}

func (e *NameError) Unwrap() error { return ErrName }

// TypeError identifies the expression or site where types did not agree.
type TypeError struct {
	Context string
	Message string
}

func (e *TypeError) Error() string {
	if e.Context == "" {
		return "type error: " + e.Message
	}

	return fmt.Sprintf("type error in %s: %s", e.Context, e.Message)
}

func (e *TypeError) Unwrap() error { return ErrType }

// ArithmeticError records the failing operator.
type ArithmeticError struct {
	Op string
}

func (e *ArithmeticError) Error() string { return fmt.Sprintf("%s by zero", e.Op) }

func (e *ArithmeticError) Unwrap() error { return ErrArithmetic }

// FrameError records why a codec frame was rejected.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string { return "invalid frame: " + e.Reason }

func (e *FrameError) Unwrap() error { return ErrInvalidFrame }

// IOError wraps a lower-level I/O failure with the path that failed.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("io error on %s: %v", e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, errs.ErrIO) to match IOError regardless of the
// wrapped cause.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// CapacityError describes which resource is exhausted.
type CapacityError struct {
	Resource string
}

func (e *CapacityError) Error() string { return fmt.Sprintf("%s at capacity", e.Resource) }

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// ConflictError names the duplicate entity.
type ConflictError struct {
	Kind string
	Name string
}

func (e *ConflictError) Error() string { return fmt.Sprintf("%s already exists: %s", e.Kind, e.Name) }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Common pre-built sentinel-wrapping errors used in hot paths where no extra
// context is needed beyond the sentinel itself.
var (
	ErrDivisionByZero = &ArithmeticError{Op: "division"}
	ErrModuloByZero   = &ArithmeticError{Op: "modulo"}
)
