// Package gopastaerr provides a structured error type for the scanner
// pipeline, carrying enough context (offset, link, code) to be reported
// without re-parsing the message string.
package gopastaerr

import (
	"errors"
	"fmt"
)

// Code represents a high-level error category.
type Code string

const (
	CodeInvalidInput    Code = "invalid input"
	CodeUnsupportedRDH  Code = "unsupported rdh version"
	CodeBadOffset       Code = "offset out of range"
	CodeReadFailure     Code = "read failure"
	CodeUserError       Code = "invalid usage"
	CodeShutdown        Code = "shutdown requested"
)

// Error is a structured fatal/user error with context.
type Error struct {
	Op     string // operation that failed (e.g. "scan", "preprocess")
	Code   Code   // high-level category
	Offset uint64 // absolute byte offset, 0 if not applicable
	LinkID int    // link id, -1 if not applicable
	Msg    string
	Fatal  bool
	Inner  error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Offset != 0 {
		parts = append(parts, fmt.Sprintf("offset=0x%X", e.Offset))
	}
	if e.LinkID >= 0 {
		parts = append(parts, fmt.Sprintf("link=%d", e.LinkID))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("gopasta: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("gopasta: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// New creates a structured error with no offset/link context.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg, LinkID: -1}
}

// NewFatal creates a structured fatal error.
func NewFatal(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg, LinkID: -1, Fatal: true}
}

// NewAtOffset creates a structured error tagged with an absolute offset.
func NewAtOffset(op string, code Code, offset uint64, msg string) *Error {
	return &Error{Op: op, Code: code, Offset: offset, LinkID: -1, Msg: msg}
}

// Wrap attaches operation context to an existing error.
func Wrap(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	var e *Error
	if errors.As(inner, &e) {
		return &Error{Op: op, Code: e.Code, Offset: e.Offset, LinkID: e.LinkID, Msg: e.Msg, Fatal: e.Fatal, Inner: e.Inner}
	}
	return &Error{Op: op, Code: CodeReadFailure, Msg: inner.Error(), LinkID: -1, Inner: inner}
}

// IsFatal reports whether err is a structured fatal error.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Fatal
	}
	return false
}

// IsCode reports whether err matches a specific error code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
