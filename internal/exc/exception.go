// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"fmt"
	"go/token"
)

type Exception interface {
	error
	Code() string
	Message() string
	Location() Location
}

// Location is a position in a source file. Line and Column are 1-based and
// zero when unknown.
type Location struct {
	URI    string
	Line   int
	Column int
	Offset int
}

// LocationOf converts a go/token position into a Location.
func LocationOf(p token.Position) Location {
	return Location{
		URI:    p.Filename,
		Line:   p.Line,
		Column: p.Column,
		Offset: p.Offset,
	}
}

// Shift returns the location n bytes further along the same line.
func (l Location) Shift(n int) Location {
	l.Column = l.Column + n
	l.Offset = l.Offset + n
	return l
}

type exc struct {
	code     string
	message  string
	location Location
}

func (e *exc) Error() string {
	return fmt.Sprintf("%s:%d:%d -- %s: %s", e.location.URI, e.location.Line, e.location.Column, e.code, e.message)
}

func (e *exc) Code() string {
	return e.code
}

func (e *exc) Message() string {
	return e.message
}

func (e *exc) Location() Location {
	return e.location
}

type excUnwrap struct {
	Exception
	cause error
}

func (e *excUnwrap) Unwrap() error {
	return e.cause
}

func New(location Location, code string, message string) Exception {
	return &exc{
		location: location,
		message:  message,
		code:     code,
	}
}

// Newf is New with a formatted message.
func Newf(location Location, code string, format string, args ...interface{}) Exception {
	return New(location, code, fmt.Sprintf(format, args...))
}

func Wrap(location Location, code string, err error) Exception {
	if err == nil {
		return nil
	}
	if e, ok := err.(Exception); ok {
		return &excUnwrap{
			Exception: New(location, code, e.Message()),
			cause:     e,
		}
	}
	return &excUnwrap{
		cause:     err,
		Exception: New(location, code, err.Error()),
	}
}

func WrapUnknown(location Location, err error) Exception {
	return Wrap(location, CodeUnknownFatal, err)
}
