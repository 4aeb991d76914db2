// seehuhn.de/go/postscript - a rudimentary PostScript interpreter
// Copyright (C) 2023  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package postscript

import (
	"errors"
	"fmt"
)

// These errors classify the failures reported by the interpreter.
// Use [errors.Is] to test an error returned by the interpreter against
// these values.
var (
	// ErrLex indicates a malformed token in the program text.
	ErrLex = errors.New("postscript: lexical error")

	// ErrParse indicates a token of the wrong kind in a place where a
	// particular kind is required, for example a missing "end…" keyword.
	ErrParse = errors.New("postscript: parse error")

	// ErrCast indicates that an operand has the wrong type.
	ErrCast = errors.New("postscript: wrong operand type")

	// ErrUnsupported indicates an operator or argument combination which
	// is outside the subset implemented by this package.
	ErrUnsupported = errors.New("postscript: unsupported operation")

	// ErrResourceNotFound is returned by a [ResourceLoader] if the
	// requested resource does not exist.
	ErrResourceNotFound = errors.New("postscript: resource not found")
)

// Error is an error raised while executing a PostScript program.
type Error struct {
	// Name is the PostScript error name, for example "typecheck".
	Name Name

	// Msg describes the error.  By convention, the message starts with
	// the name of the operator which raised the error.
	Msg string

	class error
	cause error
}

func (err *Error) Error() string {
	if err.Msg == "" {
		return string(err.Name)
	}
	return err.Msg + " (" + string(err.Name) + ")"
}

// Is reports whether the error belongs to the given class.
func (err *Error) Is(target error) bool {
	return err.class != nil && target == err.class
}

func (err *Error) Unwrap() error {
	return err.cause
}

// e creates a new error.  The error class is derived from the error name.
func (intp *Interpreter) e(name Name, format string, args ...interface{}) error {
	return newError(name, classOf(name), format, args...)
}

func newError(name Name, class error, format string, args ...interface{}) *Error {
	return &Error{
		Name:  name,
		Msg:   fmt.Sprintf(format, args...),
		class: class,
	}
}

func classOf(name Name) error {
	switch name {
	case eSyntaxerror:
		return ErrLex
	case eTypecheck:
		return ErrCast
	default:
		return nil
	}
}

// lexError reports a malformed token.
func lexError(format string, args ...interface{}) *Error {
	return newError(eSyntaxerror, ErrLex, format, args...)
}

// parseError reports a token which is not valid in its context.
func parseError(format string, args ...interface{}) *Error {
	return newError(eSyntaxerror, ErrParse, format, args...)
}

// unsupported reports an operation outside the implemented subset.
func unsupported(format string, args ...interface{}) *Error {
	return newError(eUndefined, ErrUnsupported, format, args...)
}

// withCause attaches an underlying error, for example io.ErrUnexpectedEOF.
func (err *Error) withCause(cause error) *Error {
	err.cause = cause
	return err
}

const (
	eDictstackoverflow  Name = "dictstackoverflow"
	eDictstackunderflow Name = "dictstackunderflow"
	eInvalidaccess      Name = "invalidaccess"
	eInvalidexit        Name = "invalidexit"
	eInvalidfileaccess  Name = "invalidfileaccess"
	eInvalidfont        Name = "invalidfont"
	eIoerror            Name = "ioerror"
	eLimitcheck         Name = "limitcheck"
	eRangecheck         Name = "rangecheck"
	eStackunderflow     Name = "stackunderflow"
	eSyntaxerror        Name = "syntaxerror"
	eTypecheck          Name = "typecheck"
	eUndefined          Name = "undefined"
	eUndefinedresource  Name = "undefinedresource"
	eUndefinedresult    Name = "undefinedresult"
	eUnmatchedmark      Name = "unmatchedmark"
)

var (
	errExit      = errors.New("exit")
	errCloseFile = errors.New("closefile")
)
