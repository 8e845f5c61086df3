/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errors

import "fmt"

// Error is the contract of the error values produced by this library.
// An Error carries a portable code, a message, an optional chain of parent
// errors and, when the failure originates in a syscall, the OS failure
// triplet: raw OS code, syscall name and logical call site.
//
// A nil Error means no failure. IsSet on a non-nil value reports true when
// it carries a code, a message or a parent; it exists so callers holding an
// Error variable can test it without comparing against nil at every site.
type Error interface {
	error

	// IsSet reports whether a real failure is present.
	IsSet() bool

	// Code returns the portable code of this error.
	Code() CodeError

	// IsCode reports whether this error carries the given code.
	IsCode(code CodeError) bool

	// HasCode reports whether this error or any parent carries the given code.
	HasCode(code CodeError) bool

	// CodeSlice returns the codes of this error and all its parents.
	CodeSlice() []CodeError

	// OSCode returns the raw OS error code, or 0 when the failure did not
	// come from a syscall.
	OSCode() int32

	// SysCall returns the short name of the syscall that failed. It may be
	// empty.
	SysCall() string

	// FailurePoint returns the tag identifying the logical call site of the
	// failure, like "Engine.SocketRead". It may be empty.
	FailurePoint() string

	// SetOS attaches the OS failure triplet to this error.
	SetOS(osCode int32, osMessage, failurePoint, sysCall string)

	// StringError returns the bare message of this error, without code,
	// OS data or parents.
	StringError() string

	// AddParent appends the given errors to the parent chain.
	AddParent(parent ...error)

	// IsError reports whether the given error has the same message.
	IsError(err error) bool

	// HasError reports whether this error or any parent matches the given
	// error message.
	HasError(err error) bool

	// HasParent reports whether at least one parent is attached.
	HasParent() bool

	// GetParent returns the flattened parent chain. If withMainError is
	// true the result starts with a copy of this error itself.
	GetParent(withMainError bool) []error

	// Is implements the errors.Is contract against Error values.
	Is(err error) bool

	// Unwrap exposes the parent chain to the standard errors package.
	Unwrap() []error
}

// New returns a new Error with the given code, message and optional
// parents. Nil parents are skipped.
func New(code uint16, message string, parent ...error) Error {
	e := &ers{
		c: code,
		e: message,
		p: nil,
	}

	e.AddParent(parent...)

	return e
}

// Newf returns a new Error with the given code and a message built from
// the given format pattern and args.
func Newf(code uint16, pattern string, args ...interface{}) Error {
	return New(code, fmt.Sprintf(pattern, args...))
}

// IfError returns a new Error only if at least one of the given parents is
// a valid, non-empty error. Otherwise, it returns nil.
func IfError(code uint16, message string, parent ...error) Error {
	var p = make([]error, 0)

	for _, v := range parent {
		if v == nil {
			continue
		} else if v.Error() == "" {
			continue
		}

		p = append(p, v)
	}

	if len(p) < 1 {
		return nil
	}

	return New(code, message, p...)
}

// Is reports whether err is a non-nil, set Error of this library.
func Is(err error) bool {
	if err == nil {
		return false
	}

	e, ok := err.(Error)
	return ok && e.IsSet()
}

// Get casts the given error to an Error of this library, or returns nil.
func Get(err error) Error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return e
	}

	return nil
}
