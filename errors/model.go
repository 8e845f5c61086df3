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

import (
	"strconv"
	"strings"
)

type ers struct {
	c uint16
	e string
	p []Error

	// OS failure triplet, zero valued unless the error comes from a syscall.
	o int32
	m string
	s string
	f string
}

func (e *ers) IsSet() bool {
	return e != nil && (e.c != 0 || e.e != "" || len(e.p) > 0)
}

func (e *ers) Code() CodeError {
	return CodeError(e.c)
}

func (e *ers) IsCode(code CodeError) bool {
	return e.c == code.Uint16()
}

func (e *ers) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}

	for _, p := range e.p {
		if p.HasCode(code) {
			return true
		}
	}

	return false
}

func (e *ers) CodeSlice() []CodeError {
	var r = []CodeError{e.Code()}

	for _, v := range e.p {
		if v.Code() > 0 {
			r = append(r, v.CodeSlice()...)
		}
	}

	return r
}

func (e *ers) OSCode() int32 {
	return e.o
}

func (e *ers) SysCall() string {
	return e.s
}

func (e *ers) FailurePoint() string {
	return e.f
}

func (e *ers) SetOS(osCode int32, osMessage, failurePoint, sysCall string) {
	e.o = osCode
	e.m = osMessage
	e.f = failurePoint
	e.s = sysCall
}

func (e *ers) StringError() string {
	return e.e
}

// Error renders the failure as a diagnostic string. An error carrying the
// OS triplet formats as:
//
//	Error: "<kind>" from <failure-point> calling <syscall>, which failed with: (<code>) "<os-message>"
//
// Other errors format as their message, with parent messages appended.
func (e *ers) Error() string {
	var b strings.Builder

	if e.s != "" || e.f != "" || e.o != 0 {
		b.WriteString("Error: \"")
		b.WriteString(e.e)
		b.WriteString("\" from ")
		b.WriteString(e.f)
		b.WriteString(" calling ")
		b.WriteString(e.s)
		b.WriteString(", which failed with: (")
		b.WriteString(strconv.Itoa(int(e.o)))
		b.WriteString(") \"")
		b.WriteString(e.m)
		b.WriteString("\"")
	} else {
		b.WriteString(e.e)
	}

	for _, p := range e.p {
		b.WriteString(", ")
		b.WriteString(p.Error())
	}

	return b.String()
}

func (e *ers) AddParent(parent ...error) {
	for _, v := range parent {
		if v == nil {
			continue
		}

		if er, ok := v.(Error); ok {
			e.p = append(e.p, er)
		} else {
			e.p = append(e.p, &ers{
				c: 0,
				e: v.Error(),
				p: nil,
			})
		}
	}
}

func (e *ers) IsError(err error) bool {
	if err == nil {
		return false
	}

	return strings.EqualFold(e.e, err.Error())
}

func (e *ers) HasError(err error) bool {
	if e.IsError(err) {
		return true
	}

	for _, p := range e.p {
		if p.HasError(err) {
			return true
		}
	}

	return false
}

func (e *ers) HasParent() bool {
	return len(e.p) > 0
}

func (e *ers) GetParent(withMainError bool) []error {
	var res = make([]error, 0)

	if withMainError {
		res = append(res, &ers{
			c: e.c,
			e: e.e,
			o: e.o,
			m: e.m,
			s: e.s,
			f: e.f,
		})
	}

	for _, er := range e.p {
		res = append(res, er.GetParent(true)...)
	}

	return res
}

func (e *ers) Is(err error) bool {
	if err == nil {
		return false
	}

	if er, ok := err.(Error); ok {
		if e.c != 0 && er.Code() == e.Code() {
			return true
		}

		return e.IsError(er)
	}

	return e.IsError(err)
}

func (e *ers) Unwrap() []error {
	if len(e.p) < 1 {
		return nil
	}

	var r = make([]error, 0, len(e.p))

	for _, v := range e.p {
		if v == nil {
			continue
		}

		r = append(r, v)
	}

	return r
}
