/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package aio

import "github.com/gekit/golib/errors"

const (
	ErrorParamEmpty errors.CodeError = iota + errors.MinPkgAio
	ErrorValidatorError
	ErrorEngineNotRunning
	ErrorEngineRestart
	ErrorHandleClosed
	ErrorHandleOpen
	ErrorHandleOtherOwner
	ErrorFamilyMismatch
	ErrorSubmitQueue
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorParamEmpty)
	errors.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return errors.NullMessage
	case ErrorParamEmpty:
		return "given parameters is empty"
	case ErrorValidatorError:
		return "config seems to be not valid"
	case ErrorEngineNotRunning:
		return "engine not running"
	case ErrorEngineRestart:
		return "cannot restart engine"
	case ErrorHandleClosed:
		return "handle is not open"
	case ErrorHandleOpen:
		return "handle is already open"
	case ErrorHandleOtherOwner:
		return "handle is owned by another engine"
	case ErrorFamilyMismatch:
		return "address family does not match socket family"
	case ErrorSubmitQueue:
		return "cannot post operation on completion queue"
	}

	return errors.NullMessage
}
