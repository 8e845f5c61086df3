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

package httpd

import "strings"

// Method is the HTTP request method of a parsed request.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodTrace
)

// ParseMethod maps a request method token, case insensitively.
func ParseMethod(s string) Method {
	switch strings.ToUpper(s) {
	case "GET":
		return MethodGet
	case "HEAD":
		return MethodHead
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "DELETE":
		return MethodDelete
	case "TRACE":
		return MethodTrace
	default:
		return MethodUnknown
	}
}

// String returns the canonical token of the Method value.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodHead:
		return "HEAD"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodTrace:
		return "TRACE"
	default:
		return ""
	}
}

// HasBody reports whether the method requires a Content-Length header.
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut
}

// Protocol is the HTTP protocol version of a parsed request.
type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	Protocol10
	Protocol11
)

// ParseProtocol maps a protocol token, case insensitively.
func ParseProtocol(s string) Protocol {
	switch strings.ToUpper(s) {
	case "HTTP/1.0":
		return Protocol10
	case "HTTP/1.1":
		return Protocol11
	default:
		return ProtocolUnknown
	}
}

// String returns the canonical token of the Protocol value.
func (p Protocol) String() string {
	switch p {
	case Protocol10:
		return "HTTP/1.0"
	case Protocol11:
		return "HTTP/1.1"
	default:
		return ""
	}
}

// Prefix returns the status-line prefix of the protocol, with the
// trailing space of the wire format.
func (p Protocol) Prefix() string {
	if p == Protocol11 {
		return "HTTP/1.1 "
	}

	return "HTTP/1.0 "
}

type sessionState uint8

const (
	stateReadingFirstLine sessionState = iota
	stateReadingHeaders
	stateReadingBody
	stateResponding
)

// bufOwnership tags a queued response buffer: borrowed buffers belong to
// the caller and are never recycled by the session, owned buffers were
// allocated for this response.
type bufOwnership uint8

const (
	bufBorrowed bufOwnership = iota
	bufOwned
)

// writeEntry is one contiguous byte range queued for transmission.
type writeEntry struct {
	data []byte
	own  bufOwnership
	last bool
}
