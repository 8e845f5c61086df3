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

import (
	"strconv"
	"strings"
)

// tryReadLine scans the session line buffer for the next newline. The
// returned line excludes the terminator and a preceding CR. Control bytes
// below 0x20 other than CR and TAB reject the line, NUL in particular; a
// full buffer with no newline rejects it as too long. The scan never
// reads past the filled length and a rejected line leaves no partial
// state behind.
func (s *Session) tryReadLine() (line []byte, completed bool, invalid bool) {
	i := s.lineIndex

	for ; i < s.lineFilled; i++ {
		c := s.lineBuf[i]

		if c == '\n' {
			end := i

			if i != 0 && s.lineBuf[i-1] == '\r' {
				end--
			}

			s.lineIndex = i + 1

			return s.lineBuf[:end], true, false
		}

		if c < 0x20 && c != '\r' && c != '\t' {
			return nil, false, true
		}
	}

	if i == len(s.lineBuf) {
		return nil, false, true
	}

	s.lineIndex = i

	return nil, false, false
}

// flushLine shifts the bytes past the consumed line to the front of the
// buffer and resets the indices.
func (s *Session) flushLine() {
	copy(s.lineBuf, s.lineBuf[s.lineIndex:s.lineFilled])
	s.lineFilled -= s.lineIndex
	s.lineIndex = 0
}

// parseFirstRequestLine splits the request line on runs of whitespace
// into method, URL and protocol tokens. An unknown method or protocol
// version marks the request as not implemented.
func (s *Session) parseFirstRequestLine(line []byte) (invalid bool) {
	fields := strings.Fields(string(line))

	if len(fields) != 3 {
		return true
	}

	s.method = ParseMethod(fields[0])
	s.url = fields[1]
	s.proto = ParseProtocol(fields[2])

	return s.method == MethodUnknown || s.proto == ProtocolUnknown
}

// parseHeaders scans the stored header lines for the values the daemon
// needs, Content-Length for now. An unparsable length marks the request
// as bad.
func (s *Session) parseHeaders() (invalid bool) {
	for _, l := range s.headers {
		v := headerMatchExtract(l, "Content-Length")

		if v == "" {
			continue
		}

		n, err := strconv.ParseUint(v, 10, 32)

		if err != nil {
			return true
		}

		s.contentLen = uint32(n)
	}

	return false
}

// headerMatchExtract checks a header line for the given key, case
// insensitively, and returns the value after the colon with surrounding
// whitespace skipped. It returns an empty string on mismatch.
func headerMatchExtract(line, key string) string {
	if len(line) <= len(key) {
		return ""
	}

	if !strings.EqualFold(line[:len(key)], key) {
		return ""
	}

	rest := strings.TrimLeft(line[len(key):], " \t")

	if len(rest) == 0 || rest[0] != ':' {
		return ""
	}

	return strings.TrimLeft(rest[1:], " \t")
}
