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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func parserSession(size int) *Session {
	return &Session{
		lineBuf: make([]byte, size),
		state:   stateReadingFirstLine,
		proto:   Protocol10,
	}
}

func feed(s *Session, data string) {
	copy(s.lineBuf[s.lineFilled:], data)
	s.lineFilled += len(data)
}

var _ = Describe("Line Buffer Parsing", func() {
	Context("tryReadLine", func() {
		It("should extract a CRLF terminated line", func() {
			s := parserSession(64)
			feed(s, "GET / HTTP/1.0\r\nrest")

			line, completed, invalid := s.tryReadLine()
			Expect(invalid).To(BeFalse())
			Expect(completed).To(BeTrue())
			Expect(string(line)).To(Equal("GET / HTTP/1.0"))
		})

		It("should extract a bare LF terminated line", func() {
			s := parserSession(64)
			feed(s, "hello\n")

			line, completed, invalid := s.tryReadLine()
			Expect(invalid).To(BeFalse())
			Expect(completed).To(BeTrue())
			Expect(string(line)).To(Equal("hello"))
		})

		It("should wait for more data without a newline", func() {
			s := parserSession(64)
			feed(s, "partial")

			_, completed, invalid := s.tryReadLine()
			Expect(invalid).To(BeFalse())
			Expect(completed).To(BeFalse())
		})

		It("should resume a partial scan across reads", func() {
			s := parserSession(64)
			feed(s, "GET / HT")

			_, completed, _ := s.tryReadLine()
			Expect(completed).To(BeFalse())

			feed(s, "TP/1.0\r\n")

			line, completed, invalid := s.tryReadLine()
			Expect(invalid).To(BeFalse())
			Expect(completed).To(BeTrue())
			Expect(string(line)).To(Equal("GET / HTTP/1.0"))
		})

		It("should reject NUL bytes", func() {
			s := parserSession(64)
			feed(s, "GET \x00/ HTTP/1.0\r\n")

			_, _, invalid := s.tryReadLine()
			Expect(invalid).To(BeTrue())
		})

		It("should reject control bytes other than CR and TAB", func() {
			s := parserSession(64)
			feed(s, "GET \x01/ HTTP/1.0\r\n")

			_, _, invalid := s.tryReadLine()
			Expect(invalid).To(BeTrue())
		})

		It("should accept TAB within a line", func() {
			s := parserSession(64)
			feed(s, "X:\ta\r\n")

			line, completed, invalid := s.tryReadLine()
			Expect(invalid).To(BeFalse())
			Expect(completed).To(BeTrue())
			Expect(string(line)).To(Equal("X:\ta"))
		})

		It("should reject a full buffer with no newline", func() {
			s := parserSession(16)
			feed(s, "aaaaaaaaaaaaaaaa")

			_, _, invalid := s.tryReadLine()
			Expect(invalid).To(BeTrue())
		})

		It("should never scan past the filled length", func() {
			s := parserSession(64)
			copy(s.lineBuf[10:], "\n")
			feed(s, "abc")

			_, completed, invalid := s.tryReadLine()
			Expect(invalid).To(BeFalse())
			Expect(completed).To(BeFalse())
		})
	})

	Context("flushLine", func() {
		It("should move the remainder to the front", func() {
			s := parserSession(64)
			feed(s, "line one\r\nnext")

			_, completed, _ := s.tryReadLine()
			Expect(completed).To(BeTrue())

			s.flushLine()
			Expect(s.lineIndex).To(Equal(0))
			Expect(s.lineFilled).To(Equal(4))
			Expect(string(s.lineBuf[:4])).To(Equal("next"))
		})
	})

	Context("parseFirstRequestLine", func() {
		It("should split method, url and protocol", func() {
			s := parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("GET /hello HTTP/1.0"))).To(BeFalse())
			Expect(s.method).To(Equal(MethodGet))
			Expect(s.url).To(Equal("/hello"))
			Expect(s.proto).To(Equal(Protocol10))
		})

		It("should match methods case insensitively", func() {
			s := parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("post /u HTTP/1.1"))).To(BeFalse())
			Expect(s.method).To(Equal(MethodPost))
			Expect(s.proto).To(Equal(Protocol11))
		})

		It("should keep DELETE and TRACE distinct", func() {
			s := parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("DELETE /x HTTP/1.1"))).To(BeFalse())
			Expect(s.method).To(Equal(MethodDelete))

			s = parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("TRACE /x HTTP/1.1"))).To(BeFalse())
			Expect(s.method).To(Equal(MethodTrace))
		})

		It("should reject unknown methods", func() {
			s := parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("FOO / HTTP/1.0"))).To(BeTrue())
		})

		It("should reject unknown protocol versions", func() {
			s := parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("GET / HTTP/2.0"))).To(BeTrue())
		})

		It("should reject a line with missing tokens", func() {
			s := parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("GET /"))).To(BeTrue())
		})

		It("should tolerate runs of whitespace between tokens", func() {
			s := parserSession(64)
			Expect(s.parseFirstRequestLine([]byte("GET   /a\t\tHTTP/1.1"))).To(BeFalse())
			Expect(s.url).To(Equal("/a"))
		})
	})

	Context("parseHeaders", func() {
		It("should extract a decimal Content-Length", func() {
			s := parserSession(64)
			s.headers = []string{"Host: x", "Content-Length: 42"}

			Expect(s.parseHeaders()).To(BeFalse())
			Expect(s.contentLen).To(Equal(uint32(42)))
		})

		It("should reject a non numeric Content-Length", func() {
			s := parserSession(64)
			s.headers = []string{"Content-Length: twelve"}

			Expect(s.parseHeaders()).To(BeTrue())
		})
	})

	Context("headerMatchExtract", func() {
		It("should match keys case insensitively", func() {
			Expect(headerMatchExtract("content-length: 400", "Content-Length")).To(Equal("400"))
		})

		It("should skip whitespace around the colon", func() {
			Expect(headerMatchExtract("Content-Length :  400", "Content-Length")).To(Equal("400"))
		})

		It("should return empty on mismatch", func() {
			Expect(headerMatchExtract("Content-Type: text/html", "Content-Length")).To(Equal(""))
		})

		It("should not match a key prefix", func() {
			Expect(headerMatchExtract("Content-Length-Extra: 1", "Content-Length")).To(Equal(""))
		})
	})
})
