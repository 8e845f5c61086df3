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

package httpd_test

import (
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gekit/golib/aio"
	"github.com/gekit/golib/aio/engine"
	"github.com/gekit/golib/httpd"
)

// freePort asks the kernel for an unused TCP port. The port may be taken
// back before the server binds it, which is unlikely enough for tests.
func freePort() int {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())

	port := l.Addr().(*net.TCPAddr).Port
	Expect(l.Close()).To(Succeed())

	return port
}

// exchange dials the server, sends the raw request and returns everything
// read until the server closes the connection.
func exchange(port int, request string) string {
	conn, err := net.DialTimeout("tcp4", "127.0.0.1:"+strconv.Itoa(port), 2*time.Second)
	Expect(err).ToNot(HaveOccurred())

	defer func() { _ = conn.Close() }()

	_, err = conn.Write([]byte(request))
	Expect(err).ToNot(HaveOccurred())

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	data, _ := io.ReadAll(conn)

	return string(data)
}

type captured struct {
	method  httpd.Method
	url     string
	proto   httpd.Protocol
	headers []string
	body    string
	bodyLen uint32
}

var _ = Describe("Http Daemon", func() {
	var (
		eng  aio.Engine
		srv  httpd.Server
		port int
	)

	start := func(workers int, handler httpd.Handler) {
		var err error

		eng, err = engine.New(aio.Config{WorkerThreads: workers}, nil)
		Expect(err).To(BeNil())
		Expect(eng.Start(0)).To(BeNil())

		port = freePort()

		srv, err = httpd.New(httpd.Config{ListenPort: port}, handler, nil)
		Expect(err).To(BeNil())
		Expect(srv.StartServing(eng)).To(BeNil())
	}

	AfterEach(func() {
		if srv != nil {
			srv.Shutdown()
			srv = nil
		}

		if eng != nil {
			eng.Shutdown()
			eng = nil
		}
	})

	Context("request handling", func() {
		It("should serve a GET over HTTP/1.0", func() {
			ch := make(chan captured, 1)

			start(2, func(_ httpd.Server, s *httpd.Session) {
				ch <- captured{
					method:  s.Method(),
					url:     s.URL(),
					proto:   s.Protocol(),
					bodyLen: s.BodyLength(),
				}

				s.Respond("200 OK\r\n\r\n", []byte("world"), false)
			})

			out := exchange(port, "GET /hello HTTP/1.0\r\n\r\n")

			var req captured
			Eventually(ch, "5s").Should(Receive(&req))
			Expect(req.method).To(Equal(httpd.MethodGet))
			Expect(req.url).To(Equal("/hello"))
			Expect(req.proto).To(Equal(httpd.Protocol10))
			Expect(req.bodyLen).To(Equal(uint32(0)))

			// The protocol prefix, the status line and the body hit the
			// wire as three concatenated writes, nothing injected between.
			Expect(out).To(Equal("HTTP/1.0 200 OK\r\n\r\nworld"))
		})

		It("should read a POST body over HTTP/1.1 after a 100 Continue", func() {
			ch := make(chan captured, 1)

			start(2, func(_ httpd.Server, s *httpd.Session) {
				ch <- captured{
					method:  s.Method(),
					url:     s.URL(),
					body:    string(s.Body()),
					bodyLen: s.BodyLength(),
				}

				s.Respond("200 OK\r\n\r\n", []byte("done"), false)
			})

			out := exchange(port, "POST /u HTTP/1.1\r\nContent-Length: 4\r\n\r\nPING")

			var req captured
			Eventually(ch, "5s").Should(Receive(&req))
			Expect(req.method).To(Equal(httpd.MethodPost))
			Expect(req.bodyLen).To(Equal(uint32(4)))
			Expect(req.body).To(Equal("PING"))

			Expect(strings.HasPrefix(out, "HTTP/1.1 100 Continue\r\n\r\n")).To(BeTrue())
			Expect(strings.HasSuffix(out, "HTTP/1.1 200 OK\r\n\r\ndone")).To(BeTrue())
		})

		It("should answer 411 to a POST without Content-Length", func() {
			var hit atomic.Bool

			start(2, func(_ httpd.Server, s *httpd.Session) {
				hit.Store(true)
			})

			out := exchange(port, "POST /x HTTP/1.1\r\n\r\n")

			Expect(hit.Load()).To(BeFalse())
			Expect(out).To(ContainSubstring("411 Length Required"))
			Expect(out).To(ContainSubstring("missing Content-Length"))
		})

		It("should answer 501 to an unknown method", func() {
			var hit atomic.Bool

			start(2, func(_ httpd.Server, s *httpd.Session) {
				hit.Store(true)
			})

			out := exchange(port, "FOO / HTTP/1.0\r\n\r\n")

			Expect(hit.Load()).To(BeFalse())
			Expect(out).To(ContainSubstring("501 Method Not Implemented"))
		})

		It("should answer 400 to an oversized request line", func() {
			var hit atomic.Bool

			start(2, func(_ httpd.Server, s *httpd.Session) {
				hit.Store(true)
			})

			out := exchange(port, strings.Repeat("a", httpd.DefaultMaxLineBytes))

			Expect(hit.Load()).To(BeFalse())
			Expect(out).To(ContainSubstring("400 Bad Request"))
		})

		It("should fold header continuation lines", func() {
			ch := make(chan captured, 1)

			start(2, func(_ httpd.Server, s *httpd.Session) {
				ch <- captured{headers: s.HeaderLines()}
				s.Respond("200 OK\r\n\r\n", []byte("ok"), false)
			})

			out := exchange(port, "GET / HTTP/1.0\r\nX-Multi: a\r\n\tb\r\n\r\n")

			var req captured
			Eventually(ch, "5s").Should(Receive(&req))
			Expect(req.headers).To(HaveLen(1))
			Expect(req.headers[0]).To(ContainSubstring("a"))
			Expect(req.headers[0]).To(ContainSubstring("\tb"))

			Expect(out).To(ContainSubstring("200 OK"))
		})

		It("should answer 400 past the header count bound", func() {
			var hit atomic.Bool

			start(2, func(_ httpd.Server, s *httpd.Session) {
				hit.Store(true)
			})

			var b strings.Builder

			b.WriteString("GET / HTTP/1.0\r\n")

			for i := 0; i <= httpd.DefaultMaxRequestHeaders; i++ {
				b.WriteString("X-Filler-")
				b.WriteString(strconv.Itoa(i))
				b.WriteString(": v\r\n")
			}

			b.WriteString("\r\n")

			out := exchange(port, b.String())

			Expect(hit.Load()).To(BeFalse())
			Expect(out).To(ContainSubstring("400 Bad Request"))
		})

		It("should serve over IPv6 as well", func() {
			start(2, func(_ httpd.Server, s *httpd.Session) {
				s.Respond("200 OK\r\n\r\n", []byte("six"), false)
			})

			conn, err := net.DialTimeout("tcp6", "[::1]:"+strconv.Itoa(port), 2*time.Second)

			if err != nil {
				Skip("IPv6 loopback not available")
			}

			defer func() { _ = conn.Close() }()

			_, err = conn.Write([]byte("GET / HTTP/1.0\r\n\r\n"))
			Expect(err).ToNot(HaveOccurred())

			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			data, _ := io.ReadAll(conn)

			Expect(string(data)).To(Equal("HTTP/1.0 200 OK\r\n\r\nsix"))
		})
	})

	Context("response queue", func() {
		It("should deliver raw responses unmodified", func() {
			start(2, func(_ httpd.Server, s *httpd.Session) {
				s.RespondRaw([]byte("HTTP/1.0 204 No Content\r\n\r\n"), false)
			})

			out := exchange(port, "GET / HTTP/1.0\r\n\r\n")

			Expect(out).To(Equal("HTTP/1.0 204 No Content\r\n\r\n"))
		})

		It("should serialize concurrent raw responses without interleaving", func() {
			a := strings.Repeat("A", 512)
			b := strings.Repeat("B", 512)

			start(1, func(_ httpd.Server, s *httpd.Session) {
				var wg sync.WaitGroup

				wg.Add(2)

				go func() {
					defer wg.Done()
					s.RespondRaw([]byte(a), false)
				}()

				go func() {
					defer wg.Done()
					s.RespondRaw([]byte(b), false)
				}()

				wg.Wait()
			})

			out := exchange(port, "GET / HTTP/1.0\r\n\r\n")

			Expect(out).To(HaveLen(1024))
			Expect(out).To(Or(Equal(a+b), Equal(b+a)))
		})

		It("should record extra response headers without injecting them", func() {
			ch := make(chan [][2]string, 1)

			start(2, func(_ httpd.Server, s *httpd.Session) {
				Expect(s.SetResponseHeader("Content-Type", "text/plain")).To(BeNil())

				err := s.SetResponseHeader("Date", "now")
				Expect(err).ToNot(BeNil())
				Expect(err.IsCode(httpd.ErrorReservedHeader)).To(BeTrue())

				ch <- s.ResponseHeaders()
				s.Respond("200 OK\r\n\r\n", []byte("ok"), false)
			})

			out := exchange(port, "GET / HTTP/1.0\r\n\r\n")

			var hdr [][2]string
			Eventually(ch, "5s").Should(Receive(&hdr))
			Expect(hdr).To(HaveLen(1))
			Expect(hdr[0][0]).To(Equal("Content-Type"))

			Expect(out).To(Equal("HTTP/1.0 200 OK\r\n\r\nok"))
		})
	})

	Context("server lifecycle", func() {
		It("should refuse a second start while serving", func() {
			start(2, func(_ httpd.Server, s *httpd.Session) {
				s.Respond("200 OK", []byte("ok"), false)
			})

			err := srv.StartServing(eng)
			Expect(err).ToNot(BeNil())
			Expect(err.IsCode(httpd.ErrorServerRunning)).To(BeTrue())
		})

		It("should stop accepting after shutdown", func() {
			start(2, func(_ httpd.Server, s *httpd.Session) {
				s.Respond("200 OK", []byte("ok"), false)
			})

			srv.Shutdown()
			Expect(srv.IsRunning()).To(BeFalse())

			_, err := net.DialTimeout("tcp4", "127.0.0.1:"+strconv.Itoa(port), 500*time.Millisecond)
			Expect(err).To(HaveOccurred())
		})
	})
})
