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
	"strings"
	"sync"

	"github.com/hashicorp/go-uuid"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
)

// Session is the state of one accepted connection over the lifetime of a
// single HTTP exchange. A handler uses it to examine the parsed request
// and to respond.
type Session struct {
	id  string
	srv *srv
	sck *aio.Socket

	// Parser state, only touched from read completions.
	state        sessionState
	proto        Protocol
	method       Method
	url          string
	headers      []string
	content      []byte
	contentLen   uint32
	contentIndex uint32

	lineBuf    []byte
	lineIndex  int
	lineFilled int

	// Guards the response queue; response calls may come from any
	// goroutine, including after the handler returned.
	mux            sync.Mutex
	writeQ         []*writeEntry
	writeActive    bool
	writesComplete bool

	respHdr [][2]string
}

func newSession(s *srv) *Session {
	id, _ := uuid.GenerateUUID()

	return &Session{
		id:      id,
		srv:     s,
		sck:     aio.NewSocket(),
		state:   stateReadingFirstLine,
		proto:   Protocol10,
		lineBuf: make([]byte, s.cfg.MaxLineBytes),
	}
}

// ID returns the correlation id of the session, used in log lines.
func (s *Session) ID() string {
	return s.id
}

// Socket returns the connection handle of the session.
func (s *Session) Socket() *aio.Socket {
	return s.sck
}

// Method returns the HTTP method of the request.
func (s *Session) Method() Method {
	return s.method
}

// URL returns the request URL.
func (s *Session) URL() string {
	return s.url
}

// Protocol returns the HTTP protocol version of the request.
func (s *Session) Protocol() Protocol {
	return s.proto
}

// HeaderLines returns the raw header lines of the request, continuation
// lines folded into their owner.
func (s *Session) HeaderLines() []string {
	return s.headers
}

// Header returns the value of the given request header key, or an empty
// string.
func (s *Session) Header(key string) string {
	for _, l := range s.headers {
		if v := headerMatchExtract(l, key); v != "" {
			return v
		}
	}

	return ""
}

// Body returns the request body.
func (s *Session) Body() []byte {
	return s.content
}

// BodyLength returns the request body length.
func (s *Session) BodyLength() uint32 {
	return s.contentLen
}

// SetResponseHeader records an extra response header for handlers that
// compose full responses. Date and Content-Length are refused; the
// session does not write those headers itself either.
func (s *Session) SetResponseHeader(key, value string) liberr.Error {
	k := strings.TrimSpace(key)

	if k == "" {
		return ErrorParamEmpty.Error(nil)
	}

	if strings.EqualFold(k, "Date") || strings.EqualFold(k, "Content-Length") {
		return ErrorReservedHeader.Error(nil)
	}

	s.mux.Lock()
	s.respHdr = append(s.respHdr, [2]string{k, value})
	s.mux.Unlock()

	return nil
}

// ResponseHeaders returns the headers recorded with SetResponseHeader.
func (s *Session) ResponseHeaders() [][2]string {
	s.mux.Lock()
	defer s.mux.Unlock()

	r := make([][2]string, len(s.respHdr))
	copy(r, s.respHdr)

	return r
}

// RespondRaw enqueues a complete HTTP response as one write, marking it
// as the final data of the session. With owned set, the buffer belongs to
// the session once enqueued; callers keeping static buffers pass false.
func (s *Session) RespondRaw(data []byte, owned bool) {
	own := bufBorrowed

	if owned {
		own = bufOwned
	}

	s.addWriteData(data, own, true)
}

// Respond enqueues a response built from the protocol prefix of the
// request, the given status line and the body. The three parts are
// written in order and as given, with no terminator or header added, so
// the status carries its own CRLFs ("200 OK\r\n\r\n"). The body is the
// final data of the session.
func (s *Session) Respond(status string, body []byte, owned bool) {
	own := bufBorrowed

	if owned {
		own = bufOwned
	}

	s.addWriteData([]byte(s.proto.Prefix()), bufBorrowed, false)
	s.addWriteData([]byte(status), bufOwned, false)
	s.addWriteData(body, own, true)
}

// sendRequestFailure enqueues one of the canned parser responses and ends
// the exchange.
func (s *Session) sendRequestFailure(message string) {
	s.addWriteData([]byte(message), bufBorrowed, true)
	s.state = stateResponding
}

// addWriteData pushes one write entry on the session queue. Entries are
// delivered in FIFO order with at most one write in flight; the
// completion of the current write starts the next one.
func (s *Session) addWriteData(data []byte, own bufOwnership, last bool) {
	entry := &writeEntry{
		data: data,
		own:  own,
		last: last,
	}

	s.mux.Lock()

	s.writeQ = append(s.writeQ, entry)
	s.writesComplete = last

	if !s.writeActive {
		s.writeActive = true

		if err := s.srv.eng.SocketWrite(s.sck, s.srv.writeCallback, s, entry.data); err != nil {
			s.writeActive = false
			s.writeQ = s.writeQ[:0]
			s.mux.Unlock()

			s.srv.logger().Error("session %s cannot submit write: %v", s.id, err)
			s.srv.closeSession(s)
			return
		}
	}

	s.mux.Unlock()
}

// popWrite removes the completed head entry and starts the next one if
// any. It reports whether the session is done writing: the queue drained
// after the final write, or the next write could not be submitted.
func (s *Session) popWrite() (sessionComplete bool) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if len(s.writeQ) == 0 {
		return false
	}

	s.writeQ = s.writeQ[1:]

	if len(s.writeQ) > 0 {
		head := s.writeQ[0]

		if err := s.srv.eng.SocketWrite(s.sck, s.srv.writeCallback, s, head.data); err != nil {
			s.srv.logger().Error("session %s cannot submit write: %v", s.id, err)
			s.writeActive = false
			s.writeQ = s.writeQ[:0]
			return true
		}

		return false
	}

	s.writeActive = false

	return s.writesComplete
}

// dropWrites frees queued entries without dispatching them, after a fatal
// session error.
func (s *Session) dropWrites() {
	s.mux.Lock()
	s.writeQ = s.writeQ[:0]
	s.writeActive = false
	s.mux.Unlock()
}
