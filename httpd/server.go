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
	"sync"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	libnet "github.com/gekit/golib/inet"
	liblog "github.com/gekit/golib/logger"
)

// Handler is the user function invoked once a request is fully read. It
// runs synchronously on an engine worker; it may respond in place or hand
// the session to another goroutine and respond later.
type Handler func(srv Server, ses *Session)

// Server is a basic HTTP daemon accepting one request per connection on a
// dual-stack listener pair.
type Server interface {
	// StartServing binds both listeners on the configured port, starts
	// accepting, and returns. The engine must be started, must outlive
	// the server, and is not shut down by it.
	StartServing(eng aio.Engine) liberr.Error

	// Shutdown closes both listeners and frees the pending sessions.
	// Connections already accepted finish their exchange through the
	// engine.
	Shutdown()

	// IsRunning reports whether the listener pair is accepting.
	IsRunning() bool
}

type srv struct {
	cfg Config
	hdl Handler
	fog liblog.FuncLog

	mux  sync.Mutex
	run  bool
	eng  aio.Engine
	lsn4 *aio.Socket
	lsn6 *aio.Socket
	pnd4 *Session
	pnd6 *Session
}

// New returns a stopped server for the given configuration and handler.
func New(cfg Config, handler Handler, defLog liblog.FuncLog) (Server, liberr.Error) {
	if handler == nil {
		return nil, ErrorParamEmpty.Error(nil)
	}

	cfg = cfg.Clean()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &srv{
		cfg: cfg,
		hdl: handler,
		fog: defLog,
	}, nil
}

func (o *srv) logger() liblog.Logger {
	return liblog.Resolve(o.fog)
}

func (o *srv) IsRunning() bool {
	o.mux.Lock()
	defer o.mux.Unlock()

	return o.run
}

func (o *srv) StartServing(eng aio.Engine) liberr.Error {
	if eng == nil {
		return ErrorParamEmpty.Error(nil)
	}

	o.mux.Lock()
	defer o.mux.Unlock()

	if o.run {
		return ErrorServerRunning.Error(nil)
	}

	o.eng = eng
	o.pnd4 = newSession(o)
	o.pnd6 = newSession(o)
	o.lsn4 = aio.NewSocket()
	o.lsn6 = aio.NewSocket()

	if err := o.setupListeners(); err != nil {
		o.teardownLocked()
		return ErrorListenerInit.Error(err)
	}

	if err := eng.SocketAccept(o.lsn4, o.pnd4.sck, o.acceptCallback, o.pnd4); err != nil {
		o.teardownLocked()
		return err
	}

	if err := eng.SocketAccept(o.lsn6, o.pnd6.sck, o.acceptCallback, o.pnd6); err != nil {
		o.teardownLocked()
		return err
	}

	o.run = true
	o.logger().Info("http daemon serving on port %d", o.cfg.ListenPort)

	return nil
}

// setupListeners binds the wildcard address of each family on the
// configured port and starts listening. The IPv6 listener is kept
// v6-only so the pair can share the port.
func (o *srv) setupListeners() liberr.Error {
	if err := o.lsn4.Init(libnet.FamilyIPv4); err != nil {
		return err
	}

	if err := o.lsn6.Init(libnet.FamilyIPv6); err != nil {
		return err
	}

	if err := o.lsn6.SetV6Only(true); err != nil {
		return err
	}

	_ = o.lsn4.SetReuseAddr(true)
	_ = o.lsn6.SetReuseAddr(true)

	if err := o.lsn4.Bind(libnet.AddrAny(libnet.FamilyIPv4), o.cfg.ListenPort); err != nil {
		return err
	}

	if err := o.lsn6.Bind(libnet.AddrAny(libnet.FamilyIPv6), o.cfg.ListenPort); err != nil {
		return err
	}

	if err := o.lsn4.Listen(o.cfg.Backlog); err != nil {
		return err
	}

	return o.lsn6.Listen(o.cfg.Backlog)
}

func (o *srv) Shutdown() {
	o.mux.Lock()
	defer o.mux.Unlock()

	if !o.run {
		return
	}

	o.teardownLocked()
	o.run = false
	o.logger().Info("http daemon stopped")
}

func (o *srv) teardownLocked() {
	if o.lsn4 != nil {
		_ = o.lsn4.HardClose()
		o.lsn4 = nil
	}

	if o.lsn6 != nil {
		_ = o.lsn6.HardClose()
		o.lsn6 = nil
	}

	if o.pnd4 != nil {
		_ = o.pnd4.sck.HardClose()
		o.pnd4 = nil
	}

	if o.pnd6 != nil {
		_ = o.pnd6.sck.HardClose()
		o.pnd6 = nil
	}
}

// closeSession submits the close of the session connection; the session
// is dropped once the close completes.
func (o *srv) closeSession(s *Session) {
	if err := o.eng.SocketClose(s.sck, o.closeCallback, s); err != nil {
		o.logger().Debug("session %s close submission failed: %v", s.id, err)
	}
}

// acceptCallback runs when a listener produced a connection: start
// reading into the session line buffer, then re-arm the listener with a
// fresh pending session, so connections keep coming regardless of parser
// progress.
func (o *srv) acceptCallback(listen *aio.Socket, accepted *aio.Socket, user interface{}, err liberr.Error) {
	s := user.(*Session)

	if err != nil {
		if o.IsRunning() {
			o.logger().Error("accept failed: %v", err)
		}

		return
	}

	if raddr, rport := accepted.RemoteAddress(); raddr.Family() != libnet.FamilyUnknown {
		o.logger().Debug("session %s accepted from %s:%d", s.id, raddr.String(), rport)
	}

	if rerr := o.eng.SocketRead(accepted, o.readCallback, s, s.lineBuf); rerr != nil {
		o.logger().Error("session %s cannot submit first read: %v", s.id, rerr)
		o.closeSession(s)
	}

	o.mux.Lock()

	if !o.run && o.lsn4 == nil && o.lsn6 == nil {
		o.mux.Unlock()
		return
	}

	next := newSession(o)

	var aerr liberr.Error

	if listen == o.lsn4 {
		o.pnd4 = next
		aerr = o.eng.SocketAccept(o.lsn4, next.sck, o.acceptCallback, next)
	} else if listen == o.lsn6 {
		o.pnd6 = next
		aerr = o.eng.SocketAccept(o.lsn6, next.sck, o.acceptCallback, next)
	}

	o.mux.Unlock()

	if aerr != nil {
		o.logger().Error("cannot re-arm accept: %v", aerr)
	}
}

// readCallback drives the session state machine with each completed
// read, then re-arms the next read sized for the current state.
func (o *srv) readCallback(sock *aio.Socket, user interface{}, bytes uint32, err liberr.Error) {
	s := user.(*Session)

	if err != nil {
		o.logger().Debug("session %s read failed: %v", s.id, err)
		s.dropWrites()
		o.closeSession(s)
		return
	}

	// Zero bytes means the peer closed before completing the exchange.
	if bytes == 0 {
		s.dropWrites()
		o.closeSession(s)
		return
	}

	keep := o.readHandler(s, bytes)

	if !keep {
		o.closeSession(s)
		return
	}

	switch s.state {
	case stateReadingBody:
		if rerr := o.eng.SocketRead(sock, o.readCallback, s, s.content[s.contentIndex:s.contentLen]); rerr != nil {
			o.logger().Error("session %s cannot submit body read: %v", s.id, rerr)
			o.closeSession(s)
		}
	case stateResponding:
		// The handler or a canned response owns the session now; the
		// write chain closes the connection.
	default:
		if rerr := o.eng.SocketRead(sock, o.readCallback, s, s.lineBuf[s.lineFilled:]); rerr != nil {
			o.logger().Error("session %s cannot submit read: %v", s.id, rerr)
			o.closeSession(s)
		}
	}
}

// readHandler advances the parser with the given number of fresh bytes.
// It reports whether the socket should be kept open.
func (o *srv) readHandler(s *Session, bytes uint32) bool {
	if s.state == stateReadingFirstLine {
		s.lineFilled += int(bytes)
		bytes = 0

		line, completed, invalid := s.tryReadLine()

		if invalid {
			s.sendRequestFailure(badReqMsg)
			return true
		}

		if !completed {
			return true
		}

		if s.parseFirstRequestLine(line) {
			s.sendRequestFailure(notImplMsg)
			return true
		}

		s.flushLine()

		// The client may be waiting for a go-ahead before the body.
		if s.proto == Protocol11 {
			s.addWriteData([]byte(continueMsg), bufBorrowed, false)
		}

		s.state = stateReadingHeaders
	}

	if s.state == stateReadingHeaders {
		s.lineFilled += int(bytes)
		bytes = 0

		for s.state == stateReadingHeaders {
			line, completed, invalid := s.tryReadLine()

			if invalid {
				s.sendRequestFailure(badReqMsg)
				return true
			}

			if !completed {
				return true
			}

			if len(line) == 0 {
				s.flushLine()

				if s.parseHeaders() {
					s.sendRequestFailure(badReqMsg)
					return true
				}

				if s.contentLen == 0 && s.method.HasBody() {
					s.sendRequestFailure(lengthReqMsg)
					return true
				}

				if s.contentLen != 0 {
					s.content = make([]byte, s.contentLen)

					// Body bytes read together with the headers are
					// already in the line buffer.
					if s.lineFilled > 0 {
						copyable := s.lineFilled

						if uint32(copyable) > s.contentLen {
							copyable = int(s.contentLen)
						}

						copy(s.content, s.lineBuf[:copyable])
						s.contentIndex += uint32(copyable)
						s.lineFilled = 0
						s.lineIndex = 0
					}
				}

				s.state = stateReadingBody
				continue
			}

			if line[0] == ' ' || line[0] == '\t' {
				// Leading whitespace continues the previous header.
				if len(s.headers) == 0 {
					s.sendRequestFailure(badReqMsg)
					return true
				}

				s.headers[len(s.headers)-1] += string(line)
			} else {
				if len(s.headers) >= o.cfg.MaxRequestHeaders {
					s.sendRequestFailure(badReqMsg)
					return true
				}

				s.headers = append(s.headers, string(line))
			}

			s.flushLine()
		}
	}

	if s.state == stateReadingBody {
		s.contentIndex += bytes

		if s.contentIndex == s.contentLen {
			s.state = stateResponding
			o.hdl(o, s)
			return true
		}
	}

	return true
}

// writeCallback pops the completed head entry of the session queue and
// chains the next write, closing the connection once the final write
// drained.
func (o *srv) writeCallback(sock *aio.Socket, user interface{}, bytes uint32, err liberr.Error) {
	s := user.(*Session)

	if err != nil {
		o.logger().Debug("session %s write failed: %v", s.id, err)
		s.dropWrites()
		o.closeSession(s)
		return
	}

	if s.popWrite() {
		o.closeSession(s)
	}
}

// closeCallback ends the session lifetime.
func (o *srv) closeCallback(sock *aio.Socket, user interface{}, err liberr.Error) {
	s := user.(*Session)

	if err != nil {
		o.logger().Debug("session %s close failed: %v", s.id, err)
	}

	o.logger().Debug("session %s closed", s.id)
}
