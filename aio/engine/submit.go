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

package engine

import (
	"time"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	libnet "github.com/gekit/golib/inet"
)

// checkSocket validates the target handle and registers it with this
// engine if it is not registered yet. Validation failures are raised
// synchronously and never reach the callback.
func (e *engine) checkSocket(s *aio.Socket) liberr.Error {
	if s == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if !s.IsOpen() {
		return aio.ErrorHandleClosed.Error(nil)
	}

	if !e.running() {
		return aio.ErrorEngineNotRunning.Error(nil)
	}

	return e.RegisterSocket(s)
}

func (e *engine) checkFile(f *aio.File) liberr.Error {
	if f == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if !f.IsOpen() {
		return aio.ErrorHandleClosed.Error(nil)
	}

	if !e.running() {
		return aio.ErrorEngineNotRunning.Error(nil)
	}

	return e.RegisterFile(f)
}

// post accounts the descriptor as pending and puts it on the completion
// queue.
func (e *engine) post(op *operation) liberr.Error {
	e.pending.Add(1)

	if !e.q.push(op) {
		e.pending.Add(-1)
		return aio.ErrorSubmitQueue.Error(nil)
	}

	return nil
}

func (e *engine) FileRead(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error {
	if cb == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if err := e.checkFile(f); err != nil {
		return err
	}

	return e.post(&operation{
		code:    opFileRead,
		key:     keySelf,
		file:    f,
		buf:     buf,
		pos:     pos,
		fileFct: cb,
		user:    user,
	})
}

func (e *engine) FileWrite(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error {
	if cb == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if err := e.checkFile(f); err != nil {
		return err
	}

	return e.post(&operation{
		code:    opFileWrite,
		key:     keySelf,
		file:    f,
		buf:     buf,
		pos:     pos,
		fileFct: cb,
		user:    user,
	})
}

func (e *engine) SocketAccept(listen *aio.Socket, accept *aio.Socket, cb aio.AcceptCallback, user interface{}) liberr.Error {
	if cb == nil || accept == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if err := e.checkSocket(listen); err != nil {
		return err
	}

	// The accept handle stays uninitialized until the backend installs
	// the accepted descriptor, but it joins the live set now.
	if err := e.RegisterSocket(accept); err != nil {
		return err
	}

	if e.ssvc != nil {
		e.pending.Add(1)

		if err := e.ssvc.SubmitAccept(listen, accept, e.wrapAccept(cb), user); err != nil {
			e.pending.Add(-1)
			return err
		}

		return nil
	}

	return e.post(&operation{
		code:    opAccept,
		key:     keySelf,
		sock:    listen,
		accept:  accept,
		acptFct: cb,
		user:    user,
	})
}

func (e *engine) SocketConnect(s *aio.Socket, cb aio.ConnectCallback, user interface{}, addr libnet.Address, port int, timeout time.Duration) liberr.Error {
	if cb == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if s != nil && !s.IsOpen() {
		if err := s.Init(addr.Family()); err != nil {
			return err
		}
	}

	if err := e.checkSocket(s); err != nil {
		return err
	}

	if e.ssvc != nil {
		e.pending.Add(1)

		if err := e.ssvc.SubmitConnect(s, e.wrapConnect(cb), user, addr, port, timeout); err != nil {
			e.pending.Add(-1)
			return err
		}

		return nil
	}

	return e.post(&operation{
		code:    opConnect,
		key:     keySelf,
		sock:    s,
		addr:    addr,
		port:    port,
		timeout: timeout,
		connFct: cb,
		user:    user,
	})
}

func (e *engine) SocketClose(s *aio.Socket, cb aio.ConnectCallback, user interface{}) liberr.Error {
	if cb == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if err := e.checkSocket(s); err != nil {
		return err
	}

	if e.ssvc != nil {
		e.pending.Add(1)

		if err := e.ssvc.SubmitClose(s, e.wrapConnect(cb), user); err != nil {
			e.pending.Add(-1)
			return err
		}

		return nil
	}

	return e.post(&operation{
		code:    opDisconnect,
		key:     keySelf,
		sock:    s,
		connFct: cb,
		user:    user,
	})
}

func (e *engine) SocketRead(s *aio.Socket, cb aio.SocketCallback, user interface{}, buf []byte) liberr.Error {
	if cb == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if err := e.checkSocket(s); err != nil {
		return err
	}

	if e.ssvc != nil {
		e.pending.Add(1)

		if err := e.ssvc.SubmitRead(s, e.wrapSocket(cb), user, buf); err != nil {
			e.pending.Add(-1)
			return err
		}

		return nil
	}

	return e.post(&operation{
		code:    opRecv,
		key:     keySelf,
		sock:    s,
		buf:     buf,
		sockFct: cb,
		user:    user,
	})
}

func (e *engine) SocketWrite(s *aio.Socket, cb aio.SocketCallback, user interface{}, buf []byte) liberr.Error {
	if cb == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if err := e.checkSocket(s); err != nil {
		return err
	}

	if e.ssvc != nil {
		e.pending.Add(1)

		if err := e.ssvc.SubmitWrite(s, e.wrapSocket(cb), user, buf); err != nil {
			e.pending.Add(-1)
			return err
		}

		return nil
	}

	return e.post(&operation{
		code:    opSend,
		key:     keySelf,
		sock:    s,
		buf:     buf,
		sockFct: cb,
		user:    user,
	})
}

func (e *engine) SocketSendfile(s *aio.Socket, cb aio.SocketCallback, user interface{}, f *aio.File, pos int64, length uint32) liberr.Error {
	if cb == nil {
		return aio.ErrorParamEmpty.Error(nil)
	}

	if err := e.checkSocket(s); err != nil {
		return err
	}

	if err := e.checkFile(f); err != nil {
		return err
	}

	if e.ssvc != nil {
		e.pending.Add(1)

		if err := e.ssvc.SubmitSendfile(s, e.wrapSocket(cb), user, f, pos, length); err != nil {
			e.pending.Add(-1)
			return err
		}

		return nil
	}

	return e.post(&operation{
		code:    opSendfile,
		key:     keySelf,
		sock:    s,
		file:    f,
		pos:     pos,
		size:    length,
		sockFct: cb,
		user:    user,
	})
}

// Callback wrappers of the readiness backend keep the pending counter
// honest: the service runs the user callback on its worker pool and the
// engine settles the submission afterwards.

func (e *engine) wrapAccept(cb aio.AcceptCallback) aio.AcceptCallback {
	return func(listen *aio.Socket, accepted *aio.Socket, user interface{}, err liberr.Error) {
		defer e.pending.Add(-1)
		cb(listen, accepted, user, err)
	}
}

func (e *engine) wrapConnect(cb aio.ConnectCallback) aio.ConnectCallback {
	return func(s *aio.Socket, user interface{}, err liberr.Error) {
		defer e.pending.Add(-1)
		cb(s, user, err)
	}
}

func (e *engine) wrapSocket(cb aio.SocketCallback) aio.SocketCallback {
	return func(s *aio.Socket, user interface{}, bytes uint32, err liberr.Error) {
		defer e.pending.Add(-1)
		cb(s, user, bytes, err)
	}
}
