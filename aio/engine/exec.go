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
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
)

// waitSliceMs bounds one readiness wait. An operation that is not ready
// within the slice goes back on the queue, so a worker is never pinned by
// one slow descriptor while others starve.
const waitSliceMs = 10

// point maps the descriptor to its logical call site, the failure-point
// tag carried by errors delivered through its callback.
func (op *operation) point() string {
	switch op.code {
	case opFileRead:
		return "Engine.FileRead"
	case opFileWrite:
		return "Engine.FileWrite"
	case opAccept:
		return "Engine.SocketAccept"
	case opConnect:
		return "Engine.SocketConnect"
	case opDisconnect:
		return "Engine.SocketClose"
	case opRecv:
		return "Engine.SocketRead"
	case opSend:
		return "Engine.SocketWrite"
	case opSendfile:
		return "Engine.SocketSendfile"
	default:
		return "Engine"
	}
}

// dispatch invokes the descriptor callback once with the given result and
// settles the pending counter.
func (e *engine) dispatch(op *operation, bytes uint32, err liberr.Error) {
	switch op.code {
	case opFileRead, opFileWrite:
		op.fileFct(op.file, op.user, bytes, err)
	case opAccept:
		op.acptFct(op.sock, op.accept, op.user, err)
	case opConnect, opDisconnect:
		op.connFct(op.sock, op.user, err)
	case opRecv, opSend, opSendfile:
		op.sockFct(op.sock, op.user, bytes, err)
	}

	e.pending.Add(-1)
}

// requeue puts a not-yet-ready descriptor back on the completion queue
// for a later slice. A closed queue cancels it instead.
func (e *engine) requeue(op *operation) {
	if !e.q.push(op) {
		e.dispatch(op, uint32(op.progress), aio.Canceled(op.point()))
	}
}

// worker is the body of one completion worker: block on the queue, issue
// or advance self-keyed descriptors, dispatch native-keyed ones, exit on
// the shutdown descriptor.
func (e *engine) worker() {
	defer e.wgr.Done()

	for {
		op := e.q.pop()

		if op == nil || op.code == opShutdown {
			return
		}

		if op.key == keyNative {
			e.dispatch(op, op.resBytes, op.resErr)
			continue
		}

		if !e.running() {
			e.dispatch(op, uint32(op.progress), aio.Canceled(op.point()))
			continue
		}

		e.execute(op)
	}
}

func (e *engine) execute(op *operation) {
	switch op.code {
	case opFileRead:
		e.issueFile(op, true)
	case opFileWrite:
		e.issueFile(op, false)
	case opAccept:
		e.execAccept(op)
	case opConnect:
		e.execConnect(op)
	case opDisconnect:
		e.execClose(op)
	case opRecv:
		e.execRead(op)
	case opSend:
		e.execWrite(op)
	case opSendfile:
		e.execSendfile(op)
	}
}

// issueFile hands the request to the file backend; its completion posts
// the descriptor back on the queue under the native key.
func (e *engine) issueFile(op *operation, read bool) {
	done := func(f *aio.File, user interface{}, bytes uint32, err liberr.Error) {
		op.key = keyNative
		op.resBytes = bytes
		op.resErr = err

		if !e.q.push(op) {
			e.dispatch(op, bytes, err)
		}
	}

	var err liberr.Error

	if read {
		err = e.fsvc.SubmitRead(op.file, done, op.user, op.pos, op.buf)
	} else {
		err = e.fsvc.SubmitWrite(op.file, done, op.user, op.pos, op.buf)
	}

	if err != nil {
		e.dispatch(op, 0, err)
	}
}

type waitState uint8

const (
	waitReady waitState = iota
	waitAgain
	waitCanceled
	waitTimedOut
)

// wait polls the descriptor for the given events for at most one slice,
// with the engine wake pipe in the set so a shutdown interrupts it.
func (e *engine) wait(fd int, events int16, deadline time.Time) waitState {
	if !e.running() {
		return waitCanceled
	}

	e.wakeMux.Lock()
	wake := e.wakeR
	e.wakeMux.Unlock()

	if wake == -1 {
		return waitCanceled
	}

	timeout := waitSliceMs

	if !deadline.IsZero() {
		ms := int(time.Until(deadline) / time.Millisecond)

		if ms < 0 {
			return waitTimedOut
		}

		if ms+1 < timeout {
			timeout = ms + 1
		}
	}

	pfds := []unix.PollFd{
		{Fd: int32(fd), Events: events},
		{Fd: int32(wake), Events: int16(unix.POLLIN)},
	}

	n, err := unix.Poll(pfds, timeout)

	if err == unix.EINTR {
		return waitAgain
	}

	if !e.running() || pfds[1].Revents != 0 {
		return waitCanceled
	}

	if err != nil {
		return waitAgain
	}

	if n == 0 {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return waitTimedOut
		}

		return waitAgain
	}

	if pfds[0].Revents != 0 {
		return waitReady
	}

	return waitAgain
}

func (e *engine) execAccept(op *operation) {
	fd := op.sock.Fd()

	if fd == -1 {
		e.dispatch(op, 0, aio.ErrorHandleClosed.Error(nil))
		return
	}

	switch e.wait(fd, int16(unix.POLLIN), time.Time{}) {
	case waitCanceled:
		e.dispatch(op, 0, aio.Canceled(op.point()))
		return
	case waitAgain:
		e.requeue(op)
		return
	default:
	}

	nfd, sa, err := unix.Accept(fd)

	if err == unix.EAGAIN || err == unix.EINTR {
		e.requeue(op)
		return
	}

	if err != nil {
		e.dispatch(op, 0, aio.ErrnoError(err, op.point(), "accept"))
		return
	}

	_ = unix.SetNonblock(nfd, true)
	unix.CloseOnExec(nfd)

	_ = op.accept.Adopt(nfd, op.sock.Family())

	// Accepted sockets start in a default option state; record the peer
	// as the post-accept fixup.
	addr, port := aio.SockaddrToAddr(sa)
	op.accept.SetRemote(addr, port)

	e.dispatch(op, 0, nil)
}

func (e *engine) execConnect(op *operation) {
	fd := op.sock.Fd()

	if fd == -1 {
		e.dispatch(op, 0, aio.ErrorHandleClosed.Error(nil))
		return
	}

	if !op.started {
		op.started = true

		sa := aio.AddrToSockaddr(op.addr, op.port)

		if sa == nil {
			e.dispatch(op, 0, aio.ErrorParamEmpty.Error(nil))
			return
		}

		err := unix.Connect(fd, sa)

		if err == nil {
			op.sock.SetRemote(op.addr, op.port)
			e.dispatch(op, 0, nil)
			return
		}

		if err != unix.EINPROGRESS {
			e.dispatch(op, 0, aio.ErrnoError(err, op.point(), "connect"))
			return
		}

		if op.timeout > 0 {
			op.deadline = time.Now().Add(op.timeout)
		}
	}

	switch e.wait(fd, int16(unix.POLLOUT), op.deadline) {
	case waitCanceled:
		e.dispatch(op, 0, aio.Canceled(op.point()))
		return
	case waitTimedOut:
		e.dispatch(op, 0, aio.TimedOut(op.point()))
		return
	case waitAgain:
		e.requeue(op)
		return
	default:
	}

	soerr, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)

	if gerr != nil {
		e.dispatch(op, 0, aio.ErrnoError(gerr, op.point(), "getsockopt"))
		return
	}

	if soerr != 0 {
		e.dispatch(op, 0, aio.ErrnoError(syscall.Errno(soerr), op.point(), "connect"))
		return
	}

	op.sock.SetRemote(op.addr, op.port)
	e.dispatch(op, 0, nil)
}

func (e *engine) execClose(op *operation) {
	err := op.sock.HardClose()
	e.dispatch(op, 0, err)
}

func (e *engine) execRead(op *operation) {
	fd := op.sock.Fd()

	if fd == -1 {
		e.dispatch(op, 0, aio.ErrorHandleClosed.Error(nil))
		return
	}

	switch e.wait(fd, int16(unix.POLLIN), time.Time{}) {
	case waitCanceled:
		e.dispatch(op, 0, aio.Canceled(op.point()))
		return
	case waitAgain:
		e.requeue(op)
		return
	default:
	}

	n, err := unix.Read(fd, op.buf)

	if err == unix.EAGAIN || err == unix.EINTR {
		e.requeue(op)
		return
	}

	if err != nil {
		e.dispatch(op, 0, aio.ErrnoError(err, op.point(), "read"))
		return
	}

	e.dispatch(op, uint32(n), nil)
}

func (e *engine) execWrite(op *operation) {
	fd := op.sock.Fd()

	if fd == -1 {
		e.dispatch(op, uint32(op.progress), aio.ErrorHandleClosed.Error(nil))
		return
	}

	for op.progress < len(op.buf) {
		switch e.wait(fd, int16(unix.POLLOUT), time.Time{}) {
		case waitCanceled:
			e.dispatch(op, uint32(op.progress), aio.Canceled(op.point()))
			return
		case waitAgain:
			e.requeue(op)
			return
		default:
		}

		n, err := unix.Write(fd, op.buf[op.progress:])

		if err == unix.EAGAIN || err == unix.EINTR {
			e.requeue(op)
			return
		}

		if err != nil {
			e.dispatch(op, uint32(op.progress), aio.ErrnoError(err, op.point(), "write"))
			return
		}

		op.progress += n
	}

	e.dispatch(op, uint32(op.progress), nil)
}

func (e *engine) execSendfile(op *operation) {
	sfd := op.sock.Fd()
	ffd := op.file.Fd()

	if sfd == -1 || ffd == -1 {
		e.dispatch(op, uint32(op.progress), aio.ErrorHandleClosed.Error(nil))
		return
	}

	if !op.started {
		op.started = true
		op.off = op.pos
	}

	for op.progress < int(op.size) {
		switch e.wait(sfd, int16(unix.POLLOUT), time.Time{}) {
		case waitCanceled:
			e.dispatch(op, uint32(op.progress), aio.Canceled(op.point()))
			return
		case waitAgain:
			e.requeue(op)
			return
		default:
		}

		n, err := unix.Sendfile(sfd, ffd, &op.off, int(op.size)-op.progress)

		if err == unix.EAGAIN || err == unix.EINTR {
			e.requeue(op)
			return
		}

		if err != nil {
			e.dispatch(op, uint32(op.progress), aio.ErrnoError(err, op.point(), "sendfile"))
			return
		}

		// A short transfer past EOF ends the operation.
		if n == 0 {
			break
		}

		op.progress += n
	}

	e.dispatch(op, uint32(op.progress), nil)
}
