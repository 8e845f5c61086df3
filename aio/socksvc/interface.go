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

// Package socksvc is the readiness-poll socket backend of the engine.
//
// A single poll goroutine owns the multiplexer and a per-descriptor record
// with one read-class slot (accept or read) and one write-class slot
// (connect, write or sendfile). A self-pipe wakes the poll goroutine when
// submissions change the interest set. Each readiness step performs one
// non-blocking syscall; completed operations are queued on an internal
// ready queue drained by a worker pool, so user callbacks never run on the
// poll goroutine. Sendfile is emulated with a small bounce buffer fed by
// positioned reads of the source file.
package socksvc

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	libnet "github.com/gekit/golib/inet"
	liblog "github.com/gekit/golib/logger"
)

// Service is the readiness-poll backend. Submissions arm per-descriptor
// operation slots; results are delivered through the submission callbacks
// on the service worker pool.
type Service struct {
	mux  sync.Mutex
	data map[int]*sockData
	stop bool

	wakeR int
	wakeW int

	rqMux sync.Mutex
	rqCnd *sync.Cond
	rq    []func()
	rqEnd bool

	wgPoll sync.WaitGroup
	wgWork sync.WaitGroup

	log liblog.FuncLog
}

// New creates the service with its wake pipe, starts the poll goroutine
// and the given number of callback workers.
func New(workers int, log liblog.FuncLog) (*Service, liberr.Error) {
	if workers < 1 {
		workers = 1
	}

	var p [2]int

	if err := unix.Pipe(p[:]); err != nil {
		return nil, ErrorWakePipe.Error(aio.ErrnoError(err, "socksvc.New", "pipe"))
	}

	for _, fd := range p {
		_ = unix.SetNonblock(fd, true)
		unix.CloseOnExec(fd)
	}

	s := &Service{
		data:  make(map[int]*sockData),
		wakeR: p[0],
		wakeW: p[1],
		rq:    make([]func(), 0),
		log:   log,
	}

	s.rqCnd = sync.NewCond(&s.rqMux)

	s.wgPoll.Add(1)
	go s.poll()

	for i := 0; i < workers; i++ {
		s.wgWork.Add(1)
		go s.worker()
	}

	return s, nil
}

// SubmitAccept arms an accept on the listening socket, delivering the
// connection into the given accept handle.
func (s *Service) SubmitAccept(listen, accept *aio.Socket, cb aio.AcceptCallback, user interface{}) liberr.Error {
	if listen == nil || accept == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return ErrorServiceClosed.Error(nil)
	}

	d, err := s.record(listen)

	if err != nil {
		s.mux.Unlock()
		return err
	}

	if d.rop != readOpNone {
		s.mux.Unlock()
		return ErrorReadBusy.Error(nil)
	}

	d.armRead(readOpAccept)
	d.acceptInto = accept
	d.acceptFct = cb
	d.rUser = user

	s.mux.Unlock()
	s.wakeup()

	return nil
}

// SubmitRead arms a read into the given buffer.
func (s *Service) SubmitRead(sock *aio.Socket, cb aio.SocketCallback, user interface{}, buf []byte) liberr.Error {
	if sock == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return ErrorServiceClosed.Error(nil)
	}

	d, err := s.record(sock)

	if err != nil {
		s.mux.Unlock()
		return err
	}

	if d.rop != readOpNone {
		s.mux.Unlock()
		return ErrorReadBusy.Error(nil)
	}

	d.armRead(readOpRead)
	d.readFct = cb
	d.rUser = user
	d.rBuf = buf

	s.mux.Unlock()
	s.wakeup()

	return nil
}

// SubmitWrite arms a write of the whole buffer.
func (s *Service) SubmitWrite(sock *aio.Socket, cb aio.SocketCallback, user interface{}, buf []byte) liberr.Error {
	if sock == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return ErrorServiceClosed.Error(nil)
	}

	d, err := s.record(sock)

	if err != nil {
		s.mux.Unlock()
		return err
	}

	if d.wop != writeOpNone {
		s.mux.Unlock()
		return ErrorWriteBusy.Error(nil)
	}

	d.armWrite(writeOpWrite)
	d.writeFct = cb
	d.wUser = user
	d.wBuf = buf
	d.wPos = 0

	s.mux.Unlock()
	s.wakeup()

	return nil
}

// SubmitConnect starts a non-blocking connect and arms its completion.
// A zero timeout applies the OS default.
func (s *Service) SubmitConnect(sock *aio.Socket, cb aio.ConnectCallback, user interface{}, addr libnet.Address, port int, timeout time.Duration) liberr.Error {
	if sock == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return ErrorServiceClosed.Error(nil)
	}

	d, err := s.record(sock)

	if err != nil {
		s.mux.Unlock()
		return err
	}

	if d.wop != writeOpNone {
		s.mux.Unlock()
		return ErrorWriteBusy.Error(nil)
	}

	sa := aio.AddrToSockaddr(addr, port)

	if sa == nil {
		s.mux.Unlock()
		return ErrorParamEmpty.Error(nil)
	}

	cerr := unix.Connect(d.fd, sa)

	if cerr == nil {
		sock.SetRemote(addr, port)
		s.mux.Unlock()
		s.complete(func() { cb(sock, user, nil) })
		s.wakeup()
		return nil
	}

	if cerr != unix.EINPROGRESS {
		s.mux.Unlock()
		e := aio.ErrnoError(cerr, "Engine.SocketConnect", "connect")
		s.complete(func() { cb(sock, user, e) })
		s.wakeup()
		return nil
	}

	d.armWrite(writeOpConnect)
	d.connFct = cb
	d.wUser = user

	if timeout > 0 {
		d.connDead = time.Now().Add(timeout)
	}

	s.mux.Unlock()
	s.wakeup()

	return nil
}

// SubmitSendfile arms the bounce-buffer sendfile emulation streaming
// length bytes of the file from pos to the socket.
func (s *Service) SubmitSendfile(sock *aio.Socket, cb aio.SocketCallback, user interface{}, f *aio.File, pos int64, length uint32) liberr.Error {
	if sock == nil || cb == nil || f == nil {
		return ErrorParamEmpty.Error(nil)
	}

	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return ErrorServiceClosed.Error(nil)
	}

	d, err := s.record(sock)

	if err != nil {
		s.mux.Unlock()
		return err
	}

	if d.wop != writeOpNone {
		s.mux.Unlock()
		return ErrorWriteBusy.Error(nil)
	}

	d.armWrite(writeOpSendfile)
	d.writeFct = cb
	d.wUser = user
	d.sfFile = f

	if d.sfBuf == nil {
		d.sfBuf = make([]byte, sendFileBufLen)
	}

	d.sfFilled = 0
	d.sfIndex = 0
	d.sfOffset = pos
	d.sfEnd = pos + int64(length)
	d.sfSent = 0

	s.mux.Unlock()
	s.wakeup()

	return nil
}

// SubmitClose cancels both operation slots, removes the descriptor from
// the multiplexer and closes the socket, completing through the callback.
func (s *Service) SubmitClose(sock *aio.Socket, cb aio.ConnectCallback, user interface{}) liberr.Error {
	if sock == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return ErrorServiceClosed.Error(nil)
	}

	fd := sock.Fd()

	if d, ok := s.data[fd]; ok {
		s.cancelLocked(d)
		delete(s.data, fd)
	}

	s.mux.Unlock()

	err := sock.HardClose()
	s.complete(func() { cb(sock, user, err) })
	s.wakeup()

	return nil
}

// Shutdown cancels every armed operation, stops the poll goroutine and
// drains the worker pool. Canceled operations complete with an
// io-canceled error.
func (s *Service) Shutdown() {
	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return
	}

	s.stop = true

	for _, d := range s.data {
		s.cancelLocked(d)
	}

	s.data = make(map[int]*sockData)
	s.mux.Unlock()

	s.wakeup()
	s.wgPoll.Wait()

	s.rqMux.Lock()
	s.rqEnd = true
	s.rqMux.Unlock()
	s.rqCnd.Broadcast()

	s.wgWork.Wait()

	_ = unix.Close(s.wakeR)
	_ = unix.Close(s.wakeW)
}

// record returns the sockData of the given socket, creating it if needed.
func (s *Service) record(sock *aio.Socket) (*sockData, liberr.Error) {
	fd := sock.Fd()

	if fd == -1 {
		return nil, aio.ErrorHandleClosed.Error(nil)
	}

	if d, ok := s.data[fd]; ok {
		return d, nil
	}

	d := &sockData{
		sock: sock,
		fd:   fd,
	}

	s.data[fd] = d

	return d, nil
}

// cancelLocked completes both armed slots of the record with io-canceled.
func (s *Service) cancelLocked(d *sockData) {
	if d.rop != readOpNone {
		if d.rop == readOpAccept {
			fct, lst, acc, usr := d.acceptFct, d.sock, d.acceptInto, d.rUser
			s.complete(func() { fct(lst, acc, usr, aio.Canceled("Engine.SocketAccept")) })
		} else {
			fct, sck, usr := d.readFct, d.sock, d.rUser
			s.complete(func() { fct(sck, usr, 0, aio.Canceled("Engine.SocketRead")) })
		}

		d.clearRead()
	}

	if d.wop != writeOpNone {
		switch d.wop {
		case writeOpConnect:
			fct, sck, usr := d.connFct, d.sock, d.wUser
			s.complete(func() { fct(sck, usr, aio.Canceled("Engine.SocketConnect")) })
		case writeOpSendfile:
			fct, sck, usr, snt := d.writeFct, d.sock, d.wUser, d.sfSent
			s.complete(func() { fct(sck, usr, snt, aio.Canceled("Engine.SocketSendfile")) })
		default:
			fct, sck, usr, pos := d.writeFct, d.sock, d.wUser, d.wPos
			s.complete(func() { fct(sck, usr, uint32(pos), aio.Canceled("Engine.SocketWrite")) })
		}

		d.clearWrite()
	}
}

// complete queues one finished operation for the worker pool.
func (s *Service) complete(fct func()) {
	s.rqMux.Lock()
	s.rq = append(s.rq, fct)
	s.rqMux.Unlock()
	s.rqCnd.Signal()
}

func (s *Service) worker() {
	defer s.wgWork.Done()

	for {
		s.rqMux.Lock()

		for len(s.rq) == 0 && !s.rqEnd {
			s.rqCnd.Wait()
		}

		if len(s.rq) == 0 {
			s.rqMux.Unlock()
			return
		}

		fct := s.rq[0]
		s.rq = s.rq[1:]
		s.rqMux.Unlock()

		fct()
	}
}

func (s *Service) wakeup() {
	b := []byte{'1'}

	for {
		_, err := unix.Write(s.wakeW, b)

		if err != unix.EINTR {
			return
		}
	}
}

func (s *Service) drainWakePipe() {
	var b [256]byte

	for {
		n, err := unix.Read(s.wakeR, b[:])

		if err == unix.EINTR {
			continue
		}

		if err != nil || n < len(b) {
			return
		}
	}
}
