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

package socksvc

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	liblog "github.com/gekit/golib/logger"
)

// poll is the body of the poll goroutine: rebuild the readiness array
// from the record map, block on poll(2) with the wake pipe in the set,
// then step every ready operation once. User callbacks never run here.
func (s *Service) poll() {
	defer s.wgPoll.Done()

	for {
		s.mux.Lock()

		if s.stop {
			s.mux.Unlock()
			return
		}

		var (
			pfds    = make([]unix.PollFd, 1, len(s.data)+1)
			fds     = make([]int, 1, len(s.data)+1)
			timeout = -1
			now     = time.Now()
		)

		pfds[0] = unix.PollFd{Fd: int32(s.wakeR), Events: int16(unix.POLLIN)}
		fds[0] = -1

		for fd, d := range s.data {
			if d.events == 0 {
				continue
			}

			pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: d.events})
			fds = append(fds, fd)

			if d.wop == writeOpConnect && !d.connDead.IsZero() {
				ms := int(d.connDead.Sub(now) / time.Millisecond)

				if ms < 0 {
					ms = 0
				}

				if timeout < 0 || ms < timeout {
					timeout = ms + 1
				}
			}
		}

		s.mux.Unlock()

		_, err := unix.Poll(pfds, timeout)

		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		} else if err != nil {
			liblog.Resolve(s.log).Error("poll loop failed: %v", err)
			continue
		}

		s.mux.Lock()

		if s.stop {
			s.mux.Unlock()
			return
		}

		if pfds[0].Revents != 0 {
			s.drainWakePipe()
		}

		for i := 1; i < len(pfds); i++ {
			re := pfds[i].Revents

			if re == 0 {
				continue
			}

			d, ok := s.data[fds[i]]

			if !ok {
				continue
			}

			if re&int16(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0 && d.rop != readOpNone {
				s.stepRead(d)
			}

			if re&int16(unix.POLLOUT|unix.POLLERR|unix.POLLHUP) != 0 && d.wop != writeOpNone {
				s.stepWrite(d)
			}
		}

		now = time.Now()

		for _, d := range s.data {
			if d.wop == writeOpConnect && !d.connDead.IsZero() && now.After(d.connDead) {
				fct, sck, usr := d.connFct, d.sock, d.wUser
				d.clearWrite()
				s.complete(func() { fct(sck, usr, aio.TimedOut("Engine.SocketConnect")) })
			}
		}

		s.mux.Unlock()
	}
}

// stepRead performs one non-blocking syscall for the armed read-class
// operation. EAGAIN keeps the operation armed.
func (s *Service) stepRead(d *sockData) {
	switch d.rop {
	case readOpAccept:
		nfd, sa, err := unix.Accept(d.fd)

		if err == unix.EAGAIN || err == unix.EINTR {
			return
		}

		fct, lst, acc, usr := d.acceptFct, d.sock, d.acceptInto, d.rUser
		d.clearRead()

		if err != nil {
			e := aio.ErrnoError(err, "Engine.SocketAccept", "accept")
			s.complete(func() { fct(lst, acc, usr, e) })
			return
		}

		_ = unix.SetNonblock(nfd, true)
		unix.CloseOnExec(nfd)

		_ = acc.Adopt(nfd, lst.Family())

		addr, port := aio.SockaddrToAddr(sa)
		acc.SetRemote(addr, port)

		s.complete(func() { fct(lst, acc, usr, nil) })

	case readOpRead:
		n, err := unix.Read(d.fd, d.rBuf)

		if err == unix.EAGAIN || err == unix.EINTR {
			return
		}

		fct, sck, usr := d.readFct, d.sock, d.rUser
		d.clearRead()

		if err != nil {
			e := aio.ErrnoError(err, "Engine.SocketRead", "read")
			s.complete(func() { fct(sck, usr, 0, e) })
			return
		}

		s.complete(func() { fct(sck, usr, uint32(n), nil) })
	}
}

// stepWrite performs one non-blocking syscall for the armed write-class
// operation.
func (s *Service) stepWrite(d *sockData) {
	switch d.wop {
	case writeOpConnect:
		soerr, err := unix.GetsockoptInt(d.fd, unix.SOL_SOCKET, unix.SO_ERROR)

		fct, sck, usr := d.connFct, d.sock, d.wUser
		d.clearWrite()

		if err != nil {
			e := aio.ErrnoError(err, "Engine.SocketConnect", "getsockopt")
			s.complete(func() { fct(sck, usr, e) })
			return
		}

		if soerr != 0 {
			e := aio.ErrnoError(syscall.Errno(soerr), "Engine.SocketConnect", "connect")
			s.complete(func() { fct(sck, usr, e) })
			return
		}

		if sa, e := unix.Getpeername(d.fd); e == nil {
			addr, port := aio.SockaddrToAddr(sa)
			sck.SetRemote(addr, port)
		}

		s.complete(func() { fct(sck, usr, nil) })

	case writeOpWrite:
		n, err := unix.Write(d.fd, d.wBuf[d.wPos:])

		if err == unix.EAGAIN || err == unix.EINTR {
			return
		}

		if err != nil {
			fct, sck, usr, pos := d.writeFct, d.sock, d.wUser, d.wPos
			d.clearWrite()
			e := aio.ErrnoError(err, "Engine.SocketWrite", "write")
			s.complete(func() { fct(sck, usr, uint32(pos), e) })
			return
		}

		d.wPos += n

		if d.wPos >= len(d.wBuf) {
			fct, sck, usr, pos := d.writeFct, d.sock, d.wUser, d.wPos
			d.clearWrite()
			s.complete(func() { fct(sck, usr, uint32(pos), nil) })
		}

	case writeOpSendfile:
		s.stepSendfile(d)
	}
}

// stepSendfile advances the bounce-buffer emulation: refill from the file
// when drained, then push one write to the socket.
func (s *Service) stepSendfile(d *sockData) {
	if d.sfIndex == d.sfFilled {
		if d.sfOffset >= d.sfEnd {
			s.finishSendfile(d, nil)
			return
		}

		want := d.sfEnd - d.sfOffset

		if want > int64(len(d.sfBuf)) {
			want = int64(len(d.sfBuf))
		}

		var (
			n   int
			err error
		)

		for {
			n, err = unix.Pread(d.sfFile.Fd(), d.sfBuf[:want], d.sfOffset)

			if err != unix.EINTR {
				break
			}
		}

		if err != nil {
			s.finishSendfile(d, aio.ErrnoError(err, "Engine.SocketSendfile", "pread"))
			return
		}

		// EOF before the requested range is drained
		if n == 0 {
			s.finishSendfile(d, nil)
			return
		}

		d.sfOffset += int64(n)
		d.sfFilled = n
		d.sfIndex = 0
	}

	n, err := unix.Write(d.fd, d.sfBuf[d.sfIndex:d.sfFilled])

	if err == unix.EAGAIN || err == unix.EINTR {
		return
	}

	if err != nil {
		s.finishSendfile(d, aio.ErrnoError(err, "Engine.SocketSendfile", "write"))
		return
	}

	d.sfIndex += n
	d.sfSent += uint32(n)

	if d.sfIndex == d.sfFilled && d.sfOffset >= d.sfEnd {
		s.finishSendfile(d, nil)
	}
}

func (s *Service) finishSendfile(d *sockData, e liberr.Error) {
	fct, sck, usr, snt := d.writeFct, d.sock, d.wUser, d.sfSent
	d.clearWrite()
	s.complete(func() { fct(sck, usr, snt, e) })
}
