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

package aio

import (
	"sync"

	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"
	libnet "github.com/gekit/golib/inet"
)

const (
	flagListen uint8 = 1 << iota
	flagBound
)

// Socket is the ownership root of one OS stream socket usable with an
// Engine. Sockets are created non-blocking and close-on-exec. A Socket
// registers with at most one engine over its lifetime and must outlive
// any operation in flight on it.
type Socket struct {
	m sync.Mutex
	d int
	y libnet.Family
	g uint8
	o Owner

	ra libnet.Address
	rp int
}

// NewSocket returns an uninitialized Socket handle.
func NewSocket() *Socket {
	return &Socket{
		d: -1,
	}
}

// Init creates a non-blocking, non-inheritable stream socket of the given
// family. Calling Init on a live handle fails.
func (s *Socket) Init(family libnet.Family) liberr.Error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.d != -1 {
		return ErrorHandleOpen.Error(nil)
	}

	var domain int

	switch family {
	case libnet.FamilyIPv4:
		domain = unix.AF_INET
	case libnet.FamilyIPv6:
		domain = unix.AF_INET6
	default:
		return ErrorParamEmpty.Error(nil)
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)

	if err != nil {
		return ErrnoError(err, "Socket.Init", "socket")
	}

	if err = unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return ErrnoError(err, "Socket.Init", "fcntl")
	}

	unix.CloseOnExec(fd)

	s.d = fd
	s.y = family

	return nil
}

// Adopt installs an already open descriptor into an uninitialized handle.
// It is used by the backends for sockets produced by accept.
func (s *Socket) Adopt(fd int, family libnet.Family) liberr.Error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.d != -1 {
		return ErrorHandleOpen.Error(nil)
	}

	s.d = fd
	s.y = family

	return nil
}

// Fd returns the OS descriptor of the handle, or -1.
func (s *Socket) Fd() int {
	s.m.Lock()
	defer s.m.Unlock()

	return s.d
}

// IsOpen reports whether the handle holds a live descriptor.
func (s *Socket) IsOpen() bool {
	return s.Fd() != -1
}

// Family returns the address family the socket was initialized with.
func (s *Socket) Family() libnet.Family {
	s.m.Lock()
	defer s.m.Unlock()

	return s.y
}

// IsListening reports whether Listen succeeded on this socket.
func (s *Socket) IsListening() bool {
	s.m.Lock()
	defer s.m.Unlock()

	return s.g&flagListen != 0
}

// IsBound reports whether Bind succeeded on this socket.
func (s *Socket) IsBound() bool {
	s.m.Lock()
	defer s.m.Unlock()

	return s.g&flagBound != 0
}

// Owner returns the engine owning this handle, or nil.
func (s *Socket) Owner() Owner {
	s.m.Lock()
	defer s.m.Unlock()

	return s.o
}

// Attach marks the given engine as the owner of this handle. Attaching a
// handle already owned by another engine fails.
func (s *Socket) Attach(o Owner) liberr.Error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.o != nil && s.o != o {
		return ErrorHandleOtherOwner.Error(nil)
	}

	s.o = o

	return nil
}

// SetV6Only toggles the IPV6_V6ONLY option of an IPv6 socket, so a
// dual-stack listener pair can bind the same port on both families.
func (s *Socket) SetV6Only(only bool) liberr.Error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.d == -1 {
		return ErrorHandleClosed.Error(nil)
	}

	if s.y != libnet.FamilyIPv6 {
		return ErrorFamilyMismatch.Error(nil)
	}

	v := 0

	if only {
		v = 1
	}

	if err := unix.SetsockoptInt(s.d, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, v); err != nil {
		return ErrnoError(err, "Socket.SetV6Only", "setsockopt")
	}

	return nil
}

// SetReuseAddr toggles SO_REUSEADDR, letting listeners rebind a port in
// TIME_WAIT.
func (s *Socket) SetReuseAddr(reuse bool) liberr.Error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.d == -1 {
		return ErrorHandleClosed.Error(nil)
	}

	v := 0

	if reuse {
		v = 1
	}

	if err := unix.SetsockoptInt(s.d, unix.SOL_SOCKET, unix.SO_REUSEADDR, v); err != nil {
		return ErrnoError(err, "Socket.SetReuseAddr", "setsockopt")
	}

	return nil
}

// Bind binds the socket to the given local address and port. The address
// family must match the socket family.
func (s *Socket) Bind(addr libnet.Address, port int) liberr.Error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.d == -1 {
		return ErrorHandleClosed.Error(nil)
	}

	if addr.Family() != s.y {
		return ErrorFamilyMismatch.Error(nil)
	}

	var (
		err error
		raw = addr.Raw()
	)

	if s.y == libnet.FamilyIPv4 {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], raw)
		err = unix.Bind(s.d, sa)
	} else {
		sa := &unix.SockaddrInet6{Port: port}
		copy(sa.Addr[:], raw)
		err = unix.Bind(s.d, sa)
	}

	if err != nil {
		return ErrnoError(err, "Socket.Bind", "bind")
	}

	s.g |= flagBound

	return nil
}

// Listen marks the socket as accepting connections. A backlog lower or
// equal to zero applies the platform maximum.
func (s *Socket) Listen(backlog int) liberr.Error {
	s.m.Lock()
	defer s.m.Unlock()

	if s.d == -1 {
		return ErrorHandleClosed.Error(nil)
	}

	if backlog <= 0 || backlog > unix.SOMAXCONN {
		backlog = unix.SOMAXCONN
	}

	if err := unix.Listen(s.d, backlog); err != nil {
		return ErrnoError(err, "Socket.Listen", "listen")
	}

	s.g |= flagListen

	return nil
}

// RemoteAddress returns the peer address captured after a successful
// accept or connect.
func (s *Socket) RemoteAddress() (libnet.Address, int) {
	s.m.Lock()
	defer s.m.Unlock()

	return s.ra, s.rp
}

// SetRemote records the peer address of the connection. It is used by the
// backends after accept and connect fixups.
func (s *Socket) SetRemote(addr libnet.Address, port int) {
	s.m.Lock()
	defer s.m.Unlock()

	s.ra = addr
	s.rp = port
}

// HardClose attempts a graceful write shutdown before closing the
// descriptor. A shutdown failure is not fatal: the close still happens and
// only the close error is reported.
func (s *Socket) HardClose() liberr.Error {
	s.m.Lock()
	o := s.o
	d := s.d
	s.o = nil
	s.d = -1
	s.g = 0
	s.m.Unlock()

	if o != nil {
		o.DropSocket(s)
	}

	if d == -1 {
		return nil
	}

	_ = unix.Shutdown(d, unix.SHUT_WR)

	if err := unix.Close(d); err != nil {
		return ErrnoError(err, "Socket.HardClose", "close")
	}

	return nil
}

// Close deregisters the handle from its engine and closes the descriptor.
func (s *Socket) Close() liberr.Error {
	s.m.Lock()
	o := s.o
	d := s.d
	s.o = nil
	s.d = -1
	s.g = 0
	s.m.Unlock()

	if o != nil {
		o.DropSocket(s)
	}

	if d == -1 {
		return nil
	}

	if err := unix.Close(d); err != nil {
		return ErrnoError(err, "Socket.Close", "close")
	}

	return nil
}
