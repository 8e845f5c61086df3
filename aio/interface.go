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
	"time"

	liberr "github.com/gekit/golib/errors"
	libnet "github.com/gekit/golib/inet"
)

// FileCallback signals the completion of a file read or write: the target
// handle, the opaque user value given at submission, the number of bytes
// transferred and the failure, nil on success. End of file on read is not
// a failure: the callback receives bytes == 0 and a nil error.
type FileCallback func(f *File, user interface{}, bytes uint32, err liberr.Error)

// SocketCallback signals the completion of a socket read, write or
// sendfile.
type SocketCallback func(s *Socket, user interface{}, bytes uint32, err liberr.Error)

// AcceptCallback signals the completion of an accept: the listening
// handle and the handle now holding the accepted connection.
type AcceptCallback func(listen *Socket, accepted *Socket, user interface{}, err liberr.Error)

// ConnectCallback signals the completion of a connect or a close.
type ConnectCallback func(s *Socket, user interface{}, err liberr.Error)

// Owner is the registration surface an engine exposes to its handles.
// A handle registers with at most one engine over its lifetime; closing
// the handle drops the registration.
type Owner interface {
	// RegisterFile adds the file to the engine live set and marks the
	// engine as its owner. Registering a handle owned by another engine
	// fails.
	RegisterFile(f *File) liberr.Error

	// RegisterSocket adds the socket to the engine live set and marks the
	// engine as its owner.
	RegisterSocket(s *Socket) liberr.Error

	// DropFile removes the file from the engine live set.
	DropFile(f *File)

	// DropSocket removes the socket from the engine live set.
	DropSocket(s *Socket)
}

// Engine is the asynchronous I/O engine contract. All submission methods
// validate synchronously and return immediately; results are delivered
// through the given callback, exactly once per accepted submission. A
// submission error means the callback will never run.
type Engine interface {
	Owner

	// Start brings the engine up with the given number of completion
	// workers (0 uses the configured or default count). An engine cannot
	// be restarted once shut down.
	Start(desiredWorkers int) liberr.Error

	// Shutdown cancels every outstanding operation, joins the workers and
	// drains the completion queue. Callbacks of canceled operations
	// receive an io-canceled error. Shutdown is idempotent.
	Shutdown()

	// Pending returns the number of accepted submissions whose callback
	// has not run yet. It returns to zero in finite time after Shutdown.
	Pending() int64

	// FileRead reads up to len(buf) bytes from the file at the given
	// offset.
	FileRead(f *File, cb FileCallback, user interface{}, pos int64, buf []byte) liberr.Error

	// FileWrite writes len(buf) bytes to the file at the given offset.
	FileWrite(f *File, cb FileCallback, user interface{}, pos int64, buf []byte) liberr.Error

	// SocketAccept accepts the next connection of the listening socket
	// into the given accept handle. An uninitialized accept handle is
	// initialized with the listener family.
	SocketAccept(listen *Socket, accept *Socket, cb AcceptCallback, user interface{}) liberr.Error

	// SocketConnect connects the socket to the given address and port.
	// A zero timeout applies the OS default; expiry completes the
	// callback with a timed-out error.
	SocketConnect(s *Socket, cb ConnectCallback, user interface{}, addr libnet.Address, port int, timeout time.Duration) liberr.Error

	// SocketClose shuts the socket down and closes it, then invokes the
	// callback.
	SocketClose(s *Socket, cb ConnectCallback, user interface{}) liberr.Error

	// SocketRead reads up to len(buf) bytes from the socket. A callback
	// with bytes == 0 and no error means the peer closed the connection.
	SocketRead(s *Socket, cb SocketCallback, user interface{}, buf []byte) liberr.Error

	// SocketWrite writes the whole buffer to the socket.
	SocketWrite(s *Socket, cb SocketCallback, user interface{}, buf []byte) liberr.Error

	// SocketSendfile streams length bytes of the file, starting at pos,
	// to the socket.
	SocketSendfile(s *Socket, cb SocketCallback, user interface{}, f *File, pos int64, length uint32) liberr.Error
}
