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
	"errors"
	"syscall"

	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"
)

// ErrnoCode normalizes a platform errno into the portable error kind.
// Unmapped values fall back to ErrOSUnknown; the raw code is preserved on
// the Error value built by ErrnoError.
func ErrnoCode(no syscall.Errno) liberr.CodeError {
	switch no {
	case unix.EINVAL, unix.ENOPROTOOPT:
		return liberr.ErrOSInvalidArgument
	case unix.EBADF, unix.ENOTSOCK:
		return liberr.ErrOSInvalidHandle
	case unix.ENFILE, unix.EMFILE:
		return liberr.ErrOSTooManyHandles
	case unix.EDOM:
		return liberr.ErrOSArgumentOutOfDomain
	case unix.EFAULT:
		return liberr.ErrOSBadAddress
	case unix.ENOSYS:
		return liberr.ErrOSCallNotSupported
	case unix.EIDRM:
		return liberr.ErrOSIdentifierRemoved
	case unix.ENOMEM:
		return liberr.ErrOSNotEnoughMemory
	case unix.EOPNOTSUPP:
		return liberr.ErrOSNotSupported
	case unix.EACCES, unix.EPERM, unix.EROFS:
		return liberr.ErrOSAccessDenied
	case unix.ETIMEDOUT, unix.ETIME:
		return liberr.ErrOSTimedOut
	case unix.ECHILD:
		return liberr.ErrOSNoChildProcess
	case unix.ENOEXEC:
		return liberr.ErrOSInvalidExecutable
	case unix.EPIPE:
		return liberr.ErrOSBrokenPipe
	case unix.EIO:
		return liberr.ErrOSIOError
	case unix.ENOLCK:
		return liberr.ErrOSNoLockAvailable
	case unix.ECANCELED:
		return liberr.ErrOSIOCanceled
	case unix.ENOENT:
		return liberr.ErrOSFileNotFound
	case unix.EEXIST:
		return liberr.ErrOSFileExists
	case unix.EFBIG:
		return liberr.ErrOSFileTooLarge
	case unix.EBUSY, unix.ETXTBSY:
		return liberr.ErrOSFileInUse
	case unix.ENAMETOOLONG:
		return liberr.ErrOSFilenameTooLong
	case unix.EISDIR:
		return liberr.ErrOSIsADirectory
	case unix.ENOTDIR:
		return liberr.ErrOSNotADirectory
	case unix.ENOTEMPTY:
		return liberr.ErrOSDirectoryNotEmpty
	case unix.ESPIPE:
		return liberr.ErrOSInvalidSeek
	case unix.ENOSPC:
		return liberr.ErrOSNoSpaceOnDevice
	case unix.ENXIO, unix.ENODEV:
		return liberr.ErrOSNoSuchDevice
	case unix.EXDEV:
		return liberr.ErrOSCrossDeviceLink
	case unix.EMLINK:
		return liberr.ErrOSTooManyLinks
	case unix.ELOOP:
		return liberr.ErrOSTooManySymlinkLevels
	case unix.ENOBUFS:
		return liberr.ErrOSNoBufferSpace
	case unix.EAFNOSUPPORT:
		return liberr.ErrOSAddressNotSupported
	case unix.EADDRINUSE:
		return liberr.ErrOSAddressInUse
	case unix.EADDRNOTAVAIL:
		return liberr.ErrOSAddressNotAvailable
	case unix.EISCONN:
		return liberr.ErrOSAlreadyConnected
	case unix.E2BIG:
		return liberr.ErrOSArgumentListTooLong
	case unix.ECONNABORTED:
		return liberr.ErrOSConnectionAborted
	case unix.EALREADY:
		return liberr.ErrOSConnectionInProgress
	case unix.ECONNREFUSED:
		return liberr.ErrOSConnectionRefused
	case unix.ECONNRESET:
		return liberr.ErrOSConnectionReset
	case unix.ESHUTDOWN:
		return liberr.ErrOSConnectionShutdown
	case unix.ENOTCONN:
		return liberr.ErrOSNotConnected
	case unix.EHOSTUNREACH:
		return liberr.ErrOSHostUnreachable
	case unix.ENETDOWN:
		return liberr.ErrOSNetworkDown
	case unix.ENETRESET:
		return liberr.ErrOSNetworkReset
	case unix.ENETUNREACH:
		return liberr.ErrOSNetworkUnreachable
	case unix.EDESTADDRREQ:
		return liberr.ErrOSDestinationAddressRequired
	case unix.EMSGSIZE:
		return liberr.ErrOSMessageTooLong
	case unix.EPROTO, unix.EPROTONOSUPPORT:
		return liberr.ErrOSProtocolError
	case unix.EILSEQ:
		return liberr.ErrOSIllegalByteSequence
	}

	return liberr.ErrOSUnknown
}

// ErrnoError builds an Error value from a failed syscall: the errno is
// normalized with ErrnoCode, the raw code and its message are preserved,
// and the failure point and syscall name are attached for diagnostics.
// A nil err returns nil.
func ErrnoError(err error, failurePoint, sysCall string) liberr.Error {
	if err == nil {
		return nil
	}

	var no syscall.Errno

	if errors.As(err, &no) {
		return ErrnoCode(no).ErrorOS(int32(no), no.Error(), failurePoint, sysCall)
	}

	e := liberr.ErrOSUnknown.Error(err)
	e.SetOS(0, err.Error(), failurePoint, sysCall)

	return e
}

// Canceled builds the Error reported to callbacks of operations canceled
// by an engine shutdown.
func Canceled(failurePoint string) liberr.Error {
	return liberr.ErrOSIOCanceled.ErrorOS(int32(unix.ECANCELED), unix.ECANCELED.Error(), failurePoint, "")
}

// TimedOut builds the Error reported to callbacks of operations that hit
// their submission timeout.
func TimedOut(failurePoint string) liberr.Error {
	return liberr.ErrOSTimedOut.ErrorOS(int32(unix.ETIMEDOUT), unix.ETIMEDOUT.Error(), failurePoint, "")
}
