/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

// Portable OS failure kinds. The closed set of codes any syscall failure is
// normalized into; platform specific codes map here and unmapped codes fall
// back to ErrOSUnknown while preserving the raw OS code on the Error value.
const (
	ErrOSInvalidArgument CodeError = iota + MinPkgOS
	ErrOSInvalidHandle
	ErrOSTooManyHandles
	ErrOSArgumentOutOfDomain
	ErrOSBadAddress
	ErrOSCallNotSupported
	ErrOSIdentifierRemoved
	ErrOSNotEnoughMemory
	ErrOSNotSupported
	ErrOSAccessDenied
	ErrOSTimedOut

	ErrOSNoChildProcess
	ErrOSInvalidExecutable

	ErrOSBrokenPipe
	ErrOSIOError
	ErrOSNoLockAvailable
	ErrOSIOCanceled

	ErrOSFileNotFound
	ErrOSFileExists
	ErrOSFileTooLarge
	ErrOSFileInUse
	ErrOSFilenameTooLong
	ErrOSIsADirectory
	ErrOSNotADirectory
	ErrOSDirectoryNotEmpty
	ErrOSInvalidSeek
	ErrOSNoSpaceOnDevice
	ErrOSNoSuchDevice

	ErrOSCrossDeviceLink
	ErrOSTooManyLinks
	ErrOSTooManySymlinkLevels

	ErrOSNoBufferSpace
	ErrOSAddressNotSupported
	ErrOSAddressInUse
	ErrOSAddressNotAvailable
	ErrOSAlreadyConnected
	ErrOSArgumentListTooLong
	ErrOSConnectionAborted
	ErrOSConnectionInProgress
	ErrOSConnectionRefused
	ErrOSConnectionReset
	ErrOSConnectionShutdown
	ErrOSNotConnected
	ErrOSHostUnreachable
	ErrOSNetworkDown
	ErrOSNetworkReset
	ErrOSNetworkUnreachable
	ErrOSDestinationAddressRequired
	ErrOSMessageTooLong
	ErrOSProtocolError

	ErrOSIllegalByteSequence

	ErrOSUnknown
)

func init() {
	RegisterIdFctMessage(ErrOSInvalidArgument, getOSMessage)
}

func getOSMessage(code CodeError) (message string) {
	switch code {
	case ErrOSInvalidArgument:
		return "invalid argument"
	case ErrOSInvalidHandle:
		return "invalid handle"
	case ErrOSTooManyHandles:
		return "too many open handles"
	case ErrOSArgumentOutOfDomain:
		return "argument out of domain"
	case ErrOSBadAddress:
		return "bad address"
	case ErrOSCallNotSupported:
		return "system call not supported"
	case ErrOSIdentifierRemoved:
		return "identifier removed"
	case ErrOSNotEnoughMemory:
		return "not enough memory"
	case ErrOSNotSupported:
		return "operation not supported"
	case ErrOSAccessDenied:
		return "access denied"
	case ErrOSTimedOut:
		return "operation timed out"
	case ErrOSNoChildProcess:
		return "no child process"
	case ErrOSInvalidExecutable:
		return "invalid executable format"
	case ErrOSBrokenPipe:
		return "broken pipe"
	case ErrOSIOError:
		return "input/output error"
	case ErrOSNoLockAvailable:
		return "no lock available"
	case ErrOSIOCanceled:
		return "io operation canceled"
	case ErrOSFileNotFound:
		return "file not found"
	case ErrOSFileExists:
		return "file already exists"
	case ErrOSFileTooLarge:
		return "file too large"
	case ErrOSFileInUse:
		return "file in use"
	case ErrOSFilenameTooLong:
		return "filename too long"
	case ErrOSIsADirectory:
		return "is a directory"
	case ErrOSNotADirectory:
		return "not a directory"
	case ErrOSDirectoryNotEmpty:
		return "directory not empty"
	case ErrOSInvalidSeek:
		return "invalid seek"
	case ErrOSNoSpaceOnDevice:
		return "no space left on device"
	case ErrOSNoSuchDevice:
		return "no such device"
	case ErrOSCrossDeviceLink:
		return "cross device link"
	case ErrOSTooManyLinks:
		return "too many links"
	case ErrOSTooManySymlinkLevels:
		return "too many symbolic link levels"
	case ErrOSNoBufferSpace:
		return "no buffer space available"
	case ErrOSAddressNotSupported:
		return "address family not supported"
	case ErrOSAddressInUse:
		return "address already in use"
	case ErrOSAddressNotAvailable:
		return "address not available"
	case ErrOSAlreadyConnected:
		return "socket already connected"
	case ErrOSArgumentListTooLong:
		return "argument list too long"
	case ErrOSConnectionAborted:
		return "connection aborted"
	case ErrOSConnectionInProgress:
		return "connection already in progress"
	case ErrOSConnectionRefused:
		return "connection refused"
	case ErrOSConnectionReset:
		return "connection reset by peer"
	case ErrOSConnectionShutdown:
		return "connection shutdown"
	case ErrOSNotConnected:
		return "socket not connected"
	case ErrOSHostUnreachable:
		return "host unreachable"
	case ErrOSNetworkDown:
		return "network down"
	case ErrOSNetworkReset:
		return "network reset"
	case ErrOSNetworkUnreachable:
		return "network unreachable"
	case ErrOSDestinationAddressRequired:
		return "destination address required"
	case ErrOSMessageTooLong:
		return "message too long"
	case ErrOSProtocolError:
		return "protocol error"
	case ErrOSIllegalByteSequence:
		return "illegal byte sequence"
	case ErrOSUnknown:
		return "unknown os error"
	}

	return NullMessage
}
