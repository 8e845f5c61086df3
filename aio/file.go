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
)

// OpenMode selects how File.Open treats an existing or missing path.
type OpenMode uint8

const (
	// OpenModeCreateOnly creates the file and fails if it already exists.
	OpenModeCreateOnly OpenMode = iota

	// OpenModeCreateOrOpen creates the file if missing, opens it otherwise.
	OpenModeCreateOrOpen

	// OpenModeCreateOrTruncate creates the file if missing, truncates it
	// otherwise.
	OpenModeCreateOrTruncate

	// OpenModeOpenOnly opens the file and fails if it is missing.
	OpenModeOpenOnly

	// OpenModeTruncateOnly truncates an existing file and fails if it is
	// missing.
	OpenModeTruncateOnly
)

// Perm is the read/write permission bitmask of File.Open.
type Perm uint8

const (
	PermRead Perm = 1 << iota
	PermWrite
)

// File is the ownership root of one OS file descriptor usable with an
// Engine. A File registers with at most one engine over its lifetime and
// must outlive any operation in flight on it.
type File struct {
	m sync.Mutex
	d int
	o Owner
}

// NewFile returns a closed File handle.
func NewFile() *File {
	return &File{
		d: -1,
	}
}

// Open opens the file at the given path. Calling Open on a live handle
// fails with ErrorHandleOpen, carrying the invalid-argument kind as parent.
func (f *File) Open(path string, mode OpenMode, perm Perm) liberr.Error {
	f.m.Lock()
	defer f.m.Unlock()

	if f.d != -1 {
		return ErrorHandleOpen.Error(liberr.ErrOSInvalidArgument.Error(nil))
	}

	var flags int

	switch mode {
	case OpenModeCreateOnly:
		flags = unix.O_CREAT | unix.O_EXCL
	case OpenModeCreateOrOpen:
		flags = unix.O_CREAT
	case OpenModeCreateOrTruncate:
		flags = unix.O_CREAT | unix.O_TRUNC
	case OpenModeOpenOnly:
		flags = 0
	case OpenModeTruncateOnly:
		flags = unix.O_TRUNC
	default:
		return ErrorParamEmpty.Error(nil)
	}

	switch {
	case perm&PermRead != 0 && perm&PermWrite != 0:
		flags |= unix.O_RDWR
	case perm&PermWrite != 0:
		flags |= unix.O_WRONLY
	case perm&PermRead != 0:
		flags |= unix.O_RDONLY
	default:
		return ErrorParamEmpty.Error(nil)
	}

	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0644)

	if err != nil {
		return ErrnoError(err, "File.Open", "open")
	}

	f.d = fd

	return nil
}

// Fd returns the OS descriptor of the handle, or -1 when closed.
func (f *File) Fd() int {
	f.m.Lock()
	defer f.m.Unlock()

	return f.d
}

// IsOpen reports whether the handle holds a live descriptor.
func (f *File) IsOpen() bool {
	return f.Fd() != -1
}

// Owner returns the engine owning this handle, or nil.
func (f *File) Owner() Owner {
	f.m.Lock()
	defer f.m.Unlock()

	return f.o
}

// Attach marks the given engine as the owner of this handle. Attaching a
// handle already owned by another engine fails.
func (f *File) Attach(o Owner) liberr.Error {
	f.m.Lock()
	defer f.m.Unlock()

	if f.o != nil && f.o != o {
		return ErrorHandleOtherOwner.Error(nil)
	}

	f.o = o

	return nil
}

// Close deregisters the handle from its engine and closes the descriptor.
func (f *File) Close() liberr.Error {
	f.m.Lock()
	o := f.o
	d := f.d
	f.o = nil
	f.d = -1
	f.m.Unlock()

	if o != nil {
		o.DropFile(f)
	}

	if d == -1 {
		return nil
	}

	if err := unix.Close(d); err != nil {
		return ErrnoError(err, "File.Close", "close")
	}

	return nil
}
