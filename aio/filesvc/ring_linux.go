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

//go:build linux

package filesvc

import (
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// io_uring ABI, kept to the subset the native file backend needs.
// Layouts follow include/uapi/linux/io_uring.h.

const (
	ringOpNop   = 0
	ringOpRead  = 22
	ringOpWrite = 23

	ringOffSqRing = 0
	ringOffCqRing = 0x8000000
	ringOffSqes   = 0x10000000

	ringEnterGetEvents = 1
)

type sqringOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	flags       uint32
	dropped     uint32
	array       uint32
	resv1       uint32
	resv2       uint64
}

type cqringOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	overflow    uint32
	cqes        uint32
	flags       uint32
	resv1       uint32
	resv2       uint64
}

type ringParams struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFd         uint32
	resv         [3]uint32
	sqOff        sqringOffsets
	cqOff        cqringOffsets
}

// ringSqe is one 64-byte submission queue entry.
type ringSqe struct {
	Opcode      uint8
	Flags       uint8
	Ioprio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpcodeFlags uint32
	UserData    uint64
	BufIndex    uint16
	Personality uint16
	SpliceFdIn  int32
	pad         [2]uint64
}

// ringCqe is one 16-byte completion queue entry.
type ringCqe struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// ring is a minimal pure-Go io_uring instance: a single SQ/CQ pair
// mapped into the process, driven with io_uring_enter.
type ring struct {
	fd int

	sqMem  []byte
	cqMem  []byte
	sqeMem []byte

	sqHead    *uint32
	sqTail    *uint32
	sqMask    uint32
	sqArray   []uint32
	sqEntries uint32
	sqes      []ringSqe

	cqHead    *uint32
	cqTail    *uint32
	cqMask    uint32
	cqes      []ringCqe
	cqEntries uint32
}

func newRing(entries uint32) (*ring, error) {
	var p ringParams

	fd, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(&p)), 0)

	if errno != 0 {
		return nil, errno
	}

	r := &ring{
		fd:        int(fd),
		sqEntries: p.sqEntries,
		cqEntries: p.cqEntries,
	}

	var err error

	sqSize := int(p.sqOff.array + p.sqEntries*4)

	if r.sqMem, err = unix.Mmap(r.fd, ringOffSqRing, sqSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE); err != nil {
		_ = unix.Close(r.fd)
		return nil, err
	}

	cqSize := int(p.cqOff.cqes) + int(p.cqEntries)*int(unsafe.Sizeof(ringCqe{}))

	if r.cqMem, err = unix.Mmap(r.fd, ringOffCqRing, cqSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE); err != nil {
		_ = unix.Munmap(r.sqMem)
		_ = unix.Close(r.fd)
		return nil, err
	}

	sqeSize := int(p.sqEntries) * int(unsafe.Sizeof(ringSqe{}))

	if r.sqeMem, err = unix.Mmap(r.fd, ringOffSqes, sqeSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE); err != nil {
		_ = unix.Munmap(r.cqMem)
		_ = unix.Munmap(r.sqMem)
		_ = unix.Close(r.fd)
		return nil, err
	}

	r.sqHead = (*uint32)(unsafe.Pointer(&r.sqMem[p.sqOff.head]))
	r.sqTail = (*uint32)(unsafe.Pointer(&r.sqMem[p.sqOff.tail]))
	r.sqMask = *(*uint32)(unsafe.Pointer(&r.sqMem[p.sqOff.ringMask]))
	r.sqArray = unsafe.Slice((*uint32)(unsafe.Pointer(&r.sqMem[p.sqOff.array])), p.sqEntries)
	r.sqes = unsafe.Slice((*ringSqe)(unsafe.Pointer(&r.sqeMem[0])), p.sqEntries)

	r.cqHead = (*uint32)(unsafe.Pointer(&r.cqMem[p.cqOff.head]))
	r.cqTail = (*uint32)(unsafe.Pointer(&r.cqMem[p.cqOff.tail]))
	r.cqMask = *(*uint32)(unsafe.Pointer(&r.cqMem[p.cqOff.ringMask]))
	r.cqes = unsafe.Slice((*ringCqe)(unsafe.Pointer(&r.cqMem[p.cqOff.cqes])), p.cqEntries)

	return r, nil
}

// peekSqe returns the next free submission entry, or nil when the queue
// is full.
func (r *ring) peekSqe() *ringSqe {
	head := atomic.LoadUint32(r.sqHead)
	tail := *r.sqTail

	if tail-head >= r.sqEntries {
		return nil
	}

	idx := tail & r.sqMask
	sqe := &r.sqes[idx]
	*sqe = ringSqe{}
	r.sqArray[idx] = idx

	return sqe
}

// advanceSq publishes the entry returned by the last peekSqe.
func (r *ring) advanceSq() {
	atomic.StoreUint32(r.sqTail, *r.sqTail+1)
}

// submit pushes published entries to the kernel.
func (r *ring) submit(toSubmit uint32) (int, syscall.Errno) {
	n, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(r.fd), uintptr(toSubmit), 0, 0, 0, 0)

	return int(n), errno
}

// waitCqe blocks until one completion is available and returns a copy of
// it after advancing the completion head.
func (r *ring) waitCqe() (ringCqe, syscall.Errno) {
	for {
		head := *r.cqHead
		tail := atomic.LoadUint32(r.cqTail)

		if head != tail {
			cqe := r.cqes[head&r.cqMask]
			atomic.StoreUint32(r.cqHead, head+1)
			return cqe, 0
		}

		_, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(r.fd), 0, 1, ringEnterGetEvents, 0, 0)

		if errno == unix.EINTR {
			continue
		} else if errno != 0 {
			return ringCqe{}, errno
		}
	}
}

func (r *ring) close() {
	_ = unix.Munmap(r.sqeMem)
	_ = unix.Munmap(r.cqMem)
	_ = unix.Munmap(r.sqMem)
	_ = unix.Close(r.fd)
}
