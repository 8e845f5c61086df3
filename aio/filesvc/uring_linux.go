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
	"sync"
	"syscall"
	"unsafe"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	liblog "github.com/gekit/golib/logger"
)

// shutdownToken is the user data of the NOP entry waking the reaper on
// shutdown.
const shutdownToken = ^uint64(0)

type uringJob struct {
	read bool
	file *aio.File
	fct  aio.FileCallback
	usr  interface{}
	buf  []byte
}

type uringSvc struct {
	mux  sync.Mutex
	rng  *ring
	seq  uint64
	jobs map[uint64]*uringJob
	stop bool

	wgr sync.WaitGroup
	log liblog.FuncLog
}

// NewNativeAsync returns the kernel async file backend: each request
// becomes one submission queue entry, and a single reaper goroutine waits
// for completions and dispatches callbacks.
func NewNativeAsync(entries uint32, log liblog.FuncLog) (Service, liberr.Error) {
	if entries < 2 {
		entries = defaultRingEntries
	}

	r, err := newRing(entries)

	if err != nil {
		return nil, ErrorRingSetup.Error(aio.ErrnoError(err, "filesvc.NewNativeAsync", "io_uring_setup"))
	}

	s := &uringSvc{
		rng:  r,
		jobs: make(map[uint64]*uringJob),
		log:  log,
	}

	s.wgr.Add(1)
	go s.reaper()

	return s, nil
}

func (s *uringSvc) submit(j *uringJob, pos int64) liberr.Error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.stop {
		return ErrorServiceClosed.Error(nil)
	}

	fd := j.file.Fd()

	if fd == -1 {
		return aio.ErrorHandleClosed.Error(nil)
	}

	sqe := s.rng.peekSqe()

	if sqe == nil {
		return ErrorRingQueueFull.Error(nil)
	}

	if j.read {
		sqe.Opcode = ringOpRead
	} else {
		sqe.Opcode = ringOpWrite
	}

	sqe.Fd = int32(fd)
	sqe.Off = uint64(pos)
	sqe.Len = uint32(len(j.buf))

	if len(j.buf) > 0 {
		sqe.Addr = uint64(uintptr(unsafe.Pointer(&j.buf[0])))
	}

	s.seq++
	ud := s.seq
	sqe.UserData = ud
	s.jobs[ud] = j

	s.rng.advanceSq()

	if _, errno := s.rng.submit(1); errno != 0 {
		delete(s.jobs, ud)
		return ErrorRingSetup.Error(aio.ErrnoError(errno, s.point(j), "io_uring_enter"))
	}

	return nil
}

func (s *uringSvc) point(j *uringJob) string {
	if j.read {
		return "Engine.FileRead"
	}

	return "Engine.FileWrite"
}

func (s *uringSvc) SubmitRead(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error {
	if f == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	return s.submit(&uringJob{
		read: true,
		file: f,
		fct:  cb,
		usr:  user,
		buf:  buf,
	}, pos)
}

func (s *uringSvc) SubmitWrite(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error {
	if f == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	return s.submit(&uringJob{
		read: false,
		file: f,
		fct:  cb,
		usr:  user,
		buf:  buf,
	}, pos)
}

func (s *uringSvc) Shutdown() {
	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return
	}

	s.stop = true

	if sqe := s.rng.peekSqe(); sqe != nil {
		sqe.Opcode = ringOpNop
		sqe.UserData = shutdownToken
		s.rng.advanceSq()
		_, _ = s.rng.submit(1)
	}

	s.mux.Unlock()

	s.wgr.Wait()

	s.mux.Lock()
	rest := s.jobs
	s.jobs = make(map[uint64]*uringJob)
	s.mux.Unlock()

	for _, j := range rest {
		j.fct(j.file, j.usr, 0, aio.Canceled(s.point(j)))
	}

	s.rng.close()
}

func (s *uringSvc) reaper() {
	defer s.wgr.Done()

	for {
		cqe, errno := s.rng.waitCqe()

		if errno != 0 {
			liblog.Resolve(s.log).Error("file completion wait failed: %v", errno)
			return
		}

		if cqe.UserData == shutdownToken {
			return
		}

		s.mux.Lock()
		j, ok := s.jobs[cqe.UserData]
		delete(s.jobs, cqe.UserData)
		s.mux.Unlock()

		if !ok {
			continue
		}

		if cqe.Res < 0 {
			j.fct(j.file, j.usr, 0, aio.ErrnoError(syscall.Errno(-cqe.Res), s.point(j), "io_uring_enter"))
		} else {
			j.fct(j.file, j.usr, uint32(cqe.Res), nil)
		}
	}
}
