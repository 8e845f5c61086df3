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

package filesvc

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	liblog "github.com/gekit/golib/logger"
)

type blockingJob struct {
	read bool
	file *aio.File
	fct  aio.FileCallback
	usr  interface{}
	pos  int64
	buf  []byte
}

type blocking struct {
	mux sync.Mutex
	cnd *sync.Cond
	fifo []*blockingJob
	stop bool

	sem *semaphore.Weighted
	wgr sync.WaitGroup
	log liblog.FuncLog
}

// NewBlocking returns the blocking file backend: a FIFO of requests
// served by the given number of workers, each performing pread/pwrite
// until success or a non-retryable error. A non-zero ceiling bounds the
// queue: submissions past the ceiling block until a worker frees a slot.
func NewBlocking(workers int, ceiling int64, log liblog.FuncLog) Service {
	if workers < 1 {
		workers = 1
	}

	s := &blocking{
		fifo: make([]*blockingJob, 0),
		log:  log,
	}

	s.cnd = sync.NewCond(&s.mux)

	if ceiling > 0 {
		s.sem = semaphore.NewWeighted(ceiling)
	}

	for i := 0; i < workers; i++ {
		s.wgr.Add(1)
		go s.worker()
	}

	return s
}

func (s *blocking) submit(j *blockingJob) liberr.Error {
	if s.sem != nil {
		_ = s.sem.Acquire(context.Background(), 1)
	}

	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()

		if s.sem != nil {
			s.sem.Release(1)
		}

		return ErrorServiceClosed.Error(nil)
	}

	s.fifo = append(s.fifo, j)
	s.mux.Unlock()
	s.cnd.Signal()

	return nil
}

func (s *blocking) SubmitRead(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error {
	if f == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	return s.submit(&blockingJob{
		read: true,
		file: f,
		fct:  cb,
		usr:  user,
		pos:  pos,
		buf:  buf,
	})
}

func (s *blocking) SubmitWrite(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error {
	if f == nil || cb == nil {
		return ErrorParamEmpty.Error(nil)
	}

	return s.submit(&blockingJob{
		read: false,
		file: f,
		fct:  cb,
		usr:  user,
		pos:  pos,
		buf:  buf,
	})
}

func (s *blocking) Shutdown() {
	s.mux.Lock()

	if s.stop {
		s.mux.Unlock()
		return
	}

	s.stop = true
	rest := s.fifo
	s.fifo = nil
	s.mux.Unlock()
	s.cnd.Broadcast()

	s.wgr.Wait()

	for _, j := range rest {
		s.release()
		j.fct(j.file, j.usr, 0, aio.Canceled(s.point(j)))
	}
}

func (s *blocking) point(j *blockingJob) string {
	if j.read {
		return "Engine.FileRead"
	}

	return "Engine.FileWrite"
}

func (s *blocking) release() {
	if s.sem != nil {
		s.sem.Release(1)
	}
}

func (s *blocking) worker() {
	defer s.wgr.Done()

	for {
		s.mux.Lock()

		for len(s.fifo) == 0 && !s.stop {
			s.cnd.Wait()
		}

		if len(s.fifo) == 0 {
			s.mux.Unlock()
			return
		}

		j := s.fifo[0]
		s.fifo = s.fifo[1:]
		s.mux.Unlock()

		s.release()
		s.process(j)
	}
}

func (s *blocking) process(j *blockingJob) {
	var (
		n   int
		err error
	)

	fd := j.file.Fd()

	if fd == -1 {
		j.fct(j.file, j.usr, 0, aio.ErrorHandleClosed.Error(nil))
		return
	}

	if j.read {
		for {
			n, err = unix.Pread(fd, j.buf, j.pos)

			if err != unix.EINTR {
				break
			}
		}

		if err != nil {
			liblog.Resolve(s.log).Error("file read failed on fd %d: %v", fd, err)
			j.fct(j.file, j.usr, 0, aio.ErrnoError(err, "Engine.FileRead", "pread"))
			return
		}
	} else {
		for {
			n, err = unix.Pwrite(fd, j.buf, j.pos)

			if err != unix.EINTR {
				break
			}
		}

		if err != nil {
			liblog.Resolve(s.log).Error("file write failed on fd %d: %v", fd, err)
			j.fct(j.file, j.usr, 0, aio.ErrnoError(err, "Engine.FileWrite", "pwrite"))
			return
		}
	}

	liblog.Resolve(s.log).Debug("file io done on fd %d: %d bytes", fd, n)
	j.fct(j.file, j.usr, uint32(n), nil)
}
