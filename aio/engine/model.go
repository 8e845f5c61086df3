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

// Package engine holds the completion-queue implementation of aio.Engine.
//
// Submissions post a self-keyed operation descriptor on a single
// completion queue and return immediately. A fixed pool of workers
// dequeues descriptors: a self-keyed descriptor is issued to the OS by the
// worker (waiting for readiness with the engine wake pipe in the poll
// set), a native-keyed descriptor carries the result of a previously
// issued operation and dispatches its callback. File requests are issued
// through the configured filesvc backend and complete back through the
// queue; with the readiness-poll socket backend, socket requests are
// delegated to socksvc instead of the queue.
package engine

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	"github.com/gekit/golib/aio/filesvc"
	"github.com/gekit/golib/aio/socksvc"
	liblog "github.com/gekit/golib/logger"
)

const (
	stateNone int32 = iota
	stateStarted
	stateShutdown
)

type engine struct {
	cfg aio.Config
	log liblog.FuncLog

	state   atomic.Int32
	pending atomic.Int64

	mux   sync.Mutex
	files map[*aio.File]struct{}
	socks map[*aio.Socket]struct{}

	q    *opQueue
	wgr  sync.WaitGroup
	nwrk int

	wakeMux sync.Mutex
	wakeR   int
	wakeW   int

	fsvc filesvc.Service
	ssvc *socksvc.Service
}

// New returns a stopped engine for the given configuration. The config is
// cleaned and validated; Start brings the workers up.
func New(cfg aio.Config, log liblog.FuncLog) (aio.Engine, liberr.Error) {
	cfg = cfg.Clean()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &engine{
		cfg:   cfg,
		log:   log,
		files: make(map[*aio.File]struct{}),
		socks: make(map[*aio.Socket]struct{}),
		q:     newOpQueue(),
		wakeR: -1,
		wakeW: -1,
	}, nil
}

func (e *engine) Start(desiredWorkers int) liberr.Error {
	if !e.state.CompareAndSwap(stateNone, stateStarted) {
		return aio.ErrorEngineRestart.Error(nil)
	}

	if desiredWorkers < 1 {
		desiredWorkers = e.cfg.WorkerThreads
	}

	var p [2]int

	if err := unix.Pipe(p[:]); err != nil {
		e.state.Store(stateShutdown)
		return aio.ErrnoError(err, "Engine.Start", "pipe")
	}

	for _, fd := range p {
		_ = unix.SetNonblock(fd, true)
		unix.CloseOnExec(fd)
	}

	e.wakeR = p[0]
	e.wakeW = p[1]

	fsvc, err := filesvc.New(e.cfg.FileBackend, e.cfg.FileWorkers, int64(e.cfg.FileQueueCeiling), e.log)

	if err != nil {
		e.closeWakePipe()
		e.state.Store(stateShutdown)
		return err
	}

	e.fsvc = fsvc

	if e.cfg.SocketBackend == aio.SocketBackendReadiness {
		ssvc, serr := socksvc.New(desiredWorkers, e.log)

		if serr != nil {
			e.fsvc.Shutdown()
			e.closeWakePipe()
			e.state.Store(stateShutdown)
			return serr
		}

		e.ssvc = ssvc
	}

	e.nwrk = desiredWorkers

	for i := 0; i < desiredWorkers; i++ {
		e.wgr.Add(1)
		go e.worker()
	}

	liblog.Resolve(e.log).Info("engine started with %d workers", desiredWorkers)

	return nil
}

func (e *engine) Shutdown() {
	if old := e.state.Swap(stateShutdown); old != stateStarted {
		return
	}

	// Wake every worker blocked in a readiness wait; the wake pipe read
	// end turns readable once the write end closes.
	e.wakeMux.Lock()

	if e.wakeW != -1 {
		_ = unix.Close(e.wakeW)
		e.wakeW = -1
	}

	e.wakeMux.Unlock()

	for i := 0; i < e.nwrk; i++ {
		e.q.push(&operation{code: opShutdown, key: keySelf})
	}

	e.wgr.Wait()

	if e.fsvc != nil {
		e.fsvc.Shutdown()
	}

	if e.ssvc != nil {
		e.ssvc.Shutdown()
	}

	// Drain descriptors still queued: native ones carry their result,
	// never-issued ones complete as canceled.
	for e.pending.Load() > 0 {
		op := e.q.tryPop()

		if op == nil {
			break
		}

		if op.code == opShutdown {
			continue
		}

		if op.key == keyNative {
			e.dispatch(op, op.resBytes, op.resErr)
		} else {
			e.dispatch(op, uint32(op.progress), aio.Canceled(op.point()))
		}
	}

	e.q.close()

	// A submission racing the state flip may have slipped in before the
	// queue closed; sweep it out.
	for {
		op := e.q.tryPop()

		if op == nil {
			break
		}

		if op.code == opShutdown {
			continue
		}

		if op.key == keyNative {
			e.dispatch(op, op.resBytes, op.resErr)
		} else {
			e.dispatch(op, uint32(op.progress), aio.Canceled(op.point()))
		}
	}

	e.wakeMux.Lock()

	if e.wakeR != -1 {
		_ = unix.Close(e.wakeR)
		e.wakeR = -1
	}

	e.wakeMux.Unlock()

	liblog.Resolve(e.log).Info("engine stopped")
}

func (e *engine) Pending() int64 {
	return e.pending.Load()
}

func (e *engine) RegisterFile(f *aio.File) liberr.Error {
	if err := f.Attach(e); err != nil {
		return err
	}

	e.mux.Lock()
	e.files[f] = struct{}{}
	e.mux.Unlock()

	return nil
}

func (e *engine) RegisterSocket(s *aio.Socket) liberr.Error {
	if err := s.Attach(e); err != nil {
		return err
	}

	e.mux.Lock()
	e.socks[s] = struct{}{}
	e.mux.Unlock()

	return nil
}

func (e *engine) DropFile(f *aio.File) {
	e.mux.Lock()
	delete(e.files, f)
	e.mux.Unlock()
}

func (e *engine) DropSocket(s *aio.Socket) {
	e.mux.Lock()
	delete(e.socks, s)
	e.mux.Unlock()
}

func (e *engine) closeWakePipe() {
	e.wakeMux.Lock()
	defer e.wakeMux.Unlock()

	if e.wakeW != -1 {
		_ = unix.Close(e.wakeW)
		e.wakeW = -1
	}

	if e.wakeR != -1 {
		_ = unix.Close(e.wakeR)
		e.wakeR = -1
	}
}

// running reports whether submissions are currently accepted.
func (e *engine) running() bool {
	return e.state.Load() == stateStarted
}
