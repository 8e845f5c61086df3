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

package engine

import (
	"sync"
	"time"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	libnet "github.com/gekit/golib/inet"
)

type opCode uint8

const (
	opFileRead opCode = iota
	opFileWrite
	opAccept
	opConnect
	opDisconnect
	opRecv
	opSend
	opSendfile
	opShutdown
)

type opKey uint8

const (
	// keySelf tags a descriptor posted at submission time: the operation
	// has not been issued to the OS yet.
	keySelf opKey = iota

	// keyNative tags a descriptor posted by a backend that finished a
	// previously issued operation.
	keyNative
)

// operation is the descriptor of one in-flight request: opcode, target
// handles, buffer, offsets and continuation. It is allocated at
// submission and consumed when its callback runs.
type operation struct {
	code opCode
	key  opKey

	file   *aio.File
	sock   *aio.Socket
	accept *aio.Socket

	buf  []byte
	pos  int64
	size uint32

	addr    libnet.Address
	port    int
	timeout time.Duration

	fileFct aio.FileCallback
	sockFct aio.SocketCallback
	acptFct aio.AcceptCallback
	connFct aio.ConnectCallback

	user interface{}

	// Progress of a resumable operation across readiness slices.
	started  bool
	progress int
	off      int64
	deadline time.Time

	// Carried result of a keyNative descriptor.
	resBytes uint32
	resErr   liberr.Error
}

// opQueue is the completion queue of the engine: an unbounded FIFO the
// workers block on, with a closed state stopping every consumer.
type opQueue struct {
	mux  sync.Mutex
	cnd  *sync.Cond
	fifo []*operation
	done bool
}

func newOpQueue() *opQueue {
	q := &opQueue{
		fifo: make([]*operation, 0),
	}

	q.cnd = sync.NewCond(&q.mux)

	return q
}

// push posts a descriptor and reports whether the queue accepted it.
func (q *opQueue) push(op *operation) bool {
	q.mux.Lock()

	if q.done {
		q.mux.Unlock()
		return false
	}

	q.fifo = append(q.fifo, op)
	q.mux.Unlock()
	q.cnd.Signal()

	return true
}

// pop blocks until a descriptor is available, returning nil once the
// queue is closed and empty.
func (q *opQueue) pop() *operation {
	q.mux.Lock()
	defer q.mux.Unlock()

	for len(q.fifo) == 0 && !q.done {
		q.cnd.Wait()
	}

	if len(q.fifo) == 0 {
		return nil
	}

	op := q.fifo[0]
	q.fifo = q.fifo[1:]

	return op
}

// tryPop returns the next descriptor without blocking, or nil.
func (q *opQueue) tryPop() *operation {
	q.mux.Lock()
	defer q.mux.Unlock()

	if len(q.fifo) == 0 {
		return nil
	}

	op := q.fifo[0]
	q.fifo = q.fifo[1:]

	return op
}

// close rejects further descriptors and wakes every blocked consumer.
func (q *opQueue) close() {
	q.mux.Lock()
	q.done = true
	q.mux.Unlock()
	q.cnd.Broadcast()
}
