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

// Package filesvc holds the file side of the asynchronous engine: a queue
// of positioned read/write requests served off the caller thread. Two
// flavors share the Service interface, a blocking worker pool performing
// pread/pwrite and a kernel async variant reaping io_uring completions.
// Both deliver results through the submission callback exactly once. The
// blocking flavor retries interrupted pread/pwrite calls internally; the
// io_uring flavor reports a failed completion, an interrupt included, as
// an error without retrying it.
package filesvc

import (
	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	liblog "github.com/gekit/golib/logger"
)

// defaultRingEntries sizes the submission ring of the native async
// backend.
const defaultRingEntries = 64

// Service is the file backend contract of the engine.
type Service interface {
	// SubmitRead queues a positioned read of up to len(buf) bytes.
	SubmitRead(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error

	// SubmitWrite queues a positioned write of len(buf) bytes.
	SubmitWrite(f *aio.File, cb aio.FileCallback, user interface{}, pos int64, buf []byte) liberr.Error

	// Shutdown stops the workers. Requests still queued complete their
	// callback with an io-canceled error.
	Shutdown()
}

// New returns the Service matching the given backend name, one of
// aio.FileBackendBlocking or aio.FileBackendNativeAsync. The workers and
// ceiling options only apply to the blocking flavor.
func New(backend string, workers int, ceiling int64, log liblog.FuncLog) (Service, liberr.Error) {
	switch backend {
	case aio.FileBackendNativeAsync:
		return NewNativeAsync(defaultRingEntries, log)
	default:
		return NewBlocking(workers, ceiling, log), nil
	}
}
