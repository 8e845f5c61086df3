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

// Package aio defines the contract of the asynchronous I/O engine: the
// Engine interface with its completion callbacks, the File and Socket
// handles owning an OS descriptor, the engine configuration, and the
// normalization of syscall errnos into the portable error taxonomy.
//
// The engine implementations live in the subpackages:
//
//   - aio/engine holds the completion-queue backend and the engine
//     construction (New),
//   - aio/socksvc holds the readiness-poll socket backend,
//   - aio/filesvc holds the blocking and native-async file backends.
//
// Every public engine operation submits and returns immediately; the only
// place user code runs is the completion callback, which is invoked exactly
// once per accepted submission, including on cancellation and shutdown.
// Callbacks may submit new operations synchronously.
package aio
