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

// Package httpd is a basic HTTP/1.x daemon layered on the aio engine.
//
// The server owns a dual-stack listener pair and hands every accepted
// connection a fresh Session. Reads feed a line-buffered parser state
// machine; a fully read request invokes the user handler, whose Respond
// calls enqueue buffers the session writes back through the engine one at
// a time, in enqueue order. One request is served per connection and the
// connection closes once the final write drains.
//
// Supported: GET, HEAD, POST, PUT, DELETE and TRACE requests, basic
// header parsing with continuation lines, automatic 100 Continue
// responses for HTTP/1.1. Not supported: persistent connections, chunked
// transfer, TLS, pipelining.
package httpd
