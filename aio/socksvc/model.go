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

package socksvc

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/gekit/golib/aio"
)

type readOp uint8

const (
	readOpNone readOp = iota
	readOpAccept
	readOpRead
)

type writeOp uint8

const (
	writeOpNone writeOp = iota
	writeOpConnect
	writeOpWrite
	writeOpSendfile
)

// sendFileBufLen sizes the bounce buffer of the sendfile emulation.
const sendFileBufLen = 2048

// sockData is the per-descriptor record of the service: at most one
// read-class and one write-class operation may be armed simultaneously.
type sockData struct {
	sock   *aio.Socket
	fd     int
	events int16

	rop       readOp
	acceptInto *aio.Socket
	acceptFct  aio.AcceptCallback
	readFct    aio.SocketCallback
	rUser      interface{}
	rBuf       []byte

	wop      writeOp
	connFct  aio.ConnectCallback
	connDead time.Time
	writeFct aio.SocketCallback
	wUser    interface{}
	wBuf     []byte
	wPos     int

	sfFile   *aio.File
	sfBuf    []byte
	sfFilled int
	sfIndex  int
	sfOffset int64
	sfEnd    int64
	sfSent   uint32
}

func (d *sockData) armRead(op readOp) {
	d.rop = op
	d.events |= int16(unix.POLLIN)
}

func (d *sockData) armWrite(op writeOp) {
	d.wop = op
	d.events |= int16(unix.POLLOUT)
}

func (d *sockData) clearRead() {
	d.rop = readOpNone
	d.acceptInto = nil
	d.acceptFct = nil
	d.readFct = nil
	d.rUser = nil
	d.rBuf = nil
	d.events &^= int16(unix.POLLIN)
}

func (d *sockData) clearWrite() {
	d.wop = writeOpNone
	d.connFct = nil
	d.connDead = time.Time{}
	d.writeFct = nil
	d.wUser = nil
	d.wBuf = nil
	d.wPos = 0
	d.sfFile = nil
	d.sfFilled = 0
	d.sfIndex = 0
	d.sfOffset = 0
	d.sfEnd = 0
	d.sfSent = 0
	d.events &^= int16(unix.POLLOUT)
}

func (d *sockData) idle() bool {
	return d.rop == readOpNone && d.wop == writeOpNone
}
