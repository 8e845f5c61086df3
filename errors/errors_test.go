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

package errors_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/gekit/golib/errors"
)

var _ = Describe("Error Taxonomy", func() {
	Context("portable OS kinds", func() {
		It("should register a message for every kind", func() {
			kinds := []liberr.CodeError{
				liberr.ErrOSInvalidArgument,
				liberr.ErrOSInvalidHandle,
				liberr.ErrOSAccessDenied,
				liberr.ErrOSTimedOut,
				liberr.ErrOSBrokenPipe,
				liberr.ErrOSIOCanceled,
				liberr.ErrOSFileNotFound,
				liberr.ErrOSFileExists,
				liberr.ErrOSIsADirectory,
				liberr.ErrOSDirectoryNotEmpty,
				liberr.ErrOSNoSpaceOnDevice,
				liberr.ErrOSAddressInUse,
				liberr.ErrOSConnectionRefused,
				liberr.ErrOSConnectionReset,
				liberr.ErrOSConnectionAborted,
				liberr.ErrOSNetworkDown,
				liberr.ErrOSNetworkUnreachable,
				liberr.ErrOSMessageTooLong,
				liberr.ErrOSProtocolError,
				liberr.ErrOSIllegalByteSequence,
				liberr.ErrOSUnknown,
			}

			for _, k := range kinds {
				Expect(k.Message()).ToNot(Equal(liberr.UnknownMessage), "kind %d has no message", k.Int())
				Expect(k.Message()).ToNot(BeEmpty())
			}
		})

		It("should keep kinds distinct", func() {
			Expect(liberr.ErrOSIOCanceled).ToNot(Equal(liberr.ErrOSTimedOut))
			Expect(liberr.ErrOSConnectionRefused).ToNot(Equal(liberr.ErrOSConnectionReset))
		})
	})

	Context("error construction", func() {
		It("should build an error from a code", func() {
			e := liberr.ErrOSTimedOut.Error(nil)
			Expect(e).ToNot(BeNil())
			Expect(e.IsSet()).To(BeTrue())
			Expect(e.IsCode(liberr.ErrOSTimedOut)).To(BeTrue())
			Expect(e.StringError()).To(Equal("operation timed out"))
		})

		It("should chain parent errors", func() {
			p := fmt.Errorf("low level detail")
			e := liberr.ErrOSIOError.Error(p)

			Expect(e.HasParent()).To(BeTrue())
			Expect(e.HasError(p)).To(BeTrue())
			Expect(e.Unwrap()).To(HaveLen(1))
		})

		It("should find codes through the chain", func() {
			inner := liberr.ErrOSConnectionReset.Error(nil)
			outer := liberr.ErrOSIOError.Error(inner)

			Expect(outer.HasCode(liberr.ErrOSConnectionReset)).To(BeTrue())
			Expect(outer.HasCode(liberr.ErrOSTimedOut)).To(BeFalse())
			Expect(outer.CodeSlice()).To(ContainElement(liberr.ErrOSConnectionReset))
		})

		It("should return nil from IfError without valid parents", func() {
			Expect(liberr.ErrOSIOError.IfError(nil, nil)).To(BeNil())
			Expect(liberr.ErrOSIOError.IfError(fmt.Errorf("boom"))).ToNot(BeNil())
		})
	})

	Context("OS failure triplet", func() {
		It("should carry the raw code, syscall and failure point", func() {
			e := liberr.ErrOSConnectionRefused.ErrorOS(111, "connection refused", "Engine.SocketConnect", "connect")

			Expect(e.OSCode()).To(Equal(int32(111)))
			Expect(e.SysCall()).To(Equal("connect"))
			Expect(e.FailurePoint()).To(Equal("Engine.SocketConnect"))
		})

		It("should format the full diagnostic", func() {
			e := liberr.ErrOSConnectionRefused.ErrorOS(111, "connection refused", "Engine.SocketConnect", "connect")

			Expect(e.Error()).To(Equal(
				`Error: "connection refused" from Engine.SocketConnect calling connect, which failed with: (111) "connection refused"`,
			))
		})

		It("should keep the raw code for unknown kinds", func() {
			e := liberr.ErrOSUnknown.ErrorOS(4095, "exotic failure", "Engine.FileRead", "pread")

			Expect(e.IsCode(liberr.ErrOSUnknown)).To(BeTrue())
			Expect(e.OSCode()).To(Equal(int32(4095)))
		})

		It("should format plain errors without the triplet", func() {
			e := liberr.ErrOSTimedOut.Error(nil)
			Expect(e.Error()).To(Equal("operation timed out"))
		})
	})
})
