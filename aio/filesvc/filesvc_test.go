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

package filesvc_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	"github.com/gekit/golib/aio/filesvc"
)

type result struct {
	bytes uint32
	err   liberr.Error
}

func openTemp(path string) *aio.File {
	f := aio.NewFile()
	Expect(f.Open(path, aio.OpenModeCreateOrTruncate, aio.PermRead|aio.PermWrite)).To(BeNil())

	return f
}

func runServiceSpecs(mk func() filesvc.Service) {
	var svc filesvc.Service

	BeforeEach(func() {
		svc = mk()

		if svc == nil {
			Skip("backend not available on this platform or kernel")
		}
	})

	AfterEach(func() {
		if svc != nil {
			svc.Shutdown()
		}
	})

	It("should write then read back", func() {
		f := openTemp(filepath.Join(GinkgoT().TempDir(), "blob"))
		defer func() { _ = f.Close() }()

		wch := make(chan result, 1)

		err := svc.SubmitWrite(f, func(_ *aio.File, _ interface{}, n uint32, e liberr.Error) {
			wch <- result{bytes: n, err: e}
		}, nil, 0, []byte("abcdef"))
		Expect(err).To(BeNil())

		var wres result
		Eventually(wch, "5s").Should(Receive(&wres))
		Expect(wres.err).To(BeNil())
		Expect(wres.bytes).To(Equal(uint32(6)))

		rch := make(chan result, 1)
		buf := make([]byte, 4)

		err = svc.SubmitRead(f, func(_ *aio.File, _ interface{}, n uint32, e liberr.Error) {
			rch <- result{bytes: n, err: e}
		}, nil, 2, buf)
		Expect(err).To(BeNil())

		var rres result
		Eventually(rch, "5s").Should(Receive(&rres))
		Expect(rres.err).To(BeNil())
		Expect(string(buf[:rres.bytes])).To(Equal("cdef"))
	})

	It("should report end of file as zero bytes", func() {
		f := openTemp(filepath.Join(GinkgoT().TempDir(), "empty"))
		defer func() { _ = f.Close() }()

		rch := make(chan result, 1)

		err := svc.SubmitRead(f, func(_ *aio.File, _ interface{}, n uint32, e liberr.Error) {
			rch <- result{bytes: n, err: e}
		}, nil, 0, make([]byte, 8))
		Expect(err).To(BeNil())

		var res result
		Eventually(rch, "5s").Should(Receive(&res))
		Expect(res.err).To(BeNil())
		Expect(res.bytes).To(Equal(uint32(0)))
	})

	It("should refuse submissions after shutdown", func() {
		svc.Shutdown()

		f := openTemp(filepath.Join(GinkgoT().TempDir(), "late"))
		defer func() { _ = f.Close() }()

		err := svc.SubmitRead(f, func(*aio.File, interface{}, uint32, liberr.Error) {}, nil, 0, make([]byte, 8))
		Expect(err).ToNot(BeNil())
		Expect(err.IsCode(filesvc.ErrorServiceClosed)).To(BeTrue())
	})

	It("should reject empty parameters", func() {
		err := svc.SubmitRead(nil, nil, nil, 0, nil)
		Expect(err).ToNot(BeNil())
		Expect(err.IsCode(filesvc.ErrorParamEmpty)).To(BeTrue())
	})
}

var _ = Describe("File Service", func() {
	Context("blocking backend", func() {
		runServiceSpecs(func() filesvc.Service {
			return filesvc.NewBlocking(2, 0, nil)
		})
	})

	Context("blocking backend with queue ceiling", func() {
		runServiceSpecs(func() filesvc.Service {
			return filesvc.NewBlocking(2, 8, nil)
		})
	})

	Context("native async backend", func() {
		runServiceSpecs(func() filesvc.Service {
			svc, err := filesvc.NewNativeAsync(16, nil)

			if err != nil {
				return nil
			}

			return svc
		})
	})
})
