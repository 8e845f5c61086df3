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

package aio_test

import (
	"path/filepath"
	"strings"
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	liberr "github.com/gekit/golib/errors"

	"github.com/gekit/golib/aio"
	libnet "github.com/gekit/golib/inet"
)

var _ = Describe("Handles", func() {
	Context("File", func() {
		It("should open, report and close", func() {
			f := aio.NewFile()
			Expect(f.IsOpen()).To(BeFalse())

			path := filepath.Join(GinkgoT().TempDir(), "f")
			Expect(f.Open(path, aio.OpenModeCreateOnly, aio.PermRead|aio.PermWrite)).To(BeNil())
			Expect(f.IsOpen()).To(BeTrue())
			Expect(f.Close()).To(BeNil())
			Expect(f.IsOpen()).To(BeFalse())
		})

		It("should refuse a second open on a live handle", func() {
			f := aio.NewFile()
			path := filepath.Join(GinkgoT().TempDir(), "f")

			Expect(f.Open(path, aio.OpenModeCreateOrOpen, aio.PermWrite)).To(BeNil())
			defer func() { _ = f.Close() }()

			err := f.Open(path, aio.OpenModeCreateOrOpen, aio.PermWrite)
			Expect(err).ToNot(BeNil())
			Expect(err.IsCode(aio.ErrorHandleOpen)).To(BeTrue())
		})

		It("should map create-only collisions to the file-exists kind", func() {
			path := filepath.Join(GinkgoT().TempDir(), "f")

			f := aio.NewFile()
			Expect(f.Open(path, aio.OpenModeCreateOnly, aio.PermWrite)).To(BeNil())
			defer func() { _ = f.Close() }()

			g := aio.NewFile()
			err := g.Open(path, aio.OpenModeCreateOnly, aio.PermWrite)
			Expect(err).ToNot(BeNil())
			Expect(err.IsCode(liberr.ErrOSFileExists)).To(BeTrue())
		})

		It("should map open-only misses to the file-not-found kind", func() {
			f := aio.NewFile()

			err := f.Open(filepath.Join(GinkgoT().TempDir(), "missing"), aio.OpenModeOpenOnly, aio.PermRead)
			Expect(err).ToNot(BeNil())
			Expect(err.IsCode(liberr.ErrOSFileNotFound)).To(BeTrue())
			Expect(err.SysCall()).To(Equal("open"))
			Expect(err.FailurePoint()).To(Equal("File.Open"))
		})
	})

	Context("Socket", func() {
		It("should create a non-blocking stream socket", func() {
			s := aio.NewSocket()
			Expect(s.Init(libnet.FamilyIPv4)).To(BeNil())
			defer func() { _ = s.Close() }()

			Expect(s.IsOpen()).To(BeTrue())
			Expect(s.Family()).To(Equal(libnet.FamilyIPv4))

			fl, err := unix.FcntlInt(uintptr(s.Fd()), unix.F_GETFL, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(fl & unix.O_NONBLOCK).ToNot(BeZero())
		})

		It("should refuse a second init on a live handle", func() {
			s := aio.NewSocket()
			Expect(s.Init(libnet.FamilyIPv4)).To(BeNil())
			defer func() { _ = s.Close() }()

			err := s.Init(libnet.FamilyIPv6)
			Expect(err).ToNot(BeNil())
			Expect(err.IsCode(aio.ErrorHandleOpen)).To(BeTrue())
		})

		It("should refuse binding across families", func() {
			s := aio.NewSocket()
			Expect(s.Init(libnet.FamilyIPv4)).To(BeNil())
			defer func() { _ = s.Close() }()

			err := s.Bind(libnet.AddrLoopback(libnet.FamilyIPv6), 0)
			Expect(err).ToNot(BeNil())
			Expect(err.IsCode(aio.ErrorFamilyMismatch)).To(BeTrue())
		})

		It("should track bind and listen flags", func() {
			s := aio.NewSocket()
			Expect(s.Init(libnet.FamilyIPv4)).To(BeNil())
			defer func() { _ = s.Close() }()

			Expect(s.IsBound()).To(BeFalse())
			Expect(s.Bind(libnet.AddrLoopback(libnet.FamilyIPv4), 0)).To(BeNil())
			Expect(s.IsBound()).To(BeTrue())

			Expect(s.IsListening()).To(BeFalse())
			Expect(s.Listen(-1)).To(BeNil())
			Expect(s.IsListening()).To(BeTrue())
		})
	})
})

var _ = Describe("Errno Normalization", func() {
	It("should map common errnos to their portable kind", func() {
		Expect(aio.ErrnoCode(unix.ECONNREFUSED)).To(Equal(liberr.ErrOSConnectionRefused))
		Expect(aio.ErrnoCode(unix.ECONNRESET)).To(Equal(liberr.ErrOSConnectionReset))
		Expect(aio.ErrnoCode(unix.EPIPE)).To(Equal(liberr.ErrOSBrokenPipe))
		Expect(aio.ErrnoCode(unix.ECANCELED)).To(Equal(liberr.ErrOSIOCanceled))
		Expect(aio.ErrnoCode(unix.ENOENT)).To(Equal(liberr.ErrOSFileNotFound))
		Expect(aio.ErrnoCode(unix.EADDRINUSE)).To(Equal(liberr.ErrOSAddressInUse))
		Expect(aio.ErrnoCode(unix.ETIMEDOUT)).To(Equal(liberr.ErrOSTimedOut))
	})

	It("should fall back to the unknown kind while keeping the raw code", func() {
		no := syscall.Errno(0xfff)
		Expect(aio.ErrnoCode(no)).To(Equal(liberr.ErrOSUnknown))

		e := aio.ErrnoError(no, "Engine.SocketRead", "read")
		Expect(e.OSCode()).To(Equal(int32(0xfff)))
	})

	It("should format the diagnostic from a syscall failure", func() {
		e := aio.ErrnoError(unix.ECONNREFUSED, "Engine.SocketConnect", "connect")

		Expect(e.Error()).To(HavePrefix(`Error: "connection refused" from Engine.SocketConnect calling connect`))
		Expect(e.Error()).To(ContainSubstring(`which failed with:`))
	})
})

var _ = Describe("Engine Config", func() {
	It("should apply defaults on clean", func() {
		c := aio.Config{}.Clean()

		Expect(c.WorkerThreads).To(BeNumerically(">", 0))
		Expect(c.FileBackend).To(Equal(aio.FileBackendBlocking))
		Expect(c.SocketBackend).To(Equal(aio.SocketBackendCompletion))
	})

	It("should reject unknown backend names", func() {
		c := aio.Config{WorkerThreads: 1, FileBackend: "bogus"}

		err := c.Validate()
		Expect(err).ToNot(BeNil())
		Expect(err.IsCode(aio.ErrorValidatorError)).To(BeTrue())
	})

	It("should load the engine option table from viper", func() {
		v := viper.New()
		v.SetConfigType("yaml")

		cfgText := strings.Join([]string{
			"engine:",
			"  worker_threads: 4",
			"  file_backend: blocking",
			"  socket_backend: readiness-poll",
			"  file_queue_ceiling: 128",
		}, "\n")

		Expect(v.ReadConfig(strings.NewReader(cfgText))).To(Succeed())

		cfg, err := aio.ConfigFromViper(v)
		Expect(err).To(BeNil())
		Expect(cfg.WorkerThreads).To(Equal(4))
		Expect(cfg.SocketBackend).To(Equal(aio.SocketBackendReadiness))
		Expect(cfg.FileQueueCeiling).To(Equal(128))
	})

	It("should fall back to defaults without an engine table", func() {
		cfg, err := aio.ConfigFromViper(viper.New())
		Expect(err).To(BeNil())
		Expect(cfg.FileBackend).To(Equal(aio.FileBackendBlocking))
	})
})
