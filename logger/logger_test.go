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

package logger_test

import (
	"bytes"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liblog "github.com/gekit/golib/logger"
	loglvl "github.com/gekit/golib/logger/level"
)

var _ = Describe("Logger", func() {
	Context("levels", func() {
		It("should parse level strings case insensitively", func() {
			Expect(loglvl.Parse("debug")).To(Equal(loglvl.DebugLevel))
			Expect(loglvl.Parse("WARN")).To(Equal(loglvl.WarnLevel))
			Expect(loglvl.Parse("warning")).To(Equal(loglvl.WarnLevel))
			Expect(loglvl.Parse("off")).To(Equal(loglvl.NilLevel))
			Expect(loglvl.Parse("anything")).To(Equal(loglvl.InfoLevel))
		})

		It("should filter entries below the minimal level", func() {
			var buf bytes.Buffer

			log := liblog.New()
			log.SetOutput(&buf)
			log.SetLevel(loglvl.WarnLevel)

			log.Debug("hidden %d", 1)
			log.Info("hidden too")
			log.Warning("visible %s", "warning")

			Expect(buf.String()).ToNot(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring("visible warning"))
		})
	})

	Context("fields", func() {
		It("should attach fields to every entry", func() {
			var buf bytes.Buffer

			log := liblog.New()
			log.SetOutput(&buf)

			log.WithFields(map[string]interface{}{"session": "abc"}).Info("message")

			Expect(buf.String()).To(ContainSubstring("session=abc"))
		})
	})

	Context("resolution", func() {
		It("should resolve a nil provider to a discard logger", func() {
			log := liblog.Resolve(nil)
			Expect(log).ToNot(BeNil())

			// Writing must be safe and silent.
			log.Error("dropped")
		})

		It("should report found errors through CheckError", func() {
			var buf bytes.Buffer

			log := liblog.New()
			log.SetOutput(&buf)

			Expect(log.CheckError(loglvl.ErrorLevel, "op failed", nil, fmt.Errorf("boom"))).To(BeTrue())
			Expect(log.CheckError(loglvl.ErrorLevel, "op failed", nil, nil)).To(BeFalse())
			Expect(buf.String()).To(ContainSubstring("boom"))
		})
	})
})
