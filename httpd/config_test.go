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

package httpd_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spf13/viper"

	"github.com/gekit/golib/httpd"
)

var _ = Describe("Daemon Config", func() {
	It("should apply the documented defaults on clean", func() {
		c := httpd.Config{}.Clean()

		Expect(c.MaxLineBytes).To(Equal(httpd.DefaultMaxLineBytes))
		Expect(c.MaxRequestHeaders).To(Equal(httpd.DefaultMaxRequestHeaders))
	})

	It("should reject an out-of-range port", func() {
		c := httpd.Config{ListenPort: 90000}

		err := c.Validate()
		Expect(err).ToNot(BeNil())
		Expect(err.IsCode(httpd.ErrorValidatorError)).To(BeTrue())
	})

	It("should load the http option table from viper", func() {
		v := viper.New()
		v.SetConfigType("yaml")

		cfgText := strings.Join([]string{
			"http:",
			"  listen_port: 8080",
			"  max_line_bytes: 4096",
			"  max_request_headers: 32",
		}, "\n")

		Expect(v.ReadConfig(strings.NewReader(cfgText))).To(Succeed())

		cfg, err := httpd.ConfigFromViper(v)
		Expect(err).To(BeNil())
		Expect(cfg.ListenPort).To(Equal(8080))
		Expect(cfg.MaxLineBytes).To(Equal(4096))
		Expect(cfg.MaxRequestHeaders).To(Equal(32))
	})
})
