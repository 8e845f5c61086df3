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

package inet_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libnet "github.com/gekit/golib/inet"
)

var _ = Describe("Address", func() {
	Context("constructors", func() {
		It("should build the wildcard of each family", func() {
			a4 := libnet.AddrAny(libnet.FamilyIPv4)
			Expect(a4.Family()).To(Equal(libnet.FamilyIPv4))
			Expect(a4.IsAny()).To(BeTrue())
			Expect(a4.String()).To(Equal("0.0.0.0"))

			a6 := libnet.AddrAny(libnet.FamilyIPv6)
			Expect(a6.Family()).To(Equal(libnet.FamilyIPv6))
			Expect(a6.IsAny()).To(BeTrue())
			Expect(a6.String()).To(Equal("::"))
		})

		It("should build the loopback of each family", func() {
			Expect(libnet.AddrLoopback(libnet.FamilyIPv4).String()).To(Equal("127.0.0.1"))
			Expect(libnet.AddrLoopback(libnet.FamilyIPv6).String()).To(Equal("::1"))
		})

		It("should build from raw bytes", func() {
			a := libnet.FromBytes(libnet.FamilyIPv4, []byte{192, 168, 1, 20})
			Expect(a.String()).To(Equal("192.168.1.20"))
			Expect(a.Raw()).To(Equal([]byte{192, 168, 1, 20}))
		})

		It("should reject short byte slices", func() {
			a := libnet.FromBytes(libnet.FamilyIPv6, []byte{1, 2, 3})
			Expect(a.Family()).To(Equal(libnet.FamilyUnknown))
		})
	})

	Context("textual parsing", func() {
		It("should parse IPv4 literals", func() {
			a, ok := libnet.FromString("10.20.30.40")
			Expect(ok).To(BeTrue())
			Expect(a.Family()).To(Equal(libnet.FamilyIPv4))
		})

		It("should parse IPv6 literals", func() {
			a, ok := libnet.FromString("fe80::1")
			Expect(ok).To(BeTrue())
			Expect(a.Family()).To(Equal(libnet.FamilyIPv6))
		})

		It("should reject invalid literals", func() {
			_, ok := libnet.FromString("not an address")
			Expect(ok).To(BeFalse())
		})

		It("should round-trip every valid address through its string form", func() {
			samples := []string{
				"0.0.0.0",
				"127.0.0.1",
				"10.0.0.1",
				"192.168.255.254",
				"255.255.255.255",
				"::",
				"::1",
				"fe80::1",
				"2001:db8::42",
				"2001:db8:1:2:3:4:5:6",
			}

			for _, txt := range samples {
				a, ok := libnet.FromString(txt)
				Expect(ok).To(BeTrue(), "parsing %q", txt)

				b, ok := libnet.FromString(a.String())
				Expect(ok).To(BeTrue(), "re-parsing %q", a.String())
				Expect(b.Equal(a)).To(BeTrue(), "round-trip of %q", txt)
			}
		})
	})

	Context("family codec", func() {
		It("should parse family strings case insensitively", func() {
			Expect(libnet.ParseFamily("IPv4")).To(Equal(libnet.FamilyIPv4))
			Expect(libnet.ParseFamily("ipv6")).To(Equal(libnet.FamilyIPv6))
			Expect(libnet.ParseFamily("bogus")).To(Equal(libnet.FamilyUnknown))
		})

		It("should expose the raw length per family", func() {
			Expect(libnet.FamilyIPv4.AddrLen()).To(Equal(4))
			Expect(libnet.FamilyIPv6.AddrLen()).To(Equal(16))
			Expect(libnet.FamilyUnknown.AddrLen()).To(Equal(0))
		})
	})
})
