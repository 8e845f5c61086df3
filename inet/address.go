/*
 * MIT License
 *
 * Copyright (c) 2023 Nicolas JUHEL
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

package inet

import "net"

// Address is an immutable IPv4/IPv6 address holder. The raw storage is
// always 16 bytes; for IPv4 only the first 4 bytes are meaningful and the
// remainder is zero.
type Address struct {
	fam Family
	raw [16]byte
}

// AddrAny returns the wildcard address of the given family (0.0.0.0 / ::).
func AddrAny(f Family) Address {
	return Address{fam: f}
}

// AddrLoopback returns the loopback address of the given family
// (127.0.0.1 / ::1).
func AddrLoopback(f Family) Address {
	a := Address{fam: f}

	switch f {
	case FamilyIPv4:
		a.raw[0] = 127
		a.raw[3] = 1
	case FamilyIPv6:
		a.raw[15] = 1
	}

	return a
}

// FromBytes builds an Address from the given family and raw byte slice.
// The slice must hold at least Family.AddrLen bytes; extra bytes are
// ignored. An unknown family or a short slice yields the zero Address.
func FromBytes(f Family, raw []byte) Address {
	a := Address{}

	if len(raw) < f.AddrLen() || f.AddrLen() == 0 {
		return a
	}

	a.fam = f
	copy(a.raw[:f.AddrLen()], raw)

	return a
}

// FromString parses a textual IPv4 or IPv6 literal. The second return
// value reports whether the input was a valid literal.
func FromString(s string) (Address, bool) {
	ip := net.ParseIP(s)

	if ip == nil {
		return Address{}, false
	}

	if v4 := ip.To4(); v4 != nil {
		return FromBytes(FamilyIPv4, v4), true
	}

	return FromBytes(FamilyIPv6, ip.To16()), true
}

// Family returns the address family tag.
func (a Address) Family() Family {
	return a.fam
}

// Raw returns a copy of the meaningful raw bytes of the address:
// 4 bytes for IPv4, 16 for IPv6, nil for an unknown family.
func (a Address) Raw() []byte {
	n := a.fam.AddrLen()

	if n == 0 {
		return nil
	}

	r := make([]byte, n)
	copy(r, a.raw[:n])

	return r
}

// IP returns the address as a net.IP, or nil for an unknown family.
func (a Address) IP() net.IP {
	switch a.fam {
	case FamilyIPv4:
		return net.IPv4(a.raw[0], a.raw[1], a.raw[2], a.raw[3])
	case FamilyIPv6:
		r := make(net.IP, 16)
		copy(r, a.raw[:])
		return r
	default:
		return nil
	}
}

// IsAny reports whether the address is the wildcard of its family.
func (a Address) IsAny() bool {
	if a.fam == FamilyUnknown {
		return false
	}

	for _, b := range a.raw[:a.fam.AddrLen()] {
		if b != 0 {
			return false
		}
	}

	return true
}

// Equal reports whether two addresses have the same family and raw bytes.
func (a Address) Equal(o Address) bool {
	return a.fam == o.fam && a.raw == o.raw
}

// String returns the textual form of the address, or an empty string for
// an unknown family.
func (a Address) String() string {
	if ip := a.IP(); ip != nil {
		return ip.String()
	}

	return ""
}
