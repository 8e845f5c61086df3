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

import "strings"

// Family identifies the address family of an Address.
type Family uint8

const (
	// FamilyUnknown is the zero value of Family.
	FamilyUnknown Family = iota

	// FamilyIPv4 tags a 4-byte IPv4 address.
	FamilyIPv4

	// FamilyIPv6 tags a 16-byte IPv6 address.
	FamilyIPv6
)

// ParseFamily returns the Family matching the given string, case
// insensitively. Unrecognized strings map to FamilyUnknown.
func ParseFamily(s string) Family {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v4", "ipv4", "inet", "ip4", "4":
		return FamilyIPv4
	case "v6", "ipv6", "inet6", "ip6", "6":
		return FamilyIPv6
	default:
		return FamilyUnknown
	}
}

// String returns the canonical string of the Family value.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// AddrLen returns the number of meaningful raw bytes for this family,
// or 0 for FamilyUnknown.
func (f Family) AddrLen() int {
	switch f {
	case FamilyIPv4:
		return 4
	case FamilyIPv6:
		return 16
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unrecognized input yields FamilyUnknown without error, so a config can
// leave the field empty and let the consumer apply its default.
func (f *Family) UnmarshalText(b []byte) error {
	*f = ParseFamily(string(b))
	return nil
}
