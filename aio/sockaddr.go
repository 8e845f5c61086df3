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

package aio

import (
	"golang.org/x/sys/unix"

	libnet "github.com/gekit/golib/inet"
)

// AddrToSockaddr builds the unix.Sockaddr matching the given address and
// port, or nil for an unknown family.
func AddrToSockaddr(addr libnet.Address, port int) unix.Sockaddr {
	raw := addr.Raw()

	switch addr.Family() {
	case libnet.FamilyIPv4:
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], raw)
		return sa
	case libnet.FamilyIPv6:
		sa := &unix.SockaddrInet6{Port: port}
		copy(sa.Addr[:], raw)
		return sa
	default:
		return nil
	}
}

// SockaddrToAddr extracts the address and port of the given unix.Sockaddr.
func SockaddrToAddr(sa unix.Sockaddr) (libnet.Address, int) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return libnet.FromBytes(libnet.FamilyIPv4, v.Addr[:]), v.Port
	case *unix.SockaddrInet6:
		return libnet.FromBytes(libnet.FamilyIPv6, v.Addr[:]), v.Port
	default:
		return libnet.Address{}, 0
	}
}
