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

package httpd

// continueMsg is emitted as soon as an HTTP/1.1 request line parses
// successfully, before body reading begins.
const continueMsg = "HTTP/1.1 100 Continue\r\n\r\n"

// Canned complete responses for requests rejected by the parser.

const badReqMsg = "HTTP/1.0 400 Bad Request\r\n" +
	"Content-type: text/html\r\n" +
	"Content-length: 121\r\n" +
	"\r\n" +
	"<HTML>\r\n" +
	"  <HEAD>\r\n" +
	"    <TITLE>Bad Request</TITLE>\r\n" +
	"  </HEAD>\r\n" +
	"  <BODY>\r\n" +
	"    <P>Invalid HTTP request.\r\n" +
	"  </BODY>\r\n" +
	"</HTML>\r\n" +
	"\r\n"

const lengthReqMsg = "HTTP/1.0 411 Length Required\r\n" +
	"Content-type: text/html\r\n" +
	"Content-length: 146\r\n" +
	"\r\n" +
	"<HTML>\r\n" +
	"  <HEAD>\r\n" +
	"    <TITLE>Length Required</TITLE>\r\n" +
	"  </HEAD>\r\n" +
	"  <BODY>\r\n" +
	"    <P>HTTP request missing Content-Length field.\r\n" +
	"  </BODY>\r\n" +
	"</HTML>\r\n" +
	"\r\n"

const notImplMsg = "HTTP/1.0 501 Method Not Implemented\r\n" +
	"Content-Type: text/html\r\n" +
	"Content-Length: 145\r\n" +
	"\r\n" +
	"<HTML>\r\n" +
	"  <HEAD>\r\n" +
	"    <TITLE>Method Not Implemented</TITLE>\r\n" +
	"  </HEAD>\r\n" +
	"  <BODY>\r\n" +
	"    <P>HTTP request method not supported.\r\n" +
	"  </BODY>\r\n" +
	"</HTML>\r\n" +
	"\r\n"
