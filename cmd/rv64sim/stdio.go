/*
 * rv64cosim - Stdio-backed console char device
 *
 * Copyright 2026, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import "os"

// stdioConsole adapts os.Stdin/os.Stdout to device.CharDevice: a
// background reader goroutine feeds a small buffered channel so
// ReadByte never blocks the hart the way the teacher's main.go keeps a
// stdin-reading goroutine off the CPU's own run loop.
type stdioConsole struct {
	in chan byte
}

func newStdioConsole() *stdioConsole {
	c := &stdioConsole{in: make(chan byte, 256)}
	go c.pump()
	return c
}

func (c *stdioConsole) pump() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			c.in <- buf[0]
		}
		if err != nil {
			close(c.in)
			return
		}
	}
}

func (c *stdioConsole) ReadByte() (byte, bool) {
	select {
	case b, ok := <-c.in:
		return b, ok
	default:
		return 0, false
	}
}

func (c *stdioConsole) WriteByte(b byte) {
	os.Stdout.Write([]byte{b})
}
