/*
 * rv64cosim - UART register model tests
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

package uart

import "testing"

type fakeConsole struct {
	pending []byte
	sent    []byte
}

func (c *fakeConsole) ReadByte() (byte, bool) {
	if len(c.pending) == 0 {
		return 0, false
	}
	b := c.pending[0]
	c.pending = c.pending[1:]
	return b, true
}

func (c *fakeConsole) WriteByte(b byte) {
	c.sent = append(c.sent, b)
}

func TestSiFiveTransmit(t *testing.T) {
	cs := &fakeConsole{}
	u := NewSiFive(cs)
	if err := u.WriteMMIO(sifiveTxData, 0, 'A'); err != nil {
		t.Fatalf("WriteMMIO: %v", err)
	}
	if len(cs.sent) != 1 || cs.sent[0] != 'A' {
		t.Fatalf("sent = %v, want [A]", cs.sent)
	}
}

func TestSiFiveReceiveEmptyReportsRxEmptyBit(t *testing.T) {
	u := NewSiFive(&fakeConsole{})
	v, err := u.ReadMMIO(sifiveRxData, 2)
	if err != nil {
		t.Fatalf("ReadMMIO: %v", err)
	}
	if v&rxEmptyBit == 0 {
		t.Fatalf("rxdata = %#x, want rx-empty bit set", v)
	}
}

func TestSiFiveReceiveDeliversPendingByte(t *testing.T) {
	cs := &fakeConsole{pending: []byte{'Z'}}
	u := NewSiFive(cs)
	v, err := u.ReadMMIO(sifiveRxData, 2)
	if err != nil {
		t.Fatalf("ReadMMIO: %v", err)
	}
	if v != 'Z' {
		t.Fatalf("rxdata = %#x, want 'Z'", v)
	}
}

func TestDWAPBTransmitRespectsTHRE(t *testing.T) {
	cs := &fakeConsole{}
	u := NewDWAPB(cs)
	if err := u.WriteMMIO(dwRegRXBuf, 2, 'Q'); err != nil {
		t.Fatalf("WriteMMIO: %v", err)
	}
	if len(cs.sent) != 1 || cs.sent[0] != 'Q' {
		t.Fatalf("sent = %v, want [Q]", cs.sent)
	}
}

func TestDWAPBLineStatusReportsTHREAtReset(t *testing.T) {
	u := NewDWAPB(&fakeConsole{})
	v, err := u.ReadMMIO(dwRegLineStatus, 2)
	if err != nil {
		t.Fatalf("ReadMMIO: %v", err)
	}
	if byte(v)&lsrTHRE == 0 {
		t.Fatalf("lsr = %#x, want THRE set at reset", v)
	}
}

func TestDWAPBDivisorLatchRoundTrips(t *testing.T) {
	u := NewDWAPB(&fakeConsole{})
	if err := u.WriteMMIO(dwRegLineControl, 2, lcrDLAB); err != nil {
		t.Fatalf("WriteMMIO lcr: %v", err)
	}
	if err := u.WriteMMIO(dwRegRXBuf, 2, 0x34); err != nil {
		t.Fatalf("WriteMMIO lo: %v", err)
	}
	if err := u.WriteMMIO(dwRegIntrEnable, 2, 0x12); err != nil {
		t.Fatalf("WriteMMIO hi: %v", err)
	}
	if u.divLatch != 0x1234 {
		t.Fatalf("divLatch = %#x, want 0x1234", u.divLatch)
	}
}
