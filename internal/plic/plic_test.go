/*
 * rv64cosim - CLINT/PLIC/HTIF/event-queue tests
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

package plic

import (
	"testing"

	"github.com/rcornwell/rv64cosim/internal/csr"
	"github.com/rcornwell/rv64cosim/internal/riscv"
)

func TestEventQueueFiresInOrder(t *testing.T) {
	var q Queue
	var order []int
	q.Schedule(10, func() { order = append(order, 1) })
	q.Schedule(5, func() { order = append(order, 0) })
	q.Schedule(20, func() { order = append(order, 2) })

	q.Advance(25)
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("fire order = %v, want [0 1 2]", order)
	}
}

func TestEventQueueZeroDelayFiresImmediately(t *testing.T) {
	var q Queue
	fired := false
	q.Schedule(0, func() { fired = true })
	if !fired {
		t.Fatalf("zero-delay event should fire synchronously")
	}
}

func TestCLINTMtimecmpRaisesMTIP(t *testing.T) {
	h := csr.NewFile(0)
	c := NewCLINT([]*csr.File{h})
	c.SetDiv(1)
	c.mtimecmp[0] = 5

	c.AdvanceInstret(4)
	if h.Mip&(1<<riscv.IntMTimer) != 0 {
		t.Fatalf("MTIP set early")
	}
	c.AdvanceInstret(2)
	if h.Mip&(1<<riscv.IntMTimer) == 0 {
		t.Fatalf("MTIP not set once mtime >= mtimecmp")
	}
}

func TestCLINTWriteMtimecmpClearsMTIP(t *testing.T) {
	h := csr.NewFile(0)
	c := NewCLINT([]*csr.File{h})
	c.SetDiv(1)
	c.AdvanceInstret(100)
	c.mtimecmp[0] = 1
	c.updateMTIP(0, h)
	if h.Mip&(1<<riscv.IntMTimer) == 0 {
		t.Fatalf("precondition: MTIP should be set")
	}

	if err := c.WriteMMIO(clintMTimecmpBase, 3, 1000); err != nil {
		t.Fatalf("WriteMMIO: %v", err)
	}
	if h.Mip&(1<<riscv.IntMTimer) != 0 {
		t.Fatalf("MTIP should clear after raising mtimecmp past mtime")
	}
}

func TestCLINTMSIPWriteSetsMIP(t *testing.T) {
	h := csr.NewFile(0)
	c := NewCLINT([]*csr.File{h})

	if err := c.WriteMMIO(clintMSIPBase, 2, 1); err != nil {
		t.Fatalf("WriteMMIO: %v", err)
	}
	if h.Mip&(1<<riscv.IntMSoftware) == 0 {
		t.Fatalf("MSIP write should set MIP.MSIP")
	}
	v, err := c.ReadMMIO(clintMSIPBase, 2)
	if err != nil || v != 1 {
		t.Fatalf("ReadMMIO = %d, %v; want 1, nil", v, err)
	}
}

func TestPLICClaimCompleteCycle(t *testing.T) {
	h := csr.NewFile(0)
	p := NewPLIC([]*csr.File{h})
	line := p.Line(3)

	line.Assert()
	if h.Mip&(1<<riscv.IntMExternal) == 0 {
		t.Fatalf("MEIP should be set once an IRQ is pending")
	}

	if got := p.Claim(); got != 3 {
		t.Fatalf("Claim = %d, want 3", got)
	}
	if got := p.Claim(); got != 0 {
		t.Fatalf("second claim without complete = %d, want 0", got)
	}

	p.Complete(3)
	if got := p.Claim(); got != 3 {
		t.Fatalf("claim after complete = %d, want 3 (still asserted)", got)
	}

	line.Deassert()
	p.Complete(3)
	if h.Mip&(1<<riscv.IntMExternal) != 0 {
		t.Fatalf("MEIP should clear once deasserted and completed")
	}
}

type fakeConsole struct {
	written []byte
}

func (f *fakeConsole) ReadByte() (byte, bool) { return 0, false }
func (f *fakeConsole) WriteByte(b byte)       { f.written = append(f.written, b) }

func TestHTIFConsoleWrite(t *testing.T) {
	con := &fakeConsole{}
	htif := NewHTIF(con, nil, nil)

	payload := (uint64(1) << 56) | (uint64(1) << 48) | uint64('A')
	if err := htif.WriteMMIO(htifToHostOffset, 3, payload); err != nil {
		t.Fatalf("WriteMMIO: %v", err)
	}
	if len(con.written) != 1 || con.written[0] != 'A' {
		t.Fatalf("console got %v, want ['A']", con.written)
	}
	v, _ := htif.ReadMMIO(htifFromHostOffset, 3)
	if v != (uint64(1)<<56)|(uint64(1)<<48) {
		t.Fatalf("fromhost = %#x, want ack", v)
	}
}

func TestHTIFShutdown(t *testing.T) {
	halted := false
	htif := NewHTIF(nil, func() { halted = true }, nil)

	if err := htif.WriteMMIO(htifToHostOffset, 3, 1); err != nil {
		t.Fatalf("WriteMMIO: %v", err)
	}
	if !halted {
		t.Fatalf("tohost=1 should invoke the shutdown callback")
	}
}
