/*
 * rv64cosim - CLINT: mtimecmp and MSIP
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
	"github.com/rcornwell/rv64cosim/internal/csr"
	"github.com/rcornwell/rv64cosim/internal/device"
	"github.com/rcornwell/rv64cosim/internal/riscv"
)

const (
	clintMSIPBase      = 0x0000
	clintMTimecmpBase  = 0x4000
	clintMTimeOffset   = 0xBFF8
	defaultMtimeDiv    = 100 // instructions retired per mtime tick
)

// CLINT is the core-local interruptor: one MSIP and one mtimecmp register
// per hart, and a single shared mtime counter derived from retired
// instructions (spec's "mtime derived from minstret/DIV" configuration).
type CLINT struct {
	harts []*csr.File

	mtimecmp []uint64
	mtime    uint64
	div      uint64
	carry    uint64
}

var _ device.MMIO = (*CLINT)(nil)

// NewCLINT builds a CLINT wired directly to each hart's CSR file so it can
// raise MTIP/MSIP without reaching through a narrower capability; the
// machine that owns both the harts and the CLINT is the only caller.
func NewCLINT(harts []*csr.File) *CLINT {
	c := &CLINT{
		harts:    harts,
		mtimecmp: make([]uint64, len(harts)),
		div:      defaultMtimeDiv,
	}
	for i := range c.mtimecmp {
		c.mtimecmp[i] = ^uint64(0)
	}
	return c
}

// SetDiv overrides the instructions-per-mtime-tick divisor (spec's
// configurable DIV); div of zero is treated as 1 to avoid a stuck clock.
func (c *CLINT) SetDiv(div uint64) {
	if div == 0 {
		div = 1
	}
	c.div = div
}

// AdvanceInstret derives mtime from the cumulative retired-instruction
// count and re-checks every hart's mtimecmp threshold (spec §9 P7).
func (c *CLINT) AdvanceInstret(n uint64) {
	c.carry += n
	ticks := c.carry / c.div
	if ticks == 0 {
		return
	}
	c.carry -= ticks * c.div
	c.mtime += ticks
	for i, h := range c.harts {
		c.updateMTIP(i, h)
	}
}

func (c *CLINT) updateMTIP(i int, h *csr.File) {
	bit := uint64(1) << riscv.IntMTimer
	if c.mtime >= c.mtimecmp[i] {
		h.Mip |= bit
	} else {
		h.Mip &^= bit
	}
}

func (c *CLINT) ReadMMIO(offset uint64, sizeLog2 uint) (uint64, error) {
	switch {
	case offset == clintMTimeOffset && sizeLog2 == 3:
		return c.mtime, nil
	case offset >= clintMSIPBase && offset < clintMSIPBase+4*uint64(len(c.harts)):
		hart := (offset - clintMSIPBase) / 4
		bit := uint64(1) << riscv.IntMSoftware
		if c.harts[hart].Mip&bit != 0 {
			return 1, nil
		}
		return 0, nil
	case offset >= clintMTimecmpBase && offset < clintMTimecmpBase+8*uint64(len(c.harts)):
		hart := (offset - clintMTimecmpBase) / 8
		return c.mtimecmp[hart], nil
	default:
		return 0, device.ErrBadSize
	}
}

func (c *CLINT) WriteMMIO(offset uint64, sizeLog2 uint, value uint64) error {
	switch {
	case offset >= clintMSIPBase && offset < clintMSIPBase+4*uint64(len(c.harts)):
		hart := (offset - clintMSIPBase) / 4
		bit := uint64(1) << riscv.IntMSoftware
		if value&1 != 0 {
			c.harts[hart].Mip |= bit
		} else {
			c.harts[hart].Mip &^= bit
		}
		return nil
	case offset >= clintMTimecmpBase && offset < clintMTimecmpBase+8*uint64(len(c.harts)):
		hart := (offset - clintMTimecmpBase) / 8
		c.mtimecmp[hart] = value
		c.harts[hart].Mip &^= uint64(1) << riscv.IntMTimer
		c.updateMTIP(int(hart), c.harts[hart])
		return nil
	default:
		return device.ErrBadSize
	}
}
