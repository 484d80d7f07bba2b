/*
 * rv64cosim - PLIC: pending/served/claim/complete
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
	plicClaimOffset = 0x20_0004
)

// PLIC is the simplified platform-level interrupt controller described by
// spec §9: a single 32-bit pending vector and a single 32-bit served
// vector, no per-interrupt priority or per-context enable masks. Device IRQ
// i (1 <= i <= 31) occupies bit i-1.
type PLIC struct {
	pending uint32
	served  uint32

	harts []*csr.File
}

var _ device.MMIO = (*PLIC)(nil)
var _ device.IRQLine = (*plicLine)(nil)

// NewPLIC builds a PLIC that raises the aggregated external-interrupt line
// (MEIP and SEIP) on hart 0, per spec §9's "current model" note.
func NewPLIC(harts []*csr.File) *PLIC {
	return &PLIC{harts: harts}
}

// Line returns the capability a device uses to assert/deassert IRQ i
// without reaching into the PLIC's own claim/complete state.
func (p *PLIC) Line(irq int) device.IRQLine {
	return &plicLine{p: p, irq: irq}
}

type plicLine struct {
	p   *PLIC
	irq int
}

func (l *plicLine) Assert()   { l.p.assert(l.irq) }
func (l *plicLine) Deassert() { l.p.deassert(l.irq) }

func (p *PLIC) assert(irq int) {
	p.pending |= 1 << uint(irq-1)
	p.refresh()
}

func (p *PLIC) deassert(irq int) {
	p.pending &^= 1 << uint(irq-1)
	p.refresh()
}

// refresh recomputes the aggregated external-interrupt line: asserted
// whenever any IRQ is pending and not yet served (spec §9).
func (p *PLIC) refresh() {
	if len(p.harts) == 0 {
		return
	}
	bit := uint64(1)<<riscv.IntMExternal | uint64(1)<<riscv.IntSExternal
	if p.pending&^p.served != 0 {
		p.harts[0].Mip |= bit
	} else {
		p.harts[0].Mip &^= bit
	}
}

// Claim returns the lowest-numbered pending, unserved IRQ and marks it
// served; it returns 0 if nothing is claimable (spec §9 P6).
func (p *PLIC) Claim() uint32 {
	unserved := p.pending &^ p.served
	if unserved == 0 {
		return 0
	}
	for i := uint32(0); i < 32; i++ {
		if unserved&(1<<i) != 0 {
			p.served |= 1 << i
			p.refresh()
			return i + 1
		}
	}
	return 0
}

// Complete clears the served bit for irq, allowing it to be claimed again
// if still asserted.
func (p *PLIC) Complete(irq uint32) {
	if irq == 0 || irq > 32 {
		return
	}
	p.served &^= 1 << (irq - 1)
	p.refresh()
}

func (p *PLIC) ReadMMIO(offset uint64, sizeLog2 uint) (uint64, error) {
	switch offset {
	case 0x0000:
		return uint64(p.pending), nil
	case 0x0004:
		return uint64(p.served), nil
	case plicClaimOffset:
		return uint64(p.Claim()), nil
	default:
		return 0, device.ErrBadSize
	}
}

func (p *PLIC) WriteMMIO(offset uint64, sizeLog2 uint, value uint64) error {
	switch offset {
	case plicClaimOffset:
		p.Complete(uint32(value))
		return nil
	default:
		return device.ErrBadSize
	}
}
