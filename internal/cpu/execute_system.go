/*
 * rv64cosim - SYSTEM opcode: CSR instructions, ECALL/EBREAK, MRET/SRET/WFI
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

package cpu

import (
	"github.com/rcornwell/rv64cosim/internal/csr"
	"github.com/rcornwell/rv64cosim/internal/riscv"
)

// execSystem handles the SYSTEM major opcode. It returns the next pc,
// mirroring execute's contract (only meaningful if no fault was staged).
func (h *Hart) execSystem(insn uint32, pc uint64, next uint64) uint64 {
	f3 := funct3(insn)
	if f3 == 0 {
		return h.execPriv(insn, pc, next)
	}

	csrNum := uint16(insn >> 20)
	var writeVal uint64
	var doWrite bool
	rdv := rd(insn)
	r1 := rs1(insn)

	switch f3 {
	case 0x1, 0x5: // CSRRW / CSRRWI
		if f3 == 0x1 {
			writeVal = h.Regs[r1]
		} else {
			writeVal = uint64(r1)
		}
		doWrite = true
	case 0x2, 0x6: // CSRRS / CSRRSI
		doWrite = r1 != 0
	case 0x3, 0x7: // CSRRC / CSRRCI
		doWrite = r1 != 0
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return pc
	}

	old, ok := h.CSR.Read(csrNum)
	if !ok {
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return pc
	}
	old = h.overlayCounter(csrNum, old)

	if doWrite && f3 != 0x1 && f3 != 0x5 {
		var mask uint64
		if f3 == 0x2 || f3 == 0x3 {
			mask = h.Regs[r1]
		} else {
			mask = uint64(r1)
		}
		if f3 == 0x2 || f3 == 0x6 {
			writeVal = old | mask
		} else {
			writeVal = old &^ mask
		}
		doWrite = true
	}

	if doWrite {
		if !h.CSR.Write(csrNum, writeVal) {
			h.raise(riscv.CauseIllegalInsn, uint64(insn))
			return pc
		}
	}

	h.writeReg(rdv, old)
	return next
}

// overlayCounter substitutes the live instruction counter for Cycle/Time/
// Instret reads; csr.File.Read deliberately returns 0 for those (it has no
// notion of wall-clock or retirement count of its own).
func (h *Hart) overlayCounter(csrNum uint16, old uint64) uint64 {
	switch csrNum {
	case csr.Cycle, csr.Time:
		return h.InsnCounter
	case csr.Instret:
		return h.Minstret
	default:
		return old
	}
}

func (h *Hart) execPriv(insn uint32, pc uint64, next uint64) uint64 {
	f7 := funct7(insn)
	r2 := rs2(insn)

	switch {
	case insn == 0x00000073: // ECALL
		cause := ecallCause(h.CSR.Priv)
		h.raise(cause, 0)
		return pc
	case insn == 0x00100073: // EBREAK
		h.raise(riscv.CauseBreakpoint, pc)
		return pc
	case f7 == 0x18 && r2 == 2: // MRET
		if h.CSR.Priv != riscv.Machine {
			h.raise(riscv.CauseIllegalInsn, uint64(insn))
			return pc
		}
		_, target := h.CSR.MRET()
		return target
	case f7 == 0x08 && r2 == 2: // SRET
		if h.CSR.Priv == riscv.User {
			h.raise(riscv.CauseIllegalInsn, uint64(insn))
			return pc
		}
		if h.CSR.Priv != riscv.Machine && h.CSR.Mstatus&(1<<riscv.MstatusTSRShift) != 0 {
			h.raise(riscv.CauseIllegalInsn, uint64(insn))
			return pc
		}
		_, target := h.CSR.SRET()
		return target
	case f7 == 0x08 && r2 == 5: // WFI
		if h.CSR.Priv != riscv.Machine && h.CSR.Mstatus&(1<<riscv.MstatusTWShift) != 0 {
			h.raise(riscv.CauseIllegalInsn, uint64(insn))
			return pc
		}
		h.WFI()
		return next
	case f7 == 0x09: // SFENCE.VMA
		if h.CSR.Priv == riscv.User || (h.CSR.Priv == riscv.Supervisor && h.CSR.Mstatus&(1<<riscv.MstatusTVMShift) != 0) {
			h.raise(riscv.CauseIllegalInsn, uint64(insn))
			return pc
		}
		if rs1(insn) == 0 && r2 == 0 {
			h.TLB.Flush()
		} else if r2 == 0 {
			h.TLB.FlushVAddr(h.Regs[rs1(insn)])
		} else {
			h.TLB.Flush()
		}
		return next
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return pc
	}
}

func ecallCause(priv riscv.Priv) uint64 {
	switch priv {
	case riscv.User:
		return riscv.CauseEcallU
	case riscv.Supervisor:
		return riscv.CauseEcallS
	default:
		return riscv.CauseEcallM
	}
}
