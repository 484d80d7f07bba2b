/*
 * rv64cosim - Trap delivery and privilege transitions
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

package csr

import "github.com/rcornwell/rv64cosim/internal/riscv"

// Trap delivers an architectural fault or interrupt: it writes cause/epc/
// tval to the destination ring chosen by medeleg/mideleg, pushes the prior
// interrupt-enable and privilege, and returns the new privilege and pc. This
// mirrors the save-old/write-new/dispatch shape of a classic PSW-swap trap
// entry, generalized to RISC-V's per-mode cause/epc/tval/status quadruple.
func (f *File) Trap(cause uint64, tval uint64, isInterrupt bool, pc uint64) (riscv.Priv, uint64) {
	delegated := false
	if f.Priv != riscv.Machine {
		if isInterrupt {
			delegated = f.Mideleg&(1<<cause) != 0
		} else {
			delegated = f.Medeleg&(1<<cause) != 0
		}
	}

	var causeField uint64
	if isInterrupt {
		causeField = cause | riscv.CauseInterruptBit
	} else {
		causeField = cause
	}

	if delegated {
		f.Scause = causeField
		f.Sepc = pc
		f.Stval = tval
		spie := (f.Mstatus >> riscv.MstatusSIEShift) & 1
		f.Mstatus = (f.Mstatus &^ (1 << riscv.MstatusSPIEShift)) | (spie << riscv.MstatusSPIEShift)
		f.Mstatus &^= 1 << riscv.MstatusSIEShift
		spp := uint64(0)
		if f.Priv == riscv.Supervisor {
			spp = 1
		}
		f.Mstatus = (f.Mstatus &^ (1 << riscv.MstatusSPPShift)) | (spp << riscv.MstatusSPPShift)
		f.Priv = riscv.Supervisor
		return riscv.Supervisor, trapTarget(f.Stvec, cause, isInterrupt)
	}

	f.Mcause = causeField
	f.Mepc = pc
	f.Mtval = tval
	mpie := (f.Mstatus >> riscv.MstatusMIEShift) & 1
	f.Mstatus = (f.Mstatus &^ (1 << riscv.MstatusMPIEShift)) | (mpie << riscv.MstatusMPIEShift)
	f.Mstatus &^= 1 << riscv.MstatusMIEShift
	f.Mstatus = (f.Mstatus &^ (riscv.MstatusMPPMask << riscv.MstatusMPPShift)) | (uint64(f.Priv) << riscv.MstatusMPPShift)
	f.Priv = riscv.Machine
	return riscv.Machine, trapTarget(f.Mtvec, cause, isInterrupt)
}

func trapTarget(tvec uint64, cause uint64, isInterrupt bool) uint64 {
	base := tvec &^ 0x3
	if isInterrupt && tvec&0x3 == 1 {
		return base + 4*cause
	}
	return base
}

// MRET restores the machine-mode interrupt-enable/privilege pushed by the
// most recent M trap and returns the resuming privilege and pc.
func (f *File) MRET() (riscv.Priv, uint64) {
	mpie := (f.Mstatus >> riscv.MstatusMPIEShift) & 1
	f.Mstatus = (f.Mstatus &^ (1 << riscv.MstatusMIEShift)) | (mpie << riscv.MstatusMIEShift)
	f.Mstatus |= 1 << riscv.MstatusMPIEShift
	mpp := riscv.Priv((f.Mstatus >> riscv.MstatusMPPShift) & riscv.MstatusMPPMask)
	f.Mstatus = (f.Mstatus &^ (riscv.MstatusMPPMask << riscv.MstatusMPPShift)) | (uint64(riscv.User) << riscv.MstatusMPPShift)
	if mpp != riscv.Machine {
		f.Mstatus &^= 1 << riscv.MstatusMPRVShift
	}
	f.Priv = mpp
	return mpp, f.Mepc
}

// SRET restores the supervisor-mode interrupt-enable/privilege pushed by the
// most recent S trap and returns the resuming privilege and pc.
func (f *File) SRET() (riscv.Priv, uint64) {
	spie := (f.Mstatus >> riscv.MstatusSPIEShift) & 1
	f.Mstatus = (f.Mstatus &^ (1 << riscv.MstatusSIEShift)) | (spie << riscv.MstatusSIEShift)
	f.Mstatus |= 1 << riscv.MstatusSPIEShift
	spp := riscv.Priv((f.Mstatus >> riscv.MstatusSPPShift) & 1)
	f.Mstatus &^= 1 << riscv.MstatusSPPShift
	f.Priv = spp
	return spp, f.Sepc
}

// PendingInterrupt returns the highest-priority interrupt that is pending,
// enabled, and not masked by the current privilege/xIE, or -1 if none.
// Priority order follows the standard: external > software > timer, M
// before S, matching the order software expects to observe.
func (f *File) PendingInterrupt() int {
	pending := f.Mip & f.Mie
	if pending == 0 {
		return -1
	}
	order := []int{
		riscv.IntMExternal, riscv.IntMSoftware, riscv.IntMTimer,
		riscv.IntSExternal, riscv.IntSSoftware, riscv.IntSTimer,
		riscv.IntUExternal, riscv.IntUSoftware, riscv.IntUTimer,
	}
	for _, bit := range order {
		if pending&(1<<bit) == 0 {
			continue
		}
		delegatedToS := f.Mideleg&(1<<bit) != 0
		switch {
		case !delegatedToS:
			// Visible to M only if M-mode globally enabled or priv < M.
			if f.Priv != riscv.Machine || f.Mstatus&(1<<riscv.MstatusMIEShift) != 0 {
				return bit
			}
		default:
			if f.Priv == riscv.User || (f.Priv == riscv.Supervisor && f.Mstatus&(1<<riscv.MstatusSIEShift) != 0) {
				return bit
			}
		}
	}
	return -1
}
