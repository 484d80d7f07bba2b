/*
 * rv64cosim - Translated memory access helpers
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
	"github.com/rcornwell/rv64cosim/internal/mmu"
	"github.com/rcornwell/rv64cosim/internal/riscv"
)

// Each of these helpers returns either a value or stages a fault via
// h.raise and returns ok=false; the caller (an opcode handler) just checks
// ok and returns, letting Step deliver the trap. No hidden control flow.

func (h *Hart) translate(vaddr uint64, kind mmu.Kind) (uint64, bool) {
	tlbKind := kind
	if pa, ok := h.TLB.Lookup(tlbKind, vaddr); ok {
		return pa, true
	}

	satp := mmu.DecodeSatp(h.CSR.SatpReg)
	priv := h.effectivePriv(kind != mmu.Fetch)
	if satp.Mode == mmu.Bare || priv == riscv.Machine {
		return vaddr, true
	}

	mxr, sum := h.mxrSum()
	pa, fault := h.walker.Translate(satp, vaddr, kind, priv, mxr, sum)
	if fault != nil {
		h.raise(fault.Cause, fault.Tval)
		return 0, false
	}
	h.TLB.Insert(tlbKind, vaddr, pa)
	return pa, true
}

func (h *Hart) checkPMP(paddr uint64, kind mmu.Kind) bool {
	var acc csr.PMPAccess
	switch kind {
	case mmu.Write:
		acc = csr.PMPWrite
	case mmu.Fetch:
		acc = csr.PMPExec
	default:
		acc = csr.PMPRead
	}
	return h.CSR.CheckPMP(paddr, acc)
}

func alignMask(sizeLog2 uint) uint64 { return (1 << sizeLog2) - 1 }

func (h *Hart) loadSize(vaddr uint64, sizeLog2 uint) (uint64, bool) {
	if vaddr&alignMask(sizeLog2) != 0 {
		h.raise(riscv.CauseLoadMisaligned, vaddr)
		return 0, false
	}
	pa, ok := h.translate(vaddr, mmu.Read)
	if !ok {
		return 0, false
	}
	if !h.checkPMP(pa, mmu.Read) {
		h.raise(riscv.CauseLoadAccessFault, vaddr)
		return 0, false
	}
	v, err := h.mem.Read(pa, sizeLog2)
	if err != nil {
		h.raise(riscv.CauseLoadAccessFault, vaddr)
		return 0, false
	}
	return v, true
}

func (h *Hart) storeSize(vaddr uint64, sizeLog2 uint, value uint64) bool {
	if vaddr&alignMask(sizeLog2) != 0 {
		h.raise(riscv.CauseStoreMisaligned, vaddr)
		return false
	}
	pa, ok := h.translate(vaddr, mmu.Write)
	if !ok {
		return false
	}
	if !h.checkPMP(pa, mmu.Write) {
		h.raise(riscv.CauseStoreAccessFault, vaddr)
		return false
	}
	old, _ := h.mem.Read(pa, sizeLog2)
	if err := h.mem.Write(pa, sizeLog2, value); err != nil {
		h.raise(riscv.CauseStoreAccessFault, vaddr)
		return false
	}
	h.repair = storeRepair{valid: true, addr: vaddr, old: old, size: sizeLog2}
	h.clearReservationsCovering(vaddr, 1<<sizeLog2)
	return true
}

// clearReservationsCovering drops this hart's LR/SC reservation if one of
// this hart's own stores overlaps it; stores from other harts do not clear
// it.
func (h *Hart) clearReservationsCovering(addr uint64, size uint64) {
	if !h.LoadRes.valid {
		return
	}
	resEnd := h.LoadRes.addr + (1 << h.LoadRes.size)
	if addr < resEnd && h.LoadRes.addr < addr+size {
		h.LoadRes.valid = false
	}
}

// fetchInsn fetches one instruction word, expanding a compressed encoding to
// its canonical 32-bit form. ilen is 2 or 4, the number of bytes actually
// consumed at pc. raw is the as-fetched encoding before expansion (equal to
// insn for a 4-byte fetch); the cosim oracle compares against the DUT on
// raw, since a compressed instruction is only ever reported in its 16-bit
// form (spec §4.8 step 6).
func (h *Hart) fetchInsn(pc uint64) (raw uint32, insn uint32, ilen uint64, ok bool) {
	if pc&1 != 0 {
		h.raise(riscv.CauseInsnMisaligned, pc)
		return 0, 0, 0, false
	}
	pa, okT := h.translate(pc, mmu.Fetch)
	if !okT {
		return 0, 0, 0, false
	}
	if !h.checkPMP(pa, mmu.Fetch) {
		h.raise(riscv.CauseInsnAccessFault, pc)
		return 0, 0, 0, false
	}
	lo, err := h.mem.Read(pa, 1)
	if err != nil {
		h.raise(riscv.CauseInsnAccessFault, pc)
		return 0, 0, 0, false
	}
	if lo&0x3 != 0x3 {
		return uint32(lo), expandCompressed(uint16(lo)), 2, true
	}

	pa2, okT2 := h.translate(pc+2, mmu.Fetch)
	if !okT2 {
		return 0, 0, 0, false
	}
	hi, err := h.mem.Read(pa2, 1)
	if err != nil {
		h.raise(riscv.CauseInsnAccessFault, pc)
		return 0, 0, 0, false
	}
	word := uint32(lo) | uint32(hi)<<16
	return word, word, 4, true
}
