/*
 * rv64cosim - Per-hart architectural state
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

// Package cpu implements the RV64GC decode/execute interpreter (C5) and the
// hart stepping loop (C7). Instructions that can trap write pendingException
// and pendingTval and return to Step, which routes the fault through
// internal/csr's trap delivery instead of using Go panics for control flow
// (spec's "no hidden control-flow jumps" design note).
package cpu

import (
	"github.com/rcornwell/rv64cosim/internal/csr"
	"github.com/rcornwell/rv64cosim/internal/memory"
	"github.com/rcornwell/rv64cosim/internal/mmu"
	"github.com/rcornwell/rv64cosim/internal/riscv"
)

// CTIKind classifies the last control-transfer instruction for an external
// branch-predictor cosim (spec §3's info/next_addr pair).
type CTIKind int

const (
	CTINone CTIKind = iota
	CTIJump
	CTIBranch
	CTIJalr
	CTIJalrPop
	CTIJalrPush
	CTIJalrPopPush
)

// reservation is the LR/SC monitor for one hart.
type reservation struct {
	valid bool
	addr  uint64
	size  uint
}

// storeRepair is the pre-image of the last store, kept so a cosim session
// can undo a speculative store the DUT did not actually commit.
type storeRepair struct {
	valid bool
	addr  uint64
	old   uint64
	size  uint
}

// Hart is one RV64GC hart's complete architectural state.
type Hart struct {
	ID uint64

	Regs  [32]uint64
	FRegs [32]uint64 // NaN-boxed; 32-bit values live in the low word

	RegPrior  [32]uint64
	FRegPrior [32]uint64
	RegTS     [32]uint64
	FRegTS    [32]uint64

	MostRecentReg   int
	MostRecentFPReg int

	PC uint64

	CSR *csr.File
	TLB *mmu.TLB

	walker *mmu.Walker
	mem    *memory.Map

	Minstret    uint64
	InsnCounter uint64

	LoadRes reservation
	repair  storeRepair

	// Non-persistent trap scratch: set by a memory/CSR helper, consumed by
	// Step before it calls into csr.Trap.
	pendingException bool
	pendingCause     uint64
	pendingTval      uint64

	Info     CTIKind
	NextAddr uint64

	PowerDown           bool
	TerminateSimulation bool

	// DUT-injected trap queue (cosim only): forces the next instruction to
	// take a specific trap. Exception in [-1,15], interrupt bit in [-1,63].
	DUTPendingInterrupt int
	DUTPendingException int

	irqLine plicLine
}

// plicLine is the narrow capability a hart uses to read its own external/
// software/timer interrupt lines without reaching into the whole PLIC/CLINT.
type plicLine interface {
	MEIP() bool
	SEIP() bool
}

// New creates a hart with architectural reset state, wired to the shared
// physical memory map.
func New(id uint64, mem *memory.Map) *Hart {
	h := &Hart{
		ID:                  id,
		CSR:                 csr.NewFile(id),
		TLB:                 mmu.New(),
		mem:                 mem,
		walker:              mmu.NewWalker(mem),
		DUTPendingInterrupt: -1,
		DUTPendingException: -1,
		MostRecentReg:       -1,
		MostRecentFPReg:     -1,
	}
	h.CSR.TLBFlush = h.TLB.Flush
	h.PC = 0x1000
	return h
}

// SetIRQLine installs the capability the hart polls for MEIP/SEIP assertion
// from the PLIC, without giving it the PLIC itself (spec §9 design note on
// passing an IRQ-lane object at registration).
func (h *Hart) SetIRQLine(line plicLine) { h.irqLine = line }

// Reservation reports the current LR/SC monitor state, for snapshot save.
func (h *Hart) Reservation() (valid bool, addr uint64, size uint) {
	return h.LoadRes.valid, h.LoadRes.addr, h.LoadRes.size
}

// SetReservation restores the LR/SC monitor state, for snapshot load.
func (h *Hart) SetReservation(valid bool, addr uint64, size uint) {
	h.LoadRes = reservation{valid: valid, addr: addr, size: size}
}

func (h *Hart) writeReg(rd int, v uint64) {
	if rd == 0 {
		return
	}
	h.RegPrior[rd] = h.Regs[rd]
	h.Regs[rd] = v
	h.RegTS[rd] = h.InsnCounter
	h.MostRecentReg = rd
}

func (h *Hart) writeFReg(rd int, v uint64) {
	h.FRegPrior[rd] = h.FRegs[rd]
	h.FRegs[rd] = v
	h.FRegTS[rd] = h.InsnCounter
	h.MostRecentFPReg = rd
}

// raise stages a fault for Step to deliver; it never alters mcause directly
// (spec's pending_exception/pending_tval scratch).
func (h *Hart) raise(cause uint64, tval uint64) {
	h.pendingException = true
	h.pendingCause = cause
	h.pendingTval = tval
}

// effectivePriv accounts for MPRV: loads/stores (not fetches) run with the
// privilege in MPP when MPRV is set and MPP != M.
func (h *Hart) effectivePriv(forData bool) riscv.Priv {
	if !forData {
		return h.CSR.Priv
	}
	if h.CSR.Mstatus&(1<<riscv.MstatusMPRVShift) == 0 {
		return h.CSR.Priv
	}
	return riscv.Priv((h.CSR.Mstatus >> riscv.MstatusMPPShift) & riscv.MstatusMPPMask)
}

func (h *Hart) mxrSum() (mxr bool, sum bool) {
	return h.CSR.Mstatus&(1<<riscv.MstatusMXRShift) != 0, h.CSR.Mstatus&(1<<riscv.MstatusSUMShift) != 0
}
