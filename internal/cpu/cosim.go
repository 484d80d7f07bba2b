/*
 * rv64cosim - Hart-side hooks consumed by the co-simulation oracle
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
	"github.com/rcornwell/rv64cosim/internal/mmu"
	"github.com/rcornwell/rv64cosim/internal/riscv"
)

// CosimAdvance runs exactly one stepping-loop cycle the way Step does —
// servicing a pending-and-enabled interrupt, or else fetching and executing
// the instruction at PC — and additionally reports the pc/insn the cycle
// fetched, whether or not it actually retired. internal/cosim needs this
// extra visibility to reconcile against a DUT at the same granularity
// Step's plain retired-count return can't expose (spec §4.8 step 3).
func (h *Hart) CosimAdvance() (retired bool, pc uint64, raw uint32, canonical uint32, ilen uint64) {
	pc = h.PC

	if h.serviceInterrupt() {
		h.PowerDown = false
		return false, pc, 0, 0, 0
	}
	if h.PowerDown && h.CSR.Mip&h.CSR.Mie != 0 {
		h.PowerDown = false
	}
	if h.PowerDown {
		return false, pc, 0, 0, 0
	}

	h.InsnCounter++
	raw, canonical, ilen, ok := h.fetchInsn(pc)
	if !ok {
		return h.deliverTrap(pc), pc, raw, canonical, ilen
	}

	h.pendingException = false
	h.Info = CTINone
	h.MostRecentReg = -1
	h.MostRecentFPReg = -1
	next := h.execute(canonical, pc, ilen)

	if h.pendingException {
		return h.deliverTrap(pc), pc, raw, canonical, ilen
	}

	h.PC = next
	h.Minstret++
	return true, pc, raw, canonical, ilen
}

// PeekInsn fetches the instruction at pc for inspection without retiring
// it or mutating InsnCounter/Minstret — the oracle uses this to test the
// store-conditional-reconciliation condition before committing to a normal
// advance (spec §4.8 step 4).
func (h *Hart) PeekInsn(pc uint64) (raw uint32, canonical uint32, ilen uint64, ok bool) {
	raw, canonical, ilen, ok = h.fetchInsn(pc)
	h.pendingException = false
	return raw, canonical, ilen, ok
}

// PeekCause returns the cause register the trap delivery path most recently
// populated for the hart's current privilege — used by the oracle to check
// a DUT-forced synchronous trap actually landed where expected.
func (h *Hart) PeekCause() uint64 {
	if h.CSR.Priv == riscv.Supervisor {
		return h.CSR.Scause
	}
	return h.CSR.Mcause
}

// ForceStoreConditionalFailure overrides a just-fetched SC as failed
// without executing it: it writes wdata into rd and advances pc by 4, the
// same effect a real failed SC would have had (spec §4.8 step 4).
func (h *Hart) ForceStoreConditionalFailure(rdv int, wdata uint64) {
	h.writeReg(rdv, wdata)
	h.PC += 4
	h.InsnCounter++
	h.Minstret++
	h.LoadRes.valid = false
}

// OverrideReg replaces the value a retired instruction wrote to rd, for the
// DUT-override cases (unreconcilable counters, MMIO loads) spec §4.8 step 5
// describes. It does not touch reg_prior a second time.
func (h *Hart) OverrideReg(rdv int, v uint64) {
	if rdv == 0 {
		return
	}
	h.Regs[rdv] = v
}

// OverrideFReg is OverrideReg's FP-register counterpart, for an FLW/FLD
// whose effective address lands in the MMIO window (spec §4.8 step 5, P9
// applies to "a load" generically, not integer loads alone). f0 is not
// wired to zero in the F extension, so unlike OverrideReg this never skips
// rdv == 0. v is stored exactly as reported: for FLW the DUT's wdata is
// already the NaN-boxed 64-bit form, the same convention the plain compare
// path already assumes when matching a non-overridden FP load's wdata.
func (h *Hart) OverrideFReg(rdv int, v uint64) {
	h.FRegs[rdv] = v
}

// TranslateData walks the page table for a load-side virtual address,
// without staging a fault on miss — the oracle uses it only to test
// membership in the MMIO window and discards failures silently.
func (h *Hart) TranslateData(vaddr uint64) (uint64, bool) {
	return h.translate(vaddr, mmu.Read)
}
