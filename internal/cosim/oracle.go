/*
 * rv64cosim - Co-simulation oracle: DUT-stepping state machine
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

// Package cosim implements the co-simulation oracle (C8): it drives the
// golden model one retirement at a time against a hardware DUT's reported
// pc/insn/wdata, overriding the comparison where the model cannot possibly
// track the DUT (MMIO loads, free-running counters), and reports a
// diagnostic exit code on divergence.
package cosim

import (
	"github.com/rcornwell/rv64cosim/internal/cpu"
)

// Exit codes from Step, matching the stable cosim_step C-API contract.
const (
	ExitContinue  = 0
	ExitFinished  = 1
	ExitMismatch  = 0x1FFF
	ExitFatalTrap = -1
)

// Config carries the machine-wide settings the oracle needs but the hart
// itself has no opinion on.
type Config struct {
	MMIOStart uint64
	MMIOEnd   uint64
	MaxInsns  uint64
}

// Oracle drives one hart through the cosim state machine. A multi-hart
// machine owns one Oracle per hart (spec §4.8's hartid parameter selects
// among them at the C-API boundary, one layer up in internal/machine).
type Oracle struct {
	Hart   *cpu.Hart
	Config Config
	ghr    GHR
	done   uint64
}

// NewOracle wires an oracle to a hart and its shared MMIO-window config.
func NewOracle(h *cpu.Hart, cfg Config) *Oracle {
	return &Oracle{Hart: h, Config: cfg}
}

// RaiseTrap queues a DUT-reported trap for the next Step call. cause < 0
// is asynchronous (an interrupt number to set pending): cause >= 0 is
// synchronous (an exception cause the model must reproduce) (spec §4.8,
// §6 cosim_raise_trap).
func (o *Oracle) RaiseTrap(cause int64) {
	if cause < 0 {
		o.Hart.DUTPendingInterrupt = int(-cause) & 63
		return
	}
	o.Hart.DUTPendingException = int(cause)
}

// Step advances the model by exactly one retirement and reconciles it
// against the DUT's reported pc/insn/wdata, per the Idle -> DrainTraps ->
// AdvanceOne -> Reconcile -> Override -> Compare -> Commit pipeline spec
// §4.8 describes.
func (o *Oracle) Step(dutPC uint64, dutInsn uint32, dutWdata uint64, ghrEna bool, ghrLo, ghrHi uint64, check bool) int {
	h := o.Hart

	// 1. Idle: succeed once the budget is spent or the hart halted.
	if o.Config.MaxInsns != 0 && o.done >= o.Config.MaxInsns {
		return ExitFinished
	}
	if h.TerminateSimulation {
		return ExitFinished
	}
	o.done++

	// 2. DrainTraps.
	if code, fatal := o.drainTraps(); fatal {
		return code
	}

	// 3. AdvanceOne: loop until a real instruction retires; interceding
	// traps (e.g. from DrainTraps's mip write) fire first and don't count.
	var pc uint64
	var raw, canonical uint32
	var ilen uint64
	for {
		// Peek pc/insn/SC-ness before committing to a normal advance, so a
		// DUT-failed SC can be forced without ever executing the store
		// (spec §4.8 step 4).
		if p, _, c, _, ok := o.peek(); ok && p == dutPC && c == dutInsn && isStoreConditional(c) && dutWdata != 0 {
			rdv := int((c >> 7) & 0x1F)
			h.ForceStoreConditionalFailure(rdv, dutWdata)
			pc, raw, canonical, ilen = p, c, c, 4
			break
		}

		retired, p, r, c, l := h.CosimAdvance()
		pc, raw, canonical, ilen = p, r, c, l
		if retired {
			break
		}
	}

	// 4/5. Overrides (store-conditional reconciliation already folded into
	// the AdvanceOne loop above since it must pre-empt execution).
	if check {
		o.override(canonical, dutWdata)
	}

	wroteReg, wdata := o.writtenValue()

	// 6. Compare.
	code := ExitContinue
	if check {
		if pc != dutPC {
			code = ExitMismatch
		}
		if ilen == 4 {
			if canonical != dutInsn {
				code = ExitMismatch
			}
		} else if raw&0xFFFF != dutInsn&0xFFFF {
			code = ExitMismatch
		}
		if wroteReg && wdata != dutWdata {
			code = ExitMismatch
		}
	}

	// 7. Branch-history cosim.
	if ghrEna {
		if h.Info != cpu.CTINone {
			o.ghr.Update(h.NextAddr)
		}
		if !o.ghr.Matches(ghrLo, ghrHi) {
			return ExitMismatch
		}
	}

	return code
}

// drainTraps services a DUT-injected trap queued by RaiseTrap before the
// main retirement advance (spec §4.8 step 2).
func (o *Oracle) drainTraps() (code int, fatal bool) {
	h := o.Hart

	if h.DUTPendingInterrupt >= 0 {
		h.CSR.Mip |= 1 << uint(h.DUTPendingInterrupt)
		h.DUTPendingInterrupt = -1
	}

	if h.DUTPendingException >= 0 {
		expect := uint64(h.DUTPendingException)
		h.DUTPendingException = -1
		h.CosimAdvance()
		if h.PeekCause() != expect {
			return ExitFatalTrap, true
		}
	}

	return ExitContinue, false
}

// peek fetches the instruction at the hart's current pc for inspection
// without retiring it, so the SC-reconciliation check can run first.
func (o *Oracle) peek() (pc uint64, raw, canonical uint32, ilen uint64, ok bool) {
	pc = o.Hart.PC
	raw, canonical, ilen, ok = o.Hart.PeekInsn(pc)
	return pc, raw, canonical, ilen, ok
}

// writtenValue reports the value the just-retired instruction wrote to a
// GPR or FP register, if any (spec §4.8 step 6's "when the model wrote").
func (o *Oracle) writtenValue() (wrote bool, value uint64) {
	h := o.Hart
	if h.MostRecentReg >= 0 {
		return true, h.Regs[h.MostRecentReg]
	}
	if h.MostRecentFPReg >= 0 {
		return true, h.FRegs[h.MostRecentFPReg]
	}
	return false, 0
}

func isStoreConditional(insn uint32) bool {
	return insn&0x7F == 0x2F && insn>>27 == 3 && (((insn>>12)&7) == 2 || ((insn>>12)&7) == 3)
}

// isAMO reports an atomic memory op other than SC (SC is handled earlier,
// by the store-conditional reconciliation step), including LR.
func isAMO(insn uint32) bool {
	if insn&0x7F != 0x2F {
		return false
	}
	switch insn >> 27 {
	case 0x01, 0x02, 0x00, 0x04, 0x0C, 0x08, 0x10, 0x14, 0x18, 0x1C:
		return true
	default:
		return false
	}
}

// Unreconcilable-counter CSR ranges spec §4.8 step 5 names: mcycle/hpmcounter
// (0xB00-0xB1F), cycle/time/instret and their hi/shadow views (0xC00-0xC1F),
// plus mip/sip.
func isUnreconcilableCounter(csrNum uint32) bool {
	if csrNum >= 0xB00 && csrNum < 0xB20 {
		return true
	}
	if csrNum >= 0xC00 && csrNum < 0xC20 {
		return true
	}
	return csrNum == 0x344 || csrNum == 0x144 // mip, sip
}

// opcodeLoadFP is the full 7-bit opcode (bits [6:0]) for FLW/FLD, the
// FP-register counterpart of the integer load opcode (0x03) used below.
const opcodeLoadFP = 0x07

// override rewrites the model's destination register for the cases it
// cannot possibly track: a CSR read of a free-running/external counter, or
// a load/AMO (integer or floating-point) whose effective address lands in
// the configured MMIO window. The effective address is reconstructed from
// reg_prior (the pre-instruction register file) plus the instruction's
// immediate (spec §4.8 step 5, P9 — "a load", with no FP exclusion).
//
// Unlike the reference implementation this is ported from, canonical is
// always the post-RVC-expansion 32-bit encoding (internal/cpu expands
// compressed loads to full I-type form before execute ever sees them), so
// a compressed c.ld/c.lw's immediate is already decoded into canonical's
// I-type imm field — there is no separate raw-bitfield reconstruction to do
// for the compressed forms the way a model without an expansion pass needs.
func (o *Oracle) override(canonical uint32, dutWdata uint64) {
	h := o.Hart

	opcode := canonical & 0x7F
	csrNum := canonical >> 20

	if opcode == 0x73 && isUnreconcilableCounter(csrNum) {
		if rdv := int((canonical >> 7) & 0x1F); rdv != 0 {
			h.OverrideReg(rdv, dutWdata)
		}
		return
	}

	if opcode == opcodeLoadFP {
		f3 := (canonical >> 12) & 0x7
		if f3 != 2 && f3 != 3 { // only FLW (2) and FLD (3) are loads
			return
		}
		reg := int((canonical >> 15) & 0x1F)
		offset := int64(int32(canonical)) >> 20
		va := h.RegPrior[reg] + uint64(offset)
		if pa, ok := h.TranslateData(va); ok && pa >= o.Config.MMIOStart && pa < o.Config.MMIOEnd {
			rdv := int((canonical >> 7) & 0x1F)
			h.OverrideFReg(rdv, dutWdata)
		}
		return
	}

	if opcode != 0x03 && !isAMO(canonical) {
		return
	}

	rdv := int((canonical >> 7) & 0x1F)
	if rdv == 0 {
		return
	}

	reg := int((canonical >> 15) & 0x1F)
	var offset int64
	if opcode == 0x03 {
		offset = int64(int32(canonical)) >> 20
	}

	va := h.RegPrior[reg] + uint64(offset)
	if pa, ok := h.TranslateData(va); ok && pa >= o.Config.MMIOStart && pa < o.Config.MMIOEnd {
		h.OverrideReg(rdv, dutWdata)
	}
}
