/*
 * rv64cosim - co-simulation oracle tests
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

package cosim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/rv64cosim/internal/cpu"
	"github.com/rcornwell/rv64cosim/internal/memory"
)

func newTestOracle(t *testing.T, mmioStart, mmioEnd uint64) (*Oracle, *memory.Map) {
	t.Helper()
	mem := memory.New()
	_, err := mem.RegisterRAM(0x1000, 0x10000)
	require.NoError(t, err)
	h := cpu.New(0, mem)
	o := NewOracle(h, Config{MMIOStart: mmioStart, MMIOEnd: mmioEnd, MaxInsns: 0})
	return o, mem
}

func storeWord(t *testing.T, mem *memory.Map, addr uint64, word uint32) {
	t.Helper()
	require.NoError(t, mem.Write(addr, 2, uint64(word)), "store word at %#x", addr)
}

// TestStoreConditionalForcedFailure covers P5: a DUT-failed SC must be
// reproduced by forcing rd and advancing pc without performing the store.
func TestStoreConditionalForcedFailure(t *testing.T) {
	o, mem := newTestOracle(t, 0, 0)
	const rd, rs1, rs2 = 3, 0, 0
	insn := uint32(3)<<27 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(2)<<12 | uint32(rd)<<7 | 0x2F // sc.w x3, x0, (x0)
	storeWord(t, mem, 0x1000, insn)

	code := o.Step(0x1000, insn, 7, false, 0, 0, true)
	assert.Equal(t, ExitContinue, code)
	assert.EqualValues(t, 7, o.Hart.Regs[rd], "forced DUT wdata")
	assert.Equal(t, uint64(0x1004), o.Hart.PC, "advanced without executing the store")
}

// TestCSRCounterOverride covers P8: a CSR read of an unreconcilable counter
// is replaced by the DUT's reported value after the model's own read.
func TestCSRCounterOverride(t *testing.T) {
	o, mem := newTestOracle(t, 0, 0)
	const rd = 1
	const mcycle = 0xB00
	insn := uint32(mcycle)<<20 | uint32(0)<<15 | uint32(2)<<12 | uint32(rd)<<7 | 0x73 // csrrs x1, mcycle, x0
	storeWord(t, mem, 0x1000, insn)

	code := o.Step(0x1000, insn, 42, false, 0, 0, true)
	assert.Equal(t, ExitContinue, code)
	assert.EqualValues(t, 42, o.Hart.Regs[rd], "DUT override")
}

// TestMMIOLoadOverride covers P9: a load whose effective address lands in
// the configured MMIO window is overridden using reg_prior, not the GPR
// file's value at compare time (which a non-writing load never changes
// anyway, but the reconstruction must still go through RegPrior).
func TestMMIOLoadOverride(t *testing.T) {
	const mmioAddr = 0x1800
	o, mem := newTestOracle(t, mmioAddr, mmioAddr+0x1000)
	h := o.Hart
	h.Regs[2] = mmioAddr
	h.RegPrior[2] = mmioAddr

	const rd, rs1 = 1, 2
	insn := uint32(0)<<20 | uint32(rs1)<<15 | uint32(3)<<12 | uint32(rd)<<7 | 0x03 // ld x1, 0(x2)
	storeWord(t, mem, 0x1000, insn)
	// Back the load with some real value the override must not leak through.
	require.NoError(t, mem.Write(mmioAddr, 3, 0xDEADBEEF), "seed mmio word")

	code := o.Step(0x1000, insn, 0x4242, false, 0, 0, true)
	assert.Equal(t, ExitContinue, code)
	assert.EqualValues(t, 0x4242, h.Regs[rd], "MMIO override")
}

// TestRaiseTrapAsyncSetsMIP covers an asynchronous DUT-raised trap: it must
// assert the corresponding mip bit ahead of the next retirement.
func TestRaiseTrapAsyncSetsMIP(t *testing.T) {
	o, mem := newTestOracle(t, 0, 0)
	insn := uint32(5)<<20 | uint32(0)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x13 // addi x1, x0, 5
	storeWord(t, mem, 0x1000, insn)

	o.RaiseTrap(-8) // interrupt bit 8 (UEIP)
	require.Equal(t, 8, o.Hart.DUTPendingInterrupt)

	o.Step(0x1000, insn, 0, false, 0, 0, false)
	assert.NotZero(t, o.Hart.CSR.Mip&(1<<8), "mip bit 8 not set after draining an async DUT trap")
}

// TestDrainTrapsSyncMismatchIsFatal covers the synchronous raise_trap path:
// if the model doesn't land in the cause the DUT reported, the oracle must
// report a fatal diagnostic rather than silently continuing.
func TestDrainTrapsSyncMismatchIsFatal(t *testing.T) {
	o, mem := newTestOracle(t, 0, 0)
	insn := uint32(5)<<20 | uint32(0)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x13 // addi x1, x0, 5 (never traps)
	storeWord(t, mem, 0x1000, insn)

	o.RaiseTrap(9) // claim a supervisor ecall is coming; the addi won't produce it
	code := o.Step(0x1000, insn, 0, false, 0, 0, false)
	assert.Equal(t, ExitFatalTrap, code)
}

// TestStepFinishesAtMaxInsns covers the Idle state: once the configured
// instruction budget is exhausted, Step must report success-terminate
// without touching the hart further.
func TestStepFinishesAtMaxInsns(t *testing.T) {
	o, mem := newTestOracle(t, 0, 0)
	o.Config.MaxInsns = 1
	insn := uint32(5)<<20 | uint32(0)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x13
	storeWord(t, mem, 0x1000, insn)

	assert.Equal(t, ExitContinue, o.Step(0x1000, insn, 0, false, 0, 0, false), "first step")
	assert.Equal(t, ExitFinished, o.Step(0x1004, 0, 0, false, 0, 0, false), "second step")
}

// TestMismatchedPCIsFlagged covers the plain compare path (spec §4.8 step
// 6): a DUT pc that disagrees with the model's own retirement is a
// mismatch whenever check is requested.
func TestMismatchedPCIsFlagged(t *testing.T) {
	o, mem := newTestOracle(t, 0, 0)
	insn := uint32(5)<<20 | uint32(0)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x13 // addi x1, x0, 5
	storeWord(t, mem, 0x1000, insn)

	code := o.Step(0x2000, insn, 5, false, 0, 0, true)
	assert.Equal(t, ExitMismatch, code)
}

func TestGHRUpdateIsDeterministicAndBounded(t *testing.T) {
	var a, b GHR
	a.Update(0x2000)
	b.Update(0x2000)
	if a != b {
		t.Fatalf("GHR.Update is not deterministic: %+v != %+v", a, b)
	}
	if a.hi&^((uint64(1)<<26)-1) != 0 {
		t.Fatalf("hi half carries bits beyond the 90-bit history: %#x", a.hi)
	}

	a.Update(0x3000)
	if a == b {
		t.Fatalf("a second distinct CTI target should change the shadow")
	}
	if !a.Matches(a.lo, a.hi) {
		t.Fatalf("Matches should agree with the shadow's own state")
	}
}

func TestGHRNonCTIDoesNotAdvance(t *testing.T) {
	o, mem := newTestOracle(t, 0, 0)
	insn := uint32(5)<<20 | uint32(0)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x13 // addi: not a CTI
	storeWord(t, mem, 0x1000, insn)

	var want GHR
	code := o.Step(0x1000, insn, 5, true, want.lo, want.hi, true)
	assert.Equal(t, ExitContinue, code)
	assert.Equal(t, want, o.ghr, "non-CTI retirement must leave the GHR shadow unchanged")
}
