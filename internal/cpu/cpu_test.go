/*
 * rv64cosim - interpreter and stepping loop tests
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
	"math"
	"testing"

	"github.com/rcornwell/rv64cosim/internal/memory"
	"github.com/rcornwell/rv64cosim/internal/riscv"
)

func newTestHart(t *testing.T) (*Hart, *memory.Map) {
	t.Helper()
	mem := memory.New()
	if _, err := mem.RegisterRAM(0x1000, 0x10000); err != nil {
		t.Fatalf("RegisterRAM: %v", err)
	}
	h := New(0, mem)
	return h, mem
}

func storeWord(t *testing.T, mem *memory.Map, addr uint64, word uint32) {
	t.Helper()
	if err := mem.Write(addr, 2, uint64(word)); err != nil {
		t.Fatalf("store word at %#x: %v", addr, err)
	}
}

func TestAddiRetires(t *testing.T) {
	h, mem := newTestHart(t)
	// addi x1, x0, 5
	storeWord(t, mem, 0x1000, encodeI(opOpImm, 0, 1, 0, 5))

	retired, reason := h.Step(1, nil)
	if retired != 1 || reason != StopBudget {
		t.Fatalf("retired=%d reason=%v", retired, reason)
	}
	if h.Regs[1] != 5 {
		t.Fatalf("x1 = %d, want 5", h.Regs[1])
	}
	if h.PC != 0x1004 {
		t.Fatalf("pc = %#x, want 0x1004", h.PC)
	}
	if h.Minstret != 1 {
		t.Fatalf("minstret = %d, want 1", h.Minstret)
	}
}

func TestRegisterPriorAndTimestampOnWrite(t *testing.T) {
	h, mem := newTestHart(t)
	storeWord(t, mem, 0x1000, encodeI(opOpImm, 0, 1, 0, 5))  // addi x1, x0, 5
	storeWord(t, mem, 0x1004, encodeI(opOpImm, 0, 1, 1, 2))  // addi x1, x1, 2

	h.Step(2, nil)
	if h.Regs[1] != 7 {
		t.Fatalf("x1 = %d, want 7", h.Regs[1])
	}
	if h.RegPrior[1] != 5 {
		t.Fatalf("reg_prior[1] = %d, want 5", h.RegPrior[1])
	}
	if h.MostRecentReg != 1 {
		t.Fatalf("most_recently_written_reg = %d, want 1", h.MostRecentReg)
	}
	if h.RegTS[1] != h.InsnCounter {
		t.Fatalf("reg_ts[1] = %d, want %d", h.RegTS[1], h.InsnCounter)
	}
}

func TestBranchNotTakenFallsThrough(t *testing.T) {
	h, mem := newTestHart(t)
	// beq x0, x1, +8 (x1 != 0 so not taken)
	storeWord(t, mem, 0x1000, encodeI(opOpImm, 0, 1, 0, 1)) // addi x1, x0, 1
	storeWord(t, mem, 0x1004, encodeB(opBranch, 0, 0, 1, 8))
	storeWord(t, mem, 0x1008, encodeI(opOpImm, 0, 2, 0, 9)) // addi x2, x0, 9

	h.Step(3, nil)
	if h.Regs[2] != 9 {
		t.Fatalf("branch not taken should fall through to addi, x2 = %d", h.Regs[2])
	}
}

func TestBranchTakenSkipsFallthrough(t *testing.T) {
	h, mem := newTestHart(t)
	storeWord(t, mem, 0x1000, encodeB(opBranch, 0, 0, 0, 8)) // beq x0, x0, +8 (taken)
	storeWord(t, mem, 0x1004, encodeI(opOpImm, 0, 2, 0, 9))  // skipped
	storeWord(t, mem, 0x1008, encodeI(opOpImm, 0, 3, 0, 7))  // addi x3, x0, 7

	h.Step(1, nil)
	if h.Info != CTIBranch {
		t.Fatalf("Info after taken beq = %v, want CTIBranch", h.Info)
	}

	h.Step(1, nil)
	if h.Regs[2] != 0 {
		t.Fatalf("fallthrough instruction should have been skipped, x2 = %d", h.Regs[2])
	}
	if h.Regs[3] != 7 {
		t.Fatalf("x3 = %d, want 7", h.Regs[3])
	}
}

func TestIllegalInstructionTraps(t *testing.T) {
	h, mem := newTestHart(t)
	storeWord(t, mem, 0x1000, 0xFFFFFFFF) // not a valid RV64 encoding

	h.Step(1, nil)
	if h.CSR.Priv != riscv.Machine {
		t.Fatalf("priv = %v, want Machine", h.CSR.Priv)
	}
	if h.CSR.Mcause != riscv.CauseIllegalInsn {
		t.Fatalf("mcause = %d, want %d", h.CSR.Mcause, riscv.CauseIllegalInsn)
	}
	if h.PC != h.CSR.Mtvec {
		t.Fatalf("pc = %#x, want trap vector %#x", h.PC, h.CSR.Mtvec)
	}
}

func TestECallEntersMachineTrapHandler(t *testing.T) {
	h, mem := newTestHart(t)
	h.CSR.Mtvec = 0x2000
	storeWord(t, mem, 0x1000, 0x00000073) // ecall

	h.Step(1, nil)
	if h.PC != 0x2000 {
		t.Fatalf("pc = %#x, want 0x2000", h.PC)
	}
	if h.CSR.Mcause != riscv.CauseEcallM {
		t.Fatalf("mcause = %d, want CauseEcallM", h.CSR.Mcause)
	}
	if h.CSR.Mepc != 0x1000 {
		t.Fatalf("mepc = %#x, want 0x1000", h.CSR.Mepc)
	}
}

func TestMRETRestoresPC(t *testing.T) {
	h, mem := newTestHart(t)
	h.CSR.Mepc = 0x3000
	storeWord(t, mem, 0x1000, 0x30200073) // mret

	h.Step(1, nil)
	if h.PC != 0x3000 {
		t.Fatalf("pc after mret = %#x, want 0x3000", h.PC)
	}
}

func encodeAmo(funct5 uint32, rdv, r1, r2 int, sizeLog2 uint32) uint32 {
	f3 := uint32(2)
	if sizeLog2 == 3 {
		f3 = 3
	}
	return (funct5 << 27) | (uint32(r2) << 20) | (uint32(r1) << 15) | (f3 << 12) | (uint32(rdv) << 7) | (0x0B << 2) | 3
}

func TestLoadReservedStoreConditionalForwardProgress(t *testing.T) {
	h, mem := newTestHart(t)
	// x2 = 0x1100 (a RAM word distinct from the code stream)
	storeWord(t, mem, 0x1000, encodeI(opOpImm, 0, 2, 0, 0x11)) // addi x2, x0, 0x11
	storeWord(t, mem, 0x1004, encodeI(opOpImm, 1, 2, 2, 8))    // slli x2, x2, 8
	storeWord(t, mem, 0x1008, encodeI(opOpImm, 0, 4, 0, 42))
	storeWord(t, mem, 0x100C, encodeAmo(amoLR, 1, 2, 0, 2))
	storeWord(t, mem, 0x1010, encodeAmo(amoSC, 3, 2, 4, 2))

	h.Step(5, nil)
	if h.Regs[3] != 0 {
		t.Fatalf("sc.w result = %d, want 0 (success)", h.Regs[3])
	}
	v, err := mem.Read(0x1100, 2)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if v != 42 {
		t.Fatalf("stored value = %d, want 42", v)
	}
}

func TestFloatAddRoundTrip(t *testing.T) {
	h, _ := newTestHart(t)
	h.writeF32Reg(1, 1.5)
	h.writeF32Reg(2, 2.5)
	h.fpBinOp(0x00, 1, 2, 3, func(a, b float64) float64 { return a + b })
	if got := h.readF32(3); got != 4.0 {
		t.Fatalf("f3 = %v, want 4.0", got)
	}
}

func TestNaNBoxedSingleReadsBack(t *testing.T) {
	h, _ := newTestHart(t)
	h.writeF32Reg(5, -3.25)
	if got := h.readF32(5); got != -3.25 {
		t.Fatalf("f5 = %v, want -3.25", got)
	}
	if h.FRegs[5]>>32 != 0xFFFFFFFF {
		t.Fatalf("f5 not NaN-boxed: %#x", h.FRegs[5])
	}
}

func signalingNaN32() float32 {
	return math.Float32frombits(0x7F800001) // exponent all ones, quiet bit clear
}

func TestFLTSignalsOnQuietNaN(t *testing.T) {
	h, _ := newTestHart(t)
	h.writeF32Reg(1, float32(math.NaN())) // quiet NaN
	h.writeF32Reg(2, 1.0)

	h.execOpFP(encodeR(opOpFP, 1, 3, 1, 2, 0x50)) // flt.s x3, f1, f2

	if h.CSR.Fflags&fflagNV == 0 {
		t.Fatalf("fflags = %#x, want NV set: FLT signals on any NaN operand", h.CSR.Fflags)
	}
}

func TestFEQQuietOnQuietNaN(t *testing.T) {
	h, _ := newTestHart(t)
	h.writeF32Reg(1, float32(math.NaN())) // quiet NaN
	h.writeF32Reg(2, 1.0)

	h.execOpFP(encodeR(opOpFP, 2, 3, 1, 2, 0x50)) // feq.s x3, f1, f2

	if h.CSR.Fflags&fflagNV != 0 {
		t.Fatalf("fflags = %#x, want NV clear: FEQ is quiet on a quiet NaN", h.CSR.Fflags)
	}
}

func TestFEQSignalsOnSignalingNaN(t *testing.T) {
	h, _ := newTestHart(t)
	h.writeF32Reg(1, signalingNaN32())
	h.writeF32Reg(2, 1.0)

	h.execOpFP(encodeR(opOpFP, 2, 3, 1, 2, 0x50)) // feq.s x3, f1, f2

	if h.CSR.Fflags&fflagNV == 0 {
		t.Fatalf("fflags = %#x, want NV set: FEQ still signals on an sNaN operand", h.CSR.Fflags)
	}
}

func TestFMinReturnsCanonicalNaNWhenBothNaN(t *testing.T) {
	h, _ := newTestHart(t)
	h.writeF32Reg(1, float32(math.NaN()))
	h.writeF32Reg(2, float32(math.NaN()))

	h.execOpFP(encodeR(opOpFP, 0, 3, 1, 2, 0x14)) // fmin.s f3, f1, f2

	if got := math.Float32bits(h.readF32(3)); got != canonicalNaN32 {
		t.Fatalf("fmin.s of two NaNs = %#x, want canonical %#x", got, uint32(canonicalNaN32))
	}
}

func TestFcvtWSOfNaNReturnsCanonicalMaxAndSignalsNV(t *testing.T) {
	h, _ := newTestHart(t)
	h.writeF32Reg(1, float32(math.NaN()))

	h.execOpFP(encodeR(opOpFP, 0, 3, 1, 0, 0x60)) // fcvt.w.s x3, f1 (rs2=0 selects W)

	if h.Regs[3] != 0x7FFFFFFF {
		t.Fatalf("fcvt.w.s of NaN = %#x, want canonical 0x7fffffff", h.Regs[3])
	}
	if h.CSR.Fflags&fflagNV == 0 {
		t.Fatalf("fflags = %#x, want NV set for an invalid conversion", h.CSR.Fflags)
	}
}

func encodeM(opc uint32, f3 uint32, rdv, r1, r2 int) uint32 {
	return encodeR(opc, f3, rdv, r1, r2, 1)
}

// TestDivuwZeroExtendsOperands covers RV64M's word-width unsigned divide:
// rs1/rs2 must be zero-extended from their low 32 bits before the divide,
// not sign-extended the way DIVW/REMW's signed variants are.
func TestDivuwZeroExtendsOperands(t *testing.T) {
	h, mem := newTestHart(t)
	storeWord(t, mem, 0x1000, encodeI(opOpImm, 0, 1, 0, -1)) // x1 = 0xFFFF_FFFF_FFFF_FFFF
	storeWord(t, mem, 0x1004, encodeI(opOpImm, 0, 2, 0, 2))  // x2 = 2
	storeWord(t, mem, 0x1008, encodeM(opOp32, 5, 3, 1, 2))   // divuw x3, x1, x2

	h.Step(3, nil)
	if h.Regs[3] != 0x7FFFFFFF {
		t.Fatalf("divuw x3 = %#x, want 0x7fffffff (4294967295/2)", h.Regs[3])
	}
}

func TestRemuwZeroExtendsOperands(t *testing.T) {
	h, mem := newTestHart(t)
	storeWord(t, mem, 0x1000, encodeI(opOpImm, 0, 1, 0, -1)) // x1 = 0xFFFF_FFFF_FFFF_FFFF
	storeWord(t, mem, 0x1004, encodeI(opOpImm, 0, 2, 0, 2))  // x2 = 2
	storeWord(t, mem, 0x1008, encodeM(opOp32, 7, 3, 1, 2))   // remuw x3, x1, x2

	h.Step(3, nil)
	if h.Regs[3] != 1 {
		t.Fatalf("remuw x3 = %d, want 1 (4294967295 mod 2)", h.Regs[3])
	}
}

// TestMulhReservedInOp32Traps covers RV64M's reserved OP-32 encodings:
// MULH/MULHSU/MULHU have no word-width form.
func TestMulhReservedInOp32Traps(t *testing.T) {
	h, mem := newTestHart(t)
	storeWord(t, mem, 0x1000, encodeM(opOp32, 1, 1, 0, 0)) // mulh-shaped OP-32 encoding

	h.Step(1, nil)
	if h.CSR.Mcause != riscv.CauseIllegalInsn {
		t.Fatalf("mcause = %d, want CauseIllegalInsn", h.CSR.Mcause)
	}
}

func TestWFIParksUntilInterruptPending(t *testing.T) {
	h, mem := newTestHart(t)
	storeWord(t, mem, 0x1000, 0x10500073) // wfi

	h.Step(1, nil)
	if !h.PowerDown {
		t.Fatalf("expected PowerDown after wfi with no pending interrupt")
	}

	h.CSR.Mip |= 1 << riscv.IntMTimer
	h.CSR.Mie |= 1 << riscv.IntMTimer
	retired, reason := h.Step(1, nil)
	if h.PowerDown {
		t.Fatalf("expected PowerDown cleared once interrupt is pending")
	}
	_ = retired
	_ = reason
}
