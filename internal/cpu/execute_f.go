/*
 * rv64cosim - F/D extension: single and double precision floating point
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

	"github.com/rcornwell/rv64cosim/internal/riscv"
)

const nanBoxUpper = 0xFFFFFFFF00000000

// Canonical quiet NaN bit patterns (RISC-V F/D extension, §11.3).
const (
	canonicalNaN32 = 0x7FC00000
	canonicalNaN64 = 0x7FF8000000000000
)

// Accrued fflags bits (fcsr[4:0]).
const (
	fflagNX = 1 << 0
	fflagUF = 1 << 1
	fflagOF = 1 << 2
	fflagDZ = 1 << 3
	fflagNV = 1 << 4
)

// isSNaN32/64 report whether v is a signaling NaN: exponent all ones,
// mantissa nonzero, and the leading (quiet) mantissa bit clear.
func isSNaN32(v float32) bool {
	b := math.Float32bits(v)
	return math.IsNaN(float64(v)) && b&(1<<22) == 0
}

func isSNaN64(v float64) bool {
	b := math.Float64bits(v)
	return math.IsNaN(v) && b&(1<<51) == 0
}

func (h *Hart) setFlags(bits uint8) {
	h.CSR.Fflags |= bits
}

// readF32 unboxes a single-precision value; an improperly NaN-boxed register
// reads back as the canonical quiet NaN, per the RISC-V F extension.
func (h *Hart) readF32(r int) float32 {
	v := h.FRegs[r]
	if v&nanBoxUpper != nanBoxUpper {
		return float32(math.NaN())
	}
	return math.Float32frombits(uint32(v))
}

func (h *Hart) readF64(r int) float64 {
	return math.Float64frombits(h.FRegs[r])
}

func (h *Hart) writeF32Reg(r int, v float32) {
	h.writeFReg(r, nanBoxUpper|uint64(math.Float32bits(v)))
}

func (h *Hart) writeF64Reg(r int, v float64) {
	h.writeFReg(r, math.Float64bits(v))
}

func (h *Hart) execLoadFP(insn uint32) {
	addr := uint64(int64(h.Regs[rs1(insn)]) + immI(insn))
	switch funct3(insn) {
	case 0x2: // FLW
		v, ok := h.loadSize(addr, 2)
		if !ok {
			return
		}
		h.writeFReg(rd(insn), nanBoxUpper|v)
	case 0x3: // FLD
		v, ok := h.loadSize(addr, 3)
		if !ok {
			return
		}
		h.writeFReg(rd(insn), v)
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
	}
}

func (h *Hart) execStoreFP(insn uint32) {
	addr := uint64(int64(h.Regs[rs1(insn)]) + immS(insn))
	switch funct3(insn) {
	case 0x2: // FSW
		h.storeSize(addr, 2, h.FRegs[rs2(insn)]&0xFFFFFFFF)
	case 0x3: // FSD
		h.storeSize(addr, 3, h.FRegs[rs2(insn)])
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
	}
}

// execFMA handles the four fused multiply-add opcodes (MADD/MSUB/NMSUB/
// NMADD), single and double precision selected by funct2 (bits [26:25]).
func (h *Hart) execFMA(insn uint32) {
	double := (insn>>25)&0x3 == 1
	r1, r2, r3 := rs1(insn), rs2(insn), rs3(insn)

	if double {
		a, b, c := h.readF64(r1), h.readF64(r2), h.readF64(r3)
		var res float64
		switch opcode(insn) {
		case opMadd:
			res = a*b + c
		case opMsub:
			res = a*b - c
		case opNmsub:
			res = -(a*b - c)
		case opNmadd:
			res = -(a*b + c)
		}
		h.writeF64Reg(rd(insn), res)
		return
	}
	a, b, c := h.readF32(r1), h.readF32(r2), h.readF32(r3)
	var res float32
	switch opcode(insn) {
	case opMadd:
		res = a*b + c
	case opMsub:
		res = a*b - c
	case opNmsub:
		res = -(a*b - c)
	case opNmadd:
		res = -(a*b + c)
	}
	h.writeF32Reg(rd(insn), res)
}

func (h *Hart) execOpFP(insn uint32) {
	f7 := funct7(insn)
	f3 := funct3(insn)
	r1, r2, rdv := rs1(insn), rs2(insn), rd(insn)

	switch f7 {
	case 0x00, 0x01: // FADD
		h.fpBinOp(f7, r1, r2, rdv, func(a, b float64) float64 { return a + b })
	case 0x04, 0x05: // FSUB
		h.fpBinOp(f7, r1, r2, rdv, func(a, b float64) float64 { return a - b })
	case 0x08, 0x09: // FMUL
		h.fpBinOp(f7, r1, r2, rdv, func(a, b float64) float64 { return a * b })
	case 0x0C, 0x0D: // FDIV
		h.fpBinOp(f7, r1, r2, rdv, func(a, b float64) float64 {
			if b == 0 {
				h.setFlags(fflagDZ)
			}
			return a / b
		})
	case 0x2C: // FSQRT.S
		v := h.readF32(r1)
		if v < 0 {
			h.setFlags(fflagNV)
		}
		h.writeF32Reg(rdv, float32(math.Sqrt(float64(v))))
	case 0x2D: // FSQRT.D
		v := h.readF64(r1)
		if v < 0 {
			h.setFlags(fflagNV)
		}
		h.writeF64Reg(rdv, math.Sqrt(v))
	case 0x10: // FSGNJ.S family
		h.execSgnj32(f3, r1, r2, rdv)
	case 0x11: // FSGNJ.D family
		h.execSgnj64(f3, r1, r2, rdv)
	case 0x14: // FMIN.S/FMAX.S
		h.writeF32Reg(rdv, h.fMinMax32(h.readF32(r1), h.readF32(r2), f3 == 1))
	case 0x15: // FMIN.D/FMAX.D
		h.writeF64Reg(rdv, h.fMinMax64(h.readF64(r1), h.readF64(r2), f3 == 1))
	case 0x20: // FCVT.S.D
		h.writeF32Reg(rdv, float32(h.readF64(r1)))
	case 0x21: // FCVT.D.S
		h.writeF64Reg(rdv, float64(h.readF32(r1)))
	case 0x50: // FEQ/FLT/FLE.S
		a, b := h.readF32(r1), h.readF32(r2)
		h.writeReg(rdv, boolToU64(h.fCompare(float64(a), float64(b), f3, isSNaN32(a) || isSNaN32(b))))
	case 0x51: // FEQ/FLT/FLE.D
		a, b := h.readF64(r1), h.readF64(r2)
		h.writeReg(rdv, boolToU64(h.fCompare(a, b, f3, isSNaN64(a) || isSNaN64(b))))
	case 0x60: // FCVT.W/WU/L/LU.S
		h.writeReg(rdv, h.fcvtToInt(float64(h.readF32(r1)), int(r2)))
	case 0x61: // FCVT.W/WU/L/LU.D
		h.writeReg(rdv, h.fcvtToInt(h.readF64(r1), int(r2)))
	case 0x68: // FCVT.S.W/WU/L/LU
		h.writeF32Reg(rdv, float32(fcvtFromInt(h.Regs[r1], int(r2))))
	case 0x69: // FCVT.D.W/WU/L/LU
		h.writeF64Reg(rdv, fcvtFromInt(h.Regs[r1], int(r2)))
	case 0x70: // FMV.X.W / FCLASS.S
		if f3 == 0 {
			h.writeReg(rdv, uint64(int32(uint32(h.FRegs[r1]))))
		} else {
			h.writeReg(rdv, fclass32(h.readF32(r1)))
		}
	case 0x71: // FMV.X.D / FCLASS.D
		if f3 == 0 {
			h.writeReg(rdv, h.FRegs[r1])
		} else {
			h.writeReg(rdv, fclass64(h.readF64(r1)))
		}
	case 0x78: // FMV.W.X
		h.writeFReg(rdv, nanBoxUpper|(h.Regs[r1]&0xFFFFFFFF))
	case 0x79: // FMV.D.X
		h.writeFReg(rdv, h.Regs[r1])
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
	}
}

func (h *Hart) fpBinOp(f7 uint32, r1, r2, rdv int, op func(a, b float64) float64) {
	if f7&1 == 1 {
		h.writeF64Reg(rdv, op(h.readF64(r1), h.readF64(r2)))
		return
	}
	h.writeF32Reg(rdv, float32(op(float64(h.readF32(r1)), float64(h.readF32(r2)))))
}

func (h *Hart) execSgnj32(f3 uint32, r1, r2, rdv int) {
	a := math.Float32bits(h.readF32(r1))
	b := math.Float32bits(h.readF32(r2))
	const sign = uint32(1) << 31
	var v uint32
	switch f3 {
	case 0: // FSGNJ
		v = (a &^ sign) | (b & sign)
	case 1: // FSGNJN
		v = (a &^ sign) | (^b & sign)
	case 2: // FSGNJX
		v = a ^ (b & sign)
	}
	h.writeFReg(rdv, nanBoxUpper|uint64(v))
}

func (h *Hart) execSgnj64(f3 uint32, r1, r2, rdv int) {
	a := h.FRegs[r1]
	b := h.FRegs[r2]
	const sign = uint64(1) << 63
	var v uint64
	switch f3 {
	case 0:
		v = (a &^ sign) | (b & sign)
	case 1:
		v = (a &^ sign) | (^b & sign)
	case 2:
		v = a ^ (b & sign)
	}
	h.writeFReg(rdv, v)
}

// fMinMax32/64 implement FMIN/FMAX's quiet-propagation rule: a NaN operand
// is disregarded in favor of the other, but a signaling NaN still raises
// NV, and if both operands are NaN the result is the canonical quiet NaN
// rather than either input.
func (h *Hart) fMinMax32(a, b float32, max bool) float32 {
	aNaN, bNaN := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	if isSNaN32(a) || isSNaN32(b) {
		h.setFlags(fflagNV)
	}
	switch {
	case aNaN && bNaN:
		return math.Float32frombits(canonicalNaN32)
	case aNaN:
		return b
	case bNaN:
		return a
	case max:
		return float32(math.Max(float64(a), float64(b)))
	default:
		return float32(math.Min(float64(a), float64(b)))
	}
}

func (h *Hart) fMinMax64(a, b float64, max bool) float64 {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	if isSNaN64(a) || isSNaN64(b) {
		h.setFlags(fflagNV)
	}
	switch {
	case aNaN && bNaN:
		return math.Float64frombits(canonicalNaN64)
	case aNaN:
		return b
	case bNaN:
		return a
	case max:
		return math.Max(a, b)
	default:
		return math.Min(a, b)
	}
}

// fCompare backs FEQ/FLT/FLE. FLT/FLE are signaling comparisons: any NaN
// operand raises NV. FEQ is a quiet comparison: only a signaling NaN
// operand raises NV. anySNaN reports whether either original operand was
// a signaling NaN, computed by the caller before widening to float64.
func (h *Hart) fCompare(a, b float64, f3 uint32, anySNaN bool) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		if f3 == 2 { // FEQ
			if anySNaN {
				h.setFlags(fflagNV)
			}
		} else { // FLT, FLE
			h.setFlags(fflagNV)
		}
		return false
	}
	switch f3 {
	case 0: // FLE
		return a <= b
	case 1: // FLT
		return a < b
	case 2: // FEQ
		return a == b
	default:
		return false
	}
}

// fcvtToInt converts per rs2's width/sign selector: 0=W, 1=WU, 2=L, 3=LU.
// A NaN or out-of-range input raises NV and yields the architected
// canonical value for that destination width instead of Go's
// implementation-defined float-to-int truncation.
func (h *Hart) fcvtToInt(v float64, kind int) uint64 {
	nan := math.IsNaN(v)
	switch kind {
	case 0: // W
		const upper, lower = 1 << 31, float64(math.MinInt32)
		switch {
		case nan || v >= upper:
			h.setFlags(fflagNV)
			return uint64(int64(math.MaxInt32))
		case v < lower:
			h.setFlags(fflagNV)
			return ^uint64(math.MaxInt32) // MinInt32 sign-extended
		default:
			return uint64(int64(int32(v)))
		}
	case 1: // WU
		switch {
		case nan || v >= 1<<32:
			h.setFlags(fflagNV)
			return ^uint64(0) // 0xFFFFFFFF sign-extended
		case v < 0:
			h.setFlags(fflagNV)
			return 0
		default:
			return uint64(int64(int32(uint32(v))))
		}
	case 2: // L
		const upper, lower = 1 << 63, float64(math.MinInt64)
		switch {
		case nan || v >= upper:
			h.setFlags(fflagNV)
			return uint64(math.MaxInt64)
		case v < lower:
			h.setFlags(fflagNV)
			return uint64(1) << 63 // MinInt64
		default:
			return uint64(int64(v))
		}
	default: // LU
		switch {
		case nan:
			h.setFlags(fflagNV)
			return ^uint64(0)
		case v < 0:
			h.setFlags(fflagNV)
			return 0
		case v >= 1<<64:
			h.setFlags(fflagNV)
			return ^uint64(0)
		default:
			return uint64(v)
		}
	}
}

func fcvtFromInt(v uint64, kind int) float64 {
	switch kind {
	case 0:
		return float64(int32(uint32(v)))
	case 1:
		return float64(uint32(v))
	case 2:
		return float64(int64(v))
	default:
		return float64(v)
	}
}

func fclass32(v float32) uint64 {
	switch {
	case isSNaN32(v):
		return 1 << 8
	case math.IsNaN(float64(v)):
		return 1 << 9
	case math.IsInf(float64(v), -1):
		return 1 << 0
	case math.IsInf(float64(v), 1):
		return 1 << 7
	case v == 0 && math.Signbit(float64(v)):
		return 1 << 3
	case v == 0:
		return 1 << 4
	case v < 0:
		return 1 << 1
	default:
		return 1 << 6
	}
}

func fclass64(v float64) uint64 {
	switch {
	case isSNaN64(v):
		return 1 << 8
	case math.IsNaN(v):
		return 1 << 9
	case math.IsInf(v, -1):
		return 1 << 0
	case math.IsInf(v, 1):
		return 1 << 7
	case v == 0 && math.Signbit(v):
		return 1 << 3
	case v == 0:
		return 1 << 4
	case v < 0:
		return 1 << 1
	default:
		return 1 << 6
	}
}
