/*
 * rv64cosim - M extension: multiply/divide
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
	"math/bits"

	"github.com/rcornwell/rv64cosim/internal/riscv"
)

// execMExt handles the OP/OP-32 instructions with funct7=1: MUL/DIV/REM and
// their word-width W variants. Each width is treated as a distinct variant
// per spec §9's design note; none rely on host integer truncation beyond
// Go's own defined wraparound semantics for fixed-width types. RV64M defines
// only DIVW/DIVUW/REMW/REMUW for OP-32 (funct3 4..7); MULW covers funct3 0,
// and funct3 1..3 (MULH/MULHSU/MULHU) have no word-width form and are
// reserved encodings there.
func (h *Hart) execMExt(insn uint32, w32 bool) {
	f3 := funct3(insn)
	if w32 && f3 >= 0x1 && f3 <= 0x3 {
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return
	}
	a, b := h.Regs[rs1(insn)], h.Regs[rs2(insn)]
	var v uint64
	switch f3 {
	case 0x0: // MUL / MULW
		sa, sb := a, b
		if w32 {
			sa, sb = uint64(int32(uint32(a))), uint64(int32(uint32(b)))
		}
		v = sa * sb
	case 0x1: // MULH
		v = uint64(mulHigh(int64(a), int64(b)))
	case 0x2: // MULHSU
		v = uint64(mulHighSU(int64(a), b))
	case 0x3: // MULHU
		hi, _ := bits.Mul64(a, b)
		v = hi
	case 0x4: // DIV / DIVW
		sa, sb := a, b
		if w32 {
			sa, sb = uint64(int32(uint32(a))), uint64(int32(uint32(b)))
		}
		v = divSigned(int64(sa), int64(sb), w32)
	case 0x5: // DIVU / DIVUW
		ua, ub := a, b
		if w32 {
			ua, ub = uint64(uint32(a)), uint64(uint32(b))
		}
		v = divUnsigned(ua, ub, w32)
	case 0x6: // REM / REMW
		sa, sb := a, b
		if w32 {
			sa, sb = uint64(int32(uint32(a))), uint64(int32(uint32(b)))
		}
		v = remSigned(int64(sa), int64(sb), w32)
	case 0x7: // REMU / REMUW
		ua, ub := a, b
		if w32 {
			ua, ub = uint64(uint32(a)), uint64(uint32(b))
		}
		v = remUnsigned(ua, ub, w32)
	}
	if w32 {
		v = uint64(int32(uint32(v)))
	}
	h.writeReg(rd(insn), v)
}

func mulHigh(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	hi -= uint64(a>>63) & uint64(b)
	hi -= uint64(b>>63) & uint64(a)
	return int64(hi)
}

func mulHighSU(a int64, b uint64) int64 {
	hi, _ := bits.Mul64(uint64(a), b)
	hi -= uint64(a>>63) & b
	return int64(hi)
}

func divSigned(a, b int64, w32 bool) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	minVal := int64(-1) << 63
	if w32 {
		minVal = int64(int32(-1)) << 31
	}
	if a == minVal && b == -1 {
		return uint64(a)
	}
	return uint64(a / b)
}

func divUnsigned(a, b uint64, w32 bool) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

func remSigned(a, b int64, w32 bool) uint64 {
	if b == 0 {
		return uint64(a)
	}
	minVal := int64(-1) << 63
	if w32 {
		minVal = int64(int32(-1)) << 31
	}
	if a == minVal && b == -1 {
		return 0
	}
	return uint64(a % b)
}

func remUnsigned(a, b uint64, w32 bool) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}
