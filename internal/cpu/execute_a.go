/*
 * rv64cosim - A extension: load-reserved/store-conditional and AMOs
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

import "github.com/rcornwell/rv64cosim/internal/riscv"

const (
	amoLR   = 0x02
	amoSC   = 0x03
	amoSwap = 0x01
	amoAdd  = 0x00
	amoXor  = 0x04
	amoAnd  = 0x0C
	amoOr   = 0x08
	amoMin  = 0x10
	amoMax  = 0x14
	amoMinu = 0x18
	amoMaxu = 0x1C
)

// execAmo handles the AMO major opcode: LR.W/D, SC.W/D, and the
// read-modify-write AMOs. Because the stepping loop runs one hart at a time
// (spec §5), every AMO here is trivially atomic with respect to other
// harts — there is no interleaving inside a single Step call.
func (h *Hart) execAmo(insn uint32) {
	f3 := funct3(insn)
	var sizeLog2 uint
	switch f3 {
	case 0x2:
		sizeLog2 = 2
	case 0x3:
		sizeLog2 = 3
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return
	}

	op := funct5(insn)
	addr := h.Regs[rs1(insn)]

	switch op {
	case amoLR:
		v, ok := h.loadSize(addr, sizeLog2)
		if !ok {
			return
		}
		h.LoadRes = reservation{valid: true, addr: addr, size: sizeLog2}
		h.writeReg(rd(insn), signExtendLoaded(v, sizeLog2))
		return
	case amoSC:
		if h.LoadRes.valid && h.LoadRes.addr == addr && h.LoadRes.size == sizeLog2 {
			if !h.storeSize(addr, sizeLog2, h.Regs[rs2(insn)]) {
				return
			}
			h.LoadRes.valid = false
			h.writeReg(rd(insn), 0)
		} else {
			h.writeReg(rd(insn), 1)
		}
		return
	}

	old, ok := h.loadSize(addr, sizeLog2)
	if !ok {
		return
	}
	oldSigned := signExtendLoaded(old, sizeLog2)
	rs2v := h.Regs[rs2(insn)]

	var result uint64
	switch op {
	case amoSwap:
		result = rs2v
	case amoAdd:
		result = old + rs2v
	case amoXor:
		result = old ^ rs2v
	case amoAnd:
		result = old & rs2v
	case amoOr:
		result = old | rs2v
	case amoMin:
		if int64(oldSigned) < int64(signExtendLoaded(rs2v, sizeLog2)) {
			result = old
		} else {
			result = rs2v
		}
	case amoMax:
		if int64(oldSigned) > int64(signExtendLoaded(rs2v, sizeLog2)) {
			result = old
		} else {
			result = rs2v
		}
	case amoMinu:
		if maskTo(old, sizeLog2) < maskTo(rs2v, sizeLog2) {
			result = old
		} else {
			result = rs2v
		}
	case amoMaxu:
		if maskTo(old, sizeLog2) > maskTo(rs2v, sizeLog2) {
			result = old
		} else {
			result = rs2v
		}
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return
	}

	if !h.storeSize(addr, sizeLog2, result) {
		return
	}
	h.writeReg(rd(insn), oldSigned)
}

func signExtendLoaded(v uint64, sizeLog2 uint) uint64 {
	return uint64(signExtend(uint32(v), 8<<sizeLog2))
}

func maskTo(v uint64, sizeLog2 uint) uint64 {
	if sizeLog2 == 2 {
		return uint64(uint32(v))
	}
	return v
}
