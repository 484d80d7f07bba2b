/*
 * rv64cosim - RV64I base integer execute
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

// execute dispatches a canonical 32-bit instruction by its 5-bit major
// opcode. It returns the address of the next instruction; if it stages a
// fault via h.raise, the return value is ignored by the caller.
func (h *Hart) execute(insn uint32, pc uint64, ilen uint64) uint64 {
	next := pc + ilen

	if insn&0x3 != 0x3 {
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return next
	}

	switch opcode(insn) {
	case opLui:
		h.writeReg(rd(insn), uint64(immU(insn)))
	case opAuipc:
		h.writeReg(rd(insn), pc+uint64(immU(insn)))
	case opJal:
		h.writeReg(rd(insn), next)
		target := pc + uint64(immJ(insn))
		h.Info, h.NextAddr = ctiForLink(rd(insn), -1), target
		return h.checkFetchAlign(target, pc)
	case opJalr:
		base := h.Regs[rs1(insn)]
		target := (base + uint64(immI(insn))) &^ 1
		h.writeReg(rd(insn), next)
		h.Info, h.NextAddr = ctiForLink(rd(insn), rs1(insn)), target
		return h.checkFetchAlign(target, pc)
	case opBranch:
		if h.branchTaken(insn) {
			target := pc + uint64(immB(insn))
			h.Info, h.NextAddr = CTIBranch, target
			return h.checkFetchAlign(target, pc)
		}
		h.Info = CTINone
	case opLoad:
		h.execLoad(insn)
	case opLoadFP:
		h.execLoadFP(insn)
	case opStore:
		h.execStore(insn)
	case opStoreFP:
		h.execStoreFP(insn)
	case opOpImm:
		h.execOpImm(insn, false)
	case opOpImm32:
		h.execOpImm(insn, true)
	case opOp:
		h.execOp(insn, false)
	case opOp32:
		h.execOp(insn, true)
	case opMiscMem:
		h.execFence(insn)
	case opAmo:
		h.execAmo(insn)
	case opSystem:
		return h.execSystem(insn, pc, next)
	case opMadd, opMsub, opNmsub, opNmadd:
		h.execFMA(insn)
	case opOpFP:
		h.execOpFP(insn)
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
	}
	return next
}

func ctiForLink(rdv, rs1v int) CTIKind {
	isLink := func(r int) bool { return r == 1 || r == 5 }
	switch {
	case isLink(rdv) && rs1v >= 0 && isLink(rs1v):
		return CTIJalrPopPush
	case isLink(rdv):
		return CTIJalrPush
	case rs1v >= 0 && isLink(rs1v):
		return CTIJalrPop
	default:
		return CTIJalr
	}
}

func (h *Hart) checkFetchAlign(target, pc uint64) uint64 {
	if target&1 != 0 {
		h.raise(riscv.CauseInsnMisaligned, target)
		return pc
	}
	return target
}

func (h *Hart) branchTaken(insn uint32) bool {
	a, b := h.Regs[rs1(insn)], h.Regs[rs2(insn)]
	switch funct3(insn) {
	case 0x0:
		return a == b
	case 0x1:
		return a != b
	case 0x4:
		return int64(a) < int64(b)
	case 0x5:
		return int64(a) >= int64(b)
	case 0x6:
		return a < b
	case 0x7:
		return a >= b
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return false
	}
}

func (h *Hart) execLoad(insn uint32) {
	addr := uint64(int64(h.Regs[rs1(insn)]) + immI(insn))
	f3 := funct3(insn)
	var sizeLog2 uint
	var signed bool
	switch f3 {
	case 0x0:
		sizeLog2, signed = 0, true // LB
	case 0x1:
		sizeLog2, signed = 1, true // LH
	case 0x2:
		sizeLog2, signed = 2, true // LW
	case 0x3:
		sizeLog2, signed = 3, false // LD
	case 0x4:
		sizeLog2, signed = 0, false // LBU
	case 0x5:
		sizeLog2, signed = 1, false // LHU
	case 0x6:
		sizeLog2, signed = 2, false // LWU
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return
	}
	v, ok := h.loadSize(addr, sizeLog2)
	if !ok {
		return
	}
	if signed {
		v = uint64(signExtend(uint32(v), 8<<sizeLog2))
	}
	h.writeReg(rd(insn), v)
}

func (h *Hart) execStore(insn uint32) {
	addr := uint64(int64(h.Regs[rs1(insn)]) + immS(insn))
	f3 := funct3(insn)
	if f3 > 3 {
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return
	}
	h.storeSize(addr, uint(f3), h.Regs[rs2(insn)])
}

func (h *Hart) execOpImm(insn uint32, w32 bool) {
	a := h.Regs[rs1(insn)]
	imm := immI(insn)
	f3 := funct3(insn)
	var v uint64
	switch f3 {
	case 0x0:
		v = a + uint64(imm)
	case 0x1:
		shamt := shamtFor(insn, w32)
		v = a << shamt
	case 0x2:
		v = boolToU64(int64(a) < imm)
	case 0x3:
		v = boolToU64(a < uint64(imm))
	case 0x4:
		v = a ^ uint64(imm)
	case 0x5:
		shamt := shamtFor(insn, w32)
		if funct7(insn)&0x20 != 0 {
			if w32 {
				v = uint64(int32(uint32(a)) >> shamt)
			} else {
				v = uint64(int64(a) >> shamt)
			}
		} else {
			v = a >> shamt
		}
	case 0x6:
		v = a | uint64(imm)
	case 0x7:
		v = a & uint64(imm)
	}
	if w32 {
		v = uint64(int32(uint32(v)))
	}
	h.writeReg(rd(insn), v)
}

func shamtFor(insn uint32, w32 bool) uint32 {
	if w32 {
		return uint32(rs2(insn)) & 0x1F
	}
	return uint32(insn>>20) & 0x3F
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (h *Hart) execOp(insn uint32, w32 bool) {
	f7 := funct7(insn)
	if f7 == 1 {
		h.execMExt(insn, w32)
		return
	}
	a, b := h.Regs[rs1(insn)], h.Regs[rs2(insn)]
	f3 := funct3(insn)
	var v uint64
	switch {
	case f3 == 0x0 && f7 == 0x00:
		v = a + b
	case f3 == 0x0 && f7 == 0x20:
		v = a - b
	case f3 == 0x1:
		shamt := b & shamtMaskFor(w32)
		v = a << shamt
	case f3 == 0x2:
		v = boolToU64(int64(a) < int64(b))
	case f3 == 0x3:
		v = boolToU64(a < b)
	case f3 == 0x4:
		v = a ^ b
	case f3 == 0x5 && f7 == 0x00:
		shamt := b & shamtMaskFor(w32)
		if w32 {
			v = uint64(uint32(a) >> shamt)
		} else {
			v = a >> shamt
		}
	case f3 == 0x5 && f7 == 0x20:
		shamt := b & shamtMaskFor(w32)
		if w32 {
			v = uint64(int32(uint32(a)) >> shamt)
		} else {
			v = uint64(int64(a) >> shamt)
		}
	case f3 == 0x6:
		v = a | b
	case f3 == 0x7:
		v = a & b
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
		return
	}
	if w32 {
		v = uint64(int32(uint32(v)))
	}
	h.writeReg(rd(insn), v)
}

func shamtMaskFor(w32 bool) uint64 {
	if w32 {
		return 0x1F
	}
	return 0x3F
}

func (h *Hart) execFence(insn uint32) {
	switch funct3(insn) {
	case 0x0: // FENCE: conservatively drops the speculative store-repair
		// shadow; no-op otherwise in this single-threaded-at-a-time model.
		h.repair.valid = false
	case 0x1: // FENCE.I
		h.TLB.Flush()
	default:
		h.raise(riscv.CauseIllegalInsn, uint64(insn))
	}
}
