/*
 * rv64cosim - Instruction field decode and RVC expansion
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

// Major opcodes (bits [6:2] of a 32-bit instruction).
const (
	opLoad    = 0x00
	opLoadFP  = 0x01
	opMiscMem = 0x03
	opOpImm   = 0x04
	opAuipc   = 0x05
	opOpImm32 = 0x06
	opStore   = 0x08
	opStoreFP = 0x09
	opAmo     = 0x0B
	opOp      = 0x0C
	opLui     = 0x0D
	opOp32    = 0x0E
	opMadd    = 0x10
	opMsub    = 0x11
	opNmsub   = 0x12
	opNmadd   = 0x13
	opOpFP    = 0x14
	opBranch  = 0x18
	opJalr    = 0x19
	opJal     = 0x1B
	opSystem  = 0x1C
)

func opcode(insn uint32) uint32 { return (insn >> 2) & 0x1F }
func rd(insn uint32) int        { return int((insn >> 7) & 0x1F) }
func funct3(insn uint32) uint32 { return (insn >> 12) & 0x7 }
func rs1(insn uint32) int       { return int((insn >> 15) & 0x1F) }
func rs2(insn uint32) int       { return int((insn >> 20) & 0x1F) }
func rs3(insn uint32) int       { return int((insn >> 27) & 0x1F) }
func funct7(insn uint32) uint32 { return (insn >> 25) & 0x7F }
func funct5(insn uint32) uint32 { return (insn >> 27) & 0x1F }
func aq(insn uint32) bool       { return insn&(1<<26) != 0 }
func rl(insn uint32) bool       { return insn&(1<<25) != 0 }

func signExtend(v uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(v<<shift)) >> shift
}

func immI(insn uint32) int64 { return int64(int32(insn)) >> 20 }

func immS(insn uint32) int64 {
	v := ((insn >> 25) << 5) | ((insn >> 7) & 0x1F)
	return signExtend(v, 12)
}

func immB(insn uint32) int64 {
	v := ((insn >> 31) << 12) | (((insn >> 7) & 1) << 11) |
		(((insn >> 25) & 0x3F) << 5) | (((insn >> 8) & 0xF) << 1)
	return signExtend(v, 13)
}

func immU(insn uint32) int64 { return int64(int32(insn & 0xFFFFF000)) }

func immJ(insn uint32) int64 {
	v := ((insn >> 31) << 20) | (((insn >> 12) & 0xFF) << 12) |
		(((insn >> 20) & 1) << 11) | (((insn >> 21) & 0x3FF) << 1)
	return signExtend(v, 21)
}

// --- RVC expansion -------------------------------------------------------
//
// Each compressed form is expanded to its canonical 32-bit encoding so the
// rest of the interpreter never special-cases RVC; this mirrors treating
// every compressed instruction as sugar for one specific 32-bit instruction,
// with no separate execute path.

func crs1p(c uint16) int { return int((c>>7)&0x7) + 8 }
func crs2p(c uint16) int { return int((c>>2)&0x7) + 8 }

func encodeR(opc uint32, f3 uint32, rdv, r1, r2 int, f7 uint32) uint32 {
	return (f7 << 25) | (uint32(r2) << 20) | (uint32(r1) << 15) | (f3 << 12) | (uint32(rdv) << 7) | (opc << 2) | 3
}

func encodeI(opc uint32, f3 uint32, rdv, r1 int, imm int64) uint32 {
	return (uint32(imm)<<20)&0xFFF00000 | (uint32(r1) << 15) | (f3 << 12) | (uint32(rdv) << 7) | (opc << 2) | 3
}

func encodeS(opc uint32, f3 uint32, r1, r2 int, imm int64) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7F)<<25 | (uint32(r2) << 20) | (uint32(r1) << 15) | (f3 << 12) | ((u & 0x1F) << 7) | (opc << 2) | 3
}

func encodeU(opc uint32, rdv int, imm int64) uint32 {
	return (uint32(imm) & 0xFFFFF000) | (uint32(rdv) << 7) | (opc << 2) | 3
}

func encodeJ(opc uint32, rdv int, imm int64) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 1
	bits10_1 := (u >> 1) & 0x3FF
	bit11 := (u >> 11) & 1
	bits19_12 := (u >> 12) & 0xFF
	return (bit20 << 31) | (bits10_1 << 21) | (bit11 << 20) | (bits19_12 << 12) | (uint32(rdv) << 7) | (opc << 2) | 3
}

func encodeB(opc uint32, f3 uint32, r1, r2 int, imm int64) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 1
	bits10_5 := (u >> 5) & 0x3F
	bits4_1 := (u >> 1) & 0xF
	bit11 := (u >> 11) & 1
	return (bit12 << 31) | (bits10_5 << 25) | (uint32(r2) << 20) | (uint32(r1) << 15) | (f3 << 12) | (bits4_1 << 8) | (bit11 << 7) | (opc << 2) | 3
}

// expandCompressed decodes a 16-bit RVC instruction into its canonical
// 32-bit form. Unrecognized encodings expand to an all-zero word; its low
// two bits are not 0b11, so execute raises illegal instruction for it like
// any other unknown encoding.
func expandCompressed(c uint16) uint32 {
	op := c & 0x3
	f3 := (c >> 13) & 0x7

	switch op {
	case 0x0:
		switch f3 {
		case 0x0: // C.ADDI4SPN
			imm := (((int64(c) >> 11) & 0x3) << 4) | (((int64(c) >> 7) & 0xF) << 6) |
				(((int64(c) >> 6) & 0x1) << 2) | (((int64(c) >> 5) & 0x1) << 3)
			if imm == 0 {
				return 0
			}
			return encodeI(opOpImm, 0, crs2p(c), 2, imm)
		case 0x2: // C.LW
			imm := clwImm(c)
			return encodeI(opLoad, 2, crs2p(c), crs1p(c), imm)
		case 0x3: // C.LD
			imm := cldImm(c)
			return encodeI(opLoad, 3, crs2p(c), crs1p(c), imm)
		case 0x6: // C.SW
			imm := clwImm(c)
			return encodeS(opStore, 2, crs1p(c), crs2p(c), imm)
		case 0x7: // C.SD
			imm := cldImm(c)
			return encodeS(opStore, 3, crs1p(c), crs2p(c), imm)
		}
	case 0x1:
		switch f3 {
		case 0x0: // C.ADDI / C.NOP
			r := int((c >> 7) & 0x1F)
			imm := cImm6(c)
			return encodeI(opOpImm, 0, r, r, imm)
		case 0x1: // C.ADDIW
			r := int((c >> 7) & 0x1F)
			imm := cImm6(c)
			return encodeI(opOpImm32, 0, r, r, imm)
		case 0x2: // C.LI
			r := int((c >> 7) & 0x1F)
			imm := cImm6(c)
			return encodeI(opOpImm, 0, r, 0, imm)
		case 0x3:
			r := int((c >> 7) & 0x1F)
			if r == 2 { // C.ADDI16SP
				imm := cAddi16spImm(c)
				return encodeI(opOpImm, 0, 2, 2, imm)
			}
			// C.LUI
			imm := cImm6(c) << 12
			return encodeU(opLui, r, imm)
		case 0x4:
			funct2 := (c >> 10) & 0x3
			rp := crs1p(c)
			switch funct2 {
			case 0x0: // C.SRLI
				sh := cShamt(c)
				return encodeI(opOpImm, 5, rp, rp, sh)
			case 0x1: // C.SRAI
				sh := cShamt(c)
				return encodeI(opOpImm, 5, rp, rp, sh|(0x400<<0))
			case 0x2: // C.ANDI
				imm := cImm6(c)
				return encodeI(opOpImm, 7, rp, rp, imm)
			case 0x3:
				rp2 := crs2p(c)
				bit12 := (c >> 12) & 1
				sub := (c >> 5) & 0x3
				if bit12 == 0 {
					switch sub {
					case 0: // C.SUB
						return encodeR(opOp, 0, rp, rp, rp2, 0x20)
					case 1: // C.XOR
						return encodeR(opOp, 4, rp, rp, rp2, 0)
					case 2: // C.OR
						return encodeR(opOp, 6, rp, rp, rp2, 0)
					case 3: // C.AND
						return encodeR(opOp, 7, rp, rp, rp2, 0)
					}
				} else {
					switch sub {
					case 0: // C.SUBW
						return encodeR(opOp32, 0, rp, rp, rp2, 0x20)
					case 1: // C.ADDW
						return encodeR(opOp32, 0, rp, rp, rp2, 0)
					}
				}
			}
		case 0x5: // C.J
			imm := cjImm(c)
			return encodeJ(opJal, 0, imm)
		case 0x6: // C.BEQZ
			imm := cbImm(c)
			return encodeB(opBranch, 0, crs1p(c), 0, imm)
		case 0x7: // C.BNEZ
			imm := cbImm(c)
			return encodeB(opBranch, 1, crs1p(c), 0, imm)
		}
	case 0x2:
		switch f3 {
		case 0x0: // C.SLLI
			r := int((c >> 7) & 0x1F)
			sh := cShamt(c)
			return encodeI(opOpImm, 1, r, r, sh)
		case 0x2: // C.LWSP
			r := int((c >> 7) & 0x1F)
			imm := clwspImm(c)
			return encodeI(opLoad, 2, r, 2, imm)
		case 0x3: // C.LDSP
			r := int((c >> 7) & 0x1F)
			imm := cldspImm(c)
			return encodeI(opLoad, 3, r, 2, imm)
		case 0x4:
			rdv := int((c >> 7) & 0x1F)
			r2 := int((c >> 2) & 0x1F)
			bit12 := (c >> 12) & 1
			switch {
			case bit12 == 0 && r2 == 0: // C.JR
				return encodeI(opJalr, 0, 0, rdv, 0)
			case bit12 == 0: // C.MV
				return encodeR(opOp, 0, rdv, 0, r2, 0)
			case bit12 == 1 && rdv == 0 && r2 == 0: // C.EBREAK
				return encodeI(opSystem, 0, 0, 0, 1)
			case bit12 == 1 && r2 == 0: // C.JALR
				return encodeI(opJalr, 0, 1, rdv, 0)
			default: // C.ADD
				return encodeR(opOp, 0, rdv, rdv, r2, 0)
			}
		case 0x6: // C.SWSP
			imm := cswspImm(c)
			r2 := int((c >> 2) & 0x1F)
			return encodeS(opStore, 2, 2, r2, imm)
		case 0x7: // C.SDSP
			imm := csdspImm(c)
			r2 := int((c >> 2) & 0x1F)
			return encodeS(opStore, 3, 2, r2, imm)
		}
	}
	return 0
}

func cImm6(c uint16) int64 {
	v := (int64(c>>12) & 1 << 5) | (int64(c>>2) & 0x1F)
	return signExtend(uint32(v), 6)
}

func cShamt(c uint16) int64 {
	return (int64(c>>12)&1)<<5 | int64(c>>2)&0x1F
}

func clwImm(c uint16) int64 {
	return ((int64(c>>5) & 1) << 6) | ((int64(c>>10) & 0x7) << 3) | ((int64(c>>6) & 1) << 2)
}

func cldImm(c uint16) int64 {
	return ((int64(c>>10) & 0x7) << 3) | ((int64(c>>5) & 0x3) << 6)
}

func cAddi16spImm(c uint16) int64 {
	v := (int64(c>>12)&1)<<9 | (int64(c>>3)&0x3)<<7 | (int64(c>>5)&1)<<6 |
		(int64(c>>2)&1)<<5 | (int64(c>>6)&1)<<4
	return signExtend(uint32(v), 10)
}

func cjImm(c uint16) int64 {
	v := (int64(c>>12)&1)<<11 | (int64(c>>8)&1)<<10 | (int64(c>>9)&0x3)<<8 |
		(int64(c>>6)&1)<<7 | (int64(c>>7)&1)<<6 | (int64(c>>2)&1)<<5 |
		(int64(c>>11)&1)<<4 | (int64(c>>3)&0x7)<<1
	return signExtend(uint32(v), 12)
}

func cbImm(c uint16) int64 {
	v := (int64(c>>12)&1)<<8 | (int64(c>>5)&0x3)<<6 | (int64(c>>2)&1)<<5 |
		(int64(c>>10)&0x3)<<3 | (int64(c>>3)&0x3)<<1
	return signExtend(uint32(v), 9)
}

func clwspImm(c uint16) int64 {
	return (int64(c>>4)&0x7)<<2 | (int64(c>>12)&1)<<5 | (int64(c>>2)&0x3)<<6
}

func cldspImm(c uint16) int64 {
	return (int64(c>>5)&0x3)<<3 | (int64(c>>12)&1)<<5 | (int64(c>>2)&0x7)<<6
}

func cswspImm(c uint16) int64 {
	return (int64(c>>9)&0xF)<<2 | (int64(c>>7)&0x3)<<6
}

func csdspImm(c uint16) int64 {
	return (int64(c>>10)&0x7)<<3 | (int64(c>>7)&0x7)<<6
}
