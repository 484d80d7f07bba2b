/*
 * rv64cosim - RV64GC disassembler: instruction field extraction
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

// Package disasm renders a fetched RV64GC instruction word (32-bit, or the
// low 16 bits for a compressed one) as a mnemonic/operand string, the way
// a trace listing or an interactive debugger wants it. It decodes fields
// itself rather than importing internal/cpu's (unexported) decode helpers,
// since the two packages read the same bit layout for different purposes
// and have no other reason to share code.
package disasm

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
func rm(insn uint32) uint32     { return (insn >> 12) & 0x7 }

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

func csrNum(insn uint32) uint32 { return insn >> 20 }

func crs1p(c uint16) int { return int((c>>7)&0x7) + 8 }
func crs2p(c uint16) int { return int((c>>2)&0x7) + 8 }
