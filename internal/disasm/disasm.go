/*
 * rv64cosim - RV64GC disassembler
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

package disasm

import "fmt"

// Disassemble renders one instruction starting at raw's low bits. raw's
// low 2 bits select the form: 0b11 is a full 32-bit instruction (the
// caller is expected to have fetched all 32 bits into raw), anything else
// is a 16-bit compressed instruction (only raw's low 16 bits are read).
// Returns the formatted text and the instruction's length in bytes (2 or
// 4), the same pairing a caller needs to advance a disassembly listing.
func Disassemble(raw uint32) (string, int) {
	if raw&3 != 3 {
		return disassembleCompressed(uint16(raw)), 2
	}
	return disassemble32(raw), 4
}

func disassemble32(insn uint32) string {
	switch opcode(insn) {
	case opLui:
		return fmt.Sprintf("lui     %s,%#x", xreg(rd(insn)), uint32(immU(insn))>>12)
	case opAuipc:
		return fmt.Sprintf("auipc   %s,%#x", xreg(rd(insn)), uint32(immU(insn))>>12)
	case opJal:
		return fmt.Sprintf("jal     %s,%#x", xreg(rd(insn)), immJ(insn))
	case opJalr:
		return fmt.Sprintf("jalr    %s,%d(%s)", xreg(rd(insn)), immI(insn), xreg(rs1(insn)))
	case opBranch:
		return disasBranch(insn)
	case opLoad:
		return disasLoad(insn)
	case opLoadFP:
		return disasLoadFP(insn)
	case opStore:
		return disasStore(insn)
	case opStoreFP:
		return disasStoreFP(insn)
	case opOpImm:
		return disasOpImm(insn, false)
	case opOpImm32:
		return disasOpImm(insn, true)
	case opOp:
		return disasOp(insn, false)
	case opOp32:
		return disasOp(insn, true)
	case opMiscMem:
		return disasMiscMem(insn)
	case opAmo:
		return disasAmo(insn)
	case opSystem:
		return disasSystem(insn)
	case opMadd, opMsub, opNmsub, opNmadd:
		return disasFusedMA(insn)
	case opOpFP:
		return disasOpFP(insn)
	default:
		return fmt.Sprintf(".word   %#08x", insn)
	}
}

var branchName = map[uint32]string{
	0: "beq", 1: "bne", 4: "blt", 5: "bge", 6: "bltu", 7: "bgeu",
}

func disasBranch(insn uint32) string {
	name, ok := branchName[funct3(insn)]
	if !ok {
		name = "b?"
	}
	return fmt.Sprintf("%-7s %s,%s,%#x", name, xreg(rs1(insn)), xreg(rs2(insn)), immB(insn))
}

var loadName = map[uint32]string{
	0: "lb", 1: "lh", 2: "lw", 3: "ld", 4: "lbu", 5: "lhu", 6: "lwu",
}

func disasLoad(insn uint32) string {
	name, ok := loadName[funct3(insn)]
	if !ok {
		name = "l?"
	}
	return fmt.Sprintf("%-7s %s,%d(%s)", name, xreg(rd(insn)), immI(insn), xreg(rs1(insn)))
}

func disasLoadFP(insn uint32) string {
	name := "flw"
	if funct3(insn) == 3 {
		name = "fld"
	}
	return fmt.Sprintf("%-7s %s,%d(%s)", name, freg(rd(insn)), immI(insn), xreg(rs1(insn)))
}

var storeName = map[uint32]string{0: "sb", 1: "sh", 2: "sw", 3: "sd"}

func disasStore(insn uint32) string {
	name, ok := storeName[funct3(insn)]
	if !ok {
		name = "s?"
	}
	return fmt.Sprintf("%-7s %s,%d(%s)", name, xreg(rs2(insn)), immS(insn), xreg(rs1(insn)))
}

func disasStoreFP(insn uint32) string {
	name := "fsw"
	if funct3(insn) == 3 {
		name = "fsd"
	}
	return fmt.Sprintf("%-7s %s,%d(%s)", name, freg(rs2(insn)), immS(insn), xreg(rs1(insn)))
}

func disasOpImm(insn uint32, w32 bool) string {
	f3 := funct3(insn)
	rdv, r1, imm := xreg(rd(insn)), xreg(rs1(insn)), immI(insn)
	suffix := ""
	if w32 {
		suffix = "w"
	}
	switch f3 {
	case 0:
		return fmt.Sprintf("%-7s %s,%s,%d", "addi"+suffix, rdv, r1, imm)
	case 2:
		return fmt.Sprintf("%-7s %s,%s,%d", "slti", rdv, r1, imm)
	case 3:
		return fmt.Sprintf("%-7s %s,%s,%d", "sltiu", rdv, r1, imm)
	case 4:
		return fmt.Sprintf("%-7s %s,%s,%d", "xori", rdv, r1, imm)
	case 6:
		return fmt.Sprintf("%-7s %s,%s,%d", "ori", rdv, r1, imm)
	case 7:
		return fmt.Sprintf("%-7s %s,%s,%d", "andi", rdv, r1, imm)
	case 1:
		sh := rs2(insn)
		if w32 {
			sh &= 0x1F
		} else {
			sh = int(insn>>20) & 0x3F
		}
		return fmt.Sprintf("%-7s %s,%s,%d", "slli"+suffix, rdv, r1, sh)
	case 5:
		sh := int(insn>>20) & 0x3F
		name := "srli"
		if w32 {
			sh &= 0x1F
			name = "srli"
		}
		if funct7(insn)&0x20 != 0 {
			name = "srai"
		}
		return fmt.Sprintf("%-7s %s,%s,%d", name+suffix, rdv, r1, sh)
	}
	return fmt.Sprintf(".word   %#08x", insn)
}

var opName = map[uint32]map[uint32]string{
	0x00: {0: "add", 1: "sll", 2: "slt", 3: "sltu", 4: "xor", 5: "srl", 6: "or", 7: "and"},
	0x20: {0: "sub", 5: "sra"},
	0x01: {0: "mul", 1: "mulh", 2: "mulhsu", 3: "mulhu", 4: "div", 5: "divu", 6: "rem", 7: "remu"},
}

var op32Name = map[uint32]map[uint32]string{
	0x00: {0: "addw", 1: "sllw", 5: "srlw"},
	0x20: {0: "subw", 5: "sraw"},
	0x01: {0: "mulw", 4: "divw", 5: "divuw", 6: "remw", 7: "remuw"},
}

func disasOp(insn uint32, w32 bool) string {
	table := opName
	if w32 {
		table = op32Name
	}
	f7 := funct7(insn)
	group, ok := table[f7]
	name := "?"
	if ok {
		if n, ok := group[funct3(insn)]; ok {
			name = n
		}
	}
	return fmt.Sprintf("%-7s %s,%s,%s", name, xreg(rd(insn)), xreg(rs1(insn)), xreg(rs2(insn)))
}

func disasMiscMem(insn uint32) string {
	if funct3(insn) == 1 {
		return "fence.i"
	}
	return "fence"
}

var amoName = map[uint32]string{
	0x00: "amoadd", 0x01: "amoswap", 0x02: "lr", 0x03: "sc",
	0x04: "amoxor", 0x08: "amoor", 0x0C: "amoand",
	0x10: "amomin", 0x14: "amomax", 0x18: "amominu", 0x1C: "amomaxu",
}

func disasAmo(insn uint32) string {
	width := "w"
	if funct3(insn) == 3 {
		width = "d"
	}
	name, ok := amoName[funct5(insn)]
	if !ok {
		name = "amo?"
	}
	suffix := ""
	if aq(insn) {
		suffix += ".aq"
	}
	if rl(insn) {
		suffix += ".rl"
	}
	if funct5(insn) == 0x02 {
		return fmt.Sprintf("%s.%s%-3s %s,(%s)", name, width, suffix, xreg(rd(insn)), xreg(rs1(insn)))
	}
	return fmt.Sprintf("%s.%s%-3s %s,%s,(%s)", name, width, suffix, xreg(rd(insn)), xreg(rs2(insn)), xreg(rs1(insn)))
}

var csrName = map[uint32]string{0: "csrrw", 1: "csrrw", 2: "csrrs", 3: "csrrc", 5: "csrrwi", 6: "csrrsi", 7: "csrrci"}

func disasSystem(insn uint32) string {
	f3 := funct3(insn)
	if f3 == 0 {
		switch csrNum(insn) {
		case 0:
			return "ecall"
		case 1:
			return "ebreak"
		case 0x102:
			return "sret"
		case 0x302:
			return "mret"
		case 0x105:
			return "wfi"
		}
		if funct7(insn) == 0x09 {
			return fmt.Sprintf("sfence.vma %s,%s", xreg(rs1(insn)), xreg(rs2(insn)))
		}
		return fmt.Sprintf(".word   %#08x", insn)
	}
	name := csrName[f3]
	operand := xreg(rs1(insn))
	if f3 >= 5 {
		operand = fmt.Sprintf("%d", rs1(insn))
	}
	return fmt.Sprintf("%-7s %s,%#x,%s", name, xreg(rd(insn)), csrNum(insn), operand)
}

func disasFusedMA(insn uint32) string {
	names := map[uint32]string{opMadd: "fmadd", opMsub: "fmsub", opNmsub: "fnmsub", opNmadd: "fnmadd"}
	suffix := "s"
	if funct3(insn)&1 != 0 {
		suffix = "d"
	}
	return fmt.Sprintf("%s.%s %s,%s,%s,%s", names[opcode(insn)], suffix,
		freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)), freg(rs3(insn)))
}

func disasOpFP(insn uint32) string {
	suffix := "s"
	if insn&(1<<25) != 0 { // fmt field bit within funct7, bit25 distinguishes D from S for most ops
		suffix = "d"
	}
	switch funct7(insn) {
	case 0x00, 0x01:
		return fmt.Sprintf("fadd.%s  %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
	case 0x04, 0x05:
		return fmt.Sprintf("fsub.%s  %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
	case 0x08, 0x09:
		return fmt.Sprintf("fmul.%s  %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
	case 0x0C, 0x0D:
		return fmt.Sprintf("fdiv.%s  %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
	case 0x2C, 0x2D:
		return fmt.Sprintf("fsqrt.%s %s,%s", suffix, freg(rd(insn)), freg(rs1(insn)))
	case 0x10, 0x11:
		switch rm(insn) {
		case 0:
			return fmt.Sprintf("fsgnj.%s  %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
		case 1:
			return fmt.Sprintf("fsgnjn.%s %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
		default:
			return fmt.Sprintf("fsgnjx.%s %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
		}
	case 0x14, 0x15:
		if rm(insn) == 0 {
			return fmt.Sprintf("fmin.%s  %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
		}
		return fmt.Sprintf("fmax.%s  %s,%s,%s", suffix, freg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
	case 0x50, 0x51:
		switch rm(insn) {
		case 0:
			return fmt.Sprintf("fle.%s   %s,%s,%s", suffix, xreg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
		case 1:
			return fmt.Sprintf("flt.%s   %s,%s,%s", suffix, xreg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
		default:
			return fmt.Sprintf("feq.%s   %s,%s,%s", suffix, xreg(rd(insn)), freg(rs1(insn)), freg(rs2(insn)))
		}
	case 0x60, 0x61:
		return fmt.Sprintf("fcvt.w.%s %s,%s", suffix, xreg(rd(insn)), freg(rs1(insn)))
	case 0x68, 0x69:
		return fmt.Sprintf("fcvt.%s.w %s,%s", suffix, freg(rd(insn)), xreg(rs1(insn)))
	case 0x70, 0x71:
		if rm(insn) == 1 {
			return fmt.Sprintf("fclass.%s %s,%s", suffix, xreg(rd(insn)), freg(rs1(insn)))
		}
		return fmt.Sprintf("fmv.x.%s %s,%s", suffix, xreg(rd(insn)), freg(rs1(insn)))
	case 0x78:
		return fmt.Sprintf("fmv.%s.x %s,%s", suffix, freg(rd(insn)), xreg(rs1(insn)))
	case 0x20, 0x21:
		return fmt.Sprintf("fcvt.%s.%s %s,%s", suffix, oppositeSuffix(suffix), freg(rd(insn)), freg(rs1(insn)))
	default:
		return fmt.Sprintf(".word   %#08x", insn)
	}
}

func oppositeSuffix(s string) string {
	if s == "s" {
		return "d"
	}
	return "s"
}
