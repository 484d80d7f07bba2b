/*
 * rv64cosim - RV64GC disassembler: compressed (RVC) instructions
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

// disassembleCompressed mirrors internal/cpu's expandCompressed switch
// (same quadrant/funct3 structure) but renders mnemonic text instead of
// expanding to a 32-bit word, since a trace listing wants "c.addi a0,1"
// rather than the canonical instruction it is sugar for.
func disassembleCompressed(c uint16) string {
	quadrant := c & 0x3
	f3 := (c >> 13) & 0x7

	switch quadrant {
	case 0x0:
		switch f3 {
		case 0x0:
			imm := cAddi4spnImm(c)
			if imm == 0 {
				return ".word   illegal"
			}
			return fmt.Sprintf("c.addi4spn %s,sp,%d", xreg(crs2p(c)), imm)
		case 0x2:
			return fmt.Sprintf("c.lw    %s,%d(%s)", xreg(crs2p(c)), clwImm(c), xreg(crs1p(c)))
		case 0x3:
			return fmt.Sprintf("c.ld    %s,%d(%s)", xreg(crs2p(c)), cldImm(c), xreg(crs1p(c)))
		case 0x6:
			return fmt.Sprintf("c.sw    %s,%d(%s)", xreg(crs2p(c)), clwImm(c), xreg(crs1p(c)))
		case 0x7:
			return fmt.Sprintf("c.sd    %s,%d(%s)", xreg(crs2p(c)), cldImm(c), xreg(crs1p(c)))
		}
	case 0x1:
		r := int((c >> 7) & 0x1F)
		switch f3 {
		case 0x0:
			imm := cImm6(c)
			if r == 0 && imm == 0 {
				return "c.nop"
			}
			return fmt.Sprintf("c.addi  %s,%d", xreg(r), imm)
		case 0x1:
			return fmt.Sprintf("c.addiw %s,%d", xreg(r), cImm6(c))
		case 0x2:
			return fmt.Sprintf("c.li    %s,%d", xreg(r), cImm6(c))
		case 0x3:
			if r == 2 {
				return fmt.Sprintf("c.addi16sp sp,%d", cAddi16spImm(c))
			}
			return fmt.Sprintf("c.lui   %s,%#x", xreg(r), uint64(cImm6(c)<<12)>>12)
		case 0x4:
			rp := crs1p(c)
			switch (c >> 10) & 0x3 {
			case 0x0:
				return fmt.Sprintf("c.srli  %s,%d", xreg(rp), cShamt(c))
			case 0x1:
				return fmt.Sprintf("c.srai  %s,%d", xreg(rp), cShamt(c))
			case 0x2:
				return fmt.Sprintf("c.andi  %s,%d", xreg(rp), cImm6(c))
			case 0x3:
				rp2 := crs2p(c)
				bit12 := (c >> 12) & 1
				sub := (c >> 5) & 0x3
				names := [2][4]string{
					{"c.sub", "c.xor", "c.or", "c.and"},
					{"c.subw", "c.addw", "", ""},
				}
				name := names[bit12][sub]
				if name == "" {
					return ".word   illegal"
				}
				return fmt.Sprintf("%-7s %s,%s", name, xreg(rp), xreg(rp2))
			}
		case 0x5:
			return fmt.Sprintf("c.j     %#x", cjImm(c))
		case 0x6:
			return fmt.Sprintf("c.beqz  %s,%#x", xreg(crs1p(c)), cbImm(c))
		case 0x7:
			return fmt.Sprintf("c.bnez  %s,%#x", xreg(crs1p(c)), cbImm(c))
		}
	case 0x2:
		r := int((c >> 7) & 0x1F)
		switch f3 {
		case 0x0:
			return fmt.Sprintf("c.slli  %s,%d", xreg(r), cShamt(c))
		case 0x2:
			return fmt.Sprintf("c.lwsp  %s,%d(sp)", xreg(r), clwspImm(c))
		case 0x3:
			return fmt.Sprintf("c.ldsp  %s,%d(sp)", xreg(r), cldspImm(c))
		case 0x4:
			r2 := int((c >> 2) & 0x1F)
			bit12 := (c >> 12) & 1
			switch {
			case bit12 == 0 && r2 == 0:
				return fmt.Sprintf("c.jr    %s", xreg(r))
			case bit12 == 0:
				return fmt.Sprintf("c.mv    %s,%s", xreg(r), xreg(r2))
			case bit12 == 1 && r == 0 && r2 == 0:
				return "c.ebreak"
			case bit12 == 1 && r2 == 0:
				return fmt.Sprintf("c.jalr  %s", xreg(r))
			default:
				return fmt.Sprintf("c.add   %s,%s", xreg(r), xreg(r2))
			}
		case 0x6:
			r2 := int((c >> 2) & 0x1F)
			return fmt.Sprintf("c.swsp  %s,%d(sp)", xreg(r2), cswspImm(c))
		case 0x7:
			r2 := int((c >> 2) & 0x1F)
			return fmt.Sprintf("c.sdsp  %s,%d(sp)", xreg(r2), csdspImm(c))
		}
	}
	return ".word   illegal"
}

func cAddi4spnImm(c uint16) int64 {
	return (((int64(c>>11) & 0x3) << 4) | ((int64(c>>7) & 0xF) << 6) |
		((int64(c>>6) & 0x1) << 2) | ((int64(c>>5) & 0x1) << 3))
}

func cImm6(c uint16) int64 {
	v := (int64(c>>12)&1<<5 | int64(c>>2)&0x1F)
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
