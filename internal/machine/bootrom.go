/*
 * rv64cosim - Reset ROM bootloader
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

package machine

// writeBootROM populates the reset vector with a short hand-coded sequence
// that reads mhartid into a0, points a1 at a placeholder FDT location, and
// jumps to RAM base (spec §4.9). Building actual FDT content is the FDT
// builder's job (an out-of-scope external collaborator per spec §1); this
// only reserves the pointer a kernel's boot protocol expects in a1.
func (m *Machine) writeBootROM(resetVector, ramBase uint64) {
	const fdtOffset = 0x20 // placeholder location within the ROM page
	fdtAddr := resetVector + fdtOffset

	hiA1, loA1 := hiLoSplit(fdtAddr)
	hiT0, loT0 := hiLoSplit(ramBase)

	prog := []uint32{
		encodeCSRRS(regA0, regZero, csrMhartid), // csrr a0, mhartid
		encodeLUI(regA1, hiA1),                  // lui a1, %hi(fdt)
		encodeADDI(regA1, regA1, loA1),           // addi a1, a1, %lo(fdt)
		encodeLUI(regT0, hiT0),                  // lui t0, %hi(ramBase)
		encodeJALR(regZero, regT0, loT0),         // jalr x0, %lo(ramBase)(t0)
	}

	for i, insn := range prog {
		addr := resetVector + uint64(i*4)
		_ = m.Mem.Write(addr, 2, uint64(insn))
	}
}

const (
	regZero = 0
	regA0   = 10
	regA1   = 11
	regT0   = 5

	csrMhartid = 0xF14
)

// hiLoSplit implements the standard RISC-V lui+addi relocation split: lo is
// a sign-extended 12-bit immediate, hi is the complementary upper 20 bits,
// so that (hi<<12)+int64(lo) == val exactly.
func hiLoSplit(val uint64) (hi uint32, lo int32) {
	lo = int32(int64(val) & 0xFFF)
	if lo >= 0x800 {
		lo -= 0x1000
	}
	hi = uint32((val - uint64(int64(lo))) >> 12)
	return hi, lo
}

func encodeCSRRS(rd, rs1 int, csrNum uint32) uint32 {
	return csrNum<<20 | uint32(rs1)<<15 | 2<<12 | uint32(rd)<<7 | 0x73
}

func encodeLUI(rd int, imm20 uint32) uint32 {
	return (imm20 & 0xFFFFF) << 12 | uint32(rd)<<7 | 0x37
}

func encodeADDI(rd, rs1 int, imm12 int32) uint32 {
	return uint32(imm12)<<20 | uint32(rs1)<<15 | 0<<12 | uint32(rd)<<7 | 0x13
}

func encodeJALR(rd, rs1 int, imm12 int32) uint32 {
	return uint32(imm12)<<20 | uint32(rs1)<<15 | 0<<12 | uint32(rd)<<7 | 0x67
}
