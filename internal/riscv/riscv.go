/*
 * rv64cosim - Shared RV64 architectural constants
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

// Package riscv holds the small set of architectural constants shared by
// internal/mmu, internal/csr, internal/cpu and internal/plic: privilege
// encodings and trap cause numbers. Keeping these in one leaf package avoids
// every pair of those packages needing to import each other just to agree on
// what "cause 13" means.
package riscv

// Priv is a privilege level, encoded the same as mstatus.MPP/SPP.
type Priv uint8

const (
	User       Priv = 0
	Supervisor Priv = 1
	Machine    Priv = 3
)

func (p Priv) String() string {
	switch p {
	case User:
		return "U"
	case Supervisor:
		return "S"
	case Machine:
		return "M"
	default:
		return "?"
	}
}

// Synchronous exception causes (mcause/scause with bit 63 clear).
const (
	CauseInsnMisaligned  = 0
	CauseInsnAccessFault = 1
	CauseIllegalInsn     = 2
	CauseBreakpoint      = 3
	CauseLoadMisaligned  = 4
	CauseLoadAccessFault = 5
	CauseStoreMisaligned = 6
	CauseStoreAccessFault = 7
	CauseEcallU          = 8
	CauseEcallS          = 9
	CauseEcallM          = 11
	CauseInsnPageFault   = 12
	CauseLoadPageFault   = 13
	CauseStorePageFault  = 15
)

// Interrupt causes (mcause/scause with bit 63 set); the numbers here are the
// low bits, i.e. the bit position within mip/mie.
const (
	IntUSoftware = 0
	IntSSoftware = 1
	IntMSoftware = 3
	IntUTimer    = 4
	IntSTimer    = 5
	IntMTimer    = 7
	IntUExternal = 8
	IntSExternal = 9
	IntMExternal = 11
)

// CauseInterruptBit marks an interrupt cause as opposed to an exception when
// OR'd into a cause value written to mcause/scause.
const CauseInterruptBit = uint64(1) << 63

// mstatus field masks/shifts used by both csr and mmu (mmu needs MXR/SUM/MPRV
// to decide effective privilege and permission relaxation during a walk).
const (
	MstatusMIEShift  = 3
	MstatusSIEShift  = 1
	MstatusMPIEShift = 7
	MstatusSPIEShift = 5
	MstatusMPPShift  = 11
	MstatusSPPShift  = 8
	MstatusMPRVShift = 17
	MstatusSUMShift  = 18
	MstatusMXRShift  = 19
	MstatusTVMShift  = 20
	MstatusTWShift   = 21
	MstatusTSRShift  = 22
	MstatusFSShift   = 13

	MstatusMPPMask = 0x3
)
