/*
 * rv64cosim - CSR file and privilege state machine
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

// Package csr implements the architectural CSR file, the U/S/M privilege
// state machine, trap delivery, and PMP (C3).
package csr

import "github.com/rcornwell/rv64cosim/internal/riscv"

// Standard CSR addresses referenced by name elsewhere in the interpreter.
const (
	Fflags = 0x001
	Frm    = 0x002
	Fcsr   = 0x003

	Cycle   = 0xC00
	Time    = 0xC01
	Instret = 0xC02

	Sstatus    = 0x100
	Sie        = 0x104
	Stvec      = 0x105
	Scounteren = 0x106
	Sscratch   = 0x140
	Sepc       = 0x141
	Scause     = 0x142
	Stval      = 0x143
	Sip        = 0x144
	Satp       = 0x180

	Mstatus    = 0x300
	Misa       = 0x301
	Medeleg    = 0x302
	Mideleg    = 0x303
	Mie        = 0x304
	Mtvec      = 0x305
	Mcounteren = 0x306
	Mscratch   = 0x340
	Mepc       = 0x341
	Mcause     = 0x342
	Mtval      = 0x343
	Mip        = 0x344

	Pmpcfg0 = 0x3A0
	Pmpcfg2 = 0x3A2

	Tselect = 0x7A0
	Tdata1  = 0x7A1
	Tdata2  = 0x7A2
	Tdata3  = 0x7A3

	Mvendorid = 0xF11
	Marchid   = 0xF12
	Mimpid    = 0xF13
	Mhartid   = 0xF14

	pmpaddr0 = 0x3B0
)

// mipSoftwareMask is the set of mip bits that CSR writes may alter directly;
// the stricter of the two source revisions per the Open Questions in
// spec §9, consulted at DESIGN.md decision 1.
const mipSoftwareMask = (1 << riscv.IntSSoftware) | (1 << riscv.IntUSoftware) |
	(1 << riscv.IntSTimer) | (1 << riscv.IntUTimer)

// PMPEntries is the default PMP entry count (DESIGN.md decision 2); callers
// may set File.NumPMP up to 16.
const PMPEntries = 8

// File holds one hart's CSR state.
type File struct {
	Priv riscv.Priv

	Mstatus    uint64
	Mtvec      uint64
	Mepc       uint64
	Mcause     uint64
	Mtval      uint64
	Mie        uint64
	Mip        uint64
	Medeleg    uint64
	Mideleg    uint64
	Mcounteren uint32
	Misa       uint64
	Mhartid    uint64
	Mscratch   uint64

	Stvec      uint64
	Sepc       uint64
	Scause     uint64
	Stval      uint64
	Sscratch   uint64
	SatpReg    uint64
	Scounteren uint32

	Fflags uint8
	Frm    uint8

	Tselect uint64
	Tdata1  [4]uint64
	Tdata2  [4]uint64
	Tdata3  [4]uint64

	NumPMP  int
	PMPCfg  [2]uint64
	PMPAddr [16]uint64

	// TLBFlush is invoked whenever a CSR write changes address-space
	// identity (a satp write), per spec §4.3.
	TLBFlush func()
}

// NewFile returns a reset-state CSR file for hartID with misa advertising
// RV64IMAFDC.
func NewFile(hartID uint64) *File {
	const misaRV64 = uint64(2) << 62
	const extIMAFDC = (1 << ('I' - 'A')) | (1 << ('M' - 'A')) | (1 << ('A' - 'A')) |
		(1 << ('F' - 'A')) | (1 << ('D' - 'A')) | (1 << ('C' - 'A')) |
		(1 << ('S' - 'A')) | (1 << ('U' - 'A'))
	return &File{
		Priv:    riscv.Machine,
		Misa:    misaRV64 | extIMAFDC,
		Mhartid: hartID,
		NumPMP:  PMPEntries,
	}
}

// illegalInsn marks a failed CSR access: Read and Write return ok =
// !illegalInsn rather than a Go error, since this is an architectural fault routed
// to trap delivery, not a Go-level error (spec §7 kind 1).
const illegalInsn = true

func csrPriv(csr uint16) riscv.Priv {
	return riscv.Priv((csr >> 8) & 0x3)
}

func csrReadOnly(csr uint16) bool {
	return (csr>>10)&0x3 == 0x3
}

// Read returns a CSR's value. ok is false if the access is illegal (no such
// CSR, or insufficient privilege) and the caller must raise an illegal
// instruction exception.
func (f *File) Read(csr uint16) (uint64, bool) {
	if f.Priv < csrPriv(csr) {
		return 0, !illegalInsn
	}
	switch csr {
	case Fflags:
		return uint64(f.Fflags), true
	case Frm:
		return uint64(f.Frm), true
	case Fcsr:
		return uint64(f.Fflags) | uint64(f.Frm)<<5, true

	case Cycle, Time, Instret:
		if !f.counterEnabled(csr) {
			return 0, !illegalInsn
		}
		return 0, true // caller (cpu) overlays the live counter value

	case Sstatus:
		return f.Mstatus & sstatusMask, true
	case Sie:
		return f.Mie & f.Mideleg, true
	case Stvec:
		return f.Stvec, true
	case Scounteren:
		return uint64(f.Scounteren), true
	case Sscratch:
		return f.Sscratch, true
	case Sepc:
		return f.Sepc, true
	case Scause:
		return f.Scause, true
	case Stval:
		return f.Stval, true
	case Sip:
		return f.Mip & f.Mideleg, true
	case Satp:
		return f.SatpReg, true

	case Mstatus:
		return f.Mstatus, true
	case Misa:
		return f.Misa, true
	case Medeleg:
		return f.Medeleg, true
	case Mideleg:
		return f.Mideleg, true
	case Mie:
		return f.Mie, true
	case Mtvec:
		return f.Mtvec, true
	case Mcounteren:
		return uint64(f.Mcounteren), true
	case Mscratch:
		return f.Mscratch, true
	case Mepc:
		return f.Mepc, true
	case Mcause:
		return f.Mcause, true
	case Mtval:
		return f.Mtval, true
	case Mip:
		return f.Mip, true
	case Mhartid:
		return f.Mhartid, true
	case Mvendorid, Marchid, Mimpid:
		return 0, true

	case Pmpcfg0:
		return f.PMPCfg[0], true
	case Pmpcfg2:
		return f.PMPCfg[1], true

	case Tselect:
		return f.Tselect, true
	case Tdata1:
		return f.Tdata1[f.Tselect%4], true
	case Tdata2:
		return f.Tdata2[f.Tselect%4], true
	case Tdata3:
		return f.Tdata3[f.Tselect%4], true

	default:
		if csr >= pmpaddr0 && csr < pmpaddr0+16 {
			return f.PMPAddr[csr-pmpaddr0], true
		}
		return 0, !illegalInsn
	}
}

const sstatusMask = 0x80000003000DE133 // SD,UXL,MXR,SUM,XS,FS,SPP,SPIE,UPIE,SIE,UIE

// Write updates a CSR. ok is false if the access is illegal (read-only CSR,
// insufficient privilege, or unknown CSR).
func (f *File) Write(csr uint16, value uint64) bool {
	if f.Priv < csrPriv(csr) || csrReadOnly(csr) {
		return !illegalInsn
	}
	switch csr {
	case Fflags:
		f.Fflags = uint8(value & 0x1F)
	case Frm:
		f.Frm = uint8(value & 0x7)
	case Fcsr:
		f.Fflags = uint8(value & 0x1F)
		f.Frm = uint8((value >> 5) & 0x7)

	case Sstatus:
		f.Mstatus = (f.Mstatus &^ sstatusMask) | (value & sstatusMask)
	case Sie:
		f.Mie = (f.Mie &^ f.Mideleg) | (value & f.Mideleg)
	case Stvec:
		f.Stvec = value
	case Scounteren:
		f.Scounteren = uint32(value)
	case Sscratch:
		f.Sscratch = value
	case Sepc:
		f.Sepc = value &^ 1
	case Scause:
		f.Scause = value
	case Stval:
		f.Stval = value
	case Sip:
		f.Mip = (f.Mip &^ (f.Mideleg & mipSoftwareMask)) | (value & f.Mideleg & mipSoftwareMask)
	case Satp:
		f.SatpReg = value
		if f.TLBFlush != nil {
			f.TLBFlush()
		}

	case Mstatus:
		f.Mstatus = sanitizeMstatus(value)
	case Misa:
		// Disabling an extension is idempotent; widening beyond the
		// implemented mask is ignored (read-as-written within mask).
		const extMask = 0x3FFFFFF
		f.Misa = (f.Misa &^ extMask) | (value & f.Misa & extMask)
	case Medeleg:
		f.Medeleg = value & 0xFFFF
	case Mideleg:
		f.Mideleg = value & 0xFFFF
	case Mie:
		f.Mie = value
	case Mtvec:
		f.Mtvec = value
	case Mcounteren:
		f.Mcounteren = uint32(value)
	case Mscratch:
		f.Mscratch = value
	case Mepc:
		f.Mepc = value &^ 1
	case Mcause:
		f.Mcause = value
	case Mtval:
		f.Mtval = value
	case Mip:
		f.Mip = (f.Mip &^ mipSoftwareMask) | (value & mipSoftwareMask)

	case Pmpcfg0:
		f.PMPCfg[0] = value
	case Pmpcfg2:
		f.PMPCfg[1] = value

	case Tselect:
		f.Tselect = value
	case Tdata1:
		f.Tdata1[f.Tselect%4] = value
	case Tdata2:
		f.Tdata2[f.Tselect%4] = value
	case Tdata3:
		f.Tdata3[f.Tselect%4] = value

	default:
		if csr >= pmpaddr0 && csr < pmpaddr0+16 {
			f.PMPAddr[csr-pmpaddr0] = value
			return true
		}
		return !illegalInsn
	}
	return true
}

// sanitizeMstatus clears reserved bits and forces MPP/SPP to encode only
// implemented privilege levels.
func sanitizeMstatus(v uint64) uint64 {
	mpp := (v >> riscv.MstatusMPPShift) & riscv.MstatusMPPMask
	if mpp == 2 { // reserved encoding, collapses to U per common practice
		mpp = 0
	}
	v = (v &^ (riscv.MstatusMPPMask << riscv.MstatusMPPShift)) | (mpp << riscv.MstatusMPPShift)
	return v
}

func (f *File) counterEnabled(csr uint16) bool {
	bit := uint32(1) << uint(csr&0x1F)
	if f.Priv == riscv.Machine {
		return true
	}
	if f.Mcounteren&bit == 0 {
		return false
	}
	if f.Priv == riscv.Supervisor {
		return true
	}
	return f.Scounteren&bit != 0
}
