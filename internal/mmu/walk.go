/*
 * rv64cosim - Sv39/Sv48 page-table walker
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

package mmu

import "github.com/rcornwell/rv64cosim/internal/riscv"

// Mode is the satp translation mode.
type Mode int

const (
	Bare Mode = iota
	Sv39
	Sv48
)

// Satp is the decoded contents of the satp CSR.
type Satp struct {
	Mode Mode
	Asid uint32
	PPN  uint64
}

// DecodeSatp splits a raw 64-bit satp value (RV64 encoding: MODE[63:60],
// ASID[59:44], PPN[43:0]).
func DecodeSatp(raw uint64) Satp {
	s := Satp{Asid: uint32((raw >> 44) & 0xFFFF), PPN: raw & ((1 << 44) - 1)}
	switch (raw >> 60) & 0xF {
	case 8:
		s.Mode = Sv39
	case 9:
		s.Mode = Sv48
	default:
		s.Mode = Bare
	}
	return s
}

// ADPolicy selects how accessed/dirty bits are maintained.
type ADPolicy int

const (
	// ADHardware updates A/D bits in the PTE atomically on a successful
	// walk, the spec's default policy.
	ADHardware ADPolicy = iota
	// ADSoftware raises a page fault instead, leaving the bits for a
	// trap handler to set.
	ADSoftware
)

// PTE bit positions, common to Sv39 and Sv48.
const (
	pteV = 1 << 0
	pteR = 1 << 1
	pteW = 1 << 2
	pteX = 1 << 3
	pteU = 1 << 4
	pteG = 1 << 5
	pteA = 1 << 6
	pteD = 1 << 7

	ptePPNShift = 10
)

// PhysMem is the narrow physical-memory capability the walker needs: raw
// doubleword read/write of page-table entries, bypassing the TLB.
type PhysMem interface {
	Read(paddr uint64, sizeLog2 uint) (uint64, error)
	Write(paddr uint64, sizeLog2 uint, value uint64) error
}

// Walker performs Sv39/Sv48 translation.
type Walker struct {
	Mem    PhysMem
	Policy ADPolicy
}

// NewWalker returns a walker backed by mem with the hardware A/D policy.
func NewWalker(mem PhysMem) *Walker {
	return &Walker{Mem: mem, Policy: ADHardware}
}

// Fault reports why a walk failed; Cause is one of riscv.CauseInsnPageFault,
// CauseLoadPageFault, CauseStorePageFault.
type Fault struct {
	Cause uint64
	Tval  uint64
}

func pageFaultCause(kind Kind) uint64 {
	switch kind {
	case Fetch:
		return riscv.CauseInsnPageFault
	case Write:
		return riscv.CauseStorePageFault
	default:
		return riscv.CauseLoadPageFault
	}
}

func levelsFor(mode Mode) (levels int, vaBits int) {
	if mode == Sv48 {
		return 4, 48
	}
	return 3, 39
}

// Translate walks satp's page table for vaddr, checking permissions for
// kind at effective privilege priv (MPRV-adjusted by the caller), honoring
// mxr (make-executable-readable) and sum (supervisor-user-memory access).
// On success it returns the physical address; on failure it returns a
// Fault describing the page fault to deliver.
func (w *Walker) Translate(satp Satp, vaddr uint64, kind Kind, priv riscv.Priv, mxr, sum bool) (uint64, *Fault) {
	if satp.Mode == Bare {
		return vaddr, nil
	}

	levels, vaBits := levelsFor(satp.Mode)

	// Canonical address check: bits above vaBits-1 must equal bit vaBits-1.
	signBit := uint64(1) << (vaBits - 1)
	upper := vaddr &^ (signBit | (signBit - 1))
	if (vaddr&signBit) != 0 && upper != ^uint64(0)<<vaBits {
		return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
	}
	if (vaddr&signBit) == 0 && upper != 0 {
		return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
	}

	const pteSize = 8
	const vpnBitsPerLevel = 9
	const pageOffsetBits = 12

	tableBase := satp.PPN << pageOffsetBits
	var pte uint64
	var ptePaddr uint64
	level := levels - 1

	for {
		vpn := (vaddr >> uint(pageOffsetBits+level*vpnBitsPerLevel)) & ((1 << vpnBitsPerLevel) - 1)
		ptePaddr = tableBase + vpn*pteSize
		v, err := w.Mem.Read(ptePaddr, 3)
		if err != nil {
			return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
		}
		pte = v

		if pte&pteV == 0 || (pte&pteR == 0 && pte&pteW != 0) {
			return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
		}

		if pte&(pteR|pteW|pteX) != 0 {
			break // leaf
		}

		if level == 0 {
			return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
		}
		tableBase = (pte >> ptePPNShift) << pageOffsetBits
		level--
	}

	ppn := pte >> ptePPNShift

	// Superpage alignment: every VPN below `level` must be zero in the PPN.
	for i := 0; i < level; i++ {
		shift := uint(i * vpnBitsPerLevel)
		if (ppn>>shift)&((1<<vpnBitsPerLevel)-1) != 0 {
			return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
		}
	}

	if !checkPermission(pte, kind, priv, mxr, sum) {
		return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
	}

	needA := pte&pteA == 0
	needD := kind == Write && pte&pteD == 0
	if needA || needD {
		if w.Policy == ADSoftware {
			return 0, &Fault{Cause: pageFaultCause(kind), Tval: vaddr}
		}
		newPTE := pte | pteA
		if needD {
			newPTE |= pteD
		}
		_ = w.Mem.Write(ptePaddr, 3, newPTE)
	}

	pageOffset := vaddr & ((1 << pageOffsetBits) - 1)
	superMask := (uint64(1) << uint(pageOffsetBits+level*vpnBitsPerLevel)) - 1
	superOffset := vaddr & superMask &^ ((1 << pageOffsetBits) - 1)
	paddr := (ppn << pageOffsetBits) | superOffset | pageOffset
	return paddr, nil
}

func checkPermission(pte uint64, kind Kind, priv riscv.Priv, mxr, sum bool) bool {
	u := pte&pteU != 0
	if priv == riscv.User && !u {
		return false
	}
	if priv == riscv.Supervisor && u && !sum {
		return false
	}

	switch kind {
	case Fetch:
		return pte&pteX != 0
	case Write:
		return pte&pteW != 0
	default: // Read
		if pte&pteR != 0 {
			return true
		}
		return mxr && pte&pteX != 0
	}
}
