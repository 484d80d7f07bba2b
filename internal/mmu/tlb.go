/*
 * rv64cosim - Direct-mapped translation caches
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

// Package mmu implements the per-hart translation caches (C2) and the
// Sv39/Sv48 page-table walker (C4).
package mmu

const (
	// tlbSize is TLB_SIZE from spec §4.2: 256 direct-mapped entries per
	// access kind.
	tlbSize     = 256
	tlbIndexBits = 8
	pageBits     = 12
)

// Kind selects which of the three direct-mapped tables an access goes
// through.
type Kind int

const (
	Read Kind = iota
	Write
	Fetch
)

// entry is one direct-mapped slot. addend satisfies paddr = vaddr + addend
// for RAM-backed pages; mmio entries bypass the fast path entirely and are
// never installed (C1 dispatch always goes through the slow walk for MMIO).
type entry struct {
	valid bool
	tag   uint64 // vaddr >> pageBits, full tag (not just the index bits)
	addend uint64
}

// TLB owns the three translation caches for one hart.
type TLB struct {
	tables [3][tlbSize]entry
}

// New returns an empty TLB.
func New() *TLB {
	return &TLB{}
}

func index(vaddr uint64) uint64 {
	return (vaddr >> pageBits) & (tlbSize - 1)
}

// Lookup returns the physical address for vaddr if a valid entry for kind
// covers it.
func (t *TLB) Lookup(kind Kind, vaddr uint64) (paddr uint64, ok bool) {
	e := &t.tables[kind][index(vaddr)]
	if !e.valid || e.tag != vaddr>>pageBits {
		return 0, false
	}
	return vaddr + e.addend, true
}

// Insert installs a translation for the page containing vaddr.
func (t *TLB) Insert(kind Kind, vaddr, paddr uint64) {
	pageVA := vaddr &^ ((1 << pageBits) - 1)
	pagePA := paddr &^ ((1 << pageBits) - 1)
	e := &t.tables[kind][index(vaddr)]
	e.valid = true
	e.tag = vaddr >> pageBits
	e.addend = pagePA - pageVA
}

// Flush invalidates every entry in all three tables (SFENCE.VMA with
// rs1=rs2=0, or a satp write).
func (t *TLB) Flush() {
	for k := range t.tables {
		for i := range t.tables[k] {
			t.tables[k][i].valid = false
		}
	}
}

// FlushVAddr invalidates any entry whose page contains va, across all three
// tables (SFENCE.VMA with a specific rs1).
func (t *TLB) FlushVAddr(va uint64) {
	idx := index(va)
	tag := va >> pageBits
	for k := range t.tables {
		e := &t.tables[k][idx]
		if e.valid && e.tag == tag {
			e.valid = false
		}
	}
}

// FlushRange invalidates every entry whose page falls in [addr, addr+size),
// the hook C1 calls whenever a RAM write may alias translated code or data.
func (t *TLB) FlushRange(addr, size uint64) {
	first := addr >> pageBits
	last := (addr + size - 1) >> pageBits
	for k := range t.tables {
		for i := range t.tables[k] {
			e := &t.tables[k][i]
			if e.valid && e.tag >= first && e.tag <= last {
				e.valid = false
			}
		}
	}
}
