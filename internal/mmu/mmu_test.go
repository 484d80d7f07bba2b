package mmu

import (
	"testing"

	"github.com/rcornwell/rv64cosim/internal/riscv"
)

type flatMem struct {
	buf []byte
}

func newFlatMem(size int) *flatMem { return &flatMem{buf: make([]byte, size)} }

func (m *flatMem) Read(paddr uint64, sizeLog2 uint) (uint64, error) {
	n := uint64(1) << sizeLog2
	var v uint64
	for i := uint64(0); i < n; i++ {
		v |= uint64(m.buf[paddr+i]) << (8 * i)
	}
	return v, nil
}

func (m *flatMem) Write(paddr uint64, sizeLog2 uint, value uint64) error {
	n := uint64(1) << sizeLog2
	for i := uint64(0); i < n; i++ {
		m.buf[paddr+i] = byte(value >> (8 * i))
	}
	return nil
}

func TestTLBRoundTrip(t *testing.T) {
	tlb := New()
	tlb.Insert(Read, 0x1000_2000, 0x8000_3000)
	pa, ok := tlb.Lookup(Read, 0x1000_2040)
	if !ok || pa != 0x8000_3040 {
		t.Fatalf("Lookup = %#x,%v want 0x8000_3040,true", pa, ok)
	}
	if _, ok := tlb.Lookup(Write, 0x1000_2040); ok {
		t.Errorf("Write table should be unaffected by Read insert")
	}
	tlb.FlushVAddr(0x1000_2040)
	if _, ok := tlb.Lookup(Read, 0x1000_2040); ok {
		t.Errorf("FlushVAddr did not invalidate")
	}
}

func TestSv39IdentityWalk(t *testing.T) {
	mem := newFlatMem(1 << 20)
	const root = 0x1000
	const leafPPN = 0x80000 // maps to 0x8000_0000 physical

	// Single PTE at root[VPN2] pointing to a leaf mapping VA 0 -> leafPPN,
	// exercised as a 1GiB superpage (leaf at the top level).
	pte := uint64(leafPPN<<10) | pteV | pteR | pteW | pteX | pteA | pteD
	mem.Write(root, 3, pte)

	w := NewWalker(mem)
	satp := Satp{Mode: Sv39, PPN: root >> 12}
	pa, fault := w.Translate(satp, 0x40_0000, Read, riscv.Supervisor, false, false)
	if fault != nil {
		t.Fatalf("Translate fault: cause=%d", fault.Cause)
	}
	if pa != 0x8000_0000+0x40_0000 {
		t.Errorf("pa = %#x, want %#x", pa, 0x8000_0000+0x40_0000)
	}
}

func TestSv39PermissionDenied(t *testing.T) {
	mem := newFlatMem(1 << 20)
	const root = 0x1000
	pte := uint64(0x80000<<10) | pteV | pteR | pteA // no W
	mem.Write(root, 3, pte)

	w := NewWalker(mem)
	satp := Satp{Mode: Sv39, PPN: root >> 12}
	_, fault := w.Translate(satp, 0, Write, riscv.Supervisor, false, false)
	if fault == nil {
		t.Fatalf("expected store page fault, got success")
	}
	if fault.Cause != riscv.CauseStorePageFault {
		t.Errorf("cause = %d, want %d", fault.Cause, riscv.CauseStorePageFault)
	}
}

func TestSv39InvalidPTE(t *testing.T) {
	mem := newFlatMem(1 << 20)
	w := NewWalker(mem)
	satp := Satp{Mode: Sv39, PPN: 1}
	_, fault := w.Translate(satp, 0, Read, riscv.Supervisor, false, false)
	if fault == nil {
		t.Fatalf("expected page fault for unset root PTE")
	}
}
