/*
 * rv64cosim - Physical memory map
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

// Package memory implements the guest physical address space: an ordered
// range table of RAM and MMIO windows (C1). Ranges never overlap; lookup is
// a binary search over sorted bases.
package memory

import (
	"fmt"
	"sort"
)

const pageSize = 4096
const pageShift = 12

// Kind distinguishes a RAM-backed range from an MMIO-backed one.
type Kind int

const (
	KindRAM Kind = iota
	KindMMIO
)

// MMIODevice is the callback pair a device range dispatches to.
type MMIODevice interface {
	ReadMMIO(offset uint64, sizeLog2 uint) (uint64, error)
	WriteMMIO(offset uint64, sizeLog2 uint, value uint64) error
}

// Range is one entry of the physical address map.
type Range struct {
	Base uint64
	Size uint64
	Kind Kind

	ram   []byte
	dirty []byte // one bit per page
	dev   MMIODevice
}

func (r *Range) contains(paddr uint64) bool {
	return paddr >= r.Base && paddr < r.Base+r.Size
}

// InvalidateFunc is called whenever a RAM write may require flushing cached
// translations of the written page (the TLB-invalidation hook C1 exposes to
// C2/C4).
type InvalidateFunc func(addr uint64, size uint64)

// Map owns the range table for one machine. All harts share the same Map.
type Map struct {
	ranges  []*Range
	onInval InvalidateFunc
}

// New creates an empty physical memory map.
func New() *Map {
	return &Map{}
}

// SetInvalidateHook installs the callback invoked after every RAM write.
func (m *Map) SetInvalidateHook(f InvalidateFunc) {
	m.onInval = f
}

// RegisterRAM adds a byte-backed RAM range at [base, base+size).
func (m *Map) RegisterRAM(base, size uint64) (*Range, error) {
	r := &Range{
		Base:  base,
		Size:  size,
		Kind:  KindRAM,
		ram:   newRAMBacking(size),
		dirty: make([]byte, (size/pageSize/8)+1),
	}
	return r, m.insert(r)
}

// RegisterDevice adds an MMIO range dispatching to dev.
func (m *Map) RegisterDevice(base, size uint64, dev MMIODevice) (*Range, error) {
	r := &Range{Base: base, Size: size, Kind: KindMMIO, dev: dev}
	return r, m.insert(r)
}

func (m *Map) insert(n *Range) error {
	for _, r := range m.ranges {
		if n.Base < r.Base+r.Size && r.Base < n.Base+n.Size {
			return fmt.Errorf("memory: range [%#x,%#x) overlaps existing [%#x,%#x)",
				n.Base, n.Base+n.Size, r.Base, r.Base+r.Size)
		}
	}
	m.ranges = append(m.ranges, n)
	sort.Slice(m.ranges, func(i, j int) bool { return m.ranges[i].Base < m.ranges[j].Base })
	return nil
}

// ErrUnmapped is returned for any access whose paddr has no owning range.
var ErrUnmapped = fmt.Errorf("memory: unmapped physical address")

// ErrBadSize is returned when an MMIO device cannot service the requested width.
var ErrBadSize = fmt.Errorf("memory: unsupported access size")

// Translate returns the Range owning paddr, or ErrUnmapped.
func (m *Map) Translate(paddr uint64) (*Range, error) {
	i := sort.Search(len(m.ranges), func(i int) bool {
		return m.ranges[i].Base+m.ranges[i].Size > paddr
	})
	if i >= len(m.ranges) || !m.ranges[i].contains(paddr) {
		return nil, ErrUnmapped
	}
	return m.ranges[i], nil
}

// Read performs an aligned load of 1<<sizeLog2 bytes at paddr.
func (m *Map) Read(paddr uint64, sizeLog2 uint) (uint64, error) {
	r, err := m.Translate(paddr)
	if err != nil {
		return 0, err
	}
	switch r.Kind {
	case KindRAM:
		return readRAM(r.ram, paddr-r.Base, sizeLog2)
	default:
		v, err := r.dev.ReadMMIO(paddr-r.Base, sizeLog2)
		if err != nil {
			return 0, fmt.Errorf("memory: mmio read at %#x: %w", paddr, err)
		}
		return v, nil
	}
}

// Write performs an aligned store of 1<<sizeLog2 bytes at paddr.
func (m *Map) Write(paddr uint64, sizeLog2 uint, value uint64) error {
	r, err := m.Translate(paddr)
	if err != nil {
		return err
	}
	switch r.Kind {
	case KindRAM:
		writeRAM(r.ram, paddr-r.Base, sizeLog2, value)
		m.markDirty(r, paddr-r.Base)
		if m.onInval != nil {
			m.onInval(paddr, 1<<sizeLog2)
		}
		return nil
	default:
		if err := r.dev.WriteMMIO(paddr-r.Base, sizeLog2, value); err != nil {
			return fmt.Errorf("memory: mmio write at %#x: %w", paddr, err)
		}
		return nil
	}
}

func (m *Map) markDirty(r *Range, offset uint64) {
	page := offset >> pageShift
	r.dirty[page/8] |= 1 << (page % 8)
}

// IsDirty reports whether the page at offset (relative to the range) has been
// written since the last ClearDirty.
func (r *Range) IsDirty(offset uint64) bool {
	page := offset >> pageShift
	return r.dirty[page/8]&(1<<(page%8)) != 0
}

// ClearDirty resets every dirty bit in the range.
func (r *Range) ClearDirty() {
	for i := range r.dirty {
		r.dirty[i] = 0
	}
}

// Bytes exposes the raw RAM backing for snapshot dump/load. Only valid on a
// KindRAM range.
func (r *Range) Bytes() []byte { return r.ram }

func readRAM(buf []byte, offset uint64, sizeLog2 uint) (uint64, error) {
	n := uint64(1) << sizeLog2
	if offset+n > uint64(len(buf)) {
		return 0, ErrUnmapped
	}
	var v uint64
	for i := uint64(0); i < n; i++ {
		v |= uint64(buf[offset+i]) << (8 * i)
	}
	return v, nil
}

func writeRAM(buf []byte, offset uint64, sizeLog2 uint, value uint64) {
	n := uint64(1) << sizeLog2
	for i := uint64(0); i < n; i++ {
		buf[offset+i] = byte(value >> (8 * i))
	}
}
