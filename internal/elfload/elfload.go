/*
 * rv64cosim - Minimal ELF64/RISC-V kernel loader
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

// Package elfload maps an unmodified RV64 ELF64 kernel image's PT_LOAD
// segments into guest physical memory and returns its entry point. Full
// relocation and symbol-table handling is out of scope (spec §1 lists the
// ELF loader as a narrow external collaborator); this implements only the
// segment walk cmd/rv64sim's --kernel flag needs.
package elfload

import (
	"encoding/binary"
	"fmt"

	"github.com/rcornwell/rv64cosim/internal/memory"
)

const (
	elfMagic0 = 0x7F
	elfClass64 = 2
	elfData2LSB = 1
	emRISCV    = 243
	ptLoad     = 1

	ehdrSize = 64
	phdrSize = 56
)

// Image is the subset of an ELF64 file header this loader cares about.
type Image struct {
	Entry uint64
}

// IsRISCV64 reports whether data begins with a valid 64-bit, little-endian,
// RISC-V ELF header, mirroring elf64_is_riscv64's checks.
func IsRISCV64(data []byte) bool {
	if len(data) < ehdrSize {
		return false
	}
	if data[0] != elfMagic0 || data[1] != 'E' || data[2] != 'L' || data[3] != 'F' {
		return false
	}
	if data[4] != elfClass64 || data[5] != elfData2LSB {
		return false
	}
	machine := binary.LittleEndian.Uint16(data[18:20])
	return machine == emRISCV
}

// Load walks every PT_LOAD program header and copies its file bytes (zero-
// padded out to p_memsz for BSS) into mem at p_paddr, returning the ELF
// entry point.
func Load(data []byte, mem *memory.Map) (*Image, error) {
	if !IsRISCV64(data) {
		return nil, fmt.Errorf("elfload: not a 64-bit little-endian RISC-V ELF image")
	}

	entry := binary.LittleEndian.Uint64(data[24:32])
	phoff := binary.LittleEndian.Uint64(data[32:40])
	phentsize := binary.LittleEndian.Uint16(data[54:56])
	phnum := binary.LittleEndian.Uint16(data[56:58])

	if phentsize != phdrSize {
		return nil, fmt.Errorf("elfload: unexpected program header entry size %d", phentsize)
	}

	for i := uint16(0); i < phnum; i++ {
		off := phoff + uint64(i)*uint64(phentsize)
		if off+phdrSize > uint64(len(data)) {
			return nil, fmt.Errorf("elfload: program header %d out of range", i)
		}
		ph := data[off : off+phdrSize]

		ptype := binary.LittleEndian.Uint32(ph[0:4])
		if ptype != ptLoad {
			continue
		}
		foff := binary.LittleEndian.Uint64(ph[8:16])
		paddr := binary.LittleEndian.Uint64(ph[24:32])
		filesz := binary.LittleEndian.Uint64(ph[32:40])
		memsz := binary.LittleEndian.Uint64(ph[40:48])

		if foff+filesz > uint64(len(data)) {
			return nil, fmt.Errorf("elfload: segment %d file range out of bounds", i)
		}

		if err := copySegment(mem, paddr, data[foff:foff+filesz], memsz); err != nil {
			return nil, fmt.Errorf("elfload: segment %d: %w", i, err)
		}
	}

	return &Image{Entry: entry}, nil
}

// copySegment writes segment's bytes at paddr and zero-fills the remainder
// up to memsz (BSS), going straight at the owning Range's backing slice
// since a kernel image can be tens of megabytes and a byte-at-a-time
// memory.Map.Write loop would be needlessly slow.
func copySegment(mem *memory.Map, paddr uint64, segment []byte, memsz uint64) error {
	r, err := mem.Translate(paddr)
	if err != nil {
		return err
	}
	buf := r.Bytes()
	base := paddr - r.Base
	if base+memsz > uint64(len(buf)) {
		return fmt.Errorf("segment at %#x (size %d) overruns its RAM range", paddr, memsz)
	}
	n := copy(buf[base:], segment)
	for i := base + uint64(n); i < base+memsz; i++ {
		buf[i] = 0
	}
	return nil
}
