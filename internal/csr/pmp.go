/*
 * rv64cosim - Physical memory protection
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

package csr

import "github.com/rcornwell/rv64cosim/internal/riscv"

const (
	pmpR = 1 << 0
	pmpW = 1 << 1
	pmpX = 1 << 2
	pmpA = 0x3 << 3
	pmpL = 1 << 7

	pmpAOff   = 0
	pmpATOR   = 1
	pmpANA4   = 2
	pmpANAPOT = 3
)

func (f *File) pmpCfgByte(i int) byte {
	word := f.PMPCfg[i/8]
	return byte(word >> (8 * (i % 8)))
}

// PMPAccess is the access kind a physical access is checked against.
type PMPAccess int

const (
	PMPRead PMPAccess = iota
	PMPWrite
	PMPExec
)

// CheckPMP finds the lowest-numbered configured PMP entry containing paddr
// and evaluates its R/W/X and L bits against kind and priv. With no matching
// entry, M-mode passes and any other privilege fails (spec §4.3).
func (f *File) CheckPMP(paddr uint64, kind PMPAccess) bool {
	n := f.NumPMP
	if n > 16 {
		n = 16
	}
	var prevAddr uint64
	for i := 0; i < n; i++ {
		cfg := f.pmpCfgByte(i)
		mode := (cfg & pmpA) >> 3
		addr := f.PMPAddr[i]
		var lo, hi uint64
		matched := false
		switch mode {
		case pmpAOff:
			prevAddr = addr
			continue
		case pmpATOR:
			lo, hi = prevAddr<<2, addr<<2
			matched = paddr >= lo && paddr < hi
		case pmpANA4:
			lo = addr << 2
			hi = lo + 4
			matched = paddr >= lo && paddr < hi
		case pmpANAPOT:
			base, size := decodeNAPOT(addr)
			lo, hi = base, base+size
			matched = paddr >= lo && paddr < hi
		}
		prevAddr = addr
		if !matched {
			continue
		}
		if cfg&pmpL == 0 && f.Priv == riscv.Machine {
			return true
		}
		switch kind {
		case PMPRead:
			return cfg&pmpR != 0
		case PMPWrite:
			return cfg&pmpW != 0
		default:
			return cfg&pmpX != 0
		}
	}
	return f.Priv == riscv.Machine
}

func decodeNAPOT(addr uint64) (base uint64, size uint64) {
	// Count trailing ones in addr to find the power-of-two region size.
	ones := 0
	shifted := addr
	for shifted&1 == 1 {
		ones++
		shifted >>= 1
	}
	size = uint64(8) << ones
	base = (addr &^ ((1 << (ones + 1)) - 1)) << 2
	return base, size
}
