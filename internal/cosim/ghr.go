/*
 * rv64cosim - global-history-register branch cosim
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

package cosim

// GHR shadows the DUT's global-history register for the "maxion" branch
// predictor hash (the variant the source keeps live; the simpler hash
// lived in dead #if-0'd code and was not carried forward). It is folded
// into the oracle's own state rather than kept as package-level statics.
type GHR struct {
	lo uint64 // bits [63:0]
	hi uint64 // bits [89:64]
}

const (
	ghrHistLen = 90
	ghrSz0     = 6
	ghrSzH     = ghrSz0 / 2
	ghrMin     = 2*ghrSz0 + ghrSzH + 13
)

func bit(v uint64, idx int) uint64 { return (v >> uint(idx)) & 1 }

func bits(v uint64, hi, lo int) uint64 {
	return (v >> uint(lo)) & mask(hi - lo + 1)
}

func mask(size int) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(size)) - 1
}

// Update folds a taken control-transfer to target into the shadow GHR. Non-
// CTI retirements must not call this (the caller only invokes it when the
// hart's CTI classification is not CTINone).
func (g *GHR) Update(target uint64) {
	pc := target >> 1
	foldpc := (pc >> 17) ^ pc

	o0 := bits(g.lo, ghrSz0-1, 0)
	o1 := bits(g.lo, 2*ghrSz0-1, ghrSz0)
	o2 := bits(g.lo, 2*ghrSz0+ghrSzH, 2*ghrSz0)

	h0 := foldpc & mask(ghrSz0)
	h1 := o0
	h2 := (o1 ^ (o1 >> ghrSzH)) & mask(ghrSzH+1)
	h3 := (o2 ^ (o2 >> 2)) & mask(2)
	h10 := bit(g.lo, 27) ^ bit(g.lo, 26)

	loOld := g.lo

	g.hi = (g.hi << 1) | bit(g.lo, 63)

	g.lo &^= mask(ghrMin)
	g.lo = (g.lo << 1) |
		(h10 << uint(2*ghrSz0+ghrSzH+13)) |
		(bits(loOld, 25, 16) << uint(2*ghrSz0+ghrSzH+3)) |
		(h3 << uint(2*ghrSz0+ghrSzH+1)) |
		(h2 << uint(2*ghrSz0)) |
		(h1 << uint(ghrSz0)) |
		h0

	if ghrHistLen <= 64 {
		g.hi = 0
		g.lo &= mask(ghrHistLen)
	} else {
		g.hi &= mask(ghrHistLen - 64)
	}
}

// Matches reports whether the DUT-reported history equals the shadow.
func (g *GHR) Matches(dutLo, dutHi uint64) bool {
	return g.lo == dutLo && g.hi == dutHi
}
