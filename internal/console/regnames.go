/*
 * rv64cosim - Console register-name lookup
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

package console

import "strconv"

var xNames = map[string]int{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4, "t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9, "a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14,
	"a5": 15, "a6": 16, "a7": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21,
	"s6": 22, "s7": 23, "s8": 24, "s9": 25, "s10": 26, "s11": 27, "t3": 28,
	"t4": 29, "t5": 30, "t6": 31,
}

var fNames = map[string]int{
	"ft0": 0, "ft1": 1, "ft2": 2, "ft3": 3, "ft4": 4, "ft5": 5, "ft6": 6,
	"ft7": 7, "fs0": 8, "fs1": 9, "fa0": 10, "fa1": 11, "fa2": 12, "fa3": 13,
	"fa4": 14, "fa5": 15, "fa6": 16, "fa7": 17, "fs2": 18, "fs3": 19,
	"fs4": 20, "fs5": 21, "fs6": 22, "fs7": 23, "fs8": 24, "fs9": 25,
	"fs10": 26, "fs11": 27, "ft8": 28, "ft9": 29, "ft10": 30, "ft11": 31,
}

// xregIndex resolves an ABI name ("a0") or a bare numeric form ("x10") to
// its GPR index.
func xregIndex(name string) (int, bool) {
	if r, ok := xNames[name]; ok {
		return r, true
	}
	if len(name) > 1 && name[0] == 'x' {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n < 32 {
			return n, true
		}
	}
	return 0, false
}

// fregIndex resolves an ABI name ("fa0") or a bare numeric form ("f10") to
// its FPR index.
func fregIndex(name string) (int, bool) {
	if r, ok := fNames[name]; ok {
		return r, true
	}
	if len(name) > 1 && name[0] == 'f' {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n < 32 {
			return n, true
		}
	}
	return 0, false
}
