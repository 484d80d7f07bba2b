/*
 * rv64cosim - RV64GC disassembler tests
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

package disasm

import (
	"strings"
	"testing"
)

func TestDisassemble32BitForms(t *testing.T) {
	cases := []struct {
		name string
		insn uint32
		want string
	}{
		{"addi", 0x00150513, "addi"},  // addi a0,a0,1
		{"add", 0x00b50533, "add"},    // add a0,a0,a1
		{"lw", 0x0005a503, "lw"},      // lw a0,0(a1)
		{"sd", 0x00b53023, "sd"},      // sd a1,0(a0)
		{"beq", 0x00b50463, "beq"},    // beq a0,a1,8
		{"jal", 0x008000ef, "jal"},    // jal ra,8
		{"lui", 0x000010b7, "lui"},    // lui ra,1
		{"ecall", 0x00000073, "ecall"},
		{"mret", 0x30200073, "mret"},
		{"csrrs", 0x34402573, "csrrs"}, // csrrs a0,mip,x0
	}
	for _, c := range cases {
		got, n := Disassemble(c.insn)
		if n != 4 {
			t.Fatalf("%s: length = %d, want 4", c.name, n)
		}
		if !strings.HasPrefix(strings.TrimSpace(got), c.want) {
			t.Fatalf("%s: got %q, want prefix %q", c.name, got, c.want)
		}
	}
}

func TestDisassembleCompressedForms(t *testing.T) {
	cases := []struct {
		name string
		insn uint16
		want string
	}{
		{"c.addi", 0x0505, "c.addi"}, // c.addi a0, 1
		{"c.li", 0x4505, "c.li"},
		{"c.mv", 0x852e, "c.mv"},
		{"c.jr", 0x8502, "c.jr"},
	}
	for _, c := range cases {
		got, n := Disassemble(uint32(c.insn))
		if n != 2 {
			t.Fatalf("%s: length = %d, want 2", c.name, n)
		}
		if !strings.HasPrefix(got, c.want) {
			t.Fatalf("%s: got %q, want prefix %q", c.name, got, c.want)
		}
	}
}

func TestDisassembleUnknown32BitIsWord(t *testing.T) {
	got, n := Disassemble(0x0000007F) // opcode bits 0x1F: reserved
	if n != 4 {
		t.Fatalf("length = %d, want 4", n)
	}
	if !strings.HasPrefix(got, ".word") {
		t.Fatalf("got %q, want .word fallback", got)
	}
}
