/*
 * rv64cosim - Snapshot save/load tests
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

package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/rcornwell/rv64cosim/internal/machine"
	"github.com/rcornwell/rv64cosim/internal/machineconfig"
)

func testConfig() machineconfig.Config {
	return machineconfig.Config{
		MemorySizeMiB:  1,
		MemoryBaseAddr: 0x8000_0000,
		HTIFBaseAddr:   0x4000_8000,
		HartCount:      1,
	}
}

func TestSaveLoadRoundTrips(t *testing.T) {
	m, err := machine.New(testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := m.Harts[0]

	h.Regs[5] = 0xDEAD_BEEF
	h.PC = 0x8000_0100
	h.CSR.Mepc = 0x1234
	if err := m.Mem.Write(0x8000_0000, 2, 0xCAFEF00D); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snap.bin")
	if err := Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2, err := machine.New(testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New (restore target): %v", err)
	}
	if err := Load(path, m2); err != nil {
		t.Fatalf("Load: %v", err)
	}

	h2 := m2.Harts[0]
	if h2.Regs[5] != 0xDEAD_BEEF {
		t.Fatalf("x5 = %#x, want 0xDEADBEEF", h2.Regs[5])
	}
	if h2.PC != 0x8000_0100 {
		t.Fatalf("pc = %#x, want 0x80000100", h2.PC)
	}
	if h2.CSR.Mepc != 0x1234 {
		t.Fatalf("mepc = %#x, want 0x1234", h2.CSR.Mepc)
	}
	v, err := m2.Mem.Read(0x8000_0000, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != 0xCAFEF00D {
		t.Fatalf("ram[0] = %#x, want 0xCAFEF00D", v)
	}
}

func TestLoadRejectsHartCountMismatch(t *testing.T) {
	m, err := machine.New(testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "snap.bin")
	if err := Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg2 := testConfig()
	cfg2.HartCount = 2
	m2, err := machine.New(cfg2, nil, nil)
	if err != nil {
		t.Fatalf("New (2-hart): %v", err)
	}
	if err := Load(path, m2); err == nil {
		t.Fatalf("Load: want error for hart-count mismatch")
	}
}
