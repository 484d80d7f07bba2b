/*
 * rv64cosim - Trace harness tests
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

package trace

import (
	"bytes"
	"strings"
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

// writeProgram lays three instructions at RAM base: addi a0,x0,5 /
// addi a1,x0,10 / add a2,a0,a1. The hand-coded bootloader (5 instructions)
// always runs first and jumps to RAM base, so the program executes right
// after it.
func writeProgram(t *testing.T, m *machine.Machine) {
	t.Helper()
	base := m.Config().MemoryBaseAddr
	words := []uint32{
		0x00500513, // addi a0,x0,5
		0x00a00593, // addi a1,x0,10
		0x00b50633, // add  a2,a0,a1
	}
	for i, w := range words {
		if err := m.Mem.Write(base+uint64(i*4), 2, uint64(w)); err != nil {
			t.Fatalf("writing program word %d: %v", i, err)
		}
	}
}

func TestRunEmitsOneCommitRecordPerRetiredInstruction(t *testing.T) {
	m, err := machine.New(testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("machine.New: %v", err)
	}
	writeProgram(t, m)

	var buf bytes.Buffer
	w := New(&buf, 0)
	retired, _ := w.Run(m, 8)

	if retired != 8 {
		t.Fatalf("retired = %d, want 8", retired)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Reaching maxInsns ends the run through the power-off banner path, so
	// the final line is the banner rather than a commit record.
	if !strings.HasPrefix(lines[len(lines)-1], "-- power off") {
		t.Fatalf("last line = %q, want the power-off banner", lines[len(lines)-1])
	}
	records := lines[:len(lines)-1]
	if len(records) != 8 {
		t.Fatalf("emitted %d records, want 8:\n%s", len(records), buf.String())
	}
	last := records[len(records)-1]
	if !strings.Contains(last, "add") || !strings.Contains(last, "x12 0xf") {
		t.Fatalf("last record = %q, want the add a2,a0,a1 commit (a2=15)", last)
	}
}

func TestRunSuppressesLeadingRecordsPerOffset(t *testing.T) {
	m, err := machine.New(testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("machine.New: %v", err)
	}
	writeProgram(t, m)

	var buf bytes.Buffer
	w := New(&buf, 5)
	retired, _ := w.Run(m, 8)

	if retired != 8 {
		t.Fatalf("retired = %d, want 8", retired)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[len(lines)-1], "-- power off") {
		t.Fatalf("last line = %q, want the power-off banner", lines[len(lines)-1])
	}
	records := lines[:len(lines)-1]
	if len(records) != 3 {
		t.Fatalf("emitted %d records after offset 5, want 3:\n%s", len(records), buf.String())
	}
}
