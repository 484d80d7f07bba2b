/*
 * rv64cosim - Machine assembly tests
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

package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestNewAssemblesOneHartByDefault(t *testing.T) {
	m, err := New(testConfig(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, m.Harts, 1)
	assert.Len(t, m.Oracles, 1)
	assert.Equal(t, uint64(DefaultResetVector), m.Harts[0].PC)
}

func TestNewRejectsHartCountAboveMax(t *testing.T) {
	cfg := testConfig()
	cfg.HartCount = MaxHarts + 1
	_, err := New(cfg, nil, nil)
	require.Error(t, err)
}

// TestBootROMLoadsMhartidAndJumpsToRAMBase executes the hand-coded
// bootloader straight through and checks the architectural effect spec
// §4.9 names: a0 holds mhartid, and pc lands exactly on RAM base.
func TestBootROMLoadsMhartidAndJumpsToRAMBase(t *testing.T) {
	m, err := New(testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := m.Harts[0]

	// Five instructions: csrr a0,mhartid / lui+addi a1 / lui+jalr t0.
	if _, _ = h.Step(5, nil); h.PC != m.cfg.MemoryBaseAddr {
		t.Fatalf("pc after boot sequence = %#x, want RAM base %#x", h.PC, m.cfg.MemoryBaseAddr)
	}
	if h.Regs[regA0] != h.ID {
		t.Fatalf("a0 = %d, want mhartid %d", h.Regs[regA0], h.ID)
	}
	wantFDT := uint64(DefaultResetVector + 0x20)
	if h.Regs[regA1] != wantFDT {
		t.Fatalf("a1 = %#x, want fdt placeholder %#x", h.Regs[regA1], wantFDT)
	}
}

func TestHiLoSplitRoundTrips(t *testing.T) {
	for _, v := range []uint64{0, 0x1000, 0x8000_0000, 0x1020, 0xFFFF_F800, 0x1234_5678} {
		hi, lo := hiLoSplit(v)
		got := (uint64(hi) << 12) + uint64(int64(lo))
		if got != v {
			t.Fatalf("hiLoSplit(%#x) = (%#x, %d), recombined %#x", v, hi, lo, got)
		}
	}
}

func TestSignalHaltsAllHarts(t *testing.T) {
	cfg := testConfig()
	cfg.HartCount = 2
	m, err := New(cfg, nil, nil)
	require.NoError(t, err)

	m.Signal("benchmark_done")
	for i, h := range m.Harts {
		assert.Truef(t, h.TerminateSimulation, "hart %d not terminated after Signal", i)
	}
	assert.Equal(t, TerminateEvent("benchmark_done"), m.TerminateReason)
}

func TestOracleLookupRange(t *testing.T) {
	m, err := New(testConfig(), nil, nil)
	require.NoError(t, err)

	_, err = m.Oracle(0)
	assert.NoError(t, err)
	_, err = m.Oracle(1)
	assert.Error(t, err, "want out-of-range error for a single-hart machine")
}
