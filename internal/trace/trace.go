/*
 * rv64cosim - Trace harness: single-stepping loop emitting commit records (C10)
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

// Package trace repeatedly single-steps a machine's harts and emits one
// commit record per retired instruction, the golden stream a DUT trace is
// checked against when the harness runs standalone rather than as a cosim
// oracle client.
package trace

import (
	"fmt"
	"io"

	"github.com/rcornwell/rv64cosim/internal/cpu"
	"github.com/rcornwell/rv64cosim/internal/disasm"
	"github.com/rcornwell/rv64cosim/internal/machine"
)

// Writer formats and emits commit records to out, suppressing the first
// offset of them (spec §4.10's "trace offset m.trace").
type Writer struct {
	out     io.Writer
	offset  uint64
	emitted uint64
}

// New creates a Writer. offset is the count of leading commit records to
// suppress; 0 prints every record from the first retired instruction.
func New(out io.Writer, offset int) *Writer {
	if offset < 0 {
		offset = 0
	}
	return &Writer{out: out, offset: uint64(offset)}
}

// Step advances h by exactly one cycle — servicing a pending interrupt,
// or else fetching and executing the instruction at its PC, the same
// granularity cpu.Hart.CosimAdvance exposes to internal/cosim — and
// prints a commit record if an instruction retired. It reports whether
// one did, so a caller (Run, or an interactive console single-stepping
// one hart at a time) can track its own progress/termination policy;
// Step itself never touches CLINT or the machine's terminate_simulation
// flag.
func (w *Writer) Step(h *cpu.Hart) (retired bool) {
	ok, pc, raw, canonical, ilen := h.CosimAdvance()
	if !ok {
		return false
	}
	w.emit(h, pc, raw, canonical, ilen)
	return true
}

// Run steps every hart in m one cycle at a time, round-robin, advancing
// CLINT's mtime after each full pass, until maxInsns instructions have
// retired (0: unbounded) or the machine signals termination (spec's single
// terminate_simulation flag covers both a guest-raised shutdown and the
// maxinsns budget alike, so both end the loop through the same banner
// path). If no hart in a pass retired or woke from WFI, the loop also
// stops: a powered-down hart with no external event pending needs the
// harness to feed one (a UART byte, a CLINT mtimecmp write) and call Run
// again.
func (w *Writer) Run(m *machine.Machine, maxInsns uint64) (retired uint64, reason cpu.StopReason) {
	for {
		progressed := false
		for _, h := range m.Harts {
			if h.TerminateSimulation {
				continue
			}
			if w.Step(h) {
				progressed = true
				retired++
				if maxInsns != 0 && retired >= maxInsns {
					m.Signal(string(machine.EventMaxInsns))
					break
				}
			} else if !h.PowerDown {
				progressed = true
			}
		}
		m.CLINT.AdvanceInstret(1)

		if m.TerminateReason != "" {
			w.banner(m)
			return retired, cpu.StopTerminate
		}
		if !progressed {
			return retired, cpu.StopPowerDown
		}
	}
}

// emit renders one commit record: "<priv> <pc> (<insn>) [xR 0xVAL | fR
// 0xVAL] DASM(<insn>)", spec §4.10's exact layout.
func (w *Writer) emit(h *cpu.Hart, pc uint64, raw uint32, canonical uint32, ilen uint64) {
	w.emitted++
	if w.emitted <= w.offset {
		return
	}

	insnWord := raw
	width := 8
	if ilen == 2 {
		insnWord &= 0xFFFF
		width = 4
	}

	mnemonic, _ := disasm.Disassemble(canonical)

	reg := ""
	switch {
	case h.MostRecentReg > 0:
		reg = fmt.Sprintf(" x%-2d 0x%x", h.MostRecentReg, h.Regs[h.MostRecentReg])
	case h.MostRecentFPReg >= 0:
		reg = fmt.Sprintf(" f%-2d 0x%x", h.MostRecentFPReg, h.FRegs[h.MostRecentFPReg])
	}

	fmt.Fprintf(w.out, "%s %#016x (%0*x)%s %s\n", h.CSR.Priv, pc, width, insnWord, reg, mnemonic)
}

func (w *Writer) banner(m *machine.Machine) {
	fmt.Fprintf(w.out, "-- power off: %s --\n", m.TerminateReason)
}
