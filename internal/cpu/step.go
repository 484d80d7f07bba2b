/*
 * rv64cosim - Hart stepping loop (C7)
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

package cpu

// StopReason explains why Step returned before exhausting its cycle budget.
type StopReason int

const (
	StopBudget StopReason = iota
	StopPowerDown
	StopTerminate
	StopBreakpoint
)

// BreakpointFunc, when passed non-nil to Step, is consulted after every
// executed cycle, whether the instruction retired or trapped; returning true
// stops the loop early with StopBreakpoint (the harness's external
// breakpoint hook, spec §4.7).
type BreakpointFunc func(h *Hart) bool

// Step runs up to n cycles, servicing pending interrupts at instruction
// boundaries and honoring WFI, per spec §4.7.
func (h *Hart) Step(n int, bp BreakpointFunc) (retired int, reason StopReason) {
	for i := 0; i < n; i++ {
		if h.TerminateSimulation {
			return retired, StopTerminate
		}

		if h.serviceInterrupt() {
			h.PowerDown = false
		}

		if h.PowerDown && h.CSR.Mip&h.CSR.Mie != 0 {
			h.PowerDown = false
		}

		if h.PowerDown {
			return retired, StopPowerDown
		}

		if h.stepOne() {
			retired++
		}

		if bp != nil && bp(h) {
			return retired, StopBreakpoint
		}
	}
	return retired, StopBudget
}

// serviceInterrupt checks for a pending-and-enabled interrupt at the current
// privilege and, if found, delivers it before the next instruction decodes.
// It returns true if an interrupt was taken (used to clear WFI).
func (h *Hart) serviceInterrupt() bool {
	bit := h.CSR.PendingInterrupt()
	if bit < 0 {
		return false
	}
	_, pc := h.CSR.Trap(uint64(bit), 0, true, h.PC)
	h.PC = pc
	h.LoadRes.valid = false
	return true
}

// stepOne executes exactly one instruction, delivering a trap instead of
// retiring if the instruction faulted. It returns true if an instruction
// retired.
func (h *Hart) stepOne() bool {
	h.InsnCounter++
	pc := h.PC

	_, insn, ilen, ok := h.fetchInsn(pc)
	if !ok {
		return h.deliverTrap(pc)
	}

	h.pendingException = false
	h.Info = CTINone
	h.MostRecentReg = -1
	h.MostRecentFPReg = -1
	next := h.execute(insn, pc, ilen)

	if h.pendingException {
		return h.deliverTrap(pc)
	}

	h.PC = next
	h.Minstret++
	return true
}

func (h *Hart) deliverTrap(pc uint64) bool {
	cause := h.pendingCause
	tval := h.pendingTval
	h.pendingException = false
	_, newPC := h.CSR.Trap(cause, tval, false, pc)
	h.PC = newPC
	h.LoadRes.valid = false
	return false
}

// WFI parks the hart until a pending interrupt wakes it, per spec §4.7(b);
// an interrupt that is pending but masked by xIE still wakes WFI (the RISC-V
// architected behavior), so the wake test only consults mip&mie, not the
// enable bits serviceInterrupt uses for actual delivery.
func (h *Hart) WFI() {
	if h.CSR.Mip&h.CSR.Mie == 0 {
		h.PowerDown = true
	}
}

// MRET/SRET/ECALL/EBREAK and CSR instructions live in execute_system.go;
// this file only owns the stepping contract they're driven through.
