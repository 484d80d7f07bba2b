/*
 * rv64cosim - Machine assembly: binds harts, bus, and devices (C9)
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

// Package machine assembles C1 through C7 into a runnable multi-hart
// machine (C9): physical memory, harts, CLINT/PLIC/HTIF, the reset ROM
// bootloader, and the per-hart co-simulation oracles the C-API boundary
// dispatches to by hartid.
package machine

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rcornwell/rv64cosim/internal/cosim"
	"github.com/rcornwell/rv64cosim/internal/cpu"
	"github.com/rcornwell/rv64cosim/internal/csr"
	"github.com/rcornwell/rv64cosim/internal/device"
	"github.com/rcornwell/rv64cosim/internal/elfload"
	"github.com/rcornwell/rv64cosim/internal/machineconfig"
	"github.com/rcornwell/rv64cosim/internal/memory"
	"github.com/rcornwell/rv64cosim/internal/plic"
	"github.com/rcornwell/rv64cosim/internal/uart"
)

// MaxHarts bounds hart_count; spec §4.9 names it MAX_CPUS without pinning
// a number, so we adopt the same bound the original's hart array uses.
const MaxHarts = 8

// Architected memory map (spec §6 defaults).
const (
	DefaultResetVector  = 0x0000_1000
	ResetROMSize        = 0x1000
	DefaultCLINTBase  = 0x0200_0000
	CLINTSize         = 0x000C_0000
	DefaultPLICBase   = 0x4010_0000
	PLICSize          = 0x0040_0000
	DefaultVirtioBase = 0x4001_0000
	VirtioWindow      = 0x1000
	DefaultUARTBase   = 0x5400_0000
	UARTSize          = 32
	DefaultDWUARTBase = 0x1200_2000
	DWUARTSize        = 0x1000
)

// TerminateEvent names a validation marker the guest image (or the HTIF
// bridge) may signal; --terminate-event NAME (spec §6) selects which one
// the machine treats as the run's intended stopping point versus a
// spurious halt (ported from the original's validation_events.h tag table).
type TerminateEvent string

const (
	EventHTIFShutdown  TerminateEvent = "htif_shutdown"
	EventMaxInsns      TerminateEvent = "maxinsns"
	EventBenchmarkDone TerminateEvent = "benchmark_done"
	EventBootComplete  TerminateEvent = "boot_complete"
)

// Machine owns every piece of shared state a run needs: memory, harts,
// the bus devices, and one cosim.Oracle per hart.
type Machine struct {
	cfg machineconfig.Config
	log *slog.Logger

	Mem     *memory.Map
	Harts   []*cpu.Hart
	Oracles []*cosim.Oracle

	CLINT *plic.CLINT
	PLIC  *plic.PLIC
	HTIF  *plic.HTIF

	SiFiveUART *uart.SiFive
	DWAPBUART  *uart.DWAPB

	terminateEvents map[TerminateEvent]bool
	TerminateReason TerminateEvent
}

// New assembles a machine from cfg: RAM and reset ROM registered in Mem,
// one Hart and one cosim.Oracle per configured hart, CLINT/PLIC/HTIF wired
// at the architected addresses, and the reset ROM populated with the
// mhartid/FDT-pointer/jump-to-RAM bootloader spec §4.9 describes.
func New(cfg machineconfig.Config, console device.CharDevice, log *slog.Logger) (*Machine, error) {
	if log == nil {
		log = slog.Default()
	}
	hartCount := cfg.HartCount
	if hartCount <= 0 {
		hartCount = 1
	}
	if hartCount > MaxHarts {
		return nil, fmt.Errorf("machine: hart_count %d exceeds MaxHarts %d", hartCount, MaxHarts)
	}

	mem := memory.New()
	ramSize := cfg.MemorySizeMiB * 1024 * 1024
	if ramSize == 0 {
		return nil, fmt.Errorf("machine: memory_size must be nonzero")
	}
	if _, err := mem.RegisterRAM(cfg.MemoryBaseAddr, ramSize); err != nil {
		return nil, fmt.Errorf("machine: registering RAM: %w", err)
	}
	if _, err := mem.RegisterRAM(DefaultResetVector, ResetROMSize); err != nil {
		return nil, fmt.Errorf("machine: registering reset ROM: %w", err)
	}

	harts := make([]*cpu.Hart, hartCount)
	csrFiles := make([]*csr.File, hartCount)
	for i := range harts {
		harts[i] = cpu.New(uint64(i), mem)
		csrFiles[i] = harts[i].CSR
	}

	m := &Machine{
		cfg:             cfg,
		log:             log,
		Mem:             mem,
		Harts:           harts,
		CLINT:           plic.NewCLINT(csrFiles),
		PLIC:            plic.NewPLIC(csrFiles),
		terminateEvents: map[TerminateEvent]bool{},
	}
	m.HTIF = plic.NewHTIF(console, func() { m.signal(EventHTIFShutdown) }, log)

	if err := mem.RegisterDevice(DefaultCLINTBase, CLINTSize, m.CLINT); err != nil {
		return nil, fmt.Errorf("machine: registering CLINT: %w", err)
	}
	if err := mem.RegisterDevice(DefaultPLICBase, PLICSize, m.PLIC); err != nil {
		return nil, fmt.Errorf("machine: registering PLIC: %w", err)
	}
	const defaultHTIFBase = 0x4000_8000
	htifBase := cfg.HTIFBaseAddr
	if htifBase == 0 {
		htifBase = defaultHTIFBase
	}
	if err := mem.RegisterDevice(htifBase, 0x10, m.HTIF); err != nil {
		return nil, fmt.Errorf("machine: registering HTIF: %w", err)
	}

	m.SiFiveUART = uart.NewSiFive(console)
	if err := mem.RegisterDevice(DefaultUARTBase, UARTSize, m.SiFiveUART); err != nil {
		return nil, fmt.Errorf("machine: registering SiFive UART: %w", err)
	}
	m.DWAPBUART = uart.NewDWAPB(console)
	if err := mem.RegisterDevice(DefaultDWUARTBase, DWUARTSize, m.DWAPBUART); err != nil {
		return nil, fmt.Errorf("machine: registering DW-APB UART: %w", err)
	}

	m.writeBootROM(DefaultResetVector, cfg.MemoryBaseAddr)

	if err := m.loadImages(); err != nil {
		return nil, err
	}

	m.Oracles = make([]*cosim.Oracle, hartCount)
	for i, h := range harts {
		m.Oracles[i] = cosim.NewOracle(h, cosim.Config{
			MMIOStart: DefaultVirtioBase,
			MMIOEnd:   DefaultVirtioBase + VirtioWindow,
			MaxInsns:  cfg.MaxInsns,
		})
	}

	return m, nil
}

// Config returns the configuration the machine was assembled from, for
// internal/snapshot's header fields.
func (m *Machine) Config() machineconfig.Config { return m.cfg }

// Oracle returns the cosim oracle for hartid, the lookup the cosim_step
// C-API boundary (spec §6) performs before dispatching to it.
func (m *Machine) Oracle(hartid int) (*cosim.Oracle, error) {
	if hartid < 0 || hartid >= len(m.Oracles) {
		return nil, fmt.Errorf("machine: hartid %d out of range", hartid)
	}
	return m.Oracles[hartid], nil
}

// RegisterTerminateEvent records a validation tag the guest image may
// raise. The recorded set is not consulted when terminating: Signal
// accepts any name, registered or not.
func (m *Machine) RegisterTerminateEvent(e TerminateEvent) {
	m.terminateEvents[e] = true
}

// signal marks reason as the terminating event and halts every hart. It is
// the sink the HTIF bridge, the maxinsns budget, and guest-raised
// validation markers all funnel through (SPEC_FULL §C.1).
func (m *Machine) signal(reason TerminateEvent) {
	if m.TerminateReason != "" {
		return
	}
	m.TerminateReason = reason
	for _, h := range m.Harts {
		h.TerminateSimulation = true
	}
	m.log.Info("machine: terminating", "event", string(reason))
}

// Signal is the external entry point a guest-raised validation marker
// (observed by the harness outside the hot stepping loop) uses to request
// termination by name.
func (m *Machine) Signal(name string) {
	m.signal(TerminateEvent(name))
}

// Run steps each hart in turn up to n cycles, advancing CLINT's mtime after
// each hart's batch; multi-hart fairness beyond simple round-robin sequencing is
// outside this emulator's non-goals (SMP beyond independent harts sharing
// memory is explicitly not cycle-accurate).
func (m *Machine) Run(n int, bp cpu.BreakpointFunc) (retired int, reason cpu.StopReason) {
	for _, h := range m.Harts {
		r, rs := h.Step(n, bp)
		retired += r
		reason = rs
		m.CLINT.AdvanceInstret(uint64(r))
		if m.TerminateReason != "" {
			return retired, cpu.StopTerminate
		}
	}
	return retired, reason
}
