/*
 * rv64cosim - Machine state snapshot save/load
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

// Package snapshot saves and restores a running Machine's architectural
// state: a human-readable YAML header and per-hart register/CSR block,
// followed by a dense binary RAM dump. The format is round-trippable but
// not wire-stable across versions (spec §6); Version is bumped whenever
// the per-hart block's shape changes and Load rejects a mismatch.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rcornwell/rv64cosim/internal/cpu"
	"github.com/rcornwell/rv64cosim/internal/machine"
	"github.com/rcornwell/rv64cosim/internal/riscv"
	"gopkg.in/yaml.v3"
)

// Version is bumped whenever hartState's shape changes incompatibly.
const Version = 1

// Header is the YAML-encoded machine description at the front of a
// snapshot file; human-readable so a saved snapshot is `head`-able.
type Header struct {
	Kind           string `yaml:"kind"`
	Version        int    `yaml:"version"`
	HartCount      int    `yaml:"hart_count"`
	MemorySizeMiB  uint64 `yaml:"memory_size_mib"`
	MemoryBaseAddr uint64 `yaml:"memory_base_addr"`
}

// hartState is one hart's complete architectural state: GPRs, FPRs, PC,
// the CSR file (flattened; csr.File.TLBFlush is a closure and cannot
// round-trip, so it is rebuilt by the caller instead), counters, and the
// LR/SC reservation. The TLB itself is not persisted: it is a pure cache
// over CSR/page-table state and Load simply flushes it, so a restored
// machine behaves identically after its first re-walk.
type hartState struct {
	Regs  [32]uint64 `yaml:"regs"`
	FRegs [32]uint64 `yaml:"fregs"`
	PC    uint64     `yaml:"pc"`

	Minstret    uint64 `yaml:"minstret"`
	InsnCounter uint64 `yaml:"insn_counter"`

	Priv int `yaml:"priv"`

	Mstatus    uint64 `yaml:"mstatus"`
	Mtvec      uint64 `yaml:"mtvec"`
	Mepc       uint64 `yaml:"mepc"`
	Mcause     uint64 `yaml:"mcause"`
	Mtval      uint64 `yaml:"mtval"`
	Mie        uint64 `yaml:"mie"`
	Mip        uint64 `yaml:"mip"`
	Medeleg    uint64 `yaml:"medeleg"`
	Mideleg    uint64 `yaml:"mideleg"`
	Mcounteren uint32 `yaml:"mcounteren"`
	Misa       uint64 `yaml:"misa"`
	Mhartid    uint64 `yaml:"mhartid"`
	Mscratch   uint64 `yaml:"mscratch"`

	Stvec      uint64 `yaml:"stvec"`
	Sepc       uint64 `yaml:"sepc"`
	Scause     uint64 `yaml:"scause"`
	Stval      uint64 `yaml:"stval"`
	Sscratch   uint64 `yaml:"sscratch"`
	SatpReg    uint64 `yaml:"satp"`
	Scounteren uint32 `yaml:"scounteren"`

	Fflags uint8 `yaml:"fflags"`
	Frm    uint8 `yaml:"frm"`

	Tselect uint64    `yaml:"tselect"`
	Tdata1  [4]uint64 `yaml:"tdata1"`
	Tdata2  [4]uint64 `yaml:"tdata2"`
	Tdata3  [4]uint64 `yaml:"tdata3"`

	NumPMP  int        `yaml:"num_pmp"`
	PMPCfg  [2]uint64  `yaml:"pmp_cfg"`
	PMPAddr [16]uint64 `yaml:"pmp_addr"`

	ReservationValid bool   `yaml:"reservation_valid"`
	ReservationAddr  uint64 `yaml:"reservation_addr"`
	ReservationSize  uint   `yaml:"reservation_size"`
}

func captureHart(h *cpu.Hart) hartState {
	var s hartState
	s.Regs = h.Regs
	s.FRegs = h.FRegs
	s.PC = h.PC
	s.Minstret = h.Minstret
	s.InsnCounter = h.InsnCounter

	c := h.CSR
	s.Priv = int(c.Priv)
	s.Mstatus, s.Mtvec, s.Mepc, s.Mcause, s.Mtval = c.Mstatus, c.Mtvec, c.Mepc, c.Mcause, c.Mtval
	s.Mie, s.Mip, s.Medeleg, s.Mideleg = c.Mie, c.Mip, c.Medeleg, c.Mideleg
	s.Mcounteren, s.Misa, s.Mhartid, s.Mscratch = c.Mcounteren, c.Misa, c.Mhartid, c.Mscratch
	s.Stvec, s.Sepc, s.Scause, s.Stval, s.Sscratch = c.Stvec, c.Sepc, c.Scause, c.Stval, c.Sscratch
	s.SatpReg, s.Scounteren = c.SatpReg, c.Scounteren
	s.Fflags, s.Frm = c.Fflags, c.Frm
	s.Tselect, s.Tdata1, s.Tdata2, s.Tdata3 = c.Tselect, c.Tdata1, c.Tdata2, c.Tdata3
	s.NumPMP, s.PMPCfg, s.PMPAddr = c.NumPMP, c.PMPCfg, c.PMPAddr

	s.ReservationValid, s.ReservationAddr, s.ReservationSize = h.Reservation()
	return s
}

func restoreHart(h *cpu.Hart, s hartState) {
	h.Regs = s.Regs
	h.FRegs = s.FRegs
	h.PC = s.PC
	h.Minstret = s.Minstret
	h.InsnCounter = s.InsnCounter

	c := h.CSR
	c.Priv = riscv.Priv(s.Priv)
	c.Mstatus, c.Mtvec, c.Mepc, c.Mcause, c.Mtval = s.Mstatus, s.Mtvec, s.Mepc, s.Mcause, s.Mtval
	c.Mie, c.Mip, c.Medeleg, c.Mideleg = s.Mie, s.Mip, s.Medeleg, s.Mideleg
	c.Mcounteren, c.Misa, c.Mhartid, c.Mscratch = s.Mcounteren, s.Misa, s.Mhartid, s.Mscratch
	c.Stvec, c.Sepc, c.Scause, c.Stval, c.Sscratch = s.Stvec, s.Sepc, s.Scause, s.Stval, s.Sscratch
	c.SatpReg, c.Scounteren = s.SatpReg, s.Scounteren
	c.Fflags, c.Frm = s.Fflags, s.Frm
	c.Tselect, c.Tdata1, c.Tdata2, c.Tdata3 = s.Tselect, s.Tdata1, s.Tdata2, s.Tdata3
	c.NumPMP, c.PMPCfg, c.PMPAddr = s.NumPMP, s.PMPCfg, s.PMPAddr

	h.SetReservation(s.ReservationValid, s.ReservationAddr, s.ReservationSize)
	h.TLB.Flush()
}

// Save writes m's full architectural state to path: a YAML header, a YAML
// array of per-hart state, and a dense binary dump of RAM.
func Save(path string, m *machine.Machine) error {
	cfg := m.Config()
	header := Header{
		Kind:           "rv64cosim",
		Version:        Version,
		HartCount:      len(m.Harts),
		MemorySizeMiB:  cfg.MemorySizeMiB,
		MemoryBaseAddr: cfg.MemoryBaseAddr,
	}

	harts := make([]hartState, len(m.Harts))
	for i, h := range m.Harts {
		harts[i] = captureHart(h)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeYAMLBlock(w, header); err != nil {
		return fmt.Errorf("snapshot: writing header: %w", err)
	}
	if err := writeYAMLBlock(w, harts); err != nil {
		return fmt.Errorf("snapshot: writing hart state: %w", err)
	}

	ram, err := m.Mem.Translate(cfg.MemoryBaseAddr)
	if err != nil {
		return fmt.Errorf("snapshot: locating RAM: %w", err)
	}
	if _, err := w.Write(ram.Bytes()); err != nil {
		return fmt.Errorf("snapshot: writing RAM dump: %w", err)
	}

	return w.Flush()
}

// Load reads a snapshot written by Save into m, which must already have
// been assembled with a matching hart count and RAM size (New is always
// called before Load: the machine's devices/bus are config-derived, only
// CPU-visible state round-trips).
func Load(path string, m *machine.Machine) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var header Header
	if err := readYAMLBlock(r, &header); err != nil {
		return fmt.Errorf("snapshot: reading header: %w", err)
	}
	if header.Kind != "rv64cosim" {
		return fmt.Errorf("snapshot: unrecognized kind %q", header.Kind)
	}
	if header.Version != Version {
		return fmt.Errorf("snapshot: version %d does not match %d", header.Version, Version)
	}
	if header.HartCount != len(m.Harts) {
		return fmt.Errorf("snapshot: hart_count %d does not match machine's %d",
			header.HartCount, len(m.Harts))
	}

	var harts []hartState
	if err := readYAMLBlock(r, &harts); err != nil {
		return fmt.Errorf("snapshot: reading hart state: %w", err)
	}
	if len(harts) != len(m.Harts) {
		return fmt.Errorf("snapshot: %d hart records for %d harts", len(harts), len(m.Harts))
	}
	for i, h := range m.Harts {
		restoreHart(h, harts[i])
	}

	ram, err := m.Mem.Translate(header.MemoryBaseAddr)
	if err != nil {
		return fmt.Errorf("snapshot: locating RAM: %w", err)
	}
	buf := ram.Bytes()
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("snapshot: reading RAM dump: %w", err)
	}
	if uint64(n) != header.MemorySizeMiB*1024*1024 {
		return fmt.Errorf("snapshot: truncated RAM dump: got %d bytes, want %d",
			n, header.MemorySizeMiB*1024*1024)
	}

	return nil
}

// writeYAMLBlock writes v as a length-prefixed YAML document so Load can
// read exactly the header and hart-state sections without a delimiter
// scan, then the remaining bytes are the raw RAM dump.
func writeYAMLBlock(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func readYAMLBlock(r io.Reader, v any) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	return yaml.Unmarshal(data, v)
}
