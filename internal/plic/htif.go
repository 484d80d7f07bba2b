/*
 * rv64cosim - HTIF console/shutdown bridge
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

package plic

import (
	"log/slog"

	"github.com/rcornwell/rv64cosim/internal/device"
)

const (
	htifToHostOffset   = 0x00
	htifFromHostOffset = 0x08
)

// HTIF bridges the Berkeley host-target interface: the hart writes a
// packed command word to tohost, the host services it and, for console
// writes, echoes an acknowledgement into fromhost (spec §9).
type HTIF struct {
	fromhost uint64
	console  device.CharDevice
	onHalt   func()
	log      *slog.Logger
}

var _ device.MMIO = (*HTIF)(nil)

// NewHTIF wires the console sink and shutdown callback; either may be nil,
// in which case console bytes are dropped and shutdown is a no-op.
func NewHTIF(console device.CharDevice, onHalt func(), log *slog.Logger) *HTIF {
	if log == nil {
		log = slog.Default()
	}
	return &HTIF{console: console, onHalt: onHalt, log: log}
}

func (h *HTIF) ReadMMIO(offset uint64, sizeLog2 uint) (uint64, error) {
	switch offset {
	case htifToHostOffset:
		return 0, nil
	case htifFromHostOffset:
		return h.fromhost, nil
	default:
		return 0, device.ErrBadSize
	}
}

func (h *HTIF) WriteMMIO(offset uint64, sizeLog2 uint, value uint64) error {
	switch offset {
	case htifToHostOffset:
		h.handleToHost(value)
		return nil
	case htifFromHostOffset:
		h.fromhost = value
		return nil
	default:
		return device.ErrBadSize
	}
}

// handleToHost decodes the packed (device<<56)|(cmd<<48)|payload word per
// spec §9: device=1 cmd=1 is a console byte write, tohost==1 is shutdown,
// everything else is logged and dropped.
func (h *HTIF) handleToHost(value uint64) {
	if value == 1 {
		if h.onHalt != nil {
			h.onHalt()
		}
		return
	}

	dev := value >> 56
	cmd := (value >> 48) & 0xFF
	payload := value & 0xFFFFFFFFFFFF

	if dev == 1 && cmd == 1 {
		if h.console != nil {
			h.console.WriteByte(byte(payload & 0xFF))
		}
		h.fromhost = (uint64(1) << 56) | (uint64(1) << 48)
		return
	}

	h.log.Warn("htif: unrecognized tohost command", "device", dev, "cmd", cmd, "payload", payload)
}
