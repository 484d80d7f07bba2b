/*
 * rv64cosim - Device capability interfaces
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

// Package device defines the narrow capability interfaces the bus dispatches
// to. Each boundary gets its own small interface instead of one fat device
// type, so a component can only reach the capability it was registered for.
package device

import "fmt"

// MMIO is an addressable register window. Offset is relative to the range's
// base; sizeLog2 is 0..3 for byte..doubleword. A device that cannot service a
// size returns ErrBadSize.
type MMIO interface {
	ReadMMIO(offset uint64, sizeLog2 uint) (uint64, error)
	WriteMMIO(offset uint64, sizeLog2 uint, value uint64) error
}

// ErrBadSize is returned by an MMIO device when asked for an access width it
// does not implement; the bus turns this into a load/store access fault.
var ErrBadSize = fmt.Errorf("device: unsupported access size")

// DMA reports whether a device may initiate bus-master memory accesses.
// Nearly every device answers false; it exists so the bus can special-case
// ones that answer true without a type assertion.
type DMA interface {
	CanDMA() bool
}

// CharDevice is a byte-oriented external console or serial port. It backs
// both the SiFive UART and DW-APB UART register models in internal/uart.
type CharDevice interface {
	// ReadByte returns a received byte and true, or false if none pending.
	ReadByte() (byte, bool)
	// WriteByte transmits one byte; never blocks the emulated hart.
	WriteByte(b byte)
}

// IRQLine lets a device assert or deassert its PLIC input without handing it
// a reference to the whole interrupt controller.
type IRQLine interface {
	Assert()
	Deassert()
}

// BlockBackend is a narrow file-backed block device, the external collaborator
// named by spec §1's "block-device file backends".
type BlockBackend interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	SectorCount() int64
}
