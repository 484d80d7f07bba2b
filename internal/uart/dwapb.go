/*
 * rv64cosim - DW-APB UART register model
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

package uart

import "github.com/rcornwell/rv64cosim/internal/device"

// DW-APB register offsets and line-status bits (ported from
// _examples/original_source/dw_apb_uart.c; only the registers real guest
// 16550-style drivers actually touch are implemented).
const (
	dwRegRXBuf       = 0x00
	dwRegIntrEnable  = 0x04
	dwRegIntrID      = 0x08
	dwRegLineControl = 0x0C
	dwRegLineStatus  = 0x14
	dwRegComponentType = 0xFC

	lsrDataReady  = 1 << 0
	lsrTHRE       = 1 << 5
	lsrTEMT       = 1 << 6
	lcrDLAB       = 1 << 7
)

// DWAPB is the narrow DW-APB UART register model: a 16550-compatible
// line-status/control subset, no FIFO depth modeling or baud timing.
type DWAPB struct {
	cs     device.CharDevice
	lcr    byte
	ier    byte
	fcr    byte
	lsr    byte
	divLatch uint16
}

var _ device.MMIO = (*DWAPB)(nil)

// NewDWAPB wires cs as the byte sink/source; the line status register
// starts with THRE/TEMT set (transmit holding register empty), matching
// the original's post-reset state.
func NewDWAPB(cs device.CharDevice) *DWAPB {
	return &DWAPB{cs: cs, lsr: lsrTHRE | lsrTEMT}
}

func (u *DWAPB) dlab() bool { return u.lcr&lcrDLAB != 0 }

func (u *DWAPB) ReadMMIO(offset uint64, sizeLog2 uint) (uint64, error) {
	switch offset {
	case dwRegRXBuf:
		if u.dlab() {
			return uint64(u.divLatch & 0xFF), nil
		}
		if u.cs != nil {
			if b, ok := u.cs.ReadByte(); ok {
				return uint64(b), nil
			}
		}
		u.lsr &^= lsrDataReady
		return 0, nil
	case dwRegIntrEnable:
		if u.dlab() {
			return uint64(u.divLatch >> 8), nil
		}
		return uint64(u.ier), nil
	case dwRegIntrID:
		iid := byte(1)
		if u.fcr&1 != 0 {
			iid |= 0xC0
		}
		return uint64(iid), nil
	case dwRegLineControl:
		return uint64(u.lcr), nil
	case dwRegLineStatus:
		v := u.lsr
		u.lsr |= lsrTEMT | lsrTHRE
		return uint64(v), nil
	case dwRegComponentType:
		return 0, nil
	default:
		return 0, device.ErrBadSize
	}
}

func (u *DWAPB) WriteMMIO(offset uint64, sizeLog2 uint, value uint64) error {
	v := byte(value)
	switch offset {
	case dwRegRXBuf:
		if u.dlab() {
			u.divLatch = (u.divLatch &^ 0xFF) | uint16(v)
			return nil
		}
		if u.lsr&lsrTHRE != 0 {
			if u.cs != nil {
				u.cs.WriteByte(v)
			}
			return nil
		}
		return nil // transmit holding register busy: byte dropped
	case dwRegIntrEnable:
		if u.dlab() {
			u.divLatch = (u.divLatch & 0xFF) | uint16(v)<<8
			return nil
		}
		u.ier = v
		return nil
	case dwRegIntrID:
		u.fcr = v
		return nil
	case dwRegLineControl:
		u.lcr = v
		return nil
	default:
		return device.ErrBadSize
	}
}
