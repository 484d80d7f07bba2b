/*
 * rv64cosim - BIOS/kernel image loading
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
	"fmt"
	"os"

	"github.com/rcornwell/rv64cosim/internal/elfload"
	"github.com/rcornwell/rv64cosim/internal/memory"
)

// loadImages maps cfg.Bios (a raw binary blob, OpenSBI-style) and/or
// cfg.Kernel (an ELF64 image) into RAM at MemoryBaseAddr. The reset ROM
// always jumps to RAM base (spec §4.9), so either image's entry point must
// coincide with that address; a kernel ELF whose PT_LOAD segments start
// elsewhere is still honored for its own load addresses, only the initial
// jump target is fixed.
func (m *Machine) loadImages() error {
	if m.cfg.Bios != "" {
		data, err := os.ReadFile(m.cfg.Bios)
		if err != nil {
			return fmt.Errorf("machine: reading bios %s: %w", m.cfg.Bios, err)
		}
		if err := copyRaw(m.Mem, m.cfg.MemoryBaseAddr, data); err != nil {
			return fmt.Errorf("machine: loading bios %s: %w", m.cfg.Bios, err)
		}
	}

	if m.cfg.Kernel != "" {
		data, err := os.ReadFile(m.cfg.Kernel)
		if err != nil {
			return fmt.Errorf("machine: reading kernel %s: %w", m.cfg.Kernel, err)
		}
		if _, err := elfload.Load(data, m.Mem); err != nil {
			return fmt.Errorf("machine: loading kernel %s: %w", m.cfg.Kernel, err)
		}
	}

	return nil
}

// copyRaw writes a flat binary image starting at base, the loading style a
// BIOS blob (as opposed to a relocatable ELF) uses.
func copyRaw(mem *memory.Map, base uint64, data []byte) error {
	r, err := mem.Translate(base)
	if err != nil {
		return err
	}
	buf := r.Bytes()
	off := base - r.Base
	if off+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("image of %d bytes at %#x overruns its RAM range", len(data), base)
	}
	copy(buf[off:], data)
	return nil
}
