/*
 * rv64cosim - ELF64 kernel loader tests
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

package elfload

import (
	"encoding/binary"
	"testing"

	"github.com/rcornwell/rv64cosim/internal/memory"
)

// buildELF assembles a minimal ELF64 image with a single PT_LOAD segment
// carrying payload, loaded at vaddr with entry as e_entry. bssExtra bytes
// beyond len(payload) are requested via p_memsz without backing file bytes,
// exercising the BSS zero-fill path.
func buildELF(entry, vaddr uint64, payload []byte, bssExtra uint64) []byte {
	const phoff = ehdrSize
	buf := make([]byte, phoff+phdrSize+len(payload))

	buf[0], buf[1], buf[2], buf[3] = 0x7F, 'E', 'L', 'F'
	buf[4] = elfClass64
	buf[5] = elfData2LSB
	binary.LittleEndian.PutUint16(buf[18:20], emRISCV)
	binary.LittleEndian.PutUint64(buf[24:32], entry)
	binary.LittleEndian.PutUint64(buf[32:40], phoff)
	binary.LittleEndian.PutUint16(buf[54:56], phdrSize)
	binary.LittleEndian.PutUint16(buf[56:58], 1)

	ph := buf[phoff : phoff+phdrSize]
	binary.LittleEndian.PutUint32(ph[0:4], ptLoad)
	binary.LittleEndian.PutUint64(ph[8:16], uint64(phoff+phdrSize))
	binary.LittleEndian.PutUint64(ph[24:32], vaddr)
	binary.LittleEndian.PutUint64(ph[32:40], uint64(len(payload)))
	binary.LittleEndian.PutUint64(ph[40:48], uint64(len(payload))+bssExtra)

	copy(buf[phoff+phdrSize:], payload)
	return buf
}

func TestIsRISCV64RejectsShortAndBadMagic(t *testing.T) {
	if IsRISCV64([]byte{0x7F, 'E', 'L'}) {
		t.Fatalf("short buffer accepted")
	}
	bad := buildELF(0x1000, 0x1000, []byte{1, 2, 3}, 0)
	bad[1] = 'X'
	if IsRISCV64(bad) {
		t.Fatalf("bad magic accepted")
	}
}

func TestLoadCopiesPayloadAndZerosBSS(t *testing.T) {
	const base = 0x8000_0000
	mem := memory.New()
	if _, err := mem.RegisterRAM(base, 0x10000); err != nil {
		t.Fatalf("RegisterRAM: %v", err)
	}

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	img := buildELF(base+0x10, base, payload, 4)

	got, err := Load(img, mem)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Entry != base+0x10 {
		t.Fatalf("Entry = %#x, want %#x", got.Entry, base+0x10)
	}

	r, err := mem.Translate(base)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	buf := r.Bytes()
	for i, want := range payload {
		if buf[i] != want {
			t.Fatalf("byte %d = %#x, want %#x", i, buf[i], want)
		}
	}
	for i := len(payload); i < len(payload)+4; i++ {
		if buf[i] != 0 {
			t.Fatalf("bss byte %d = %#x, want 0", i, buf[i])
		}
	}
}

func TestLoadRejectsNonRISCVImage(t *testing.T) {
	mem := memory.New()
	if _, err := mem.RegisterRAM(0x8000_0000, 0x1000); err != nil {
		t.Fatalf("RegisterRAM: %v", err)
	}
	bad := make([]byte, ehdrSize)
	if _, err := Load(bad, mem); err == nil {
		t.Fatalf("expected error for non-ELF image")
	}
}

func TestLoadRejectsSegmentOutsideRAM(t *testing.T) {
	mem := memory.New()
	if _, err := mem.RegisterRAM(0x8000_0000, 0x1000); err != nil {
		t.Fatalf("RegisterRAM: %v", err)
	}
	img := buildELF(0x9000_0000, 0x9000_0000, []byte{1, 2, 3}, 0)
	if _, err := Load(img, mem); err == nil {
		t.Fatalf("expected error for segment outside any registered range")
	}
}
