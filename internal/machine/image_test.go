/*
 * rv64cosim - BIOS/kernel image loading tests
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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadImagesCopiesBiosToRAMBase(t *testing.T) {
	cfg := testConfig()
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	cfg.Bios = filepath.Join(t.TempDir(), "bios.bin")
	if err := os.WriteFile(cfg.Bios, payload, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i, want := range payload {
		got, err := m.Mem.Read(cfg.MemoryBaseAddr+uint64(i), 0)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if byte(got) != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
}

func TestLoadImagesRejectsMissingBios(t *testing.T) {
	cfg := testConfig()
	cfg.Bios = filepath.Join(t.TempDir(), "does-not-exist.bin")
	if _, err := New(cfg, nil, nil); err == nil {
		t.Fatalf("New: want an error for a missing bios file")
	}
}
