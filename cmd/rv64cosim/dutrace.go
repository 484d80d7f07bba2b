/*
 * rv64cosim - DUT retirement trace reader
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

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// dutRecord is one line of a DUT retirement trace: the hardware's
// reported pc/insn/wdata for cosim.Oracle.Step to reconcile against the
// model, plus the optional global-history-register check spec §4.8.7
// describes. A line beginning with '#' or blank is skipped.
//
// Fields, space separated, hex or decimal: pc insn wdata [ghr_lo ghr_hi].
// ghr_lo/ghr_hi present enables the GHR check for that step.
type dutRecord struct {
	pc, insn, wdata uint64
	ghrEna          bool
	ghrLo, ghrHi    uint64
}

func parseUint(tok string) (uint64, error) {
	base := 10
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		tok = tok[2:]
		base = 16
	}
	return strconv.ParseUint(tok, base, 64)
}

// readDUTTrace parses every non-comment, non-blank line of r into a
// dutRecord, in file order.
func readDUTTrace(r io.Reader) ([]dutRecord, error) {
	var records []dutRecord
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 && len(fields) != 5 {
			return nil, fmt.Errorf("dutrace: line %d: want 3 or 5 fields, got %d", lineNo, len(fields))
		}
		rec := dutRecord{}
		var err error
		if rec.pc, err = parseUint(fields[0]); err != nil {
			return nil, fmt.Errorf("dutrace: line %d: pc: %w", lineNo, err)
		}
		if rec.insn, err = parseUint(fields[1]); err != nil {
			return nil, fmt.Errorf("dutrace: line %d: insn: %w", lineNo, err)
		}
		if rec.wdata, err = parseUint(fields[2]); err != nil {
			return nil, fmt.Errorf("dutrace: line %d: wdata: %w", lineNo, err)
		}
		if len(fields) == 5 {
			rec.ghrEna = true
			if rec.ghrLo, err = parseUint(fields[3]); err != nil {
				return nil, fmt.Errorf("dutrace: line %d: ghr_lo: %w", lineNo, err)
			}
			if rec.ghrHi, err = parseUint(fields[4]); err != nil {
				return nil, fmt.Errorf("dutrace: line %d: ghr_hi: %w", lineNo, err)
			}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dutrace: %w", err)
	}
	return records, nil
}
