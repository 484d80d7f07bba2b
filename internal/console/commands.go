/*
 * rv64cosim - Console command table
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

package console

import (
	"errors"
	"fmt"
)

type cmd struct {
	name    string
	min     int // minimum unambiguous abbreviation length
	process func(*cmdLine, *Session) (bool, error)
}

var cmdList = []cmd{
	{name: "step", min: 1, process: cmdStep},
	{name: "continue", min: 1, process: cmdContinue},
	{name: "examine", min: 2, process: cmdExamine},
	{name: "deposit", min: 2, process: cmdDeposit},
	{name: "break", min: 2, process: cmdBreak},
	{name: "unbreak", min: 3, process: cmdUnbreak},
	{name: "show", min: 1, process: cmdShow},
	{name: "trace", min: 2, process: cmdTrace},
	{name: "quit", min: 1, process: cmdQuit},
}

// matchList returns every command whose name starts with name and is at
// least as long as its registered minimum abbreviation.
func matchList(name string) []cmd {
	var out []cmd
	for _, c := range cmdList {
		if len(name) < c.min || len(name) > len(c.name) {
			continue
		}
		if c.name[:len(name)] == name {
			out = append(out, c)
		}
	}
	return out
}

// ProcessCommand parses and executes one line of console input against s.
func ProcessCommand(text string, s *Session) (bool, error) {
	line := &cmdLine{line: text}
	name := line.getWord()
	if name == "" {
		return false, nil
	}

	match := matchList(name)
	switch len(match) {
	case 0:
		return false, errors.New("command not found: " + name)
	case 1:
		return match[0].process(line, s)
	default:
		return false, errors.New("ambiguous command: " + name)
	}
}

// CompleteCmd is the liner completer: it proposes every command name
// matching the partial word typed so far.
func CompleteCmd(text string) []string {
	line := &cmdLine{line: text}
	name := line.getWord()
	match := matchList(name)
	names := make([]string, len(match))
	for i, c := range match {
		names[i] = c.name
	}
	return names
}

func cmdStep(l *cmdLine, s *Session) (bool, error) {
	n := uint64(1)
	if !l.isEOL() {
		v, err := l.getNumber()
		if err != nil {
			return false, fmt.Errorf("step: %w", err)
		}
		n = v
	}
	h := s.hartState()
	for i := uint64(0); i < n; i++ {
		if h.TerminateSimulation {
			break
		}
		if !s.tw.Step(h) {
			if h.PowerDown {
				fmt.Fprintln(s.out, "-- halted: waiting for interrupt --")
				break
			}
			// an interrupt was serviced or a trap delivered without a
			// retirement this cycle; it doesn't count against n.
			i--
		}
	}
	if s.m.TerminateReason != "" {
		fmt.Fprintf(s.out, "-- power off: %s --\n", s.m.TerminateReason)
	}
	return false, nil
}

// cmdContinue runs hart s.hart until it hits a registered breakpoint, the
// machine terminates, or it parks on WFI with no progress to make —
// printing commit records along the way when tracing is enabled.
func cmdContinue(_ *cmdLine, s *Session) (bool, error) {
	h := s.hartState()
	for {
		if h.TerminateSimulation || s.m.TerminateReason != "" {
			fmt.Fprintf(s.out, "-- power off: %s --\n", s.m.TerminateReason)
			return false, nil
		}
		if s.bps[h.PC] {
			fmt.Fprintf(s.out, "breakpoint at %#016x\n", h.PC)
			return false, nil
		}

		var retired bool
		if s.tracing {
			retired = s.tw.Step(h)
		} else {
			retired, _, _, _, _ = h.CosimAdvance()
		}
		if !retired && h.PowerDown {
			fmt.Fprintln(s.out, "-- halted: waiting for interrupt --")
			return false, nil
		}
	}
}

func cmdExamine(l *cmdLine, s *Session) (bool, error) {
	h := s.hartState()
	tok := l.getWord()
	if r, ok := xregIndex(tok); ok {
		fmt.Fprintf(s.out, "x%d (%s) = %#016x\n", r, tok, h.Regs[r])
		return false, nil
	}
	if r, ok := fregIndex(tok); ok {
		fmt.Fprintf(s.out, "f%d (%s) = %#016x\n", r, tok, h.FRegs[r])
		return false, nil
	}
	l.pos -= len(tok)
	addr, err := l.getNumber()
	if err != nil {
		return false, fmt.Errorf("examine: %w", err)
	}
	v, err := s.m.Mem.Read(addr, 2)
	if err != nil {
		return false, fmt.Errorf("examine %#x: %w", addr, err)
	}
	fmt.Fprintf(s.out, "%#016x: %#010x\n", addr, v)
	return false, nil
}

func cmdDeposit(l *cmdLine, s *Session) (bool, error) {
	h := s.hartState()
	tok := l.getWord()
	if r, ok := xregIndex(tok); ok {
		v, err := l.getNumber()
		if err != nil {
			return false, fmt.Errorf("deposit: %w", err)
		}
		if r != 0 {
			h.Regs[r] = v
		}
		return false, nil
	}
	l.pos -= len(tok)
	addr, err := l.getNumber()
	if err != nil {
		return false, fmt.Errorf("deposit: %w", err)
	}
	v, err := l.getNumber()
	if err != nil {
		return false, fmt.Errorf("deposit: %w", err)
	}
	return false, s.m.Mem.Write(addr, 2, v)
}

func cmdBreak(l *cmdLine, s *Session) (bool, error) {
	addr, err := l.getNumber()
	if err != nil {
		return false, fmt.Errorf("break: %w", err)
	}
	s.bps[addr] = true
	return false, nil
}

func cmdUnbreak(l *cmdLine, s *Session) (bool, error) {
	addr, err := l.getNumber()
	if err != nil {
		return false, fmt.Errorf("unbreak: %w", err)
	}
	delete(s.bps, addr)
	return false, nil
}

func cmdShow(l *cmdLine, s *Session) (bool, error) {
	h := s.hartState()
	switch l.getWord() {
	case "", "hart":
		fmt.Fprintf(s.out, "hart %d: priv %s pc %#016x minstret %d\n",
			h.ID, h.CSR.Priv, h.PC, h.Minstret)
	case "regs":
		for r := 0; r < 32; r++ {
			fmt.Fprintf(s.out, "x%-2d 0x%016x\n", r, h.Regs[r])
		}
	default:
		return false, errors.New("show: unknown target")
	}
	return false, nil
}

func cmdTrace(l *cmdLine, s *Session) (bool, error) {
	switch l.getWord() {
	case "on":
		s.tracing = true
	case "off":
		s.tracing = false
	default:
		return false, errors.New("trace: expected on or off")
	}
	return false, nil
}

func cmdQuit(_ *cmdLine, _ *Session) (bool, error) {
	return true, nil
}
