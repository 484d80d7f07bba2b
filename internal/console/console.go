/*
 * rv64cosim - Interactive hart-inspection console
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

// Package console is an optional interactive debug REPL for cmd/rv64sim:
// step/continue a hart, examine and deposit registers or memory, and set
// breakpoints, between the batches a non-interactive run would otherwise
// execute unattended. It is line-edited by github.com/peterh/liner the
// same way the teacher's command/reader wires it.
package console

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/peterh/liner"

	"github.com/rcornwell/rv64cosim/internal/cpu"
	"github.com/rcornwell/rv64cosim/internal/machine"
	"github.com/rcornwell/rv64cosim/internal/trace"
)

// Session is the console's view of one machine: which hart commands
// default to, where output goes, and the breakpoint set "continue" stops
// on.
type Session struct {
	m       *machine.Machine
	hart    int
	out     io.Writer
	bps     map[uint64]bool
	tracing bool
	tw      *trace.Writer
}

// NewSession builds a console session over m, focused on hart hartid;
// commands that don't name a hart explicitly act on it.
func NewSession(m *machine.Machine, hartid int, out io.Writer) *Session {
	return &Session{
		m:    m,
		hart: hartid,
		out:  out,
		bps:  map[uint64]bool{},
		tw:   trace.New(out, 0),
	}
}

func (s *Session) hartState() *cpu.Hart { return s.m.Harts[s.hart] }

// Run drives an interactive liner prompt until the user quits or aborts
// with Ctrl-D/Ctrl-C, the same Prompt/AppendHistory/ErrPromptAborted loop
// shape as the teacher's command/reader.ConsoleReader.
func Run(s *Session, prompt string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		return CompleteCmd(partial)
	})

	for {
		text, err := line.Prompt(prompt)
		if err == nil {
			line.AppendHistory(text)
			quit, cmdErr := ProcessCommand(text, s)
			if cmdErr != nil {
				fmt.Fprintln(s.out, "error: "+cmdErr.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("console: reading line: " + err.Error())
		return
	}
}
