/*
 * rv64cosim - Co-simulation oracle driver
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

// Command rv64cosim drives the co-simulation oracle (internal/cosim) from
// a recorded DUT retirement trace rather than a live hardware harness,
// reconciling the model against each reported pc/insn/wdata record and
// stopping at the first divergence (spec §4.8's cosim_step contract). A
// real DUT harness would call cosim.Oracle.Step directly across the
// stable C-API boundary one layer up; this binary stands in for that
// harness so the oracle can be exercised and scripted from the shell.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/rv64cosim/internal/cosim"
	"github.com/rcornwell/rv64cosim/internal/logging"
	"github.com/rcornwell/rv64cosim/internal/machine"
	"github.com/rcornwell/rv64cosim/internal/machineconfig"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Machine description (JSON)")
	optDUT := getopt.StringLong("dut-trace", 0, "", "DUT retirement trace file")
	optHart := getopt.IntLong("hart", 0, 0, "Hart the trace drives")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	flags := machineconfig.RegisterFlags()
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}
	if *optConfig == "" || *optDUT == "" {
		os.Stderr.WriteString("rv64cosim: --config and --dut-trace are required\n")
		os.Exit(1)
	}

	var logFile *os.File
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			os.Stderr.WriteString("rv64cosim: creating log file: " + err.Error() + "\n")
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	logger := slog.New(logging.NewHandler(logFile, &slog.HandlerOptions{Level: programLevel}, false))
	slog.SetDefault(logger)

	cfg, err := machineconfig.Load(*optConfig)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	flags.Apply(cfg)

	traceFile, err := os.Open(*optDUT)
	if err != nil {
		logger.Error("opening DUT trace: " + err.Error())
		os.Exit(1)
	}
	records, err := readDUTTrace(traceFile)
	traceFile.Close()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	m, err := machine.New(*cfg, nil, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	oracle, err := m.Oracle(*optHart)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	for i, rec := range records {
		code := oracle.Step(rec.pc, uint32(rec.insn), rec.wdata, rec.ghrEna, rec.ghrLo, rec.ghrHi, true)
		switch code {
		case cosim.ExitContinue:
			continue
		case cosim.ExitFinished:
			logger.Info("rv64cosim: run finished", "steps", i+1)
			os.Exit(0)
		case cosim.ExitMismatch:
			h := m.Harts[*optHart]
			fmt.Fprintf(os.Stderr, "[error] EMU PC %#016x insn %#08x vs DUT PC %#016x insn %#08x (step %d)\n",
				h.PC, rec.insn, rec.pc, rec.insn, i+1)
			os.Exit(2)
		default:
			fmt.Fprintf(os.Stderr, "[error] fatal trap mismatch at step %d\n", i+1)
			os.Exit(2)
		}
	}

	logger.Info("rv64cosim: trace exhausted", "steps", len(records))

	if logFile != nil {
		logFile.Close()
	}
}
