/*
 * rv64cosim - Standalone functional emulator
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

// Command rv64sim boots a configured machine and runs it to completion
// (or to a terminal interactive console), printing an instruction trace
// when asked. It is the non-cosim half of spec §6's CLI surface; see
// cmd/rv64cosim for the DUT-reconciling counterpart.
package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/rv64cosim/internal/console"
	"github.com/rcornwell/rv64cosim/internal/logging"
	"github.com/rcornwell/rv64cosim/internal/machine"
	"github.com/rcornwell/rv64cosim/internal/machineconfig"
	"github.com/rcornwell/rv64cosim/internal/snapshot"
	"github.com/rcornwell/rv64cosim/internal/trace"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Machine description (JSON)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optInteractive := getopt.BoolLong("interactive", 'i', "Start the debug console instead of running unattended")
	optHart := getopt.IntLong("hart", 0, 0, "Hart the debug console defaults to")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	flags := machineconfig.RegisterFlags()
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}
	if *optConfig == "" {
		os.Stderr.WriteString("rv64sim: --config is required\n")
		os.Exit(1)
	}

	var logFile *os.File
	if *optLogFile != "" {
		var err error
		logFile, err = os.Create(*optLogFile)
		if err != nil {
			os.Stderr.WriteString("rv64sim: creating log file: " + err.Error() + "\n")
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

	logger.Info("rv64sim starting", "config", *optConfig, "hart_count", cfg.HartCount)

	con := newStdioConsole()
	m, err := machine.New(*cfg, con, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if cfg.TerminateName != "" {
		m.RegisterTerminateEvent(machine.TerminateEvent(cfg.TerminateName))
	}
	if cfg.LoadSnapshot != "" {
		if err := snapshot.Load(cfg.LoadSnapshot, m); err != nil {
			logger.Error("loading snapshot: " + err.Error())
			os.Exit(1)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("rv64sim: received shutdown signal")
		m.Signal("sigint")
	}()

	if *optInteractive {
		sess := console.NewSession(m, *optHart, os.Stdout)
		console.Run(sess, "rv64sim> ")
	} else {
		out := io.Writer(io.Discard)
		offset := 0
		if cfg.TraceLevel > 0 {
			out = os.Stdout
			offset = cfg.TraceLevel
		}
		tw := trace.New(out, offset)
		retired, reason := tw.Run(m, cfg.MaxInsns)
		logger.Info("rv64sim: run finished", "retired", retired, "reason", int(reason),
			"terminate_reason", string(m.TerminateReason))
	}

	if cfg.SaveSnapshot != "" {
		if err := snapshot.Save(cfg.SaveSnapshot, m); err != nil {
			logger.Error("saving snapshot: " + err.Error())
			os.Exit(1)
		}
	}

	if logFile != nil {
		logFile.Close()
	}
}
