package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	metrics "github.com/armon/go-metrics"
	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"github.com/conuredb/bplus/db"
	"github.com/conuredb/bplus/pkg/config"
)

func main() {
	cfg, err := LoadEffectiveConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "bplus: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if cfg.NoColor {
		color.NoColor = true
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cfg.Prompt,
		HistoryFile:       cfg.HistoryFile,
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return errors.Wrap(err, "start line editor")
	}
	defer func() {
		if closeErr := rl.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close line editor: %v\n", closeErr)
		}
	}()

	logger := newLogger(cfg, rl.Stderr())

	sink := metrics.NewInmemSink(cfg.MetricsInterval, 6*cfg.MetricsInterval)
	signal := metrics.DefaultInmemSignal(sink)
	defer signal.Stop()
	mconf := metrics.DefaultConfig("bplus")
	mconf.EnableHostname = false
	mconf.EnableRuntimeMetrics = false
	m, err := metrics.New(mconf, sink)
	if err != nil {
		return errors.Wrap(err, "init metrics")
	}

	database, err := db.Open(db.Options{Order: cfg.Order, Logger: logger, Metrics: m})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			logger.Warn("failed to close database", "error", closeErr)
		}
	}()

	out := rl.Stdout()
	fmt.Fprintln(out, "bplus - in-memory B+Tree key-value store")
	fmt.Fprintf(out, "order %d, type 'help' for available commands\n", cfg.Order)
	logger.Info("repl started", "order", cfg.Order, "history", cfg.HistoryFile)

	s := &session{db: database, sink: sink, out: out, logger: logger}
	s.run(rl)
	return nil
}

func newLogger(cfg config.Config, out io.Writer) hclog.Logger {
	opts := &hclog.LoggerOptions{
		Name:       "bplus",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
		Output:     out,
		Color:      hclog.AutoColor,
	}
	if cfg.NoColor || cfg.LogJSON {
		opts.Color = hclog.ColorOff
	}
	return hclog.New(opts)
}
