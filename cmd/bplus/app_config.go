package main

import (
	"flag"

	"github.com/cockroachdb/errors"

	"github.com/conuredb/bplus/pkg/config"
)

// LoadEffectiveConfig defines CLI flags on fs, parses args and the optional
// YAML config, applies CLI overrides, and returns the validated effective
// configuration.
func LoadEffectiveConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	var (
		configPath      string
		logLevel        string
		historyFile     string
		prompt          string
		order           settableInt
		logJSON         settableBool
		noColor         settableBool
		metricsInterval settableDuration
	)

	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.Var(&order, "order", "B+Tree order, the maximum number of entries per node (>= 4)")
	fs.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	fs.Var(&logJSON, "log-json", "emit logs as JSON")
	fs.Var(&metricsInterval, "metrics-interval", "in-memory metrics aggregation interval (e.g., 10s)")
	fs.StringVar(&historyFile, "history-file", "", "REPL history file")
	fs.StringVar(&prompt, "prompt", "", "REPL prompt")
	fs.Var(&noColor, "no-color", "disable colored output")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfgFile, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, errors.Wrapf(err, "load config %q", configPath)
	}

	cli := CLIOverrides{
		LogLevel:    logLevel,
		HistoryFile: historyFile,
		Prompt:      prompt,
	}
	if order.set {
		cli.Order = &order.val
	}
	if logJSON.set {
		cli.LogJSON = &logJSON.val
	}
	if noColor.set {
		cli.NoColor = &noColor.val
	}
	if metricsInterval.set {
		cli.MetricsInterval = &metricsInterval.val
	}

	cfg := mergeConfig(cfgFile, cli)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
