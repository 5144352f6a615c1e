package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/conuredb/bplus/btree"
	"github.com/conuredb/bplus/pkg/config"
)

const (
	defaultLogLevel        = "info"
	defaultMetricsInterval = 10 * time.Second
	defaultPrompt          = "> "
)

// CLIOverrides carries CLI-provided values. Empty strings mean "not set".
// For the rest, a pointer is used to detect if the flag was explicitly set.
type CLIOverrides struct {
	Order           *int
	LogLevel        string
	LogJSON         *bool
	MetricsInterval *time.Duration
	HistoryFile     string
	Prompt          string
	NoColor         *bool
}

func mergeConfig(fileCfg config.Config, cli CLIOverrides) config.Config {
	cfg := fileCfg

	if cli.Order != nil {
		cfg.Order = *cli.Order
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogJSON != nil {
		cfg.LogJSON = *cli.LogJSON
	}
	if cli.MetricsInterval != nil {
		cfg.MetricsInterval = *cli.MetricsInterval
	}
	if cli.HistoryFile != "" {
		cfg.HistoryFile = cli.HistoryFile
	}
	if cli.Prompt != "" {
		cfg.Prompt = cli.Prompt
	}
	if cli.NoColor != nil {
		cfg.NoColor = *cli.NoColor
	}

	// Defaults for any still-empty values
	if cfg.Order == 0 {
		cfg.Order = btree.DefaultOrder
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.MetricsInterval == 0 {
		cfg.MetricsInterval = defaultMetricsInterval
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(os.TempDir(), "bplus.history")
	}
	if cfg.Prompt == "" {
		cfg.Prompt = defaultPrompt
	}

	return cfg
}
