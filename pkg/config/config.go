package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/conuredb/bplus/btree"
)

// Config defines runtime configuration loaded from YAML and/or flags.
type Config struct {
	Order           int           `yaml:"order"`
	LogLevel        string        `yaml:"log_level"`
	LogJSON         bool          `yaml:"log_json"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
	HistoryFile     string        `yaml:"history_file"`
	Prompt          string        `yaml:"prompt"`
	NoColor         bool          `yaml:"no_color"`
}

// Load reads a YAML config file from path. If path is empty or the file
// does not exist, returns an empty Config and nil error.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close config file %q: %v\n", path, closeErr)
		}
	}()
	return Decode(f)
}

// Decode parses a YAML document. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used. Zero values are
// accepted; they are replaced by defaults later.
func (c Config) Validate() error {
	if c.Order != 0 && c.Order < btree.MinOrder {
		return errors.Wrapf(btree.ErrInvalidOrder, "config order %d", c.Order)
	}
	if c.LogLevel != "" && hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return errors.Newf("config log_level %q is not a log level", c.LogLevel)
	}
	if c.MetricsInterval < 0 {
		return errors.Newf("config metrics_interval %s is negative", c.MetricsInterval)
	}
	return nil
}
