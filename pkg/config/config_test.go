package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conuredb/bplus/btree"
)

func TestLoadMissingFile(t *testing.T) {
	re := require.New(t)

	cfg, err := Load("")
	re.NoError(err)
	re.Equal(Config{}, cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	re.NoError(err)
	re.Equal(Config{}, cfg)
}

func TestLoadFile(t *testing.T) {
	re := require.New(t)
	path := filepath.Join(t.TempDir(), "bplus.yaml")
	doc := `order: 8
log_level: debug
log_json: true
metrics_interval: 30s
history_file: /tmp/bplus_history
prompt: "bplus> "
no_color: true
`
	re.NoError(os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	re.NoError(err)
	re.Equal(Config{
		Order:           8,
		LogLevel:        "debug",
		LogJSON:         true,
		MetricsInterval: 30 * time.Second,
		HistoryFile:     "/tmp/bplus_history",
		Prompt:          "bplus> ",
		NoColor:         true,
	}, cfg)
	re.NoError(cfg.Validate())
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("fanout: 8\n"))
	require.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)
}

func TestValidate(t *testing.T) {
	re := require.New(t)

	re.NoError(Config{}.Validate())

	err := Config{Order: 3}.Validate()
	re.Error(err)
	re.True(errors.Is(err, btree.ErrInvalidOrder))

	re.Error(Config{LogLevel: "loud"}.Validate())
	re.NoError(Config{LogLevel: "TRACE"}.Validate())
	re.Error(Config{MetricsInterval: -time.Second}.Validate())
}
