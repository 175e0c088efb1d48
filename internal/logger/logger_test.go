package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesLevelAndFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Format = "json"

	log, closer, err := New(cfg)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "chatty"

	log, _, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestFileOutputWritesRotatedFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.Path = filepath.Join(t.TempDir(), "logs")

	log, closer, err := New(cfg)
	require.NoError(t, err)

	Module(log, "orders").WithField("invoice", "INV-1").Info("order saved")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(cfg.Path, cfg.File))
	require.NoError(t, err)
	assert.Contains(t, string(data), "order saved")
	assert.Contains(t, string(data), "module=orders")
}
