package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	l := Default()
	require.NoError(t, l.Validate())
	assert.Equal(t, 44100, l.SampleRate)
	assert.Equal(t, 256, l.BlockSize)
	assert.Equal(t, 1024, l.EventQueueCapacity)
	assert.Equal(t, 4, l.AutomationLatencyBlocks)
	assert.InDelta(t, 256.0/44100.0, l.BlockDuration(), 1e-12)
}

func TestParse_OverridesDefaults(t *testing.T) {
	l, err := Parse([]byte(`
log_level: debug
logging_backend: stderr
sample_rate: 48000
block_size: 128
default_linger_timeout: 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, l.LogLevel)
	assert.Equal(t, BackendStderr, l.LoggingBackend)
	assert.Equal(t, 48000, l.SampleRate)
	assert.Equal(t, 128, l.BlockSize)
	assert.Equal(t, 1024, l.EventQueueCapacity, "unset keys keep defaults")
	assert.Equal(t, 0.5, l.DefaultLingerTimeout)
}

func TestParse_Empty(t *testing.T) {
	l, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), l)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "sampel_rate: 44100\n",
		"bad level":       "log_level: loud\n",
		"bad backend":     "logging_backend: syslog\n",
		"low rate":        "sample_rate: 100\n",
		"tiny block":      "block_size: 1\n",
		"zero capacity":   "event_queue_capacity: 0\n",
		"negative linger": "default_linger_timeout: -1\n",
		"not yaml":        "sample_rate: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			var ce *Error
			require.True(t, errors.As(err, &ce), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synthplane.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: 512\n"), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, l.BlockSize)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	l := Default()
	l.NewLogger(&buf).Error("dropped")
	assert.Empty(t, buf.String(), "backend none discards")

	l.LoggingBackend = BackendStderr
	l.LogLevel = LogLevelWarn
	logger := l.NewLogger(&buf)
	logger.Info("filtered")
	logger.Warn("kept", "handle", "h:1.0")
	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "handle=h:1.0")
}
