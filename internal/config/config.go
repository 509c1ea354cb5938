// Package config loads library settings and builds the library logger.
//
// Settings come from YAML and are checked against an embedded CUE schema,
// so a typo or an out-of-range value fails at load rather than at render.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed library.cue
var librarySchema string

// LogLevel mirrors the library log levels.
type LogLevel string

const (
	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
)

// Level converts to the slog level.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelDebug:
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// LoggingBackend selects where library logs go.
type LoggingBackend string

const (
	BackendNone   LoggingBackend = "none"
	BackendStderr LoggingBackend = "stderr"
)

// Library holds process-wide engine settings.
type Library struct {
	LogLevel       LogLevel       `yaml:"log_level" json:"log_level"`
	LoggingBackend LoggingBackend `yaml:"logging_backend" json:"logging_backend"`

	SampleRate int `yaml:"sample_rate" json:"sample_rate"`
	BlockSize  int `yaml:"block_size" json:"block_size"`

	EventQueueCapacity      int     `yaml:"event_queue_capacity" json:"event_queue_capacity"`
	AutomationLatencyBlocks int     `yaml:"automation_latency_blocks" json:"automation_latency_blocks"`
	DefaultLingerTimeout    float64 `yaml:"default_linger_timeout" json:"default_linger_timeout"`

	// BufferCacheSeconds enables the decoded-file cache when > 0.
	BufferCacheSeconds float64 `yaml:"buffer_cache_seconds" json:"buffer_cache_seconds"`
}

// Default returns the built-in settings.
func Default() Library {
	return Library{
		LogLevel:                LogLevelWarn,
		LoggingBackend:          BackendNone,
		SampleRate:              44100,
		BlockSize:               256,
		EventQueueCapacity:      1024,
		AutomationLatencyBlocks: 4,
	}
}

// BlockDuration returns the length of one block in seconds.
func (l Library) BlockDuration() float64 {
	return float64(l.BlockSize) / float64(l.SampleRate)
}

// Validate checks l against the schema.
func (l Library) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(librarySchema, cue.Filename("library.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile library schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Library"))

	v := def.Unify(ctx.Encode(l))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &Error{Message: cueerrors.Details(err, nil)}
	}
	return nil
}

// Parse reads YAML settings over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Library, error) {
	l := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&l); err != nil {
			return Library{}, &Error{Message: fmt.Sprintf("parse YAML: %v", err)}
		}
	}
	if err := l.Validate(); err != nil {
		return Library{}, err
	}
	return l, nil
}

// Load reads settings from a YAML file.
func Load(path string) (Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Library{}, fmt.Errorf("read config: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return Library{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// NewLogger builds the library logger. w is used by the stderr backend;
// nil means os.Stderr.
func (l Library) NewLogger(w io.Writer) *slog.Logger {
	if l.LoggingBackend != BackendStderr {
		return slog.New(slog.DiscardHandler)
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l.LogLevel.Level()}))
}

// Error is a configuration that failed to parse or validate.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "invalid config: " + e.Message
}
