// Package syz is the process-wide facade over the synthplane engine.
//
// Initialize creates the one library instance; every other function operates
// on it and reports an integer Status, 0 on success. Failures also record a
// last error (code and message) that GetLastErrorCode and
// GetLastErrorMessage report until the next failure. A Caller keeps its own
// last error, so goroutines that need independent error state each use one.
package syz

import (
	"sync"

	"github.com/roach88/synthplane/internal/config"
	"github.com/roach88/synthplane/internal/engine"
	"github.com/roach88/synthplane/internal/ir"
)

// Status is an operation result. Zero means success; other values are the
// engine error codes.
type Status int

const (
	Success                  Status = 0
	StatusNotInitialized            = Status(engine.CodeNotInitialized)
	StatusAlreadyInitialized        = Status(engine.CodeAlreadyInitialized)
	StatusInvalidHandle             = Status(engine.CodeInvalidHandle)
	StatusWrongObjectType           = Status(engine.CodeWrongObjectType)
	StatusInvalidProperty           = Status(engine.CodeInvalidProperty)
	StatusReadOnlyProperty          = Status(engine.CodeReadOnlyProperty)
	StatusInvalidValue              = Status(engine.CodeInvalidValue)
	StatusStreamError               = Status(engine.CodeStreamError)
	StatusOutOfMemory               = Status(engine.CodeOutOfMemory)
)

func (s Status) String() string {
	if s == Success {
		return "SUCCESS"
	}
	return engine.Code(s).String()
}

// Config holds library settings.
type Config = config.Library

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads settings from a YAML file.
func LoadConfig(path string) (Config, Status) {
	cfg, err := config.Load(path)
	return cfg, process.record(err)
}

// Option configures the library at Initialize time.
type Option = engine.Option

// Renderer is the DSP collaborator that turns committed frames into audio.
type Renderer = engine.Renderer

// Frame, ObjectState and Signal are the Renderer's inputs and outputs.
type (
	Frame       = engine.Frame
	ObjectState = engine.ObjectState
	Signal      = engine.Signal
)

// OutputFunc receives each block a real-time context renders.
type OutputFunc = engine.OutputFunc

var (
	// WithRenderer replaces the default renderer, which outputs silence.
	WithRenderer = engine.WithRenderer
	// WithOutput delivers real-time context blocks to fn.
	WithOutput = engine.WithOutput
	// WithLogger replaces the logger built from the settings.
	WithLogger = engine.WithLogger
	// WithMetrics records engine metrics.
	WithMetrics = engine.WithMetrics
)

var (
	mu      sync.RWMutex
	lib     *engine.Library
	process = &Caller{}
)

// Initialize creates the library with the default settings.
func Initialize(opts ...Option) Status {
	return InitializeWithConfig(config.Default(), opts...)
}

// InitializeWithConfig creates the library. It fails with
// StatusAlreadyInitialized when a library already exists.
func InitializeWithConfig(cfg Config, opts ...Option) Status {
	mu.Lock()
	defer mu.Unlock()
	if lib != nil {
		return process.record(&engine.Error{Code: engine.CodeAlreadyInitialized, Message: "library already initialized"})
	}
	l, err := engine.New(cfg, opts...)
	if err != nil {
		return process.record(err)
	}
	lib = l
	return Success
}

// Shutdown closes the library. Every handle becomes invalid and user-data
// free callbacks run. Initialize may be called again afterwards.
func Shutdown() Status {
	mu.Lock()
	l := lib
	lib = nil
	mu.Unlock()
	if l == nil {
		return process.record(errNotInitialized)
	}
	return process.record(l.Close())
}

// GetLastErrorCode returns the code of the last failed package-level call.
func GetLastErrorCode() Status {
	return process.LastErrorCode()
}

// GetLastErrorMessage returns the message of the last failed package-level call.
func GetLastErrorMessage() string {
	return process.LastErrorMessage()
}

var errNotInitialized = &engine.Error{Code: engine.CodeNotInitialized, Message: "library not initialized"}

// Caller carries its own last error. The zero value is ready to use.
type Caller struct {
	mu      sync.Mutex
	code    Status
	message string
}

// NewCaller returns a Caller with no recorded error.
func NewCaller() *Caller {
	return &Caller{}
}

// LastErrorCode returns the code of c's last failed call.
func (c *Caller) LastErrorCode() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// LastErrorMessage returns the message of c's last failed call.
func (c *Caller) LastErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

func (c *Caller) record(err error) Status {
	if err == nil {
		return Success
	}
	code := Status(engine.CodeOf(err))
	c.mu.Lock()
	c.code = code
	c.message = err.Error()
	c.mu.Unlock()
	return code
}

func current() (*engine.Library, error) {
	mu.RLock()
	defer mu.RUnlock()
	if lib == nil {
		return nil, errNotInitialized
	}
	return lib, nil
}

// do runs fn against the library and records its error on c.
func do(c *Caller, fn func(*engine.Library) error) Status {
	l, err := current()
	if err == nil {
		err = fn(l)
	}
	return c.record(err)
}

// call is do for operations that return a value.
func call[T any](c *Caller, fn func(*engine.Library) (T, error)) (T, Status) {
	l, err := current()
	if err != nil {
		var zero T
		return zero, c.record(err)
	}
	v, err := fn(l)
	return v, c.record(err)
}

// Handle identifies an object.
type Handle = ir.Handle

// NoHandle is the null handle.
const NoHandle = ir.NoHandle
