package store

import "errors"

// ErrRunNotFound is returned by GetRun for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

// Run describes one scenario execution.
type Run struct {
	ID            string
	Scenario      string
	SampleRate    int
	BlockSize     int
	EngineVersion string
}

// EventRecord is one event drained from a context queue.
// Source is the scenario name of the object that raised it.
type EventRecord struct {
	RunID  string
	Seq    int64
	Block  uint64
	Time   float64
	Type   string
	Source string
	Param  uint64
}

// RouteSample is the state of one edge after a rendered block.
type RouteSample struct {
	RunID       string
	Block       uint64
	Source      string
	Destination string
	Gain        float64
	TargetGain  float64
	Removing    bool
}
