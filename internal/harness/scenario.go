package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/synthplane/internal/ir"
)

//go:embed scenario.cue
var scenarioSchema string

// Scenario drives one headless context for a fixed number of blocks.
// Steps are staged before the block they name renders; expectations are
// checked after the block they name has rendered.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// RunID is an optional fixed run id. If empty, defaults to
	// "test-run-default" so golden traces stay stable.
	RunID string `yaml:"run_id,omitempty" json:"run_id,omitempty"`

	// Config overrides library settings for this run.
	Config *ConfigOverrides `yaml:"config,omitempty" json:"config,omitempty"`

	// Blocks is the number of blocks to render.
	Blocks int `yaml:"blocks" json:"blocks"`

	// Objects are created in order before the first block.
	Objects []ObjectDecl `yaml:"objects,omitempty" json:"objects,omitempty"`

	Steps  []Step        `yaml:"steps,omitempty" json:"steps,omitempty"`
	Expect []Expectation `yaml:"expect" json:"expect"`
}

// ConfigOverrides replaces selected library settings.
type ConfigOverrides struct {
	SampleRate              int  `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	BlockSize               int  `yaml:"block_size,omitempty" json:"block_size,omitempty"`
	EventQueueCapacity      int  `yaml:"event_queue_capacity,omitempty" json:"event_queue_capacity,omitempty"`
	AutomationLatencyBlocks *int `yaml:"automation_latency_blocks,omitempty" json:"automation_latency_blocks,omitempty"`
}

// ObjectDecl declares one object of the scenario context. Fields beyond
// Name and Type depend on Type.
type ObjectDecl struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`

	// Channels is the channel count of a noise generator or buffer.
	Channels int `yaml:"channels,omitempty" json:"channels,omitempty"`

	// Panner, Azimuth, Elevation, Scalar and Position configure panned sources.
	Panner    string    `yaml:"panner,omitempty" json:"panner,omitempty"`
	Azimuth   float64   `yaml:"azimuth,omitempty" json:"azimuth,omitempty"`
	Elevation float64   `yaml:"elevation,omitempty" json:"elevation,omitempty"`
	Scalar    float64   `yaml:"scalar,omitempty" json:"scalar,omitempty"`
	Position  []float64 `yaml:"position,omitempty" json:"position,omitempty"`

	// Frequency, Wave and Partials configure a sine bank.
	Frequency float64 `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	Wave      string  `yaml:"wave,omitempty" json:"wave,omitempty"`
	Partials  int     `yaml:"partials,omitempty" json:"partials,omitempty"`

	// SampleRate and Samples (interleaved) fill a buffer.
	SampleRate int       `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	Samples    []float64 `yaml:"samples,omitempty" json:"samples,omitempty"`
}

// Step is one control operation. Exactly one action field is set.
type Step struct {
	Block int `yaml:"block" json:"block"`

	// ExpectError names the engine error code the step must fail with,
	// e.g. "INVALID_VALUE". Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty" json:"expect_error,omitempty"`

	Set             *SetStep         `yaml:"set,omitempty" json:"set,omitempty"`
	Route           *RouteStep       `yaml:"route,omitempty" json:"route,omitempty"`
	RemoveRoute     *RemoveRouteStep `yaml:"remove_route,omitempty" json:"remove_route,omitempty"`
	Automation      *AutomationStep  `yaml:"automation,omitempty" json:"automation,omitempty"`
	Release         string           `yaml:"release,omitempty" json:"release,omitempty"`
	EnableEvents    bool             `yaml:"enable_events,omitempty" json:"enable_events,omitempty"`
	DisableEvents   bool             `yaml:"disable_events,omitempty" json:"disable_events,omitempty"`
	AddGenerator    *AttachStep      `yaml:"add_generator,omitempty" json:"add_generator,omitempty"`
	RemoveGenerator *AttachStep      `yaml:"remove_generator,omitempty" json:"remove_generator,omitempty"`
	Play            string           `yaml:"play,omitempty" json:"play,omitempty"`
	Pause           string           `yaml:"pause,omitempty" json:"pause,omitempty"`
	Reset           string           `yaml:"reset,omitempty" json:"reset,omitempty"`
	Raise           *RaiseStep       `yaml:"raise,omitempty" json:"raise,omitempty"`
	Linger          *LingerStep      `yaml:"linger,omitempty" json:"linger,omitempty"`
}

// SetStep stages a property write. Value is a number, a list of 3 or 6
// numbers, an object name, or a filter map.
type SetStep struct {
	Object   string `yaml:"object" json:"object"`
	Property string `yaml:"property" json:"property"`
	Value    any    `yaml:"value" json:"value"`
}

// RouteStep configures an edge. Gain defaults to 1 and FadeTime to the
// engine default.
type RouteStep struct {
	Source      string      `yaml:"source" json:"source"`
	Destination string      `yaml:"destination" json:"destination"`
	Gain        *float64    `yaml:"gain,omitempty" json:"gain,omitempty"`
	FadeTime    *float64    `yaml:"fade_time,omitempty" json:"fade_time,omitempty"`
	Filter      *FilterDecl `yaml:"filter,omitempty" json:"filter,omitempty"`
}

// RemoveRouteStep removes one edge, or every outgoing edge of Source when
// Destination is empty.
type RemoveRouteStep struct {
	Source      string   `yaml:"source" json:"source"`
	Destination string   `yaml:"destination,omitempty" json:"destination,omitempty"`
	FadeTime    *float64 `yaml:"fade_time,omitempty" json:"fade_time,omitempty"`
}

// FilterDecl describes a biquad by design parameters.
type FilterDecl struct {
	Kind      string  `yaml:"kind" json:"kind"`
	Frequency float64 `yaml:"frequency,omitempty" json:"frequency,omitempty"`
	Q         float64 `yaml:"q,omitempty" json:"q,omitempty"`
	Bandwidth float64 `yaml:"bandwidth,omitempty" json:"bandwidth,omitempty"`
}

// AutomationStep builds one batch from Commands and executes it.
type AutomationStep struct {
	Commands []CommandDecl `yaml:"commands" json:"commands"`
}

// CommandDecl is one automation command. Time is in context seconds.
type CommandDecl struct {
	Kind          string  `yaml:"kind" json:"kind"`
	Target        string  `yaml:"target" json:"target"`
	Time          float64 `yaml:"time" json:"time"`
	Property      string  `yaml:"property,omitempty" json:"property,omitempty"`
	Value         any     `yaml:"value,omitempty" json:"value,omitempty"`
	Interpolation string  `yaml:"interpolation,omitempty" json:"interpolation,omitempty"`
	Param         uint64  `yaml:"param,omitempty" json:"param,omitempty"`
}

// AttachStep names a source and a generator.
type AttachStep struct {
	Source    string `yaml:"source" json:"source"`
	Generator string `yaml:"generator" json:"generator"`
}

// RaiseStep makes the renderer report a generator signal during the block.
type RaiseStep struct {
	Type   string `yaml:"type" json:"type"`
	Source string `yaml:"source" json:"source"`
}

// LingerStep switches an object to lingering deletion.
type LingerStep struct {
	Object  string  `yaml:"object" json:"object"`
	Timeout float64 `yaml:"timeout" json:"timeout"`
}

// Expectation is checked after the named block renders, or at the end of
// the run for "events".
type Expectation struct {
	// Type is one of: route_gain, property, alive, events, edges.
	Type string `yaml:"type" json:"type"`

	Block int `yaml:"block,omitempty" json:"block,omitempty"`

	// route_gain
	Source      string   `yaml:"source,omitempty" json:"source,omitempty"`
	Destination string   `yaml:"destination,omitempty" json:"destination,omitempty"`
	Gain        *float64 `yaml:"gain,omitempty" json:"gain,omitempty"`
	Absent      bool     `yaml:"absent,omitempty" json:"absent,omitempty"`

	// property, alive
	Object   string `yaml:"object,omitempty" json:"object,omitempty"`
	Property string `yaml:"property,omitempty" json:"property,omitempty"`
	Value    any    `yaml:"value,omitempty" json:"value,omitempty"`
	Alive    *bool  `yaml:"alive,omitempty" json:"alive,omitempty"`

	// events: drained event types in order. edges: edge count.
	Types []string `yaml:"types,omitempty" json:"types,omitempty"`
	Count *int     `yaml:"count,omitempty" json:"count,omitempty"`
}

// Expectation type constants.
const (
	ExpectRouteGain = "route_gain"
	ExpectProperty  = "property"
	ExpectAlive     = "alive"
	ExpectEvents    = "events"
	ExpectEdges     = "edges"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails the scenario schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario parses scenario YAML and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := checkSchema(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// checkSchema unifies s with the embedded #Scenario definition.
func checkSchema(s *Scenario) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioSchema, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	v := def.Unify(ctx.Encode(s))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", cueerrors.Details(err, nil))
	}
	return nil
}

// validateScenario checks what the schema cannot: name references, step
// shape and property names.
func validateScenario(s *Scenario) error {
	names := map[string]bool{contextName: true}
	for i, o := range s.Objects {
		if names[o.Name] {
			return fmt.Errorf("objects[%d]: duplicate name %q", i, o.Name)
		}
		names[o.Name] = true
		if o.Type == "source_3d" && o.Position != nil && len(o.Position) != 3 {
			return fmt.Errorf("objects[%d]: position needs 3 components", i)
		}
	}
	ref := func(where, name string) error {
		if name == "" {
			return fmt.Errorf("%s: object name is required", where)
		}
		if !names[name] {
			return fmt.Errorf("%s: unknown object %q", where, name)
		}
		return nil
	}
	prop := func(where, name string) error {
		if _, ok := ir.ParseProperty(name); !ok {
			return fmt.Errorf("%s: unknown property %q", where, name)
		}
		return nil
	}

	for i, st := range s.Steps {
		where := fmt.Sprintf("steps[%d]", i)
		if st.Block >= s.Blocks {
			return fmt.Errorf("%s: block %d is past the last block %d", where, st.Block, s.Blocks-1)
		}
		if n := st.actions(); n != 1 {
			return fmt.Errorf("%s: exactly one action is required, got %d", where, n)
		}
		var refs []string
		switch {
		case st.Set != nil:
			if err := prop(where, st.Set.Property); err != nil {
				return err
			}
			refs = append(refs, st.Set.Object)
		case st.Route != nil:
			refs = append(refs, st.Route.Source, st.Route.Destination)
		case st.RemoveRoute != nil:
			refs = append(refs, st.RemoveRoute.Source)
			if st.RemoveRoute.Destination != "" {
				refs = append(refs, st.RemoveRoute.Destination)
			}
		case st.Automation != nil:
			for j, c := range st.Automation.Commands {
				if c.Property != "" {
					if err := prop(fmt.Sprintf("%s.commands[%d]", where, j), c.Property); err != nil {
						return err
					}
				}
				refs = append(refs, c.Target)
			}
		case st.AddGenerator != nil:
			refs = append(refs, st.AddGenerator.Source, st.AddGenerator.Generator)
		case st.RemoveGenerator != nil:
			refs = append(refs, st.RemoveGenerator.Source, st.RemoveGenerator.Generator)
		case st.Raise != nil:
			refs = append(refs, st.Raise.Source)
		case st.Linger != nil:
			refs = append(refs, st.Linger.Object)
		default:
			for _, name := range []string{st.Release, st.Play, st.Pause, st.Reset} {
				if name != "" {
					refs = append(refs, name)
				}
			}
		}
		for _, name := range refs {
			if err := ref(where, name); err != nil {
				return err
			}
		}
	}

	for i, e := range s.Expect {
		where := fmt.Sprintf("expect[%d]", i)
		if e.Block >= s.Blocks {
			return fmt.Errorf("%s: block %d is past the last block %d", where, e.Block, s.Blocks-1)
		}
		var err error
		switch e.Type {
		case ExpectRouteGain:
			if err = ref(where, e.Source); err == nil {
				err = ref(where, e.Destination)
			}
			if err == nil && e.Gain == nil && !e.Absent {
				err = fmt.Errorf("%s: gain or absent is required for route_gain", where)
			}
		case ExpectProperty:
			if err = ref(where, e.Object); err == nil {
				err = prop(where, e.Property)
			}
			if err == nil && e.Value == nil {
				err = fmt.Errorf("%s: value is required for property", where)
			}
		case ExpectAlive:
			err = ref(where, e.Object)
			if err == nil && e.Alive == nil {
				err = fmt.Errorf("%s: alive is required", where)
			}
		case ExpectEvents:
			for _, name := range e.Types {
				if _, ok := ir.ParseEventType(name); !ok {
					return fmt.Errorf("%s: unknown event type %q", where, name)
				}
			}
		case ExpectEdges:
			if e.Count == nil {
				err = fmt.Errorf("%s: count is required for edges", where)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// actions counts the action fields set on st.
func (st *Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Set != nil, st.Route != nil, st.RemoveRoute != nil, st.Automation != nil,
		st.Release != "", st.EnableEvents, st.DisableEvents,
		st.AddGenerator != nil, st.RemoveGenerator != nil,
		st.Play != "", st.Pause != "", st.Reset != "",
		st.Raise != nil, st.Linger != nil,
	} {
		if set {
			n++
		}
	}
	return n
}
