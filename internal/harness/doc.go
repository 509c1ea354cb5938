// Package harness runs YAML scenarios against a headless context and checks
// the resulting engine state.
//
// # Scenario Format
//
// Scenarios are YAML files validated against an embedded CUE schema:
//
//	name: route_fade
//	description: "What this scenario validates"
//	config:
//	  sample_rate: 8000
//	  block_size: 2000
//	blocks: 4
//	objects:
//	  - name: src
//	    type: direct_source
//	  - name: verb
//	    type: global_fdn_reverb
//	steps:
//	  - block: 0
//	    route: { source: src, destination: verb, gain: 1, fade_time: 0.5 }
//	  - block: 2
//	    remove_route: { source: src, destination: verb }
//	expect:
//	  - type: route_gain
//	    block: 0
//	    source: src
//	    destination: verb
//	    gain: 0.5
//
// The scenario's own context is addressable as "context".
//
// # Block Timing
//
// Steps naming block N are issued before block N renders, so they take
// effect at its boundary. Expectations naming block N are checked after it
// renders. Event expectations are checked once, at the end of the run,
// against the events written to the trace store.
//
// # Expectation Types
//
//   - route_gain: the committed gain of an edge, or its absence
//   - property: the value GetProperty returns
//   - alive: whether the handle still resolves
//   - edges: the number of edges in the context
//   - events: the types of every drained event, in order
//
// # Deterministic Testing
//
// The renderer is a testutil.Recorder, which renders silence and raises only
// the signals a scenario asks for. Run ids come from a fixed generator unless
// overridden, so the same scenario always produces the same trace and the
// golden files under testdata/golden stay stable.
package harness
