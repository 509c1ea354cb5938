package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/synthplane/internal/automation"
	"github.com/roach88/synthplane/internal/config"
	"github.com/roach88/synthplane/internal/engine"
	"github.com/roach88/synthplane/internal/handle"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/metrics"
	"github.com/roach88/synthplane/internal/store"
	"github.com/roach88/synthplane/internal/testutil"
)

// contextName addresses the scenario's own context in steps and expectations.
const contextName = "context"

// floatTolerance bounds float comparisons in expectations.
const floatTolerance = 1e-9

// Option configures a run.
type Option func(*options)

type options struct {
	store   *store.Store
	logger  *slog.Logger
	metrics *metrics.Engine
	runIDs  engine.IDGenerator
	base    config.Library
}

// WithStore writes the trace to st instead of a fresh in-memory database.
func WithStore(st *store.Store) Option {
	return func(o *options) {
		o.store = st
	}
}

// WithConfig sets the library settings the scenario overrides apply to.
func WithConfig(cfg config.Library) Option {
	return func(o *options) {
		o.base = cfg
	}
}

// WithLogger sets the logger handed to the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records engine metrics for the run.
func WithMetrics(m *metrics.Engine) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRunIDGenerator overrides the run id source. A scenario's run_id,
// when set, still wins.
func WithRunIDGenerator(gen engine.IDGenerator) Option {
	return func(o *options) {
		o.runIDs = gen
	}
}

// Harness executes one scenario against a headless context.
type Harness struct {
	lib      *engine.Library
	renderer *testutil.Recorder
	store    *store.Store
	logger   *slog.Logger

	ctx    ir.Handle
	names  map[string]ir.Handle
	labels map[ir.Handle]string

	runID    string
	blockDur float64
	seq      int64
	result   *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh library with a recording renderer, so runs
// are deterministic: the same scenario always yields the same trace.
//
// Execution flow:
//  1. Create the library, the headless context and the declared objects
//  2. For each block: stage its steps, render it, drain events, sample edges
//  3. Check the expectations that name the block
//  4. Check event expectations against the stored trace
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs: testutil.NewFixedRunGenerator(""),
		base:   config.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if scenario.RunID != "" {
		o.runIDs = testutil.NewFixedRunGenerator(scenario.RunID)
	}

	st := o.store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	cfg := scenario.libraryConfig(o.base)
	rec := testutil.NewRecorder()
	lib, err := engine.New(cfg,
		engine.WithRenderer(rec),
		engine.WithLogger(o.logger),
		engine.WithMetrics(o.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create library: %w", err)
	}
	defer lib.Close()

	runID := o.runIDs.Generate()
	bg := context.Background()
	if err := st.BeginRun(bg, store.Run{
		ID:            runID,
		Scenario:      scenario.Name,
		SampleRate:    cfg.SampleRate,
		BlockSize:     cfg.BlockSize,
		EngineVersion: ir.EngineVersion,
	}); err != nil {
		return nil, err
	}

	h := &Harness{
		lib:      lib,
		renderer: rec,
		store:    st,
		logger:   o.logger,
		names:    make(map[string]ir.Handle),
		labels:   make(map[ir.Handle]string),
		runID:    runID,
		blockDur: cfg.BlockDuration(),
		result:   NewResult(runID),
	}

	h.ctx, err = lib.CreateContextHeadless()
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	h.name(contextName, h.ctx)

	for i, decl := range scenario.Objects {
		obj, err := h.create(decl)
		if err != nil {
			return nil, fmt.Errorf("objects[%d] %q: %w", i, decl.Name, err)
		}
		h.name(decl.Name, obj)
	}

	for block := 0; block < scenario.Blocks; block++ {
		for _, step := range scenario.Steps {
			if step.Block == block {
				h.runStep(block, step)
			}
		}

		if _, err := lib.GetBlock(h.ctx); err != nil {
			return nil, fmt.Errorf("block %d: %w", block, err)
		}
		if err := h.drainEvents(bg, block); err != nil {
			return nil, fmt.Errorf("block %d: %w", block, err)
		}
		if err := h.sampleRoutes(bg, block); err != nil {
			return nil, fmt.Errorf("block %d: %w", block, err)
		}

		for _, e := range scenario.Expect {
			if e.Type != ExpectEvents && e.Block == block {
				if err := h.check(e); err != nil {
					h.result.AddError(err.Error())
				}
			}
		}
	}

	for _, e := range scenario.Expect {
		if e.Type != ExpectEvents {
			continue
		}
		if err := h.checkEvents(bg, e); err != nil {
			h.result.AddError(err.Error())
		}
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"run_id", runID,
		"blocks", scenario.Blocks,
		"pass", h.result.Pass,
	)
	return h.result, nil
}

// libraryConfig returns base with the scenario overrides applied.
func (s *Scenario) libraryConfig(base config.Library) config.Library {
	cfg := base
	if s.Config == nil {
		return cfg
	}
	if s.Config.SampleRate > 0 {
		cfg.SampleRate = s.Config.SampleRate
	}
	if s.Config.BlockSize > 0 {
		cfg.BlockSize = s.Config.BlockSize
	}
	if s.Config.EventQueueCapacity > 0 {
		cfg.EventQueueCapacity = s.Config.EventQueueCapacity
	}
	if s.Config.AutomationLatencyBlocks != nil {
		cfg.AutomationLatencyBlocks = *s.Config.AutomationLatencyBlocks
	}
	return cfg
}

func (h *Harness) name(name string, obj ir.Handle) {
	h.names[name] = obj
	h.labels[obj] = name
}

// label returns the scenario name of obj, or its handle string.
func (h *Harness) label(obj ir.Handle) string {
	if name, ok := h.labels[obj]; ok {
		return name
	}
	return obj.String()
}

// create builds one declared object in the scenario context.
func (h *Harness) create(d ObjectDecl) (ir.Handle, error) {
	lib, ctx := h.lib, h.ctx
	panner, err := parsePanner(d.Panner)
	if err != nil {
		return ir.NoHandle, err
	}

	switch d.Type {
	case "buffer":
		channels := max(d.Channels, 1)
		rate := d.SampleRate
		if rate == 0 {
			rate = lib.Config().SampleRate
		}
		data := make([]float32, len(d.Samples))
		for i, s := range d.Samples {
			data[i] = float32(s)
		}
		return lib.CreateBufferFromFloatArray(rate, channels, len(data)/channels, data)
	case "buffer_generator":
		return lib.CreateBufferGenerator(ctx)
	case "noise_generator":
		return lib.CreateNoiseGenerator(ctx, max(d.Channels, 1))
	case "fast_sine_bank_generator":
		partials := d.Partials
		if partials == 0 {
			partials = 8
		}
		var cfg engine.SineBankConfig
		switch d.Wave {
		case "", "sine":
			cfg = engine.SineBankSine(d.Frequency)
		case "square":
			cfg = engine.SineBankSquare(d.Frequency, partials)
		case "triangle":
			cfg = engine.SineBankTriangle(d.Frequency, partials)
		case "saw":
			cfg = engine.SineBankSaw(d.Frequency, partials)
		default:
			return ir.NoHandle, fmt.Errorf("unknown wave %q", d.Wave)
		}
		return lib.CreateFastSineBankGenerator(ctx, cfg)
	case "direct_source":
		return lib.CreateDirectSource(ctx)
	case "angular_panned_source":
		return lib.CreateAngularPannedSource(ctx, panner, d.Azimuth, d.Elevation)
	case "scalar_panned_source":
		return lib.CreateScalarPannedSource(ctx, panner, d.Scalar)
	case "source_3d":
		var pos [3]float64
		copy(pos[:], d.Position)
		return lib.CreateSource3D(ctx, panner, pos[0], pos[1], pos[2])
	case "global_echo":
		return lib.CreateGlobalEcho(ctx)
	case "global_fdn_reverb":
		return lib.CreateGlobalFDNReverb(ctx)
	}
	return ir.NoHandle, fmt.Errorf("unsupported object type %q", d.Type)
}

func parsePanner(name string) (ir.PannerStrategy, error) {
	if name == "" {
		return ir.PannerStrategyDelegate, nil
	}
	for s := ir.PannerStrategy(0); s.Valid(); s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown panner %q", name)
}

// runStep executes one step and records it in the trace.
func (h *Harness) runStep(block int, st Step) {
	detail := st.describe()
	err := h.execute(st)
	got := codeName(err)
	if err != nil {
		detail += " -> " + got
	}
	h.result.add(block, KindStep, detail)

	switch {
	case st.ExpectError == "" && err != nil:
		h.result.AddError(fmt.Sprintf("block %d: %s: %v", block, st.describe(), err))
	case st.ExpectError != "" && got != st.ExpectError:
		h.result.AddError(fmt.Sprintf("block %d: %s: expected %s, got %s", block, st.describe(), st.ExpectError, got))
	}
}

func codeName(err error) string {
	if err == nil {
		return "OK"
	}
	return engine.CodeOf(err).String()
}

func (h *Harness) execute(st Step) error {
	lib, ctx, n := h.lib, h.ctx, h.names
	switch {
	case st.Set != nil:
		p, _ := ir.ParseProperty(st.Set.Property)
		v, err := toValue(p, st.Set.Value, n)
		if err != nil {
			return err
		}
		return lib.SetProperty(n[st.Set.Object], p, v)

	case st.Route != nil:
		cfg := engine.DefaultRouteConfig()
		if st.Route.Gain != nil {
			cfg.Gain = *st.Route.Gain
		}
		if st.Route.FadeTime != nil {
			cfg.FadeTime = *st.Route.FadeTime
		}
		if st.Route.Filter != nil {
			b, err := st.Route.Filter.biquad()
			if err != nil {
				return err
			}
			cfg.Filter = b
		}
		return lib.ConfigureRoute(ctx, n[st.Route.Source], n[st.Route.Destination], cfg)

	case st.RemoveRoute != nil:
		fade := engine.DefaultFadeTime
		if st.RemoveRoute.FadeTime != nil {
			fade = *st.RemoveRoute.FadeTime
		}
		if st.RemoveRoute.Destination == "" {
			return lib.RemoveAllRoutes(ctx, n[st.RemoveRoute.Source], fade)
		}
		return lib.RemoveRoute(ctx, n[st.RemoveRoute.Source], n[st.RemoveRoute.Destination], fade)

	case st.Automation != nil:
		return h.automate(st.Automation.Commands)

	case st.Release != "":
		return lib.Release(n[st.Release])
	case st.EnableEvents:
		return lib.EnableEvents(ctx)
	case st.DisableEvents:
		return lib.DisableEvents(ctx)
	case st.AddGenerator != nil:
		return lib.SourceAddGenerator(n[st.AddGenerator.Source], n[st.AddGenerator.Generator])
	case st.RemoveGenerator != nil:
		return lib.SourceRemoveGenerator(n[st.RemoveGenerator.Source], n[st.RemoveGenerator.Generator])
	case st.Play != "":
		return lib.Play(n[st.Play])
	case st.Pause != "":
		return lib.Pause(n[st.Pause])
	case st.Reset != "":
		return lib.EffectReset(n[st.Reset])

	case st.Raise != nil:
		typ, ok := ir.ParseEventType(st.Raise.Type)
		if !ok {
			return fmt.Errorf("unknown event type %q", st.Raise.Type)
		}
		h.renderer.Raise(typ, n[st.Raise.Source])
		return nil

	case st.Linger != nil:
		return lib.ConfigureDeleteBehavior(n[st.Linger.Object], handle.DeleteBehavior{
			Linger:        true,
			LingerTimeout: st.Linger.Timeout,
		})
	}
	return fmt.Errorf("step has no action")
}

// automate builds a batch from decls, executes it and releases it.
func (h *Harness) automate(decls []CommandDecl) error {
	batch, err := h.lib.CreateAutomationBatch(h.ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.lib.Release(batch); err != nil {
			h.logger.Warn("release automation batch", "error", err)
		}
	}()

	cmds := make([]automation.Command, 0, len(decls))
	for i, d := range decls {
		cmd, err := h.command(d)
		if err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	if err := h.lib.AutomationBatchAddCommands(batch, cmds...); err != nil {
		return err
	}
	return h.lib.ExecuteAutomationBatch(batch)
}

func (h *Harness) command(d CommandDecl) (automation.Command, error) {
	kind, ok := parseCommandKind(d.Kind)
	if !ok {
		return automation.Command{}, fmt.Errorf("unknown command kind %q", d.Kind)
	}
	cmd := automation.Command{Target: h.names[d.Target], Time: d.Time, Kind: kind}
	switch kind {
	case ir.AutomationAppendProperty:
		p, _ := ir.ParseProperty(d.Property)
		v, err := toValue(p, d.Value, h.names)
		if err != nil {
			return automation.Command{}, err
		}
		interp := ir.InterpolationLinear
		if d.Interpolation == "none" {
			interp = ir.InterpolationNone
		}
		cmd.Property = p
		cmd.Point = automation.Point{Time: d.Time, Interp: interp, Value: v}
	case ir.AutomationClearProperty:
		cmd.Property, _ = ir.ParseProperty(d.Property)
	case ir.AutomationSendUserEvent:
		cmd.Param = d.Param
	}
	return cmd, nil
}

func parseCommandKind(name string) (ir.AutomationCommandKind, bool) {
	for _, k := range []ir.AutomationCommandKind{
		ir.AutomationAppendProperty,
		ir.AutomationSendUserEvent,
		ir.AutomationClearProperty,
		ir.AutomationClearEvents,
		ir.AutomationClearAllProperties,
	} {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// drainEvents reads every queued event, stores it and releases it.
func (h *Harness) drainEvents(ctx context.Context, block int) error {
	for {
		ev, err := h.lib.NextEvent(h.ctx)
		if err != nil {
			return err
		}
		if ev == nil {
			return nil
		}
		h.seq++
		rec := store.EventRecord{
			RunID:  h.runID,
			Seq:    h.seq,
			Block:  uint64(block),
			Time:   float64(block) * h.blockDur,
			Type:   ev.Type.String(),
			Source: h.label(ev.Source),
			Param:  ev.Param,
		}
		detail := rec.Type + " " + rec.Source
		if ev.Type == ir.EventTypeUserAutomation {
			detail += fmt.Sprintf(" param=%d", ev.Param)
		}
		h.result.add(block, KindEvent, detail)

		if err := h.lib.ReleaseEvent(ev); err != nil {
			return err
		}
		if err := h.store.WriteEvent(ctx, rec); err != nil {
			return err
		}
	}
}

// sampleRoutes records every edge of the context after a block.
func (h *Harness) sampleRoutes(ctx context.Context, block int) error {
	routes, err := h.lib.Routes(h.ctx)
	if err != nil {
		return err
	}
	for _, r := range routes {
		rs := store.RouteSample{
			RunID:       h.runID,
			Block:       uint64(block),
			Source:      h.label(r.Source),
			Destination: h.label(r.Destination),
			Gain:        r.Gain,
			TargetGain:  r.TargetGain,
			Removing:    r.Removing,
		}
		detail := fmt.Sprintf("%s -> %s gain=%.4f target=%.4f", rs.Source, rs.Destination, rs.Gain, rs.TargetGain)
		if rs.Removing {
			detail += " removing"
		}
		h.result.add(block, KindEdge, detail)

		if err := h.store.WriteRouteSample(ctx, rs); err != nil {
			return err
		}
	}
	return nil
}

// describe renders a step for the trace.
func (st *Step) describe() string {
	switch {
	case st.Set != nil:
		return fmt.Sprintf("set %s.%s = %v", st.Set.Object, st.Set.Property, st.Set.Value)
	case st.Route != nil:
		gain, fade := 1.0, engine.DefaultFadeTime
		if st.Route.Gain != nil {
			gain = *st.Route.Gain
		}
		if st.Route.FadeTime != nil {
			fade = *st.Route.FadeTime
		}
		s := fmt.Sprintf("route %s -> %s gain=%.4f fade=%.4f", st.Route.Source, st.Route.Destination, gain, fade)
		if st.Route.Filter != nil {
			s += " filter=" + st.Route.Filter.Kind
		}
		return s
	case st.RemoveRoute != nil:
		fade := engine.DefaultFadeTime
		if st.RemoveRoute.FadeTime != nil {
			fade = *st.RemoveRoute.FadeTime
		}
		if st.RemoveRoute.Destination == "" {
			return fmt.Sprintf("remove_all_routes %s fade=%.4f", st.RemoveRoute.Source, fade)
		}
		return fmt.Sprintf("remove_route %s -> %s fade=%.4f", st.RemoveRoute.Source, st.RemoveRoute.Destination, fade)
	case st.Automation != nil:
		parts := make([]string, len(st.Automation.Commands))
		for i, c := range st.Automation.Commands {
			target := c.Target
			if c.Property != "" {
				target += "." + c.Property
			}
			parts[i] = fmt.Sprintf("%s %s@%.4f", c.Kind, target, c.Time)
			if c.Value != nil {
				parts[i] += fmt.Sprintf(" = %v", c.Value)
			}
			if c.Kind == ir.AutomationSendUserEvent.String() {
				parts[i] += fmt.Sprintf(" param=%d", c.Param)
			}
		}
		return "automation [" + strings.Join(parts, "; ") + "]"
	case st.Release != "":
		return "release " + st.Release
	case st.EnableEvents:
		return "enable_events"
	case st.DisableEvents:
		return "disable_events"
	case st.AddGenerator != nil:
		return fmt.Sprintf("add_generator %s <- %s", st.AddGenerator.Source, st.AddGenerator.Generator)
	case st.RemoveGenerator != nil:
		return fmt.Sprintf("remove_generator %s <- %s", st.RemoveGenerator.Source, st.RemoveGenerator.Generator)
	case st.Play != "":
		return "play " + st.Play
	case st.Pause != "":
		return "pause " + st.Pause
	case st.Reset != "":
		return "reset " + st.Reset
	case st.Raise != nil:
		return fmt.Sprintf("raise %s %s", st.Raise.Type, st.Raise.Source)
	case st.Linger != nil:
		return fmt.Sprintf("linger %s timeout=%.4f", st.Linger.Object, st.Linger.Timeout)
	}
	return "noop"
}
