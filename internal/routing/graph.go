// Package routing implements the Routing Graph: directed, gain and filter
// bearing edges from sources to effects, with click-free fades.
//
// A Graph is owned by one context and is touched only by that context's
// render goroutine. Control callers reach it through staged mutations.
//
// Fades are linear and counted in blocks. Every new fade starts from the
// edge's current instantaneous gain, so reconfiguring or removing an edge
// mid-fade never produces a discontinuity.
package routing

import (
	"cmp"
	"slices"

	"github.com/roach88/synthplane/internal/ir"
)

// Config is the target state of an edge.
type Config struct {
	Gain       float64
	FadeBlocks int
	Filter     ir.Biquad
}

type key struct {
	src, dst ir.Handle
}

// Edge is one route. Fields are read through Snapshot.
type Edge struct {
	src, dst ir.Handle

	gain    float64
	start   float64
	target  float64
	elapsed int
	length  int

	filterFrom ir.Biquad
	filterTo   ir.Biquad
	mix        float64
	mixStart   float64

	removing bool
}

// Snapshot is the state of an edge as seen by the renderer for one block.
type Snapshot struct {
	Source      ir.Handle
	Destination ir.Handle
	Gain        float64
	TargetGain  float64
	FilterFrom  ir.Biquad
	FilterTo    ir.Biquad
	FilterMix   float64 // 0 = FilterFrom only, 1 = FilterTo only
	Removing    bool
	Fading      bool
}

// Filter returns the effective filter for the block: FilterFrom and FilterTo
// blended by FilterMix.
func (s Snapshot) Filter() ir.Biquad {
	return blend(s.FilterFrom, s.FilterTo, s.FilterMix)
}

// blend interpolates coefficients linearly; mix 0 is a, mix 1 is b.
func blend(a, b ir.Biquad, mix float64) ir.Biquad {
	switch {
	case mix <= 0:
		return a
	case mix >= 1:
		return b
	}
	lerp := func(x, y float64) float64 { return x + (y-x)*mix }
	return ir.Biquad{
		B0:     lerp(a.B0, b.B0),
		B1:     lerp(a.B1, b.B1),
		B2:     lerp(a.B2, b.B2),
		A1:     lerp(a.A1, b.A1),
		A2:     lerp(a.A2, b.A2),
		Gain:   lerp(a.Gain, b.Gain),
		IsWire: a.IsWire && b.IsWire,
	}
}

func (e *Edge) snapshot() Snapshot {
	return Snapshot{
		Source:      e.src,
		Destination: e.dst,
		Gain:        e.gain,
		TargetGain:  e.target,
		FilterFrom:  e.filterFrom,
		FilterTo:    e.filterTo,
		FilterMix:   e.mix,
		Removing:    e.removing,
		Fading:      e.elapsed < e.length,
	}
}

// startFade begins a ramp from the current gain to target over blocks.
func (e *Edge) startFade(target float64, blocks int) {
	e.start = e.gain
	e.target = target
	e.elapsed = 0
	e.length = blocks
	e.mixStart = e.mix
	if blocks <= 0 {
		e.gain = target
		e.mix = 1
		e.length = 0
	}
}

// advance moves the fade one block forward.
func (e *Edge) advance() {
	if e.elapsed >= e.length {
		return
	}
	e.elapsed++
	frac := float64(e.elapsed) / float64(e.length)
	e.gain = e.start + (e.target-e.start)*frac
	e.mix = e.mixStart + (1-e.mixStart)*frac
	if e.elapsed == e.length {
		e.gain = e.target
		e.mix = 1
	}
}

// Graph holds every edge of one context.
//
// Lookup, insert and remove are O(1) expected via hash maps keyed by the
// (source, destination) pair and by endpoint.
type Graph struct {
	edges  map[key]*Edge
	bySrc  map[ir.Handle]map[ir.Handle]*Edge
	byDest map[ir.Handle]map[ir.Handle]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		edges:  make(map[key]*Edge),
		bySrc:  make(map[ir.Handle]map[ir.Handle]*Edge),
		byDest: make(map[ir.Handle]map[ir.Handle]*Edge),
	}
}

// Configure creates the edge if absent, else retargets it. Either way a fade
// from the current gain to cfg.Gain begins. A pending removal is cancelled.
// A filter change crossfades over the same length; if a crossfade is already
// in flight its current blend becomes the new starting point.
func (g *Graph) Configure(src, dst ir.Handle, cfg Config) {
	e, ok := g.edges[key{src, dst}]
	if !ok {
		e = &Edge{
			src:        src,
			dst:        dst,
			filterFrom: cfg.Filter,
			filterTo:   cfg.Filter,
			mix:        1,
		}
		g.insert(e)
	} else if e.filterTo != cfg.Filter {
		e.filterFrom = blend(e.filterFrom, e.filterTo, e.mix)
		e.filterTo = cfg.Filter
		e.mix = 0
	}
	e.removing = false
	e.startFade(cfg.Gain, cfg.FadeBlocks)
}

// Remove fades the edge to zero over fadeBlocks and then deletes it.
// Removing an edge already being removed restarts the fade from its current
// gain. Returns false if no such edge exists.
func (g *Graph) Remove(src, dst ir.Handle, fadeBlocks int) bool {
	e, ok := g.edges[key{src, dst}]
	if !ok {
		return false
	}
	e.removing = true
	e.startFade(0, fadeBlocks)
	if e.length == 0 {
		g.delete(e)
	}
	return true
}

// RemoveAll applies Remove to every outgoing edge of src.
// Returns the number of edges affected.
func (g *Graph) RemoveAll(src ir.Handle, fadeBlocks int) int {
	out := g.bySrc[src]
	dsts := make([]ir.Handle, 0, len(out))
	for dst := range out {
		dsts = append(dsts, dst)
	}
	for _, dst := range dsts {
		g.Remove(src, dst, fadeBlocks)
	}
	return len(dsts)
}

// DropHandle deletes every edge touching h immediately, regardless of fades.
func (g *Graph) DropHandle(h ir.Handle) int {
	var doomed []*Edge
	for _, e := range g.bySrc[h] {
		doomed = append(doomed, e)
	}
	for _, e := range g.byDest[h] {
		doomed = append(doomed, e)
	}
	for _, e := range doomed {
		g.delete(e)
	}
	return len(doomed)
}

// Tick advances every fade by one block and deletes edges whose removal
// fade has completed. Returns the deleted edges.
func (g *Graph) Tick() []Snapshot {
	var done []*Edge
	for _, e := range g.edges {
		e.advance()
		if e.removing && e.elapsed >= e.length {
			done = append(done, e)
		}
	}
	out := make([]Snapshot, len(done))
	for i, e := range done {
		out[i] = e.snapshot()
		g.delete(e)
	}
	return out
}

// Edge returns the snapshot of one edge.
func (g *Graph) Edge(src, dst ir.Handle) (Snapshot, bool) {
	e, ok := g.edges[key{src, dst}]
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(), true
}

// Edges returns snapshots of every edge ordered by (source, destination).
func (g *Graph) Edges() []Snapshot {
	out := make([]Snapshot, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e.snapshot())
	}
	slices.SortFunc(out, func(a, b Snapshot) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return cmp.Compare(a.Destination, b.Destination)
	})
	return out
}

// Outgoing returns the number of edges leaving src.
func (g *Graph) Outgoing(src ir.Handle) int {
	return len(g.bySrc[src])
}

// Len returns the number of live edges.
func (g *Graph) Len() int {
	return len(g.edges)
}

func (g *Graph) insert(e *Edge) {
	g.edges[key{e.src, e.dst}] = e
	link(g.bySrc, e.src, e.dst, e)
	link(g.byDest, e.dst, e.src, e)
}

func (g *Graph) delete(e *Edge) {
	delete(g.edges, key{e.src, e.dst})
	unlink(g.bySrc, e.src, e.dst)
	unlink(g.byDest, e.dst, e.src)
}

func link(index map[ir.Handle]map[ir.Handle]*Edge, a, b ir.Handle, e *Edge) {
	m, ok := index[a]
	if !ok {
		m = make(map[ir.Handle]*Edge)
		index[a] = m
	}
	m[b] = e
}

func unlink(index map[ir.Handle]map[ir.Handle]*Edge, a, b ir.Handle) {
	m, ok := index[a]
	if !ok {
		return
	}
	delete(m, b)
	if len(m) == 0 {
		delete(index, a)
	}
}
