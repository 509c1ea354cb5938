package routing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthplane/internal/ir"
)

func handles(start, n int) []ir.Handle {
	out := make([]ir.Handle, n)
	for i := range out {
		out[i] = ir.MakeHandle(uint32(start+i), 0)
	}
	return out
}

func wire(gain float64, blocks int) Config {
	return Config{Gain: gain, FadeBlocks: blocks, Filter: ir.BiquadIdentity()}
}

func tickUntilEmpty(t *testing.T, g *Graph, limit int) {
	t.Helper()
	for i := 0; i < limit && g.Len() > 0; i++ {
		g.Tick()
	}
}

func TestGraph_FadeIn(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)

	g.Configure(src, dst, wire(1, 4))
	e, ok := g.Edge(src, dst)
	require.True(t, ok)
	assert.Equal(t, 0.0, e.Gain, "new edges fade in from silence")
	assert.True(t, e.Fading)

	var gains []float64
	for i := 0; i < 5; i++ {
		g.Tick()
		e, _ = g.Edge(src, dst)
		gains = append(gains, e.Gain)
	}
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1, 1}, gains)
	assert.False(t, e.Fading)
}

func TestGraph_ZeroFadeAppliesImmediately(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)

	g.Configure(src, dst, wire(0.5, 0))
	e, _ := g.Edge(src, dst)
	assert.Equal(t, 0.5, e.Gain)

	assert.True(t, g.Remove(src, dst, 0))
	assert.Equal(t, 0, g.Len(), "zero fade removal deletes at once")
}

func TestGraph_EdgeUniquenessNoOvershoot(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)

	g.Configure(src, dst, wire(1, 8))
	g.Tick()
	g.Tick()
	g.Tick()
	g.Configure(src, dst, wire(0.5, 8))
	assert.Equal(t, 1, g.Len(), "second configure never duplicates the edge")

	prev, _ := g.Edge(src, dst)
	for i := 0; i < 12; i++ {
		g.Tick()
		e, _ := g.Edge(src, dst)
		assert.LessOrEqual(t, e.Gain, 1.0)
		assert.GreaterOrEqual(t, e.Gain, 0.0)
		// Ramp from 0.375 up to 0.5 is monotonic
		assert.GreaterOrEqual(t, e.Gain, prev.Gain)
		prev = e
	}
	assert.Equal(t, 0.5, prev.Gain)
	assert.Equal(t, 0.5, prev.TargetGain)
}

func TestGraph_RetargetStartsFromCurrentGain(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)

	g.Configure(src, dst, wire(1, 4))
	g.Tick() // 0.25
	g.Tick() // 0.5

	g.Configure(src, dst, wire(0, 2))
	e, _ := g.Edge(src, dst)
	assert.Equal(t, 0.5, e.Gain, "retarget keeps the instantaneous value")

	g.Tick()
	e, _ = g.Edge(src, dst)
	assert.Equal(t, 0.25, e.Gain)
}

func TestGraph_RemoveRestartsFromCurrent(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)

	g.Configure(src, dst, wire(1, 0))
	require.True(t, g.Remove(src, dst, 4))
	g.Tick() // 0.75

	require.True(t, g.Remove(src, dst, 3))
	e, _ := g.Edge(src, dst)
	assert.Equal(t, 0.75, e.Gain, "restart does not jump")
	assert.True(t, e.Removing)

	g.Tick()
	e, _ = g.Edge(src, dst)
	assert.InDelta(t, 0.5, e.Gain, 1e-12)

	g.Tick()
	removed := g.Tick()
	require.Len(t, removed, 1)
	assert.Equal(t, 0.0, removed[0].Gain)
	assert.Equal(t, 0, g.Len())
}

func TestGraph_ConfigureCancelsRemoval(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)

	g.Configure(src, dst, wire(1, 0))
	g.Remove(src, dst, 4)
	g.Tick()
	g.Configure(src, dst, wire(1, 2))

	for i := 0; i < 10; i++ {
		g.Tick()
	}
	e, ok := g.Edge(src, dst)
	require.True(t, ok, "reconfigured edge survives")
	assert.Equal(t, 1.0, e.Gain)
	assert.False(t, e.Removing)
}

func TestGraph_RemoveMissing(t *testing.T) {
	g := New()
	assert.False(t, g.Remove(ir.MakeHandle(1, 0), ir.MakeHandle(2, 0), 1))
}

func TestGraph_RouteIdempotentCycling(t *testing.T) {
	g := New()
	sources := handles(10, 30)
	effects := handles(100, 20)

	for _, s := range sources {
		for _, e := range effects {
			g.Configure(s, e, wire(1, 10))
		}
	}
	assert.Equal(t, len(sources)*len(effects), g.Len())

	for _, s := range sources {
		for _, e := range effects {
			assert.True(t, g.Remove(s, e, 1))
		}
	}
	for _, s := range sources {
		for _, e := range effects {
			g.Configure(s, e, wire(1, 10))
			assert.True(t, g.Remove(s, e, 5))
		}
	}

	tickUntilEmpty(t, g, 100)
	assert.Equal(t, 0, g.Len(), "every edge is gone after its fade")
}

func TestGraph_RemoveAll(t *testing.T) {
	g := New()
	src := ir.MakeHandle(1, 0)
	other := ir.MakeHandle(2, 0)
	effects := handles(10, 3)
	for _, e := range effects {
		g.Configure(src, e, wire(1, 0))
		g.Configure(other, e, wire(1, 0))
	}

	assert.Equal(t, 3, g.RemoveAll(src, 2))
	tickUntilEmpty(t, g, 2)
	assert.Equal(t, 0, g.Outgoing(src))
	assert.Equal(t, 3, g.Outgoing(other), "other sources untouched")
}

func TestGraph_DropHandleIgnoresFades(t *testing.T) {
	g := New()
	src := ir.MakeHandle(1, 0)
	effects := handles(10, 2)
	for _, e := range effects {
		g.Configure(src, e, wire(1, 100))
	}
	g.Configure(ir.MakeHandle(5, 0), effects[0], wire(1, 100))

	assert.Equal(t, 2, g.DropHandle(src))
	assert.Equal(t, 1, g.Len())

	assert.Equal(t, 1, g.DropHandle(effects[0]))
	assert.Equal(t, 0, g.Len())
}

func TestGraph_FilterCrossfade(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)
	lowpass, err := ir.BiquadLowpass(500, 0.7)
	require.NoError(t, err)

	g.Configure(src, dst, wire(1, 0))
	g.Configure(src, dst, Config{Gain: 1, FadeBlocks: 2, Filter: lowpass})

	e, _ := g.Edge(src, dst)
	assert.Equal(t, ir.BiquadIdentity(), e.FilterFrom)
	assert.Equal(t, lowpass, e.FilterTo)
	assert.Equal(t, 0.0, e.FilterMix)

	g.Tick()
	e, _ = g.Edge(src, dst)
	assert.Equal(t, 0.5, e.FilterMix)
	assert.Equal(t, 1.0, e.Gain, "gain was already at target")

	g.Tick()
	e, _ = g.Edge(src, dst)
	assert.Equal(t, 1.0, e.FilterMix)
}

func assertBiquadNear(t *testing.T, want, got ir.Biquad, delta float64, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.B0, got.B0, delta, msgAndArgs...)
	assert.InDelta(t, want.B1, got.B1, delta, msgAndArgs...)
	assert.InDelta(t, want.B2, got.B2, delta, msgAndArgs...)
	assert.InDelta(t, want.A1, got.A1, delta, msgAndArgs...)
	assert.InDelta(t, want.A2, got.A2, delta, msgAndArgs...)
	assert.InDelta(t, want.Gain, got.Gain, delta, msgAndArgs...)
}

func TestGraph_FilterRetargetMidCrossfade(t *testing.T) {
	lowpass, err := ir.BiquadLowpass(500, 0.7)
	require.NoError(t, err)
	highpass, err := ir.BiquadHighpass(2000, 0.7)
	require.NoError(t, err)
	identity := ir.BiquadIdentity()

	const blocks = 10
	tests := []struct {
		name  string
		ticks int
		mix   float64
	}{
		{name: "before halfway", ticks: 4, mix: 0.4},
		{name: "after halfway", ticks: 6, mix: 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)
			g.Configure(src, dst, wire(1, 0))
			g.Configure(src, dst, Config{Gain: 1, FadeBlocks: blocks, Filter: lowpass})
			for range tt.ticks {
				g.Tick()
			}

			before, _ := g.Edge(src, dst)
			require.InDelta(t, tt.mix, before.FilterMix, 1e-9)

			g.Configure(src, dst, Config{Gain: 1, FadeBlocks: blocks, Filter: highpass})
			after, _ := g.Edge(src, dst)

			// identity keeps weight 1-mix and lowpass keeps mix; highpass starts at 0.
			assertBiquadNear(t, blend(identity, lowpass, tt.mix), after.FilterFrom, 1e-9)
			assert.Equal(t, highpass, after.FilterTo)
			assert.Equal(t, 0.0, after.FilterMix)
			assertBiquadNear(t, before.Filter(), after.Filter(), 1e-9, "retarget must not jump")

			// Each block moves every weight by at most 1/blocks.
			step := 1.0 / blocks
			prev := after
			for range blocks {
				g.Tick()
				cur, _ := g.Edge(src, dst)
				assert.LessOrEqual(t, cur.FilterMix-prev.FilterMix, step+1e-9)
				wPrevID, wCurID := (1-prev.FilterMix)*(1-tt.mix), (1-cur.FilterMix)*(1-tt.mix)
				wPrevLP, wCurLP := (1-prev.FilterMix)*tt.mix, (1-cur.FilterMix)*tt.mix
				assert.LessOrEqual(t, math.Abs(wCurID-wPrevID), step+1e-9)
				assert.LessOrEqual(t, math.Abs(wCurLP-wPrevLP), step+1e-9)
				prev = cur
			}
			assert.Equal(t, highpass, prev.Filter())
		})
	}
}

func TestSnapshot_FilterBlends(t *testing.T) {
	lowpass, err := ir.BiquadLowpass(500, 0.7)
	require.NoError(t, err)
	identity := ir.BiquadIdentity()

	s := Snapshot{FilterFrom: identity, FilterTo: lowpass, FilterMix: 0.5}
	got := s.Filter()
	assert.InDelta(t, (identity.B0+lowpass.B0)/2, got.B0, 1e-12)
	assert.InDelta(t, lowpass.A1/2, got.A1, 1e-12)
	assert.False(t, got.IsWire)

	assert.Equal(t, identity, Snapshot{FilterFrom: identity, FilterTo: lowpass}.Filter())
	assert.Equal(t, lowpass, Snapshot{FilterFrom: identity, FilterTo: lowpass, FilterMix: 1}.Filter())
}

func TestGraph_EdgesSorted(t *testing.T) {
	g := New()
	g.Configure(ir.MakeHandle(3, 0), ir.MakeHandle(9, 0), wire(1, 0))
	g.Configure(ir.MakeHandle(1, 0), ir.MakeHandle(8, 0), wire(1, 0))
	g.Configure(ir.MakeHandle(1, 0), ir.MakeHandle(7, 0), wire(1, 0))

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, ir.MakeHandle(1, 0), edges[0].Source)
	assert.Equal(t, ir.MakeHandle(7, 0), edges[0].Destination)
	assert.Equal(t, ir.MakeHandle(3, 0), edges[2].Source)
}

func TestGraph_GainIsFinite(t *testing.T) {
	g := New()
	src, dst := ir.MakeHandle(1, 0), ir.MakeHandle(2, 0)
	g.Configure(src, dst, wire(0.3, 3))
	for i := 0; i < 4; i++ {
		g.Tick()
		e, _ := g.Edge(src, dst)
		assert.False(t, math.IsNaN(e.Gain))
	}
}
