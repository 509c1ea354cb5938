package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthplane/internal/engine"
	"github.com/roach88/synthplane/internal/ir"
)

func TestFixedRunGenerator_AlwaysSame(t *testing.T) {
	gen := NewFixedRunGenerator("run-1")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-1", gen.Generate())
}

func TestFixedRunGenerator_Default(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunGenerator("").Generate())
}

func TestFixedRunGenerator_ImplementsIDGenerator(t *testing.T) {
	var _ engine.IDGenerator = NewFixedRunGenerator("x")
}

func TestRecorder_RecordsCalls(t *testing.T) {
	r := NewRecorder()
	var _ engine.Renderer = r

	h := ir.MakeHandle(0, 0)
	r.ApplyProperty(h, ir.PropGain, ir.Double(0.5))
	r.ResetEffect(h)
	r.Raise(ir.EventTypeFinished, h)

	block, signals := r.Render(&engine.Frame{BlockSize: 4})
	assert.Len(t, block, 4*engine.OutputChannels)
	require.Len(t, signals, 1)
	assert.Equal(t, engine.Signal{Type: ir.EventTypeFinished, Source: h}, signals[0])

	_, signals = r.Render(&engine.Frame{BlockSize: 4})
	assert.Empty(t, signals, "signals are delivered once")

	v, ok := r.Property(h, ir.PropGain)
	require.True(t, ok)
	assert.Equal(t, ir.Double(0.5), v)
	assert.Equal(t, []ir.Handle{h}, r.Resets())
	assert.Len(t, r.Frames(), 2)

	r.Forget(h)
	_, ok = r.Property(h, ir.PropGain)
	assert.False(t, ok)
	assert.Equal(t, []ir.Handle{h}, r.Forgotten())
}

func TestRecorder_ConcurrentUse(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.ApplyProperty(ir.MakeHandle(uint32(i), 0), ir.PropGain, ir.Double(1))
			r.Render(&engine.Frame{BlockSize: 1})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, r.Applied())
	assert.Len(t, r.Frames(), 50)
}
