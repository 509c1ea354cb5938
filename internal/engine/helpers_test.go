package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/synthplane/internal/config"
	"github.com/roach88/synthplane/internal/ir"
)

// stubRenderer records frames and hands out queued signals.
type stubRenderer struct {
	mu      sync.Mutex
	frames  []Frame
	props   map[ir.Handle]map[ir.Property]ir.Value
	resets  []ir.Handle
	pending []Signal
}

func newStubRenderer() *stubRenderer {
	return &stubRenderer{props: make(map[ir.Handle]map[ir.Property]ir.Value)}
}

func (r *stubRenderer) ApplyProperty(h ir.Handle, p ir.Property, v ir.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.props[h] == nil {
		r.props[h] = make(map[ir.Property]ir.Value)
	}
	r.props[h][p] = v
}

func (r *stubRenderer) Render(f *Frame) ([]float32, []Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, *f)
	out := r.pending
	r.pending = nil
	return make([]float32, f.BlockSize*OutputChannels), out
}

func (r *stubRenderer) ResetEffect(h ir.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, h)
}

func (r *stubRenderer) Forget(h ir.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.props, h)
}

func (r *stubRenderer) raise(typ ir.EventType, src ir.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, Signal{Type: typ, Source: src})
}

func (r *stubRenderer) lastFrame(t *testing.T) Frame {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	return r.frames[len(r.frames)-1]
}

func (r *stubRenderer) property(h ir.Handle, p ir.Property) ir.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.props[h][p]
}

// testConfig renders 0.25 s blocks: 2000 frames at 8 kHz.
func testConfig() config.Library {
	cfg := config.Default()
	cfg.SampleRate = 8000
	cfg.BlockSize = 2000
	return cfg
}

func newTestLibrary(t *testing.T, opts ...Option) *Library {
	t.Helper()
	return newTestLibraryWithConfig(t, testConfig(), opts...)
}

func newTestLibraryWithConfig(t *testing.T, cfg config.Library, opts ...Option) *Library {
	t.Helper()
	lib, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func newHeadless(t *testing.T, lib *Library) ir.Handle {
	t.Helper()
	ctx, err := lib.CreateContextHeadless()
	require.NoError(t, err)
	return ctx
}

func step(t *testing.T, lib *Library, ctx ir.Handle, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		block, err := lib.GetBlock(ctx)
		require.NoError(t, err)
		require.Len(t, block, lib.Config().BlockSize*OutputChannels)
	}
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "error: %v", err)
}
