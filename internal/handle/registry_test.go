package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthplane/internal/ir"
)

// fakeClock is a settable owner clock.
type fakeClock struct {
	mu  sync.Mutex
	now float64
}

func (c *fakeClock) Now(ir.Handle) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func newTestRegistry(t *testing.T) (*Registry, *fakeClock, ir.Handle) {
	t.Helper()
	clock := &fakeClock{}
	r := New(WithClock(clock.Now))
	ctx, err := r.Create(ir.ObjectTypeContext, ir.NoHandle, DeleteBehavior{})
	require.NoError(t, err)
	return r, clock, ctx
}

func TestRegistry_RefcountSymmetry(t *testing.T) {
	r, _, ctx := newTestRegistry(t)

	refs, err := r.Retain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, refs)

	refs, err = r.Release(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, refs)

	refs, err = r.Release(ctx)
	require.NoError(t, err, "release to exactly zero succeeds")
	assert.Equal(t, 0, refs)

	_, err = r.Release(ctx)
	assert.ErrorIs(t, err, ErrInvalidHandle, "third release must fail")
}

func TestRegistry_RetainDoomedFails(t *testing.T) {
	r, _, ctx := newTestRegistry(t)
	src, err := r.Create(ir.ObjectTypeDirectSource, ctx, DeleteBehavior{})
	require.NoError(t, err)

	_, err = r.Release(src)
	require.NoError(t, err)

	_, err = r.Retain(src)
	assert.ErrorIs(t, err, ErrInvalidHandle)

	// Still resolvable until the next block boundary
	typ, err := r.Type(src)
	require.NoError(t, err)
	assert.Equal(t, ir.ObjectTypeDirectSource, typ)

	reaped := r.Collect(ctx, 0)
	assert.Equal(t, []ir.Handle{src}, reaped)

	_, err = r.Type(src)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestRegistry_LingerWindow(t *testing.T) {
	r, clock, ctx := newTestRegistry(t)
	src, err := r.Create(ir.ObjectTypeSource3D, ctx, DeleteBehavior{Linger: true, LingerTimeout: 0.5})
	require.NoError(t, err)

	clock.Set(1.0)
	_, err = r.Release(src)
	require.NoError(t, err)

	for _, now := range []float64{1.0, 1.25, 1.5} {
		assert.Empty(t, r.Collect(ctx, now), "still lingering at %g", now)
		_, err = r.Type(src)
		assert.NoError(t, err, "resolvable at %g", now)
	}

	assert.Equal(t, []ir.Handle{src}, r.Collect(ctx, 1.75))
	_, err = r.Type(src)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestRegistry_PinDelaysReaping(t *testing.T) {
	r, _, ctx := newTestRegistry(t)
	buf, err := r.Create(ir.ObjectTypeBuffer, ir.NoHandle, DeleteBehavior{})
	require.NoError(t, err)

	require.NoError(t, r.Pin(buf))
	_, err = r.Release(buf)
	require.NoError(t, err)

	_, err = r.Type(buf)
	require.NoError(t, err, "pinned buffer survives its last release")

	require.NoError(t, r.Unpin(buf))
	_, err = r.Type(buf)
	assert.ErrorIs(t, err, ErrInvalidHandle, "unowned handle reaped when the last pin drops")

	assert.Error(t, r.Unpin(ctx), "unpinning an unpinned handle is an error")
}

func TestRegistry_PinnedOwnedHandleWaitsForCollect(t *testing.T) {
	r, _, ctx := newTestRegistry(t)
	src, err := r.Create(ir.ObjectTypeDirectSource, ctx, DeleteBehavior{})
	require.NoError(t, err)

	require.NoError(t, r.Pin(src))
	_, err = r.Release(src)
	require.NoError(t, err)

	assert.Empty(t, r.Collect(ctx, 0))
	require.NoError(t, r.Unpin(src))
	assert.Equal(t, 1, r.Pending(ctx))
	assert.Equal(t, []ir.Handle{src}, r.Collect(ctx, 0))
}

func TestRegistry_SlotReuseBumpsGeneration(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	a, err := r.Create(ir.ObjectTypeBuffer, ir.NoHandle, DeleteBehavior{})
	require.NoError(t, err)
	_, err = r.Release(a)
	require.NoError(t, err)

	b, err := r.Create(ir.ObjectTypeBuffer, ir.NoHandle, DeleteBehavior{})
	require.NoError(t, err)

	slotA, _ := a.Slot()
	slotB, _ := b.Slot()
	assert.Equal(t, slotA, slotB, "freed slot is reused")
	assert.NotEqual(t, a, b, "but never under the same id")

	_, err = r.Type(a)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestRegistry_UserDataFreedOnce(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	h, err := r.Create(ir.ObjectTypeBuffer, ir.NoHandle, DeleteBehavior{})
	require.NoError(t, err)

	var freed []any
	free := func(data any) { freed = append(freed, data) }

	require.NoError(t, r.SetUserData(h, "first", free))
	require.NoError(t, r.SetUserData(h, "second", free))
	assert.Equal(t, []any{"first"}, freed, "replacing frees the old blob")

	data, err := r.UserData(h)
	require.NoError(t, err)
	assert.Equal(t, "second", data)

	_, err = r.Release(h)
	require.NoError(t, err)
	assert.Equal(t, []any{"first", "second"}, freed, "destroying frees the current blob")
}

func TestRegistry_DestroyHooksRunBeforeFree(t *testing.T) {
	r, _, ctx := newTestRegistry(t)
	var order []string
	r.OnDestroy(func(h ir.Handle, typ ir.ObjectType) {
		order = append(order, "hook:"+typ.String())
	})

	src, err := r.Create(ir.ObjectTypeDirectSource, ctx, DeleteBehavior{})
	require.NoError(t, err)
	require.NoError(t, r.SetUserData(src, 1, func(any) { order = append(order, "free") }))

	_, err = r.Release(src)
	require.NoError(t, err)
	r.Collect(ctx, 0)

	assert.Equal(t, []string{"hook:direct_source", "free"}, order)
}

func TestRegistry_ResetInvalidatesEverything(t *testing.T) {
	r, _, ctx := newTestRegistry(t)
	freed := 0
	require.NoError(t, r.SetUserData(ctx, nil, func(any) { freed++ }))
	_, err := r.Create(ir.ObjectTypeDirectSource, ctx, DeleteBehavior{})
	require.NoError(t, err)

	r.Reset()

	assert.Equal(t, 0, r.Live())
	assert.Equal(t, 1, freed)
	_, err = r.Type(ctx)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestRegistry_ConfigureDeleteBehavior(t *testing.T) {
	r, _, ctx := newTestRegistry(t)
	require.NoError(t, r.ConfigureDeleteBehavior(ctx, DeleteBehavior{Linger: true, LingerTimeout: 2}))

	info, err := r.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.Behavior.Linger)
	assert.Equal(t, 2.0, info.Behavior.LingerTimeout)

	assert.Error(t, r.ConfigureDeleteBehavior(ctx, DeleteBehavior{LingerTimeout: -1}))
}

func TestRegistry_ConcurrentRetainRelease(t *testing.T) {
	r, _, ctx := newTestRegistry(t)
	const goroutines = 50
	const rounds = 200

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				_, err := r.Retain(ctx)
				assert.NoError(t, err)
				_, err = r.Release(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	info, err := r.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Refs, "refcount never drifts under contention")
}

func TestRegistry_InvalidHandles(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	_, err := r.Retain(ir.NoHandle)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	_, err = r.Type(ir.MakeHandle(999, 0))
	assert.ErrorIs(t, err, ErrInvalidHandle)
	_, err = r.Create(ir.ObjectType(99), ir.NoHandle, DeleteBehavior{})
	assert.Error(t, err)
}
