package syz

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	cfg.BlockSize = 2000
	return cfg
}

// initialize starts the process-wide library for one test.
func initialize(t *testing.T) {
	t.Helper()
	require.Equal(t, Success, InitializeWithConfig(testConfig()))
	t.Cleanup(func() { Shutdown() })
}

// mustHandle checks the status of a creating call:
// mustHandle(t)(CreateDirectSource(ctx)).
func mustHandle(t *testing.T) func(Handle, Status) Handle {
	t.Helper()
	return func(h Handle, st Status) Handle {
		t.Helper()
		require.Equal(t, Success, st, "last error: %s", GetLastErrorMessage())
		return h
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "SUCCESS", Success.String())
	assert.Equal(t, "INVALID_HANDLE", StatusInvalidHandle.String())
	assert.Equal(t, "NOT_INITIALIZED", StatusNotInitialized.String())
}

func TestInitialize_Twice(t *testing.T) {
	initialize(t)

	assert.Equal(t, StatusAlreadyInitialized, Initialize())
	assert.Equal(t, StatusAlreadyInitialized, GetLastErrorCode())
	assert.Contains(t, GetLastErrorMessage(), "already initialized")
}

func TestInitialize_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BlockSize = 1

	assert.Equal(t, StatusInvalidValue, InitializeWithConfig(cfg))
	assert.Contains(t, GetLastErrorMessage(), "block_size")

	// Nothing was created, so there is nothing to shut down.
	assert.Equal(t, StatusNotInitialized, Shutdown())
}

func TestCalls_BeforeInitialize(t *testing.T) {
	_, st := CreateContextHeadless()
	assert.Equal(t, StatusNotInitialized, st)
	assert.Equal(t, StatusNotInitialized, GetLastErrorCode())

	assert.Equal(t, StatusNotInitialized, Play(NoHandle))
}

func TestShutdown_InvalidatesHandles(t *testing.T) {
	require.Equal(t, Success, InitializeWithConfig(testConfig()))
	ctx := mustHandle(t)(CreateContextHeadless())
	src := mustHandle(t)(CreateDirectSource(ctx))

	var freed []any
	require.Equal(t, Success, SetUserData(src, "payload", func(data any) { freed = append(freed, data) }))
	require.Equal(t, Success, Shutdown())
	assert.Equal(t, []any{"payload"}, freed)

	initialize(t)
	_, st := GetObjectType(src)
	assert.Equal(t, StatusInvalidHandle, st)
}

func TestRouteThroughFacade(t *testing.T) {
	initialize(t)
	ctx := mustHandle(t)(CreateContextHeadless())
	src := mustHandle(t)(CreateDirectSource(ctx))
	verb := mustHandle(t)(CreateGlobalFDNReverb(ctx))

	cfg := DefaultRouteConfig()
	cfg.FadeTime = 0.5
	require.Equal(t, Success, ConfigureRoute(ctx, src, verb, cfg))

	_, ok, st := RouteGain(ctx, src, verb)
	require.Equal(t, Success, st)
	assert.False(t, ok, "routes commit at the block boundary")

	block, st := GetBlock(ctx)
	require.Equal(t, Success, st)
	assert.Len(t, block, 2*2000)

	gain, ok, st := RouteGain(ctx, src, verb)
	require.Equal(t, Success, st)
	require.True(t, ok)
	assert.InDelta(t, 0.5, gain, 1e-12)

	routes, st := Routes(ctx)
	require.Equal(t, Success, st)
	require.Len(t, routes, 1)

	assert.Equal(t, StatusWrongObjectType, ConfigureRoute(ctx, verb, src, cfg))
}

func TestPropertiesThroughFacade(t *testing.T) {
	initialize(t)
	ctx := mustHandle(t)(CreateContextHeadless())
	src := mustHandle(t)(CreateDirectSource(ctx))

	require.Equal(t, Success, SetDouble(src, PropGain, 0.5))
	_, st := GetBlock(ctx)
	require.Equal(t, Success, st)

	gain, st := GetDouble(src, PropGain)
	require.Equal(t, Success, st)
	assert.Equal(t, 0.5, gain)

	v, st := GetProperty(src, PropGain)
	require.Equal(t, Success, st)
	assert.Equal(t, Double(0.5), v)

	assert.Equal(t, StatusReadOnlyProperty, SetDouble(ctx, PropCurrentTime, 1))
	assert.Equal(t, StatusInvalidProperty, SetDouble(src, PropAzimuth, 1))

	p, ok := ParseProperty("gain")
	require.True(t, ok)
	assert.Equal(t, PropGain, p)
}

func TestEventsThroughFacade(t *testing.T) {
	initialize(t)
	ctx := mustHandle(t)(CreateContextHeadless())
	src := mustHandle(t)(CreateDirectSource(ctx))
	require.Equal(t, Success, EnableEvents(ctx))

	batch := mustHandle(t)(CreateAutomationBatch(ctx))
	require.Equal(t, Success, AutomationBatchAddCommands(batch, AutomationCommand{
		Target: src,
		Time:   0,
		Kind:   AutomationSendUserEvent,
		Param:  7,
	}))
	require.Equal(t, Success, ExecuteAutomationBatch(batch))
	require.Equal(t, Success, Release(batch))

	_, st := GetBlock(ctx)
	require.Equal(t, Success, st)

	ev, st := NextEvent(ctx)
	require.Equal(t, Success, st)
	require.NotNil(t, ev)
	assert.Equal(t, EventTypeUserAutomation, ev.Type)
	assert.Equal(t, src, ev.Source)
	assert.Equal(t, uint64(7), ev.Param)
	require.Equal(t, Success, ReleaseEvent(ev))

	ev, st = NextEvent(ctx)
	require.Equal(t, Success, st)
	assert.Nil(t, ev)
}

func TestBuffersThroughFacade(t *testing.T) {
	initialize(t)
	buf := mustHandle(t)(CreateBufferFromFloatArray(8000, 2, 4000, make([]float32, 8000)))

	channels, st := BufferChannels(buf)
	require.Equal(t, Success, st)
	assert.Equal(t, 2, channels)

	seconds, st := BufferLengthInSeconds(buf)
	require.Equal(t, Success, st)
	assert.InDelta(t, 0.5, seconds, 1e-12)

	_, st = CreateBufferFromEncodedData([]byte("not audio"))
	assert.NotEqual(t, Success, st)
}

func TestCaller_KeepsOwnLastError(t *testing.T) {
	initialize(t)
	a := NewCaller()
	b := NewCaller()

	_, st := a.GetObjectType(Handle(12345))
	require.Equal(t, StatusInvalidHandle, st)

	assert.Equal(t, StatusInvalidHandle, a.LastErrorCode())
	assert.NotEmpty(t, a.LastErrorMessage())
	assert.Equal(t, Success, b.LastErrorCode())
	assert.Empty(t, b.LastErrorMessage())

	// Success does not clear a recorded error.
	_, st = a.CreateContextHeadless()
	require.Equal(t, Success, st)
	assert.Equal(t, StatusInvalidHandle, a.LastErrorCode())
}

func TestCaller_ConcurrentUse(t *testing.T) {
	initialize(t)
	ctx := mustHandle(t)(CreateContextHeadless())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewCaller()
			src, st := c.CreateDirectSource(ctx)
			if !assert.Equal(t, Success, st) {
				return
			}
			assert.Equal(t, Success, c.SetDouble(src, PropGain, 0.25))
			assert.Equal(t, Success, c.Release(src))
		}()
	}
	wg.Wait()
}
