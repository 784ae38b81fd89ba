package greenrt_test

import (
	"testing"

	"github.com/meridian-lang/greenrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The flat surface is what generated native code calls; these tests walk
// it the way a compiled program would.

func TestFlatSurfaceLifecycle(t *testing.T) {
	tc := greenrt.RuntimeInit(greenrt.WithWorkers(2))
	defer greenrt.RuntimeShutdown()

	require.Panics(t, func() { greenrt.RuntimeInit() }, "double init is a bug")

	sc := greenrt.ScopeEnter(tc)
	id := greenrt.SpawnTaskI64(tc, func(_ *greenrt.TaskContext) greenrt.Word {
		return greenrt.I64Word(99)
	}, nil)
	require.EqualValues(t, 99, greenrt.TaskAwaitI64(tc, id))
	greenrt.ScopeExit(tc, sc)
}

func TestFlatSurfacePerKindRoundTrips(t *testing.T) {
	tc := greenrt.RuntimeInit(greenrt.WithWorkers(2))
	defer greenrt.RuntimeShutdown()

	sc := greenrt.ScopeEnter(tc)

	i32 := greenrt.SpawnTaskI32(tc, func(_ *greenrt.TaskContext) greenrt.Word {
		return greenrt.I32Word(-7)
	}, nil)
	i64 := greenrt.SpawnTaskI64(tc, func(_ *greenrt.TaskContext) greenrt.Word {
		return greenrt.I64Word(1 << 40)
	}, nil)
	b := greenrt.SpawnTaskBool(tc, func(_ *greenrt.TaskContext) greenrt.Word {
		return greenrt.BoolWord(true)
	}, nil)
	f32 := greenrt.SpawnTaskF32(tc, func(_ *greenrt.TaskContext) greenrt.Word {
		return greenrt.F32Word(1.5)
	}, nil)
	f64 := greenrt.SpawnTaskF64(tc, func(_ *greenrt.TaskContext) greenrt.Word {
		return greenrt.F64Word(-2.5)
	}, nil)

	assert.EqualValues(t, -7, greenrt.TaskAwaitI32(tc, i32))
	assert.EqualValues(t, 1<<40, greenrt.TaskAwaitI64(tc, i64))
	assert.True(t, greenrt.TaskAwaitBool(tc, b))
	assert.EqualValues(t, 1.5, greenrt.TaskAwaitF32(tc, f32))
	assert.EqualValues(t, -2.5, greenrt.TaskAwaitF64(tc, f64))

	greenrt.ScopeExit(tc, sc)
}

func TestFlatSurfaceKindMismatchPanics(t *testing.T) {
	tc := greenrt.RuntimeInit(greenrt.WithWorkers(2))
	defer greenrt.RuntimeShutdown()

	sc := greenrt.ScopeEnter(tc)
	id := greenrt.SpawnTaskI64(tc, func(_ *greenrt.TaskContext) greenrt.Word {
		return greenrt.I64Word(1)
	}, nil)

	require.Panics(t, func() { greenrt.TaskAwaitI32(tc, id) },
		"awaiting with the wrong kind tag is a code-generation bug")

	greenrt.ScopeExit(tc, sc)
}

func TestFlatSurfaceAwaitUnknownTaskPanics(t *testing.T) {
	tc := greenrt.RuntimeInit(greenrt.WithWorkers(2))
	defer greenrt.RuntimeShutdown()

	require.Panics(t, func() { greenrt.TaskAwaitI64(tc, 424242) })
}

func TestFlatSurfaceChannels(t *testing.T) {
	tc := greenrt.RuntimeInit(greenrt.WithWorkers(2))
	defer greenrt.RuntimeShutdown()

	ch := greenrt.ChannelNew(tc, 2)

	greenrt.ChannelSend(tc, ch, greenrt.I64Word(10))
	greenrt.ChannelSend(tc, ch, greenrt.I64Word(20))

	w, ok := greenrt.ChannelRecv(tc, ch)
	require.True(t, ok)
	assert.EqualValues(t, 10, w.I64())

	greenrt.ChannelClose(tc, ch)
	greenrt.ChannelClose(tc, ch) // idempotent

	w, ok = greenrt.ChannelRecv(tc, ch)
	require.True(t, ok, "buffered value must drain after close")
	assert.EqualValues(t, 20, w.I64())

	_, ok = greenrt.ChannelRecv(tc, ch)
	require.False(t, ok)

	require.Panics(t, func() {
		greenrt.ChannelSend(tc, ch, greenrt.I64Word(30))
	}, "send on a closed channel is a producer bug")
}

func TestFlatSurfaceUnboundedChannelEncoding(t *testing.T) {
	tc := greenrt.RuntimeInit(greenrt.WithWorkers(2))
	defer greenrt.RuntimeShutdown()

	// Zero and negative capacities both encode "unbounded".
	for _, capacity := range []int64{0, -1} {
		ch := greenrt.ChannelNew(tc, capacity)
		for i := 0; i < 1000; i++ {
			greenrt.ChannelSend(tc, ch, greenrt.I64Word(int64(i)))
		}
		greenrt.ChannelClose(tc, ch)

		for i := 0; i < 1000; i++ {
			w, ok := greenrt.ChannelRecv(tc, ch)
			require.True(t, ok)
			require.EqualValues(t, i, w.I64())
		}
		_, ok := greenrt.ChannelRecv(tc, ch)
		require.False(t, ok)
	}
}

func TestFlatSurfaceShutdownWithoutInitPanics(t *testing.T) {
	require.Panics(t, func() { greenrt.RuntimeShutdown() })
}
