package greenrt_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/meridian-lang/greenrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStressManyTrivialTasks(t *testing.T) {
	rt := newTestRuntime(t, greenrt.WithWorkers(4))
	tc := rt.Root()

	const n = 10000
	var count atomic.Int64

	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := rt.EnterScope(tc)
		for i := 0; i < n; i++ {
			greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool {
				count.Add(1)
				return true
			})
		}
		rt.ExitScope(tc, sc)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("stress run did not terminate in bounded time")
	}

	require.EqualValues(t, n, count.Load())

	stats := rt.Stats()
	assert.EqualValues(t, n, stats.Spawned)
	assert.EqualValues(t, n, stats.Completed)
	assert.Zero(t, stats.Faulted)
	assert.Zero(t, stats.LiveTasks, "task table must be empty after the scope drains")
	assert.Zero(t, stats.LiveScopes, "scope table must be empty after the scope drains")
	assert.Zero(t, stats.QueueDepth)
}

func TestStressNestedSpawns(t *testing.T) {
	rt := newTestRuntime(t, greenrt.WithWorkers(8))
	tc := rt.Root()

	var count atomic.Int64

	sc := rt.EnterScope(tc)
	for i := 0; i < 50; i++ {
		greenrt.Spawn(tc, func(tc *greenrt.TaskContext) bool {
			inner := tc.Runtime().EnterScope(tc)
			for j := 0; j < 20; j++ {
				greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool {
					count.Add(1)
					return true
				})
			}
			tc.Runtime().ExitScope(tc, inner)
			return true
		})
	}
	rt.ExitScope(tc, sc)

	require.EqualValues(t, 50*20, count.Load())
	stats := rt.Stats()
	assert.Zero(t, stats.LiveTasks)
	assert.Zero(t, stats.LiveScopes)
}

func TestStatsCountsStolenWork(t *testing.T) {
	rt := newTestRuntime(t, greenrt.WithWorkers(4))
	tc := rt.Root()

	// Tasks spawned from a worker land on that worker's own deque, so a
	// burst spawned by one task is the classic steal setup.
	sc := rt.EnterScope(tc)
	greenrt.Spawn(tc, func(tc *greenrt.TaskContext) bool {
		inner := tc.Runtime().EnterScope(tc)
		for i := 0; i < 2000; i++ {
			greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool {
				time.Sleep(time.Microsecond)
				return true
			})
		}
		tc.Runtime().ExitScope(tc, inner)
		return true
	})
	rt.ExitScope(tc, sc)

	stats := rt.Stats()
	assert.EqualValues(t, 2001, stats.Completed)
	assert.Positive(t, stats.Stolen, "siblings should have stolen from the spawning worker's deque")
}

func TestParkedWorkersGaugeStaysInRange(t *testing.T) {
	const workers = 4
	rt := newTestRuntime(t, greenrt.WithWorkers(workers))
	tc := rt.Root()

	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := rt.Stats()
			if s.ParkedWorkers < 0 || s.ParkedWorkers > workers {
				t.Errorf("ParkedWorkers = %d, want 0..%d", s.ParkedWorkers, workers)
				return
			}
		}
	}()

	// Park/wake churn: small bursts with idle gaps in between.
	for round := 0; round < 50; round++ {
		sc := rt.EnterScope(tc)
		for i := 0; i < 8; i++ {
			greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool { return true })
		}
		rt.ExitScope(tc, sc)
	}

	close(stop)
	<-polled
}

func TestTaskLifecycleHooks(t *testing.T) {
	var started, finished, faulted atomic.Int64

	rt := newTestRuntime(t,
		greenrt.WithWorkers(2),
		greenrt.WithOnTaskStart(func(info greenrt.TaskInfo) {
			started.Add(1)
		}),
		greenrt.WithOnTaskDone(func(info greenrt.TaskInfo, err error, d time.Duration) {
			finished.Add(1)
			if err != nil {
				faulted.Add(1)
			}
		}),
	)
	tc := rt.Root()

	sc := rt.EnterScope(tc)
	for i := 0; i < 5; i++ {
		greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool { return true })
	}
	greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool { panic("hook-test") })

	_ = capturePanic(func() { rt.ExitScope(tc, sc) })

	require.EqualValues(t, 6, started.Load())
	require.EqualValues(t, 6, finished.Load())
	require.EqualValues(t, 1, faulted.Load())
}

func TestSnapshotsFire(t *testing.T) {
	snaps := make(chan greenrt.Stats, 16)

	rt := greenrt.New(
		greenrt.WithWorkers(2),
		greenrt.WithSnapshots(10*time.Millisecond, func(s greenrt.Stats) {
			select {
			case snaps <- s:
			default:
			}
		}),
	)
	defer rt.Shutdown()

	tc := rt.Root()
	sc := rt.EnterScope(tc)
	for i := 0; i < 10; i++ {
		greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool { return true })
	}
	rt.ExitScope(tc, sc)

	select {
	case s := <-snaps:
		assert.Equal(t, 2, s.Workers)
	case <-time.After(time.Second):
		t.Fatal("no snapshot fired")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	rt := greenrt.New(greenrt.WithWorkers(2))
	rt.Shutdown()
	rt.Shutdown()
}

func TestSpawnAfterShutdownPanics(t *testing.T) {
	rt := greenrt.New(greenrt.WithWorkers(2))
	tc := rt.Root()
	sc := rt.EnterScope(tc)
	_ = sc
	rt.Shutdown()

	require.Panics(t, func() {
		greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool { return true })
	})
}

func TestOptionValidation(t *testing.T) {
	require.Panics(t, func() { greenrt.New(greenrt.WithWorkers(0)) })
	require.Panics(t, func() { greenrt.New(greenrt.WithInjectorSize(-1)) })
	require.Panics(t, func() { greenrt.WithSnapshots(0, func(greenrt.Stats) {}) })
	require.Panics(t, func() { greenrt.WithSnapshots(time.Second, nil) })
}

func TestTaskIDsAreMonotonic(t *testing.T) {
	rt := newTestRuntime(t)
	tc := rt.Root()

	sc := rt.EnterScope(tc)
	var prev greenrt.TaskID
	for i := 0; i < 20; i++ {
		h := greenrt.Spawn(tc, func(_ *greenrt.TaskContext) bool { return true })
		require.Greater(t, h.ID(), prev)
		prev = h.ID()
	}
	rt.ExitScope(tc, sc)
}
