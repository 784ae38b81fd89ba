package greenrt

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Runtime owns the worker pool, the task, scope, and channel registries,
// and the configuration hooks. Create one with [New]; release it with
// [Runtime.Shutdown]. Compiled programs normally use the process-global
// runtime managed by [RuntimeInit] / [RuntimeShutdown] instead.
type Runtime struct {
	cfg   config
	sched *scheduler

	nextTaskID    atomic.Uint64
	nextScopeID   atomic.Uint64
	nextChannelID atomic.Uint64

	tasksMu sync.RWMutex
	tasks   map[TaskID]*Task

	scopesMu sync.Mutex
	scopes   map[ScopeID]*Scope

	chansMu sync.RWMutex
	chans   map[ChannelID]*Channel[Word]

	tasksSpawned   atomic.Int64
	tasksCompleted atomic.Int64
	tasksFaulted   atomic.Int64

	snapshotStop chan struct{}
	shutdownOnce sync.Once
}

// New creates a runtime and starts its worker pool. Workers run for the
// lifetime of the runtime.
func New(opts ...Option) *Runtime {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := &Runtime{
		cfg:    cfg,
		tasks:  make(map[TaskID]*Task),
		scopes: make(map[ScopeID]*Scope),
		chans:  make(map[ChannelID]*Channel[Word]),
	}
	rt.sched = newScheduler(rt, cfg.workers, cfg.injectorSize)

	if cfg.onSnapshot != nil {
		rt.snapshotStop = make(chan struct{})
		go rt.snapshotLoop()
	}

	slog.Debug("greenrt: runtime initialized", slog.Int("workers", cfg.workers))
	return rt
}

// Root returns the task context for code running outside the worker pool —
// the main thread of the compiled program. The root context has no owning
// task; it can enter scopes, spawn, and await like any task body.
func (rt *Runtime) Root() *TaskContext {
	return &TaskContext{rt: rt}
}

// Shutdown signals all workers to drain their queues and stops the
// runtime. Scopes still open at shutdown are not waited on; teardown at
// process exit is abrupt by design. Shutdown is idempotent.
func (rt *Runtime) Shutdown() {
	rt.shutdownOnce.Do(func() {
		if rt.snapshotStop != nil {
			close(rt.snapshotStop)
		}
		rt.sched.stop()

		rt.chansMu.Lock()
		rt.chans = make(map[ChannelID]*Channel[Word])
		rt.chansMu.Unlock()

		slog.Debug("greenrt: runtime shut down",
			slog.Int64("spawned", rt.tasksSpawned.Load()),
			slog.Int64("faulted", rt.tasksFaulted.Load()))
	})
}

// Spawn creates a task for the closure and capture record, registers it
// with tc's innermost active scope, submits it to the scheduler, and
// returns its id immediately. kind declares the closure's result type.
//
// Spawning with no active scope panics: the front end guarantees every
// spawn sits inside a concurrent block, so reaching that state is a
// code-generation bug. The only other failure mode is allocation
// exhaustion, which aborts the process like any other Go allocation.
func (rt *Runtime) Spawn(tc *TaskContext, fn Closure, capture *CaptureBuffer, kind Kind) TaskID {
	t := rt.spawnTask(tc, fn, capture, kind)
	return t.id
}

func (rt *Runtime) spawnTask(tc *TaskContext, fn Closure, capture *CaptureBuffer, kind Kind) *Task {
	if fn == nil {
		panic("greenrt: spawn of nil closure")
	}
	if !kind.valid() {
		panic(fmt.Sprintf("greenrt: spawn with unknown result kind %d", uint8(kind)))
	}

	t := newTask(TaskID(rt.nextTaskID.Add(1)), fn, capture, kind)

	rt.tasksMu.Lock()
	rt.tasks[t.id] = t
	rt.tasksMu.Unlock()

	// Register before submit: the scope must know the child before any
	// worker can start (and finish) it.
	tc.registerChild(t.id)

	rt.tasksSpawned.Add(1)
	rt.sched.submit(t, tc.worker)
	return t
}

func (rt *Runtime) lookupTask(id TaskID) *Task {
	rt.tasksMu.RLock()
	defer rt.tasksMu.RUnlock()
	return rt.tasks[id]
}

// releaseTask drops the id mapping once the task's enclosing scope has
// observed it. Typed handles keep the task reachable directly, so a
// handle held past scope exit still awaits the cached result.
func (rt *Runtime) releaseTask(id TaskID) {
	rt.tasksMu.Lock()
	delete(rt.tasks, id)
	rt.tasksMu.Unlock()
}

// awaitTask blocks tc until t completes. A caller off the pool simply
// sleeps on the task's condition variable. A worker instead keeps
// executing other ready tasks while it waits, so nested joins on a fixed
// pool cannot deadlock with every worker parked inside a scope exit while
// the children sit queued. Once no ready work is visible anywhere, t is
// necessarily running on some worker, and sleeping on its condition
// variable is safe.
func (rt *Runtime) awaitTask(tc *TaskContext, t *Task) {
	if tc == nil || tc.worker == nil {
		t.wait()
		return
	}

	w := tc.worker
	for {
		if t.isDone() {
			return
		}
		if other, ok := w.next(); ok {
			w.run(other)
			continue
		}
		t.wait()
		return
	}
}

// awaitWord blocks until the task completes, re-raises its fault if one
// was recorded, and returns the result Word. The kind tag carried by the
// caller must match the task's declared kind; a mismatch is a
// code-generation bug and panics.
func (rt *Runtime) awaitWord(tc *TaskContext, id TaskID, kind Kind) Word {
	t := rt.lookupTask(id)
	if t == nil {
		panic(fmt.Sprintf("greenrt: await of unknown task %d", id))
	}
	if t.kind != kind {
		panic(fmt.Sprintf("greenrt: await of task %d as %s, spawned as %s", id, kind, t.kind))
	}
	rt.awaitTask(tc, t)
	w, fe := t.observe()
	if fe != nil {
		panic(fe)
	}
	return w
}

// OpenChannel creates a channel in the runtime's registry and returns its
// id. capacity <= 0 means unbounded. The flat surface moves values through
// these channels as Words.
func (rt *Runtime) OpenChannel(capacity int64) ChannelID {
	n := 0
	if capacity > 0 {
		n = int(capacity)
	}
	id := ChannelID(rt.nextChannelID.Add(1))

	rt.chansMu.Lock()
	rt.chans[id] = NewChannel[Word](n)
	rt.chansMu.Unlock()
	return id
}

func (rt *Runtime) channel(id ChannelID) *Channel[Word] {
	rt.chansMu.RLock()
	ch := rt.chans[id]
	rt.chansMu.RUnlock()
	if ch == nil {
		panic(fmt.Sprintf("greenrt: use of unknown channel %d", id))
	}
	return ch
}

func (rt *Runtime) snapshotLoop() {
	ticker := time.NewTicker(rt.cfg.snapshotEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rt.cfg.onSnapshot(rt.Stats())
		case <-rt.snapshotStop:
			return
		}
	}
}
