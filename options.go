package greenrt

import (
	"runtime"
	"time"
)

// TaskInfo provides metadata about a task. It is passed to the lifecycle
// hooks registered via [WithOnTaskStart] and [WithOnTaskDone].
type TaskInfo struct {
	ID   TaskID
	Kind Kind
}

type config struct {
	workers      int
	injectorSize int
	onTaskStart  func(TaskInfo)
	onTaskDone   func(TaskInfo, error, time.Duration)

	snapshotEvery time.Duration
	onSnapshot    func(Stats)
}

// Option configures a [Runtime].
type Option func(*config)

func defaultConfig() config {
	return config{
		workers:      runtime.NumCPU(),
		injectorSize: 256,
	}
}

// WithWorkers sets the number of workers in the pool. The default is
// [runtime.NumCPU]. Panics if n <= 0.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n <= 0 {
			panic("greenrt: WithWorkers requires n > 0")
		}
		c.workers = n
	}
}

// WithInjectorSize sets the buffer size of the injector queue that carries
// submissions from outside the worker pool. Panics if size <= 0.
func WithInjectorSize(size int) Option {
	return func(c *config) {
		if size <= 0 {
			panic("greenrt: WithInjectorSize requires size > 0")
		}
		c.injectorSize = size
	}
}

// WithOnTaskStart registers a hook invoked when each task begins
// executing. The hook runs on the task's worker before the closure.
func WithOnTaskStart(fn func(TaskInfo)) Option {
	return func(c *config) {
		c.onTaskStart = fn
	}
}

// WithOnTaskDone registers a hook invoked when each task finishes. The
// hook receives the task's fault as an error (nil on success) and its
// wall-clock duration, and runs on the task's worker after completion is
// published.
func WithOnTaskDone(fn func(TaskInfo, error, time.Duration)) Option {
	return func(c *config) {
		c.onTaskDone = fn
	}
}

// WithSnapshots registers a periodic stats callback that fires every
// interval with a point-in-time [Stats] snapshot.
//
// Panics if interval <= 0 or fn is nil.
func WithSnapshots(interval time.Duration, fn func(Stats)) Option {
	if interval <= 0 {
		panic("greenrt: WithSnapshots requires interval > 0")
	}
	if fn == nil {
		panic("greenrt: WithSnapshots requires non-nil callback")
	}
	return func(c *config) {
		c.snapshotEvery = interval
		c.onSnapshot = fn
	}
}
