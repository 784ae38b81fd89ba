package greenrt

import (
	"sync"
	"time"
)

// TaskID uniquely identifies a task for the process lifetime. IDs are
// allocated from a monotonically increasing counter; zero is never a valid
// id.
type TaskID uint64

// Closure is the entry point of a compiled spawn body. The code generator
// lowers each spawn expression into a function of this shape: it unpacks
// its capture record from the context, runs the body, and returns the
// result encoded as a Word for the task's result kind.
type Closure func(tc *TaskContext) Word

type taskState uint32

const (
	taskReady taskState = iota
	taskRunning
	taskCompleted
	taskFaulted
)

// Task is one unit of schedulable work: the closure, its capture record,
// and a type-erased result slot guarded by a mutex and condition variable.
//
// The result is written exactly once, under mu, before done becomes
// observable; waiters block on cond and are woken by a broadcast since both
// a direct await and the enclosing scope's exit may be waiting.
type Task struct {
	id      TaskID
	fn      Closure
	capture *CaptureBuffer
	kind    Kind

	mu    sync.Mutex
	cond  sync.Cond
	state taskState
	done  bool

	result Word
	fault  *FaultError

	// faultSeen marks the fault as surfaced to an observer, so scope exit
	// does not re-raise a fault that a direct await already delivered.
	faultSeen bool
}

func newTask(id TaskID, fn Closure, capture *CaptureBuffer, kind Kind) *Task {
	t := &Task{
		id:      id,
		fn:      fn,
		capture: capture,
		kind:    kind,
	}
	t.cond.L = &t.mu
	return t
}

// ID returns the task's process-wide id.
func (t *Task) ID() TaskID { return t.id }

// Kind returns the task's declared result kind.
func (t *Task) Kind() Kind { return t.kind }

// run executes the task body on the calling worker goroutine. Panics in
// the body are captured as faults; scopes the body entered but never
// exited (because it faulted mid-block) are drained so their children
// cannot outlive the task.
func (t *Task) run(tc *TaskContext) {
	rt := tc.rt

	t.mu.Lock()
	t.state = taskRunning
	t.mu.Unlock()

	if rt.cfg.onTaskStart != nil {
		rt.cfg.onTaskStart(TaskInfo{ID: t.id, Kind: t.kind})
	}

	start := time.Now()
	var result Word
	var fault *FaultError
	func() {
		defer func() {
			if r := recover(); r != nil {
				if fe, ok := r.(*FaultError); ok {
					// A child's fault re-raised by an inner await or scope
					// exit propagates unchanged.
					fault = fe
				} else {
					fault = newFaultError(r)
				}
			}
		}()
		result = t.fn(tc)
	}()

	// The body returned (or faulted) with scopes still open only if it
	// faulted mid-block; drain them so no child escapes.
	tc.abandonScopes()

	// The capture record is owned by the task only until the closure
	// finishes.
	t.capture = nil

	if fault != nil {
		rt.tasksFaulted.Add(1)
		t.fail(fault)
	} else {
		rt.tasksCompleted.Add(1)
		t.complete(result)
	}

	if rt.cfg.onTaskDone != nil {
		var err error
		if fault != nil {
			err = fault
		}
		rt.cfg.onTaskDone(TaskInfo{ID: t.id, Kind: t.kind}, err, time.Since(start))
	}
}

func (t *Task) complete(w Word) {
	t.mu.Lock()
	t.result = w
	t.state = taskCompleted
	t.done = true
	t.cond.Broadcast()
	t.mu.Unlock()
}

func (t *Task) fail(fe *FaultError) {
	t.mu.Lock()
	t.fault = fe
	t.state = taskFaulted
	t.done = true
	t.cond.Broadcast()
	t.mu.Unlock()
}

// wait blocks until the task has completed or faulted.
func (t *Task) wait() {
	t.mu.Lock()
	for !t.done {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

func (t *Task) isDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// observe returns the task's outcome after completion and marks any fault
// as surfaced. Callers must re-raise a non-nil fault.
func (t *Task) observe() (Word, *FaultError) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil {
		t.faultSeen = true
		return 0, t.fault
	}
	return t.result, nil
}

// takeUnseenFault returns the fault if no observer has surfaced it yet.
// Used by scope exit so a fault already delivered to a direct await is not
// raised a second time.
func (t *Task) takeUnseenFault() *FaultError {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil && !t.faultSeen {
		t.faultSeen = true
		return t.fault
	}
	return nil
}
