package greenrt

import "fmt"

// Primitive is the set of result types the typed spawn/await surface
// supports. Heap-allocated results (strings, records, collections) are a
// planned extension behind boxed kinds and are not expressible here yet.
type Primitive interface {
	int32 | int64 | bool | float32 | float64
}

// Handle is a thin, copyable reference to a spawned task, tagged with its
// result type. It stays valid after the enclosing scope exits, and
// [Handle.Await] is idempotent: a second await returns the cached result
// (or re-raises the cached fault) without blocking.
type Handle[T Primitive] struct {
	t *Task
}

// Spawn runs fn as a task in tc's innermost active scope and returns a
// typed handle immediately. It is the Go-native counterpart of the
// per-kind entry points used by generated code.
func Spawn[T Primitive](tc *TaskContext, fn func(tc *TaskContext) T) Handle[T] {
	t := tc.rt.spawnTask(tc, func(tc *TaskContext) Word {
		return wordOf(fn(tc))
	}, nil, kindOf[T]())
	return Handle[T]{t: t}
}

// ID returns the underlying task id.
func (h Handle[T]) ID() TaskID { return h.t.id }

// Await blocks the caller until the task completes, then returns its
// result. If the task faulted, Await re-raises the [*FaultError] in the
// calling thread. Await may be called more than once; every call returns
// the same outcome.
//
// tc is the caller's own context, threaded explicitly like every other
// blocking runtime call; an awaiting worker keeps executing ready tasks
// while it waits.
func (h Handle[T]) Await(tc *TaskContext) T {
	tc.rt.awaitTask(tc, h.t)
	w, fe := h.t.observe()
	if fe != nil {
		panic(fe)
	}
	return fromWord[T](w)
}

// Done reports whether the task has completed or faulted, without
// blocking.
func (h Handle[T]) Done() bool {
	h.t.mu.Lock()
	defer h.t.mu.Unlock()
	return h.t.done
}

func kindOf[T Primitive]() Kind {
	var z T
	switch any(z).(type) {
	case int32:
		return KindI32
	case int64:
		return KindI64
	case bool:
		return KindBool
	case float32:
		return KindF32
	case float64:
		return KindF64
	default:
		panic(fmt.Sprintf("greenrt: unsupported result type %T", z))
	}
}

func wordOf[T Primitive](v T) Word {
	switch x := any(v).(type) {
	case int32:
		return I32Word(x)
	case int64:
		return I64Word(x)
	case bool:
		return BoolWord(x)
	case float32:
		return F32Word(x)
	case float64:
		return F64Word(x)
	default:
		panic(fmt.Sprintf("greenrt: unsupported result type %T", v))
	}
}

func fromWord[T Primitive](w Word) T {
	var z T
	switch any(z).(type) {
	case int32:
		return any(w.I32()).(T)
	case int64:
		return any(w.I64()).(T)
	case bool:
		return any(w.Bool()).(T)
	case float32:
		return any(w.F32()).(T)
	case float64:
		return any(w.F64()).(T)
	default:
		panic(fmt.Sprintf("greenrt: unsupported result type %T", z))
	}
}
