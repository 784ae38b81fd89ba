// Package greenrt is the structured-concurrency runtime backing the
// Meridian compiler. Natively compiled code calls into it to spawn green
// tasks, await their results, and stream values between tasks, without any
// split between synchronous and asynchronous call forms.
//
// Tasks are multiplexed onto a fixed pool of workers, each owning a
// work-stealing deque; idle workers steal from siblings. Every task belongs
// to exactly one lexical scope, and leaving the scope blocks until every
// child task has completed, so no task can outlive the block that spawned
// it.
//
// # Runtime Lifecycle
//
// Create a [Runtime] with [New] and release it with [Runtime.Shutdown].
// [Runtime.Root] returns the [TaskContext] for code running outside the
// worker pool (the main thread). Compiled programs use the flat surface
// instead: [RuntimeInit] and [RuntimeShutdown] bracket main and manage a
// process-global runtime.
//
// # Scopes and Tasks
//
// A `concurrent` block compiles to [Runtime.EnterScope] / [Runtime.ExitScope]
// around the block body. Each `spawn` expression inside it calls
// [Runtime.Spawn] (or a typed entry point such as [SpawnTaskI64]) and
// receives a task id immediately; the task runs on the worker pool. Exiting
// the scope awaits every registered child in registration order.
//
// Go callers use the typed helpers instead of the flat surface:
//
//	rt := greenrt.New()
//	defer rt.Shutdown()
//
//	tc := rt.Root()
//	sc := rt.EnterScope(tc)
//	h := greenrt.Spawn(tc, func(tc *greenrt.TaskContext) int64 {
//	    return fib(30)
//	})
//	n := h.Await(tc)
//	rt.ExitScope(tc, sc)
//
// # Faults
//
// A panic inside a task body is captured as a [*FaultError] with its stack
// trace and re-raised in whichever thread awaits the task, directly via
// [Handle.Await] or indirectly via [Runtime.ExitScope]. Scope exit keeps
// awaiting the remaining children after the first fault so no sibling is
// abandoned; only the first unobserved fault is re-raised.
//
// # Channels
//
// [Channel] is a single-item-type FIFO queue shared by reference between
// tasks. Bounded channels block senders while full (backpressure); unbounded
// channels never block senders. [Channel.Close] is idempotent and wakes all
// blocked receivers; receives drain the remaining buffer, then report
// end-of-stream. Channels are never closed implicitly — a producer that is
// done must call Close.
//
// # Capture Records
//
// The code generator computes a [CaptureDescriptor] from the free variables
// of a spawn body. At spawn time the variables are packed into a
// [CaptureBuffer]; the generated closure unpacks them by field index before
// executing the body. Values cross the call boundary as [Word]s tagged with
// a [Kind], one of the supported primitive widths. Boxed kinds (strings,
// records, collections) are not yet supported by the typed entry points.
//
// # Observability
//
// [Runtime.Stats] returns a point-in-time snapshot of scheduler and registry
// counters. [WithOnTaskStart], [WithOnTaskDone], and [WithSnapshots]
// register lifecycle hooks. The
// [github.com/meridian-lang/greenrt/observability/prometheus] subpackage
// exports snapshots and task durations as Prometheus collectors.
package greenrt
