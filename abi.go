package greenrt

import "sync"

// The flat surface consumed by generated native code. It mirrors the
// C-shaped runtime interface one to one: a process-global runtime
// bracketed by RuntimeInit/RuntimeShutdown, scope brackets, one
// spawn/await pair per primitive result kind, and channel operations that
// move values as Words. The current TaskContext is threaded explicitly
// through every call; generated code receives it as a hidden parameter.
//
// Misuse — awaiting an unknown task, a kind mismatch, sending on a closed
// channel — panics at the call site: those states indicate a front-end or
// code-generation bug, not a runtime condition.

var (
	abiMu     sync.Mutex
	abiGlobal *Runtime
)

// RuntimeInit creates the process-global runtime and returns the root
// context for the main thread. Called once before main; panics if the
// runtime is already initialized.
func RuntimeInit(opts ...Option) *TaskContext {
	abiMu.Lock()
	defer abiMu.Unlock()
	if abiGlobal != nil {
		panic("greenrt: runtime already initialized")
	}
	abiGlobal = New(opts...)
	return abiGlobal.Root()
}

// RuntimeShutdown stops the process-global runtime. Called once after
// main returns; panics if the runtime was never initialized.
func RuntimeShutdown() {
	abiMu.Lock()
	defer abiMu.Unlock()
	if abiGlobal == nil {
		panic("greenrt: runtime not initialized")
	}
	abiGlobal.Shutdown()
	abiGlobal = nil
}

// ScopeEnter brackets the start of a `concurrent` block.
func ScopeEnter(tc *TaskContext) uint64 {
	return uint64(tc.rt.EnterScope(tc))
}

// ScopeExit brackets the end of a `concurrent` block, blocking until every
// child task has completed and re-raising the first unobserved fault.
func ScopeExit(tc *TaskContext, id uint64) {
	tc.rt.ExitScope(tc, ScopeID(id))
}

// SpawnTaskI32 spawns fn with the given capture record; fn's result Word
// must encode an int32.
func SpawnTaskI32(tc *TaskContext, fn Closure, capture *CaptureBuffer) uint64 {
	return uint64(tc.rt.Spawn(tc, fn, capture, KindI32))
}

// TaskAwaitI32 blocks until the task completes and returns its int32
// result, re-raising any recorded fault.
func TaskAwaitI32(tc *TaskContext, id uint64) int32 {
	return tc.rt.awaitWord(tc, TaskID(id), KindI32).I32()
}

// SpawnTaskI64 spawns fn with the given capture record; fn's result Word
// must encode an int64.
func SpawnTaskI64(tc *TaskContext, fn Closure, capture *CaptureBuffer) uint64 {
	return uint64(tc.rt.Spawn(tc, fn, capture, KindI64))
}

// TaskAwaitI64 blocks until the task completes and returns its int64
// result, re-raising any recorded fault.
func TaskAwaitI64(tc *TaskContext, id uint64) int64 {
	return tc.rt.awaitWord(tc, TaskID(id), KindI64).I64()
}

// SpawnTaskBool spawns fn with the given capture record; fn's result Word
// must encode a bool.
func SpawnTaskBool(tc *TaskContext, fn Closure, capture *CaptureBuffer) uint64 {
	return uint64(tc.rt.Spawn(tc, fn, capture, KindBool))
}

// TaskAwaitBool blocks until the task completes and returns its bool
// result, re-raising any recorded fault.
func TaskAwaitBool(tc *TaskContext, id uint64) bool {
	return tc.rt.awaitWord(tc, TaskID(id), KindBool).Bool()
}

// SpawnTaskF32 spawns fn with the given capture record; fn's result Word
// must encode a float32.
func SpawnTaskF32(tc *TaskContext, fn Closure, capture *CaptureBuffer) uint64 {
	return uint64(tc.rt.Spawn(tc, fn, capture, KindF32))
}

// TaskAwaitF32 blocks until the task completes and returns its float32
// result, re-raising any recorded fault.
func TaskAwaitF32(tc *TaskContext, id uint64) float32 {
	return tc.rt.awaitWord(tc, TaskID(id), KindF32).F32()
}

// SpawnTaskF64 spawns fn with the given capture record; fn's result Word
// must encode a float64.
func SpawnTaskF64(tc *TaskContext, fn Closure, capture *CaptureBuffer) uint64 {
	return uint64(tc.rt.Spawn(tc, fn, capture, KindF64))
}

// TaskAwaitF64 blocks until the task completes and returns its float64
// result, re-raising any recorded fault.
func TaskAwaitF64(tc *TaskContext, id uint64) float64 {
	return tc.rt.awaitWord(tc, TaskID(id), KindF64).F64()
}

// ChannelNew creates a channel in tc's runtime registry. capacity <= 0
// encodes an unbounded channel.
func ChannelNew(tc *TaskContext, capacity int64) uint64 {
	return uint64(tc.rt.OpenChannel(capacity))
}

// ChannelSend sends one Word on the channel, blocking while a bounded
// buffer is full. Sending on a closed channel is a producer bug and panics
// at the call site.
func ChannelSend(tc *TaskContext, id uint64, w Word) {
	if err := tc.rt.channel(ChannelID(id)).Send(w); err != nil {
		panic(err.Error())
	}
}

// ChannelRecv receives the oldest buffered Word, blocking while the
// channel is open and empty. ok is false once the channel is closed and
// drained.
func ChannelRecv(tc *TaskContext, id uint64) (w Word, ok bool) {
	return tc.rt.channel(ChannelID(id)).Recv()
}

// ChannelClose closes the channel. Idempotent.
func ChannelClose(tc *TaskContext, id uint64) {
	tc.rt.channel(ChannelID(id)).Close()
}
