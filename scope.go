package greenrt

import (
	"fmt"
	"log/slog"
)

// ScopeID identifies a scope for the process lifetime. IDs are allocated
// from a monotonically increasing counter; zero is never a valid id.
type ScopeID uint64

// Scope records the children of one `concurrent` block. The child list is
// single-writer: only the owning task context appends to it, and only the
// owning task context reads it back at exit, so it needs no lock of its
// own. Every task id appears in exactly one scope.
type Scope struct {
	id       ScopeID
	parent   ScopeID // zero when this is an outermost scope
	children []TaskID
}

// ID returns the scope's process-wide id.
func (sc *Scope) ID() ScopeID { return sc.id }

// Parent returns the id of the enclosing scope, or zero for an outermost
// scope.
func (sc *Scope) Parent() ScopeID { return sc.parent }

// TaskContext identifies the running task to the runtime. The code
// generator threads it through every runtime call instead of the runtime
// consulting ambient thread-local state: the context carries the owning
// task (nil on the main thread), the worker executing it (nil off the
// pool), and the stack of scopes the body has entered and not yet exited.
type TaskContext struct {
	rt     *Runtime
	task   *Task
	worker *worker
	scopes []ScopeID
}

// Runtime returns the runtime this context belongs to.
func (tc *TaskContext) Runtime() *Runtime { return tc.rt }

// TaskID returns the id of the running task, or zero on the main thread.
func (tc *TaskContext) TaskID() TaskID {
	if tc.task == nil {
		return 0
	}
	return tc.task.id
}

// Capture returns the running task's capture record, or nil when the spawn
// body captured nothing (or on the main thread).
func (tc *TaskContext) Capture() *CaptureBuffer {
	if tc.task == nil {
		return nil
	}
	return tc.task.capture
}

// currentScope returns the innermost active scope id, or zero.
func (tc *TaskContext) currentScope() ScopeID {
	if len(tc.scopes) == 0 {
		return 0
	}
	return tc.scopes[len(tc.scopes)-1]
}

// EnterScope opens a new scope on tc's scope stack, parented to the
// previous innermost scope. Compiled code calls this on entry to a
// `concurrent` block.
func (rt *Runtime) EnterScope(tc *TaskContext) ScopeID {
	sc := &Scope{
		id:     ScopeID(rt.nextScopeID.Add(1)),
		parent: tc.currentScope(),
	}

	rt.scopesMu.Lock()
	rt.scopes[sc.id] = sc
	rt.scopesMu.Unlock()

	tc.scopes = append(tc.scopes, sc.id)
	return sc.id
}

// ExitScope closes the scope and blocks until every child task registered
// in it has completed. Children are awaited in registration order; a fault
// in one child does not stop the remaining children from being awaited, so
// no sibling is abandoned. After all children are accounted for, the first
// fault not already surfaced by a direct await is re-raised in the calling
// thread.
//
// id must be tc's innermost active scope; a mismatched exit is a
// code-generation bug and panics immediately.
func (rt *Runtime) ExitScope(tc *TaskContext, id ScopeID) {
	if top := tc.currentScope(); top != id {
		panic(fmt.Sprintf("greenrt: scope exit out of order: exiting %d, innermost is %d", id, top))
	}
	tc.scopes = tc.scopes[:len(tc.scopes)-1]

	if fe := rt.drainScope(tc, id); fe != nil {
		panic(fe)
	}
}

// drainScope awaits every child of the scope in registration order,
// releases the children and the scope from the registries, and returns the
// first unseen fault.
func (rt *Runtime) drainScope(tc *TaskContext, id ScopeID) *FaultError {
	rt.scopesMu.Lock()
	sc := rt.scopes[id]
	rt.scopesMu.Unlock()
	if sc == nil {
		panic(fmt.Sprintf("greenrt: exit of unknown scope %d", id))
	}

	var first *FaultError
	for _, tid := range sc.children {
		t := rt.lookupTask(tid)
		if t == nil {
			// Already released by a prior drain of the same scope.
			continue
		}
		rt.awaitTask(tc, t)
		if fe := t.takeUnseenFault(); fe != nil && first == nil {
			first = fe
		}
		rt.releaseTask(tid)
	}

	rt.scopesMu.Lock()
	delete(rt.scopes, id)
	rt.scopesMu.Unlock()

	return first
}

// registerChild appends a freshly spawned task to tc's innermost scope.
// Single-writer: spawns occur only on the thread that owns the scope,
// between its enter and exit.
func (tc *TaskContext) registerChild(tid TaskID) {
	id := tc.currentScope()
	if id == 0 {
		// The front end rejects spawn outside a concurrent block; reaching
		// this is a code-generation bug.
		panic("greenrt: spawn outside any active scope")
	}

	rt := tc.rt
	rt.scopesMu.Lock()
	sc := rt.scopes[id]
	rt.scopesMu.Unlock()
	if sc == nil {
		panic(fmt.Sprintf("greenrt: spawn into unknown scope %d", id))
	}
	sc.children = append(sc.children, tid)
}

// abandonScopes drains any scopes the task body entered but never exited.
// This happens only when the body faulted mid-block: the structured
// guarantee still holds — children are awaited before the task is marked
// done — but their faults are not re-raised here, since the body's own
// fault takes precedence.
func (tc *TaskContext) abandonScopes() {
	for len(tc.scopes) > 0 {
		id := tc.scopes[len(tc.scopes)-1]
		tc.scopes = tc.scopes[:len(tc.scopes)-1]
		if fe := tc.rt.drainScope(tc, id); fe != nil {
			slog.Debug("greenrt: fault in abandoned scope suppressed",
				slog.Uint64("scope", uint64(id)),
				slog.Any("value", fe.Value))
		}
	}
}
