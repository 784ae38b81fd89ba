package greenrt

import (
	"fmt"
	"runtime"
)

// FaultError is the runtime's representation of an unrecoverable fault in
// a task body. It carries the value the body panicked with and the stack
// trace of the faulting goroutine, recorded at the fault site rather than
// where the fault is later observed.
//
// A recorded fault stays attached to its task and is delivered via panic
// to whichever thread joins on it: a direct [Handle.Await], a typed await
// entry point, or the enclosing [Runtime.ExitScope]. Faults always flow to
// the parent; none is dropped.
type FaultError struct {
	// Value is the argument of the panic that faulted the task.
	Value any

	// Stack is the faulting goroutine's stack, captured before unwinding.
	Stack string
}

// Error formats the fault value followed by the captured stack.
func (e *FaultError) Error() string {
	return fmt.Sprintf("task fault: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap returns nil. FaultError does not wrap another error.
func (e *FaultError) Unwrap() error { return nil }

func newFaultError(v any) *FaultError {
	// Single-goroutine trace only; 8 KiB covers it, and runtime.Stack
	// just cuts the tail off if it does not.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &FaultError{
		Value: v,
		Stack: string(buf[:n]),
	}
}
