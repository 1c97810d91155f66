package errors

import (
	"fmt"
	"runtime"
)

const stackTraceSize = 10

// StackFrame is a single entry in a stack trace.
type StackFrame struct {
	Func string
	File string
	Line int
}

// String satisfies the fmt.Stringer interface.
func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d - %s", f.File, f.Line, f.Func)
}

// Stack returns the stack trace recorded in err. The error must carry
// a trace, or wrap an error that does.
func Stack(err error) []StackFrame {
	if wErr, ok := err.(wrapperError); ok {
		return wErr.stack
	}
	return nil
}

// getStack captures up to size frames of the calling goroutine's
// stack, skipping the innermost skip frames.
func getStack(skip, size int) []StackFrame {
	pcs := make([]uintptr, size)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	var trace []StackFrame
	for {
		frame, more := frames.Next()
		trace = append(trace, StackFrame{
			Func: frame.Function,
			File: frame.File,
			Line: frame.Line,
		})
		if !more {
			break
		}
	}
	return trace
}
