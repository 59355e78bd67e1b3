package backtrace

import (
	"runtime"

	"backtrace/internal/calltree"
	"backtrace/internal/frame"
	"backtrace/internal/trace"
)

// Done closes a probe. It must be deferred directly so it can observe panics:
//
//	defer backtrace.Probe()(&err)
//
// Pass the address of the function's error result, or nil when there is none.
type Done func(errp *error)

func noop(*error) {}

func stack() []runtime.Frame {
	return frame.Stack(0)
}

// Probe reports entry into the calling function and returns the Done that
// reports its exit. Outside a traced invocation it returns a no-op.
func Probe() Done {
	p := trace.Enter(stack)
	if p == nil {
		return noop
	}
	return func(errp *error) {
		r := recover()

		var fault *calltree.Fault
		exit := p.Callee()
		switch {
		case r != nil:
			fault = calltree.PanicFault(r)
			if site, ok := frame.PanicSite(frame.Stack(0), exit.Function); ok {
				exit = site
			}
		default:
			if site := frame.Caller(frame.Stack(0)); site.Function == exit.Function {
				exit = site
			}
			if errp != nil && *errp != nil {
				fault = calltree.ErrorFault(*errp)
			}
		}

		p.Exit(fault, exit)
		if r != nil {
			panic(r)
		}
	}
}
