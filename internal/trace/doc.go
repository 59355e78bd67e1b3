// Package trace is the event source of the call tracer.
//
// Go offers no global call hook, so events come from probes placed at the
// top of instrumented functions. A probe only does work while a Session is
// active on the calling goroutine.
//
// # Sessions
//
// A decorated invocation opens a Session bound to its goroutine:
//
//	s, err := trace.Begin(root, classifier)
//	...
//	t := trace.End(s, fault, exit)
//
// Sessions nest. A decorated call made inside another decorated call opens
// its own Session on top of the outer one, and probes fan out to every Session
// of the goroutine so outer trees still see the inner calls.
//
// # Probes
//
//	p := trace.Enter(func() []runtime.Frame { return frame.Stack(0) })
//	...
//	p.Exit(fault, exit)
//
// Probes on goroutines without a Session are nil and cost one atomic load.
package trace
