package backtrace

import (
	"backtrace/internal/calltree"
	"backtrace/internal/frame"
	"backtrace/internal/render"
)

// Warn prints err as a warning located at the caller. It accepts the same
// options as Wrap; TraceOnSuccess and Name have no effect.
func Warn(err error, opts ...Option) {
	if err == nil {
		return
	}
	w := render.Warning{
		Fault: *calltree.ErrorFault(err),
		Site:  frame.Caller(frame.Stack(0)),
	}
	output(newConfig(opts), func(st render.Style) string { return render.RenderWarning(w, st) })
}
