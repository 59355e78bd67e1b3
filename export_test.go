package backtrace

import (
	"testing"

	"backtrace/internal/calltree"
	"backtrace/internal/frame"
	"backtrace/internal/recorder"
	"backtrace/internal/render"
	"backtrace/internal/trace"
)

// FailSessions makes every session setup fail with err until the test ends.
func FailSessions(t testing.TB, err error) {
	prev := beginSession
	beginSession = func(recorder.Event, frame.Classifier) (*trace.Session, error) { return nil, err }
	t.Cleanup(func() { beginSession = prev })
}

// PanicOnRender makes rendering panic with v until the test ends.
func PanicOnRender(t testing.TB, v any) {
	prev := renderTrace
	renderTrace = func(*calltree.Trace, render.Style) string { panic(v) }
	t.Cleanup(func() { renderTrace = prev })
}
