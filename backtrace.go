// Package backtrace records the tree of calls made while a function runs and
// prints it as a diagram that tells normal returns, handled exceptions and
// unhandled exceptions apart.
//
// Wrap decorates a function of any signature. Functions that should show up
// as nodes of the tree carry a probe as their first statement:
//
//	func load(path string) (err error) {
//		defer backtrace.Probe()(&err)
//		...
//	}
//
// An exception is a panic unwinding through a call, or a non-nil error result
// (the last result of type error). Panics are re-raised with the identical
// value and errors are returned untouched, so callers cannot tell a traced call
// from an untraced one.
//
// Probes outside a traced invocation, or on another goroutine than the one
// running it, do nothing.
package backtrace

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"

	"backtrace/internal/calltree"
	"backtrace/internal/frame"
	"backtrace/internal/recorder"
	"backtrace/internal/render"
	"backtrace/internal/sink"
	"backtrace/internal/trace"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()

	// baseDir is the directory paths are shown relative to.
	baseDir string

	// Replaced in tests.
	beginSession = trace.Begin
	renderTrace  = render.Render
)

func init() {
	frame.Skip(frame.PkgPathOf(config{}))
	if _, file, _, ok := runtime.Caller(0); ok {
		frame.SkipDir(filepath.Dir(file))
	}
	if wd, err := os.Getwd(); err == nil {
		baseDir = wd
	}
}

// wrapper is the decorated form of one function.
type wrapper struct {
	fn         reflect.Value
	def        frame.Site
	cfg        config
	classifier frame.Classifier
	errLast    bool
	variadic   bool
	numOut     int
}

// Wrap returns a function with the same signature as fn that records and
// prints the call tree of every invocation. It panics if fn is not a function.
func Wrap[F any](fn F, opts ...Option) F {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("backtrace: Wrap called with non-function %T", fn))
	}
	if v.IsNil() {
		return fn
	}

	t := v.Type()
	w := &wrapper{
		fn:       v,
		def:      frame.FuncSite(fn),
		cfg:      newConfig(opts),
		variadic: t.IsVariadic(),
		numOut:   t.NumOut(),
	}
	w.errLast = w.numOut > 0 && t.Out(w.numOut-1) == errorType
	anchor := w.def
	if !anchor.Known() {
		// Method values carry no definition site; the project is where Wrap is called.
		anchor = frame.Caller(frame.Stack(0))
	}
	w.classifier = frame.NewPathClassifier(anchor)

	return reflect.MakeFunc(t, w.call).Interface().(F)
}

// Run calls fn once under a trace and returns its error unchanged.
func Run(fn func() error, opts ...Option) error {
	return Wrap(fn, opts...)()
}

func (w *wrapper) call(args []reflect.Value) (results []reflect.Value) {
	caller := frame.Caller(frame.Stack(0))

	outer := trace.EnterWrapped(w.def, caller)
	s, err := beginSession(recorder.Event{Kind: recorder.KindCall, Callee: w.def, Site: caller}, w.classifier)
	if err != nil {
		w.cfg.logger.Warn("backtrace: tracing unavailable, running untraced", "func", w.def.Function, "error", err)
		s = nil
	}

	defer func() {
		r := recover()

		var fault *calltree.Fault
		exit := w.def
		switch {
		case r != nil:
			fault = calltree.PanicFault(r)
			if site, ok := frame.PanicSite(frame.Stack(0), w.def.Function); ok {
				exit = site
			}
		case w.errLast && len(results) == w.numOut:
			if e, _ := results[w.numOut-1].Interface().(error); e != nil {
				fault = calltree.ErrorFault(e)
			}
		}

		outer.Exit(fault, exit)
		if s != nil {
			w.report(trace.End(s, fault, exit))
		}
		if r != nil {
			panic(r)
		}
	}()

	if w.variadic {
		return w.fn.CallSlice(args)
	}
	return w.fn.Call(args)
}

// report renders and emits a finished trace. Failures are logged, never raised.
func (w *wrapper) report(t *calltree.Trace) {
	if t == nil || (t.Outcome == calltree.OutcomeSuccess && !w.cfg.traceOnSuccess) {
		return
	}
	if w.cfg.name != "" {
		t.Root.Name = w.cfg.name
	}
	defer func() {
		if r := recover(); r != nil {
			w.cfg.logger.Error("backtrace: rendering failed", "func", w.def.Function, "panic", r)
		}
	}()
	output(w.cfg, func(st render.Style) string { return renderTrace(t, st) })
}

// output renders with the style the destination supports and delivers the text.
func output(cfg config, draw func(render.Style) string) {
	target := sink.Target{Path: cfg.logFile}
	st := render.Style{Mode: render.ModePlain, BaseDir: baseDir}
	if cfg.useRich {
		st.Mode = render.ModeRich
	}
	if cfg.capture == nil {
		term := sink.Inspect(target)
		st.Color = term.Color
		st.Width = term.Width
	}

	text := draw(st)
	if cfg.capture != nil {
		*cfg.capture = text
		return
	}
	_ = sink.Emit(text, target, cfg.logger)
}
