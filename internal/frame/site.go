package frame

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"fortio.org/safecast"
)

// Site is a resolved code location: the function executing there, its file and line.
type Site struct {
	Function string // fully qualified, e.g. "example.com/app/pkg.(*T).Run"
	File     string // absolute path, or module-relative under -trimpath
	Line     uint32
}

// Known reports whether the site carries a usable file name.
func (s Site) Known() bool {
	return s.File != "" && s.File != "?" && !strings.HasPrefix(s.File, "<")
}

// String returns "file:line".
func (s Site) String() string {
	if s.Line == 0 {
		return s.File
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// tracerPkgs are import path prefixes whose frames are never reported as
// call sites. Filled by Skip from the packages that install probes.
var tracerPkgs = []string{"reflect.", "runtime."}

func init() {
	Skip(PkgPathOf(Site{}))
}

// Skip registers an import path whose frames are skipped by the site walkers.
// It is meant to be called from package init.
func Skip(pkgPath string) {
	tracerPkgs = append(tracerPkgs, pkgPath+".")
}

// PkgPathOf returns the import path of the package that declares v's type.
func PkgPathOf(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}

func skipped(fn string) bool {
	for _, p := range tracerPkgs {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	return false
}

func siteOf(f runtime.Frame) Site {
	line, err := safecast.Conv[uint32](f.Line)
	if err != nil {
		line = 0
	}
	return Site{Function: f.Function, File: filepath.ToSlash(f.File), Line: line}
}

// Stack returns the frames of the calling goroutine, innermost first,
// starting skip frames above the caller of Stack.
func Stack(skip int) []runtime.Frame {
	pcs := make([]uintptr, 32)
	for {
		n := runtime.Callers(skip+2, pcs)
		if n < len(pcs) {
			pcs = pcs[:n]
			break
		}
		pcs = make([]uintptr, 2*len(pcs))
	}
	if len(pcs) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs)
	res := make([]runtime.Frame, 0, len(pcs))
	for {
		f, more := frames.Next()
		res = append(res, f)
		if !more {
			break
		}
	}
	return res
}

// CalleeAndCaller resolves, from a probe's point of view, the instrumented
// function (callee) and the location of the call expression that invoked it
// (caller). Frames belonging to the tracer itself, reflect and the runtime are
// stepped over.
func CalleeAndCaller(frames []runtime.Frame) (callee, caller Site) {
	i := 0
	for i < len(frames) && skipped(frames[i].Function) {
		i++
	}
	if i >= len(frames) {
		return Site{}, Site{}
	}
	callee = siteOf(frames[i])
	i++
	for i < len(frames) && skipped(frames[i].Function) {
		i++
	}
	if i < len(frames) {
		caller = siteOf(frames[i])
	}
	return callee, caller
}

// Caller returns the first frame outside the tracer, reflect and runtime.
func Caller(frames []runtime.Frame) Site {
	for _, f := range frames {
		if !skipped(f.Function) {
			return siteOf(f)
		}
	}
	return Site{}
}

// PanicSite locates a panic from inside a deferred function running during
// unwinding: the line fn was executing when the panic reached it, or, when fn
// is not on the stack, the line the panic was raised at. ok is false when the
// stack does not pass through runtime.gopanic.
func PanicSite(frames []runtime.Frame, fn string) (site Site, ok bool) {
	start := -1
	for i, f := range frames {
		if f.Function == "runtime.gopanic" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return Site{}, false
	}

	var first *runtime.Frame
	for i := start; i < len(frames); i++ {
		f := &frames[i]
		if fn != "" && f.Function == fn {
			return siteOf(*f), true
		}
		if first == nil && !skipped(f.Function) {
			first = f
		}
	}
	if first == nil {
		return Site{}, false
	}
	return siteOf(*first), true
}

// methodValueSuffix marks the wrapper the compiler generates for a bound
// method value such as t.Run.
const methodValueSuffix = "-fm"

// FuncSite describes a function value by its entry point. A bound method value
// resolves to the method's name with no location, since the wrapper it points
// to has no source.
func FuncSite(fn any) Site {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Site{}
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return Site{}
	}
	name := rf.Name()
	if strings.HasSuffix(name, methodValueSuffix) {
		return Site{Function: strings.TrimSuffix(name, methodValueSuffix)}
	}
	file, line := rf.FileLine(rf.Entry())
	l, err := safecast.Conv[uint32](line)
	if err != nil {
		l = 0
	}
	return Site{Function: name, File: filepath.ToSlash(file), Line: l}
}
