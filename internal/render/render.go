// Package render turns a finished call trace into text.
//
// Rendering is pure: the same trace and Style always give the same bytes.
// Colors, widths and path bases are inputs carried by Style, never probed here.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"backtrace/internal/calltree"
	"backtrace/internal/frame"
)

// Mode selects the output form.
type Mode uint8

const (
	// ModeRich draws a bordered panel with a box-drawn tree.
	ModeRich Mode = iota
	// ModePlain is ASCII-only and colorless.
	ModePlain
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	switch m {
	case ModeRich:
		return "rich"
	case ModePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// Style holds every input of rendering besides the trace.
type Style struct {
	Mode    Mode
	Color   bool   // emit ANSI colors (rich only)
	BaseDir string // paths are shown relative to it when possible
	Width   int    // titles longer than this are truncated; 0 disables
}

// Render formats a trace.
func Render(t *calltree.Trace, st Style) string {
	if t == nil || t.Root == nil {
		return "no events captured"
	}
	if st.Mode == ModePlain {
		return renderPlain(t, st)
	}
	return renderRich(t, st)
}

// line is one row of the tree in mode-independent form.
type line struct {
	glyph glyph
	loc   string
	name  string
	note  string
}

type glyph uint8

const (
	glyphCall glyph = iota
	glyphReturn
	glyphPassed
	glyphFault
)

// entry is the first row of a node; tail are rows shown after its children.
func entry(n *calltree.Node, st Style) line {
	site := n.Site
	if !site.Known() {
		site = n.Def
	}
	return line{glyph: glyphCall, loc: location(site, st), name: shortName(n.Name)}
}

func tail(n *calltree.Node, t *calltree.Trace, st Style) []line {
	var out []line
	exit := n.Exit
	if !exit.Known() {
		exit = n.Def
	}
	switch n.Status {
	case calltree.StatusOrigin:
		note := "handled exception: "
		if t.Outcome == calltree.OutcomeUnhandled && t.Exception != nil && t.Exception.Origin == n {
			note = "EXCEPTION: "
		}
		out = append(out, line{glyph: glyphFault, loc: location(exit, st), name: shortName(n.Name), note: note + describe(n.Fault)})
	case calltree.StatusPassedThrough:
		out = append(out, line{glyph: glyphPassed, loc: location(exit, st), name: shortName(n.Name), note: "passed through: " + describe(n.Fault)})
	}
	if n.Returned {
		out = append(out, line{glyph: glyphReturn, loc: relPath(n.Def.File, st), name: shortName(n.Name)})
	}
	return out
}

func describe(f *calltree.Fault) string {
	if f == nil {
		return "unknown"
	}
	return fmt.Sprintf("%s: %s", f.Type, f.Message)
}

// header returns the title and subtitle shared by both modes.
func header(t *calltree.Trace, st Style) (title, subtitle string) {
	switch t.Outcome {
	case calltree.OutcomeUnhandled:
		return "EXCEPTION: " + t.Exception.Type, t.Exception.Message + " at " + originLocation(t, st)
	case calltree.OutcomeHandled:
		return "EXECUTION TRACE", "exception handled"
	default:
		return "EXECUTION TRACE", "no exception"
	}
}

func originLocation(t *calltree.Trace, st Style) string {
	n := t.Exception.Origin
	if n == nil {
		n = t.Root
	}
	site := n.Exit
	if !site.Known() {
		site = n.Def
	}
	return location(site, st)
}

func status(t *calltree.Trace) string {
	if t.Outcome == calltree.OutcomeUnhandled {
		return "FAIL"
	}
	return "PASS"
}

func location(s frame.Site, st Style) string {
	p := relPath(s.File, st)
	if s.Line == 0 {
		return p
	}
	return fmt.Sprintf("%s:%d", p, s.Line)
}

func relPath(file string, st Style) string {
	if file == "" {
		return "?"
	}
	if st.BaseDir == "" || !filepath.IsAbs(filepath.FromSlash(file)) {
		return file
	}
	rel, err := filepath.Rel(st.BaseDir, filepath.FromSlash(file))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return file
	}
	return filepath.ToSlash(rel)
}

// shortName drops the import path, keeping the package name:
// "example.com/app/store.(*DB).Get" becomes "store.(*DB).Get".
func shortName(fn string) string {
	if fn == "" {
		return "?"
	}
	slash := strings.LastIndexByte(fn, '/')
	if slash < 0 {
		return fn
	}
	return fn[slash+1:]
}
