package render

import (
	"strings"

	"backtrace/internal/calltree"
)

const (
	plainIndent = "    "
	plainOpen   = "=== BACKTRACE ==="
	plainClose  = "================="
)

var plainGlyphs = [...]string{
	glyphCall:   "->",
	glyphReturn: "<-",
	glyphPassed: "!!",
	glyphFault:  "XX",
}

func renderPlain(t *calltree.Trace, st Style) string {
	var b strings.Builder
	b.WriteString(plainHeader(t, st))
	b.WriteByte('\n')
	b.WriteString(plainOpen)
	b.WriteByte('\n')
	writePlainNode(&b, t, t.Root, 0, st)
	b.WriteString(plainClose)
	b.WriteByte('\n')
	b.WriteString("STATUS: ")
	b.WriteString(status(t))
	return b.String()
}

func plainHeader(t *calltree.Trace, st Style) string {
	root := entry(t.Root, st).loc
	switch t.Outcome {
	case calltree.OutcomeUnhandled:
		return "EXCEPTION: " + describe(&t.Exception.Fault) + " at " + originLocation(t, st)
	case calltree.OutcomeHandled:
		return "EXECUTION TRACE (exception handled: " + describe(&t.Exception.Fault) + ") at " + root
	default:
		return "EXECUTION TRACE (no exception) at " + root
	}
}

func writePlainNode(b *strings.Builder, t *calltree.Trace, n *calltree.Node, depth int, st Style) {
	writePlainLine(b, entry(n, st), depth)
	for _, c := range n.Children {
		writePlainNode(b, t, c, depth+1, st)
	}
	for _, l := range tail(n, t, st) {
		writePlainLine(b, l, depth+1)
	}
}

func writePlainLine(b *strings.Builder, l line, depth int) {
	b.WriteString(strings.Repeat(plainIndent, depth))
	b.WriteString(plainGlyphs[l.glyph])
	b.WriteByte(' ')
	b.WriteString(l.loc)
	b.WriteString(" (")
	b.WriteString(l.name)
	b.WriteByte(')')
	if l.note != "" {
		b.WriteString(" <-- ")
		b.WriteString(l.note)
	}
	b.WriteByte('\n')
}
