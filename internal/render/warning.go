package render

import (
	"strings"

	"backtrace/internal/calltree"
	"backtrace/internal/frame"
)

// Warning is a non-fatal condition reported at a single site.
type Warning struct {
	calltree.Fault
	Site frame.Site
}

// RenderWarning formats a warning in the same frame as a trace.
func RenderWarning(w Warning, st Style) string {
	row := line{glyph: glyphCall, loc: location(w.Site, st), name: shortName(w.Site.Function)}
	title := "WARNING: " + w.Type

	if st.Mode == ModePlain {
		var b strings.Builder
		b.WriteString(title + ": " + w.Message + " at " + row.loc + "\n")
		b.WriteString(plainOpen + "\n")
		writePlainLine(&b, row, 0)
		b.WriteString(plainClose + "\n")
		b.WriteString("STATUS: WARNING")
		return b.String()
	}

	r := newRenderer(st)
	pal := newPalette(st.Color)
	body := pal.passed.Sprint(richGlyphs[glyphCall]) + " " + row.loc + " " + pal.name.Sprint("("+row.name+")")
	return panel(r, colorYellow, title, w.Message, body, st.Width)
}
