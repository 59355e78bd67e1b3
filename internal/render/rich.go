package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"backtrace/internal/calltree"
)

var richGlyphs = [...]string{
	glyphCall:   "↳",
	glyphReturn: "↰",
	glyphPassed: "⚠",
	glyphFault:  "✗",
}

// Panel border colors, ANSI indexes as used by the rest of the UI.
const (
	colorRed    = "1"
	colorGreen  = "2"
	colorYellow = "3"
)

// panelPadding is the horizontal space the border and padding take.
const panelPadding = 6

// palette colors the parts of a tree row.
type palette struct {
	call, ret, passed, fault, name, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		call:   mk(color.FgCyan),
		ret:    mk(color.FgGreen),
		passed: mk(color.FgYellow),
		fault:  mk(color.FgRed),
		name:   mk(color.FgYellow),
		note:   mk(color.Faint),
	}
}

func (p palette) glyph(g glyph, unhandled bool) string {
	s := richGlyphs[g]
	switch g {
	case glyphCall:
		return p.call.Sprint(s)
	case glyphReturn:
		return p.ret.Sprint(s)
	case glyphPassed:
		return p.passed.Sprint(s)
	case glyphFault:
		if unhandled {
			return p.fault.Sprint(s)
		}
		return p.passed.Sprint(s)
	}
	return s
}

func (p palette) row(l line, unhandled bool) string {
	out := p.glyph(l.glyph, unhandled) + " " + l.loc + " " + p.name.Sprint("("+l.name+")")
	if l.note == "" {
		return out
	}
	note := "<-- " + l.note
	if l.glyph == glyphFault && unhandled {
		return out + " " + p.fault.Sprint(note)
	}
	return out + " " + p.note.Sprint(note)
}

// newRenderer pins the color profile so output never depends on the
// process's own terminal.
func newRenderer(st Style) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	if st.Color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

func renderRich(t *calltree.Trace, st Style) string {
	r := newRenderer(st)
	pal := newPalette(st.Color)
	unhandled := t.Outcome == calltree.OutcomeUnhandled

	border := colorGreen
	if unhandled {
		border = colorRed
	}
	title, subtitle := header(t, st)
	body := buildTree(r, pal, t, t.Root, st, unhandled).String()

	return panel(r, border, title, subtitle, body, st.Width)
}

func buildTree(r *lipgloss.Renderer, pal palette, t *calltree.Trace, n *calltree.Node, st Style, unhandled bool) *tree.Tree {
	node := tree.Root(pal.row(entry(n, st), unhandled)).
		EnumeratorStyle(r.NewStyle().PaddingRight(1))
	for _, c := range n.Children {
		node.Child(buildTree(r, pal, t, c, st, unhandled))
	}
	for _, l := range tail(n, t, st) {
		node.Child(pal.row(l, unhandled))
	}
	return node
}

func panel(r *lipgloss.Renderer, border, title, subtitle, body string, width int) string {
	if width > panelPadding {
		title = truncate(title, width-panelPadding)
		subtitle = truncate(subtitle, width-panelPadding)
	}
	titleStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color(border))
	subStyle := r.NewStyle().Faint(true)
	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2)

	return box.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		"",
		body,
		"",
		subStyle.Render(subtitle),
	))
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
