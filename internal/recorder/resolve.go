package recorder

import "backtrace/internal/calltree"

// incident is one exception from the frame it was raised in up to where it
// stopped propagating.
type incident struct {
	fault  *calltree.Fault // latest form of the exception
	origin *calltree.Node
	from   *Frame // frame that most recently raised it
	at     *Frame // frame it was delivered to
}

// resolver marks origin and passed-through nodes and decides the outcome.
type resolver struct {
	last  *incident
	count int
}

// raise handles an exception leaving fr. When fr received the current
// incident from a callee and raises the same exception further, the
// exception is passing through; otherwise fr starts a new incident.
func (s *resolver) raise(fr *Frame, fault *calltree.Fault) {
	if s.last != nil && s.last.at == fr && fault.Continues(s.last.fault) {
		if fr.node != nil {
			fr.node.Mark(calltree.StatusPassedThrough, fault)
		}
		s.last.fault = fault
		s.last.from = fr
		return
	}

	origin := fr.user
	origin.Mark(calltree.StatusOrigin, fault)
	s.last = &incident{fault: fault, origin: origin, from: fr}
	s.count++
}

// deliver hands the exception raised by fr to the frame below it.
func (s *resolver) deliver(fr, parent *Frame) {
	if s.last == nil || s.last.from != fr {
		return
	}
	s.last.at = parent
	if parent != nil && parent.node != nil {
		parent.node.Mark(calltree.StatusPassedThrough, s.last.fault)
	}
}

func (s *resolver) outcome(root *Frame) *calltree.Trace {
	t := &calltree.Trace{Root: root.node, Outcome: calltree.OutcomeSuccess}
	switch {
	case root.raised != nil:
		t.Outcome = calltree.OutcomeUnhandled
		origin := root.node
		if s.last != nil && s.last.from == root {
			origin = s.last.origin
		}
		t.Exception = &calltree.Summary{Fault: *root.raised, Origin: origin}
	case s.count > 0:
		t.Outcome = calltree.OutcomeHandled
		t.Exception = &calltree.Summary{Fault: *s.last.fault, Origin: s.last.origin}
	}
	return t
}
