package calltree

// Outcome is how the traced invocation terminated.
type Outcome uint8

const (
	// OutcomeSuccess means no exception was observed.
	OutcomeSuccess Outcome = iota
	// OutcomeHandled means an exception was raised but did not escape the root.
	OutcomeHandled
	// OutcomeUnhandled means an exception escaped the root.
	OutcomeUnhandled
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeHandled:
		return "handled-exception"
	case OutcomeUnhandled:
		return "unhandled-exception"
	default:
		return "unknown"
	}
}

// Summary describes the exception an outcome refers to.
type Summary struct {
	Fault
	Origin *Node // not owned
}

// Trace is the finished recording of one decorated invocation.
type Trace struct {
	Root      *Node
	Outcome   Outcome
	Exception *Summary // nil when Outcome is OutcomeSuccess
}

// Failed reports whether an exception escaped the root.
func (t *Trace) Failed() bool {
	return t != nil && t.Outcome == OutcomeUnhandled
}

// Count returns the number of nodes in the tree.
func (t *Trace) Count() int {
	if t == nil || t.Root == nil {
		return 0
	}
	n := 0
	t.Root.Walk(func(*Node, int) bool {
		n++
		return true
	})
	return n
}

// Find returns the first node, in call order, with the given name.
func (t *Trace) Find(name string) *Node {
	if t == nil {
		return nil
	}
	var found *Node
	t.Root.Walk(func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// Origins returns every node marked StatusOrigin in call order.
func (t *Trace) Origins() []*Node {
	if t == nil {
		return nil
	}
	var out []*Node
	t.Root.Walk(func(n *Node, _ int) bool {
		if n.Status == StatusOrigin {
			out = append(out, n)
		}
		return true
	})
	return out
}
