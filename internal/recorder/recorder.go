// Package recorder rebuilds a call tree from a linear stream of call, return
// and exception events and resolves how the traced invocation ended.
//
// A Recorder is confined to the goroutine that feeds it and is not safe for
// concurrent use.
package recorder

import (
	"backtrace/internal/calltree"
	"backtrace/internal/frame"
)

// Frame is an open call on the recorder's stack. Foreign calls get a Frame
// without a node so their returns still pair up.
type Frame struct {
	node   *calltree.Node // nil for foreign frames
	user   *calltree.Node // nearest node at or above this frame
	raised *calltree.Fault
	closed bool
}

// Node returns the tree node of the frame, nil if the frame is foreign.
func (f *Frame) Node() *calltree.Node {
	if f == nil {
		return nil
	}
	return f.node
}

// Recorder consumes events for exactly one decorated invocation.
type Recorder struct {
	classifier frame.Classifier
	root       *Frame
	stack      []*Frame
	res        resolver
	trace      *calltree.Trace
}

// New starts a recording whose root is the decorated function described by
// the call event root. The root is a node regardless of classification.
func New(root Event, classifier frame.Classifier) *Recorder {
	if classifier == nil {
		classifier = frame.NewPathClassifier(root.Callee)
	}
	node := &calltree.Node{Name: root.Callee.Function, Site: root.Site, Def: root.Callee}
	fr := &Frame{node: node, user: node}
	return &Recorder{
		classifier: classifier,
		root:       fr,
		stack:      []*Frame{fr},
	}
}

// Root returns the root frame.
func (r *Recorder) Root() *Frame {
	return r.root
}

// Depth returns the number of open frames, the root included.
func (r *Recorder) Depth() int {
	return len(r.stack)
}

// Top returns the innermost open frame, nil once the recording is done.
func (r *Recorder) Top() *Frame {
	if r.Done() || len(r.stack) == 0 {
		return nil
	}
	return r.top()
}

// Done reports whether the root has been closed.
func (r *Recorder) Done() bool {
	return r.trace != nil
}

// Observe feeds one event. For KindCall it returns the new frame.
func (r *Recorder) Observe(ev Event) *Frame {
	switch ev.Kind {
	case KindCall:
		return r.Enter(ev)
	case KindException:
		r.Raise(ev)
	case KindReturn:
		r.Return(ev)
	}
	return nil
}

// Enter opens a frame for a call made from the innermost open frame.
func (r *Recorder) Enter(ev Event) *Frame {
	if r.Done() || len(r.stack) == 0 {
		return nil
	}
	top := r.top()
	fr := &Frame{user: top.user}
	if r.classifier.Classify(ev.Callee) == frame.ClassUser {
		fr.node = top.user.AddChild(&calltree.Node{
			Name: ev.Callee.Function,
			Site: ev.Site,
			Def:  ev.Callee,
		})
		fr.user = fr.node
	}
	r.stack = append(r.stack, fr)
	return fr
}

// Raise records an exception leaving the target frame.
func (r *Recorder) Raise(ev Event) {
	fr := r.target(ev.Frame)
	if fr == nil || ev.Fault == nil {
		return
	}
	fr.raised = ev.Fault
	if fr.node != nil {
		fr.node.Exit = ev.Exit
	}
	r.res.raise(fr, ev.Fault)
}

// Return closes the target frame and any frame left open inside it.
func (r *Recorder) Return(ev Event) {
	fr := r.target(ev.Frame)
	if fr == nil {
		return
	}
	for len(r.stack) > 0 {
		top := r.top()
		r.stack = r.stack[:len(r.stack)-1]
		top.closed = true
		if top == fr {
			break
		}
	}

	if fr.node != nil && fr.raised == nil {
		fr.node.Returned = true
		fr.node.Exit = ev.Exit
	}
	if fr.raised != nil {
		var parent *Frame
		if len(r.stack) > 0 {
			parent = r.top()
		}
		r.res.deliver(fr, parent)
	}
	if fr == r.root {
		r.finish()
	}
}

// Finish closes whatever is still open and returns the finished trace.
// It is idempotent.
func (r *Recorder) Finish() *calltree.Trace {
	if r.trace == nil {
		r.Return(Event{Kind: KindReturn, Frame: r.root})
	}
	return r.trace
}

func (r *Recorder) finish() {
	r.trace = r.res.outcome(r.root)
}

func (r *Recorder) top() *Frame {
	return r.stack[len(r.stack)-1]
}

// target resolves an event's frame: nil means innermost, closed frames are dropped.
func (r *Recorder) target(fr *Frame) *Frame {
	if r.Done() {
		return nil
	}
	if fr == nil {
		if len(r.stack) == 0 {
			return nil
		}
		return r.top()
	}
	if fr.closed {
		return nil
	}
	return fr
}
