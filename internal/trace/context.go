package trace

import (
	"errors"
	"sync"
	"sync/atomic"

	"backtrace/internal/calltree"
	"backtrace/internal/frame"
	"backtrace/internal/recorder"
)

// ErrNoGoroutine is returned by Begin when the calling goroutine cannot be identified.
var ErrNoGoroutine = errors.New("trace: cannot identify calling goroutine")

var (
	// sessions maps a goroutine ID to its innermost Session.
	sessions sync.Map // uint64 -> *Session
	active   atomic.Int64
)

// Active reports whether any Session is open on any goroutine.
func Active() bool {
	return active.Load() > 0
}

// Session is the recording state of one decorated invocation. It is owned by
// the goroutine that began it.
type Session struct {
	gid       uint64
	rec       *recorder.Recorder
	parent    *Session
	selfName  string // decorated function whose own probe is still expected
	selfDepth int
	ended     bool
}

// Begin opens a Session for the decorated call root on the calling goroutine.
func Begin(root recorder.Event, classifier frame.Classifier) (*Session, error) {
	gid := getGoroutineID()
	if gid == 0 {
		return nil, ErrNoGoroutine
	}
	s := &Session{
		gid:    gid,
		rec:    recorder.New(root, classifier),
		parent: current(gid),
	}
	s.expectSelf(root.Callee.Function)
	sessions.Store(gid, s)
	active.Add(1)
	return s, nil
}

// End finishes the Session with the given root fault, unregisters it and
// returns the trace. Calling End twice returns the same trace.
func End(s *Session, fault *calltree.Fault, exit frame.Site) *calltree.Trace {
	if s == nil {
		return nil
	}
	if !s.ended {
		s.ended = true
		root := s.rec.Root()
		if fault != nil {
			s.rec.Raise(recorder.Event{Kind: recorder.KindException, Frame: root, Fault: fault, Exit: exit})
		}
		s.rec.Return(recorder.Event{Kind: recorder.KindReturn, Frame: root, Exit: exit})

		if s.parent != nil {
			sessions.Store(s.gid, s.parent)
		} else {
			sessions.Delete(s.gid)
		}
		active.Add(-1)
	}
	return s.rec.Finish()
}

// Depth returns the number of Sessions nested on the Session's goroutine,
// itself included.
func (s *Session) Depth() int {
	n := 0
	for ; s != nil; s = s.parent {
		n++
	}
	return n
}

// expectSelf arms absorbSelf for the frame just opened for a decorated call.
func (s *Session) expectSelf(name string) {
	s.selfName = name
	s.selfDepth = s.rec.Depth()
}

// absorbSelf consumes the probe a decorated function places in its own body,
// which would otherwise nest the function under itself. Any other call from
// that frame disarms it.
func (s *Session) absorbSelf(callee frame.Site) bool {
	if s.selfName == "" || s.rec.Depth() != s.selfDepth {
		return false
	}
	name := s.selfName
	s.selfName = ""
	if callee.Function != name {
		return false
	}
	// A decorated method value has no definition site until its body reports one.
	if n := s.rec.Top().Node(); n != nil && !n.Def.Known() && callee.Known() {
		n.Def = callee
	}
	return true
}

func current(gid uint64) *Session {
	v, ok := sessions.Load(gid)
	if !ok {
		return nil
	}
	return v.(*Session)
}
