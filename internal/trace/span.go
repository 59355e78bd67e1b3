package trace

import (
	"bytes"
	"runtime"
	"strconv"

	"backtrace/internal/calltree"
	"backtrace/internal/frame"
	"backtrace/internal/recorder"
)

func init() {
	frame.Skip(frame.PkgPathOf(Probe{}))
}

// getGoroutineID extracts the current goroutine ID using runtime.Stack.
// This is a lightweight approach that doesn't require linkname or unsafe.
func getGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	// Stack format: "goroutine 123 [running]:\n..."
	// Extract the number between "goroutine " and " ["
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}

	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}

	gid, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Probe is one instrumented call as seen by every Session of its goroutine.
// A nil Probe is valid and does nothing.
type Probe struct {
	callee   frame.Site
	sessions []*Session
	frames   []*recorder.Frame
}

// Enter reports a call to every Session active on the calling goroutine.
// stack is the goroutine's stack as seen from the probe; the first frame
// outside the tracer is the callee, the next one its caller.
// Enter returns nil when nothing is being traced.
func Enter(stack func() []runtime.Frame) *Probe {
	if !Active() {
		return nil
	}
	s := current(getGoroutineID())
	if s == nil {
		return nil
	}
	callee, caller := frame.CalleeAndCaller(stack())
	return enter(s, callee, caller, false)
}

// EnterWrapped reports the call of a decorated function to the Sessions
// already active on the calling goroutine. The probe the function places in
// its own body is folded into this call.
func EnterWrapped(callee, caller frame.Site) *Probe {
	if !Active() {
		return nil
	}
	s := current(getGoroutineID())
	if s == nil {
		return nil
	}
	return enter(s, callee, caller, true)
}

func enter(s *Session, callee, caller frame.Site, wrapped bool) *Probe {
	ev := recorder.Event{Kind: recorder.KindCall, Callee: callee, Site: caller}

	p := &Probe{callee: callee}
	for ; s != nil; s = s.parent {
		// A decorated call is never the body probe of the frame below it.
		if s.absorbSelf(callee) && !wrapped {
			continue
		}
		fr := s.rec.Enter(ev)
		if fr == nil {
			continue
		}
		if wrapped {
			s.expectSelf(callee.Function)
		}
		p.sessions = append(p.sessions, s)
		p.frames = append(p.frames, fr)
	}
	if len(p.frames) == 0 {
		return nil
	}
	return p
}

// Exit closes the call in every Session that saw it enter. A non-nil fault
// reports an exception leaving the call at exit.
func (p *Probe) Exit(fault *calltree.Fault, exit frame.Site) {
	if p == nil {
		return
	}
	for i, s := range p.sessions {
		fr := p.frames[i]
		if fault != nil {
			s.rec.Raise(recorder.Event{Kind: recorder.KindException, Frame: fr, Fault: fault, Exit: exit})
		}
		s.rec.Return(recorder.Event{Kind: recorder.KindReturn, Frame: fr, Exit: exit})
	}
}

// Callee returns the instrumented function's site as seen at entry.
func (p *Probe) Callee() frame.Site {
	if p == nil {
		return frame.Site{}
	}
	return p.callee
}

// Len returns how many Sessions saw the call.
func (p *Probe) Len() int {
	if p == nil {
		return 0
	}
	return len(p.frames)
}
