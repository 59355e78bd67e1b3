package recorder

import (
	"backtrace/internal/calltree"
	"backtrace/internal/frame"
)

// Kind represents the type of an observed event.
type Kind uint8

const (
	// KindCall marks entry into a function.
	KindCall Kind = iota + 1
	// KindException marks an exception leaving a function.
	KindException
	// KindReturn marks a function's frame going away, normally or not.
	KindReturn
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindException:
		return "exception"
	case KindReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Event is one entry of the linear stream a Recorder consumes.
// An exceptional exit is a KindException event followed by a KindReturn event
// for the same frame.
type Event struct {
	Kind   Kind
	Callee frame.Site      // the function itself (KindCall)
	Site   frame.Site      // the call expression (KindCall)
	Exit   frame.Site      // where the frame was left (KindException, KindReturn)
	Fault  *calltree.Fault // KindException
	Frame  *Frame          // target of KindException/KindReturn; nil means the innermost open frame
}
