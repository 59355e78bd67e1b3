// Package calltree holds the in-memory model of one traced invocation: a strict
// ownership tree of CallNodes plus the outcome of the invocation.
package calltree

import (
	"errors"
	"fmt"
	"reflect"

	"backtrace/internal/frame"
)

// Status is the exception annotation of a node.
// Higher values take precedence when a node is marked more than once.
type Status uint8

const (
	// StatusNormal marks a node no exception travelled through.
	StatusNormal Status = iota
	// StatusPassedThrough marks a node an exception unwound through.
	StatusPassedThrough
	// StatusOrigin marks the node where an exception was first raised.
	StatusOrigin
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusPassedThrough:
		return "passed-through"
	case StatusOrigin:
		return "origin"
	default:
		return "unknown"
	}
}

// FaultKind tells how an exception travelled.
type FaultKind uint8

const (
	// FaultPanic is a panic unwinding the stack.
	FaultPanic FaultKind = iota + 1
	// FaultError is a non-nil error result.
	FaultError
)

// String returns the string representation of FaultKind.
func (k FaultKind) String() string {
	switch k {
	case FaultPanic:
		return "panic"
	case FaultError:
		return "error"
	default:
		return "unknown"
	}
}

// Fault describes one exception as observed at one frame.
type Fault struct {
	Kind    FaultKind
	Type    string // Go type of the value, e.g. "*errors.errorString"
	Message string
	Value   any // the panic value or the error itself
}

// PanicFault builds a Fault from a recovered panic value.
func PanicFault(v any) *Fault {
	return &Fault{Kind: FaultPanic, Type: fmt.Sprintf("%T", v), Message: fmt.Sprint(v), Value: v}
}

// ErrorFault builds a Fault from a non-nil error result.
func ErrorFault(err error) *Fault {
	return &Fault{Kind: FaultError, Type: fmt.Sprintf("%T", err), Message: err.Error(), Value: err}
}

// Continues reports whether f is the same exception as prev carried one frame
// further: the identical panic value, or an error that wraps prev's error.
// Values that cannot be compared with == are compared deeply. Continues never
// panics.
func (f *Fault) Continues(prev *Fault) (same bool) {
	if f == nil || prev == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	if err, ok := f.Value.(error); ok {
		if perr, ok := prev.Value.(error); ok {
			if is, ok := errorIs(err, perr); ok {
				return is
			}
		}
	}
	return sameValue(f.Value, prev.Value)
}

// errorIs is errors.Is with ok=false where the comparison itself panics,
// which happens for error types holding slices or maps in interface fields.
func errorIs(err, target error) (is, ok bool) {
	defer func() {
		if recover() != nil {
			is, ok = false, false
		}
	}()
	return errors.Is(err, target), true
}

func sameValue(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) {
		return false
	}
	if !t.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	// A comparable struct may still hold an uncomparable value in an
	// interface field.
	defer func() {
		if recover() != nil {
			same = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}

// Node is one traced call.
type Node struct {
	Name     string     // qualified function name
	Site     frame.Site // where the call expression is; zero for a root without a caller
	Def      frame.Site // the callee's own location
	Exit     frame.Site // where the call left: the panic site, or the frame at return
	Children []*Node
	Status   Status
	Fault    *Fault // exception seen at this node when Status != StatusNormal
	Returned bool   // the call returned normally
}

// AddChild appends a child in call order and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Mark raises the node's status to s, keeping the stronger one.
func (n *Node) Mark(s Status, f *Fault) {
	if s < n.Status {
		return
	}
	n.Status = s
	if f != nil {
		n.Fault = f
	}
}

// Walk visits n and its descendants depth-first in call order.
// Returning false from fn stops the walk below that node.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}
