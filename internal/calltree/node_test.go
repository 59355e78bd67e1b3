package calltree

import (
	"errors"
	"fmt"
	"testing"
)

func TestMarkKeepsStrongerStatus(t *testing.T) {
	first := PanicFault("first")
	second := PanicFault("second")

	n := &Node{Name: "f"}
	n.Mark(StatusPassedThrough, first)
	if n.Status != StatusPassedThrough || n.Fault != first {
		t.Fatalf("unexpected state after pass-through: %v %+v", n.Status, n.Fault)
	}

	n.Mark(StatusOrigin, second)
	if n.Status != StatusOrigin || n.Fault != second {
		t.Fatalf("origin should override pass-through: %v %+v", n.Status, n.Fault)
	}

	n.Mark(StatusPassedThrough, first)
	if n.Status != StatusOrigin || n.Fault != second {
		t.Errorf("pass-through must not downgrade origin: %v %+v", n.Status, n.Fault)
	}
}

type codeError struct{ code int }

type boxed struct{ V any }

// detailError is comparable as a type, yet == panics when detail holds a slice.
type detailError struct{ detail any }

func (e detailError) Error() string { return "detail" }

func (e codeError) Error() string { return fmt.Sprintf("code %d", e.code) }

func TestFaultContinues(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("load: %w", base)
	other := errors.New("boom")

	tests := []struct {
		name string
		next *Fault
		prev *Fault
		want bool
	}{
		{"same error", ErrorFault(base), ErrorFault(base), true},
		{"wrapped error", ErrorFault(wrapped), ErrorFault(base), true},
		{"equal text, other error", ErrorFault(other), ErrorFault(base), false},
		{"same panic value", PanicFault("boom"), PanicFault("boom"), true},
		{"different panic value", PanicFault("boom"), PanicFault("bang"), false},
		{"panic of an error", PanicFault(base), ErrorFault(base), true},
		{"comparable struct error", ErrorFault(codeError{1}), ErrorFault(codeError{1}), true},
		{"equal slices", PanicFault([]int{1}), PanicFault([]int{1}), true},
		{"different slices", PanicFault([]int{1}), PanicFault([]int{2}), false},
		{"mismatched types", PanicFault(1), PanicFault(int64(1)), false},
		{"struct holding a slice", PanicFault(boxed{[]int{1}}), PanicFault(boxed{[]int{1}}), true},
		{"struct holding another slice", PanicFault(boxed{[]int{1}}), PanicFault(boxed{[]int{2}}), false},
		{"struct holding a string", PanicFault(boxed{"x"}), PanicFault(boxed{"x"}), true},
		{"error holding a slice", ErrorFault(detailError{[]int{1}}), ErrorFault(detailError{[]int{1}}), true},
		{"error holding another slice", ErrorFault(detailError{[]int{1}}), ErrorFault(detailError{[]int{2}}), false},
		{"nil prev", PanicFault("boom"), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.next.Continues(tt.prev); got != tt.want {
				t.Errorf("Continues = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFaultDescriptions(t *testing.T) {
	f := ErrorFault(errors.New("disk full"))
	if f.Kind != FaultError || f.Type != "*errors.errorString" || f.Message != "disk full" {
		t.Errorf("unexpected error fault %+v", f)
	}

	p := PanicFault(42)
	if p.Kind != FaultPanic || p.Type != "int" || p.Message != "42" {
		t.Errorf("unexpected panic fault %+v", p)
	}
}

func sampleTrace() *Trace {
	h := &Node{Name: "h", Status: StatusOrigin}
	g := &Node{Name: "g", Status: StatusPassedThrough}
	g.AddChild(h)
	k := &Node{Name: "k", Returned: true}
	f := &Node{Name: "f", Returned: true}
	f.AddChild(g)
	f.AddChild(k)
	return &Trace{Root: f, Outcome: OutcomeHandled, Exception: &Summary{Origin: h}}
}

func TestWalkOrder(t *testing.T) {
	tr := sampleTrace()
	var got []string
	tr.Root.Walk(func(n *Node, depth int) bool {
		got = append(got, fmt.Sprintf("%s@%d", n.Name, depth))
		return true
	})
	want := []string{"f@0", "g@1", "h@2", "k@1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("walk order %v, want %v", got, want)
	}
}

func TestTraceQueries(t *testing.T) {
	tr := sampleTrace()
	if n := tr.Count(); n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}
	if n := tr.Find("h"); n == nil || n != tr.Exception.Origin {
		t.Errorf("Find(h) = %v", n)
	}
	if n := tr.Find("missing"); n != nil {
		t.Errorf("Find(missing) = %v", n)
	}
	origins := tr.Origins()
	if len(origins) != 1 || origins[0].Name != "h" {
		t.Errorf("Origins = %v", origins)
	}
	if tr.Failed() {
		t.Error("handled trace reported as failed")
	}

	var nilTrace *Trace
	if nilTrace.Count() != 0 || nilTrace.Find("f") != nil || nilTrace.Origins() != nil || nilTrace.Failed() {
		t.Error("nil trace queries should be empty")
	}
}

func TestStringers(t *testing.T) {
	if StatusOrigin.String() != "origin" || StatusPassedThrough.String() != "passed-through" || StatusNormal.String() != "normal" {
		t.Error("unexpected Status strings")
	}
	if OutcomeSuccess.String() != "success" || OutcomeHandled.String() != "handled-exception" || OutcomeUnhandled.String() != "unhandled-exception" {
		t.Error("unexpected Outcome strings")
	}
	if FaultPanic.String() != "panic" || FaultError.String() != "error" || FaultKind(0).String() != "unknown" {
		t.Error("unexpected FaultKind strings")
	}
}
