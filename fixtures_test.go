package backtrace_test

import (
	"errors"
	"fmt"
	"sync"

	"backtrace"
)

var errBoom = errors.New("boom")

type valueError struct{ msg string }

func (e *valueError) Error() string { return e.msg }

// outer calls middle, which reaches inner through sync.Once (foreign code).
// inner panics and middle recovers.
func outer() (n int, err error) {
	defer backtrace.Probe()(&err)
	n = middle()
	return n, nil
}

func middle() (n int) {
	defer backtrace.Probe()(nil)
	defer func() {
		if r := recover(); r != nil {
			n = -1
		}
	}()
	var once sync.Once
	once.Do(inner)
	return 1
}

func inner() {
	defer backtrace.Probe()(nil)
	panic(&valueError{"boom"})
}

func load(name string) (err error) {
	defer backtrace.Probe()(&err)
	if err := open(name); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

func open(string) (err error) {
	defer backtrace.Probe()(&err)
	return errBoom
}

func add(a, b int) int {
	defer backtrace.Probe()(nil)
	return a + b
}

func sum(xs ...int) (total int) {
	defer backtrace.Probe()(nil)
	for _, x := range xs {
		total = add(total, x)
	}
	return total
}

func countdown(n int) int {
	defer backtrace.Probe()(nil)
	if n == 0 {
		return 0
	}
	return 1 + countdown(n-1)
}

func crash() {
	defer backtrace.Probe()(nil)
	var m map[string]int
	m["x"] = 1
}

func retry() (err error) {
	defer backtrace.Probe()(&err)
	if err := open("a"); err == nil {
		return nil
	}
	return nil
}

type payload struct{ V any }

func relay() {
	defer backtrace.Probe()(nil)
	raise()
}

func raise() {
	defer backtrace.Probe()(nil)
	panic(payload{V: []int{1}})
}

type calc struct{ a, b int }

func (c calc) Total() int {
	defer backtrace.Probe()(nil)
	return add(c.a, c.b) + add(c.b, c.a)
}

func (c *calc) Scale(k int) int {
	defer backtrace.Probe()(nil)
	c.a = add(c.a, c.a*(k-1))
	return c.a
}
