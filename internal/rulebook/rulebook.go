// Package rulebook implements the "rulebook" test-harness facility: a
// Test-Anything-Protocol-style runner that stages rule bodies, then on the
// reactor's first stall realizes any "eventually" follow-up blocks once,
// then stops the reactor on the next stall (or on the first stall itself
// when no eventually block is pending). It is infrastructure for this
// module's own tests and hosts, not a general framework exposed to
// user-written Nucleus programs.
package rulebook

import (
	"fmt"
	"sync"

	"github.com/nucleus-run/nucleus/internal/object"
)

// Result is the outcome of one rule.
type Result int

const (
	// Pending means the rule has not yet reported pass or fail.
	Pending Result = iota
	Pass
	Fail
)

// rule is one registered test case.
type rule struct {
	name       string
	body       *object.Ref
	eventually *object.Ref
	result     Result
}

// Suite is a collection of rules, run to completion by
// Suite.Run.
type Suite struct {
	mu    sync.Mutex
	rules []*rule
	out   func(string)
}

// NewSuite constructs an empty Suite. print is called once per line of
// TAP output; pass nil to use fmt.Println.
func NewSuite(print func(string)) *Suite {
	if print == nil {
		print = func(s string) { fmt.Println(s) }
	}
	return &Suite{out: print}
}

// AddRule registers a rule: body is staged with itself when Run starts;
// eventually, if non-nil, is staged once the reactor first goes quiet.
func (s *Suite) AddRule(name string, body, eventually *object.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &rule{name: name, body: body, eventually: eventually})
}

// SetResult records the outcome of the named rule. Rules not set by the
// time Run's TAP summary prints are reported as failed (a rule that never
// calls pass/fail did not complete).
func (s *Suite) SetResult(name string, result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.name == name {
			r.result = result
			return
		}
	}
}

// Run stages every rule's body, then registers the two-phase stall
// handler: on the reactor's first stall, stage every pending rule's
// eventually block; on the stall after that, print the TAP summary and
// stop the reactor. If the first stall finds no eventually blocks to
// stage, the summary and stop happen immediately — a serial reactor whose
// stall handlers produce no work hangs rather than stalling again. onStall registers a zero-argument stall
// callback against whatever concrete reactor the caller is driving
// (reactor.Reactor.OnStall, adapted by the caller to discard its Reactor
// argument) — kept untyped here so this test harness does not need to
// import internal/reactor for the sole purpose of naming its type.
func (s *Suite) Run(d object.Dispatcher, onStall func(func()), stop func()) {
	s.mu.Lock()
	rules := append([]*rule(nil), s.rules...)
	s.mu.Unlock()

	for _, r := range rules {
		d.Stage(r.body, r.body)
	}

	onStall(func() {
		s.mu.Lock()
		pending := make([]*rule, 0, len(rules))
		for _, r := range rules {
			if r.result == Pending && r.eventually != nil {
				pending = append(pending, r)
			}
		}
		s.mu.Unlock()

		// With no eventually blocks to drain there is no second quiescent
		// period coming (a serial reactor hangs on quiescence rather than
		// re-firing), so the summary happens now.
		if len(pending) == 0 {
			s.report(rules)
			stop()
			return
		}

		for _, r := range pending {
			d.Stage(r.eventually, r.eventually)
		}

		onStall(func() {
			s.report(rules)
			stop()
		})
	})
}

func (s *Suite) report(rules []*rule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.out(fmt.Sprintf("1..%d", len(rules)))
	for i, r := range rules {
		status := "ok"
		if r.result == Fail || r.result == Pending {
			status = "not ok"
		}
		s.out(fmt.Sprintf("%s %d - %s", status, i+1, r.name))
	}
}
