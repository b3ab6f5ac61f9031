package nuketype

import (
	"github.com/nucleus-run/nucleus/internal/clone"
	"github.com/nucleus-run/nucleus/internal/diagnostics"
	"github.com/nucleus-run/nucleus/internal/object"
)

// Alien is the alien nuketype: an opaque native routine plus boxed
// routine-local state implementing a clone hook. realize and cloneHook
// close over that state; Alien itself carries no state directly, so every
// adaptor below can plug in its own.
type Alien struct {
	realize   func(self *object.Ref, d object.Dispatcher, response *object.Ref)
	cloneHook func() *Alien
}

// Kind implements object.Payload.
func (*Alien) Kind() object.Kind { return object.KindAlien }

// ClonePayload implements object.Cloner.
func (a *Alien) ClonePayload() object.Payload { return a.cloneHook() }

// Realize invokes the alien's routine. The Ref is not held locked across
// Realize; the routine locks whatever it needs itself.
func (a *Alien) Realize(self *object.Ref, d object.Dispatcher, response *object.Ref) {
	a.realize(self, d, response)
}

// create boxes a realize/cloneHook pair into a reference with its
// receiver set to the stage receiver, exactly like Create does for an
// execution.
func create(localsSymbol *object.Ref, realize func(self *object.Ref, d object.Dispatcher, response *object.Ref), cloneHook func() *Alien) *object.Ref {
	r := object.New(&Alien{realize: realize, cloneHook: cloneHook})
	locked := r.Lock()
	locked.Meta().Receiver = object.Receiver{Native: clone.StageReceiver(localsSymbol)}
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}

// NewRaw wraps a caller-supplied routine and clone hook directly.
func NewRaw(localsSymbol *object.Ref, realize func(self *object.Ref, d object.Dispatcher, response *object.Ref), cloneHook func() *Alien) *object.Ref {
	return create(localsSymbol, realize, cloneHook)
}

// CallPatternFunc is invoked exactly once, after a call-pattern alien has
// collected its caller and all of its arguments.
type CallPatternFunc func(d object.Dispatcher, caller *object.Ref, args []*object.Ref)

type callPatternState struct {
	n        int
	fn       CallPatternFunc
	caller   *object.Ref
	args     []*object.Ref
	complete bool
}

// NewCallPattern builds a call-pattern alien: it accumulates
// the first response as its caller, then n further responses as
// arguments, staging the caller with itself between each (so the caller
// can keep supplying arguments), and finally invokes fn exactly once.
// After completion, further realizations are inert.
func NewCallPattern(localsSymbol *object.Ref, n int, fn CallPatternFunc) *object.Ref {
	return newCallPattern(localsSymbol, &callPatternState{n: n, fn: fn})
}

func newCallPattern(localsSymbol *object.Ref, st *callPatternState) *object.Ref {
	realize := func(self *object.Ref, d object.Dispatcher, response *object.Ref) {
		if st.complete {
			return
		}
		if st.caller == nil {
			st.caller = response
			d.Stage(st.caller, self)
			return
		}
		st.args = append(st.args, response)
		if len(st.args) < st.n {
			d.Stage(st.caller, self)
			return
		}
		st.complete = true
		st.fn(d, st.caller, st.args)
	}
	cloneHook := func() *Alien {
		// The accumulated caller/args/complete state is carried over, not
		// reset: the stage receiver clones the alien on every combination,
		// so each argument step runs on a fresh clone of the previous
		// step's state. The args slice is copied so nothing mutable is
		// shared.
		copied := &callPatternState{
			n:        st.n,
			fn:       st.fn,
			caller:   st.caller,
			args:     append([]*object.Ref(nil), st.args...),
			complete: st.complete,
		}
		return aliasAlien(newCallPattern(localsSymbol, copied))
	}
	return create(localsSymbol, realize, cloneHook)
}

// aliasAlien extracts the *Alien payload wrapped by ref, for use inside a
// clone hook (which must return *Alien, not *object.Ref). Panics if ref
// isn't an alien-kind reference, which would indicate a bug in this file,
// not user input.
func aliasAlien(ref *object.Ref) *Alien {
	locked := ref.Lock()
	defer locked.Unlock()
	alien, ok := object.TryCast[*Alien](locked)
	if !ok {
		panic("nuketype: aliasAlien called on a non-alien reference")
	}
	return alien
}

// OneshotFunc is invoked exactly once, on the first realization of a
// oneshot alien.
type OneshotFunc func(d object.Dispatcher, self *object.Ref, response *object.Ref)

type oneshotState struct {
	fn   OneshotFunc
	done bool
}

// NewOneshot builds a oneshot alien: a single invocation of fn
// with (reactor, response); further realizations are inert.
func NewOneshot(localsSymbol *object.Ref, fn OneshotFunc) *object.Ref {
	return newOneshot(localsSymbol, &oneshotState{fn: fn})
}

func newOneshot(localsSymbol *object.Ref, st *oneshotState) *object.Ref {
	realize := func(self *object.Ref, d object.Dispatcher, response *object.Ref) {
		if st.done {
			return
		}
		st.done = true
		st.fn(d, self, response)
	}
	cloneHook := func() *Alien {
		copied := &oneshotState{fn: st.fn, done: st.done}
		return aliasAlien(newOneshot(localsSymbol, copied))
	}
	return create(localsSymbol, realize, cloneHook)
}

// NewNativeReceiver wraps a plain object.NativeFunc as a queueable alien:
// it extracts the params triple {caller, subject, message} from members
// 1..3 of the response it is realized with, and calls fn. A response
// missing any of the three members is a malformed-params error: warn,
// drop the staging.
func NewNativeReceiver(localsSymbol *object.Ref, fn object.NativeFunc) *object.Ref {
	realize := func(self *object.Ref, d object.Dispatcher, response *object.Ref) {
		locked := response.Lock()
		callerRel, _ := locked.Meta().Members.Get(1)
		subjectRel, _ := locked.Meta().Members.Get(2)
		messageRel, _ := locked.Meta().Members.Get(3)
		locked.Unlock()

		if callerRel.IsHole() || subjectRel.IsHole() || messageRel.IsHole() {
			diagnostics.Default().Warn("native_receiver.malformed_params", self.Tag(),
				"native-receiver alien realized with a malformed params object")
			return
		}
		fn(d, callerRel.Target, subjectRel.Target, messageRel.Target)
	}
	cloneHook := func() *Alien {
		return aliasAlien(NewNativeReceiver(localsSymbol, fn))
	}
	return create(localsSymbol, realize, cloneHook)
}
