package nuketype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus-run/nucleus/internal/nuketype"
	"github.com/nucleus-run/nucleus/internal/object"
)

type stagedCall struct{ queueable, response *object.Ref }

type mockDispatcher struct{ staged []stagedCall }

func (m *mockDispatcher) Stage(queueable, response *object.Ref) {
	m.staged = append(m.staged, stagedCall{queueable, response})
}

var _ object.Dispatcher = (*mockDispatcher)(nil)

func TestAlienRawRealizeInvokesRoutine(t *testing.T) {
	localsSymbol := object.NewThing()
	var gotResponse *object.Ref

	a := nuketype.NewRaw(localsSymbol,
		func(self *object.Ref, d object.Dispatcher, response *object.Ref) { gotResponse = response },
		func() *nuketype.Alien { return nil },
	)

	locked := a.Lock()
	recv := locked.Meta().Receiver
	locked.Unlock()
	require.NotNil(t, recv.Native, "an alien's receiver is the stage receiver")

	response := object.NewThing()
	alien, ok := castAlien(t, a)
	require.True(t, ok)
	alien.Realize(a, &mockDispatcher{}, response)
	assert.Same(t, response, gotResponse)
}

func TestAlienCallPatternCollectsCallerThenArgsThenInvokesOnce(t *testing.T) {
	localsSymbol := object.NewThing()
	var gotCaller *object.Ref
	var gotArgs []*object.Ref
	var invocations int

	a := nuketype.NewCallPattern(localsSymbol, 2, func(d object.Dispatcher, caller *object.Ref, args []*object.Ref) {
		invocations++
		gotCaller = caller
		gotArgs = args
	})
	alien, _ := castAlien(t, a)

	caller := object.NewThing()
	arg0 := object.NewThing()
	arg1 := object.NewThing()
	d := &mockDispatcher{}

	// first realization: establishes the caller, restages itself so the
	// caller can keep supplying arguments
	alien.Realize(a, d, caller)
	require.Len(t, d.staged, 1)
	assert.Same(t, caller, d.staged[0].queueable)
	assert.Same(t, a, d.staged[0].response)
	assert.Equal(t, 0, invocations)

	// second realization: first argument, still incomplete
	alien.Realize(a, d, arg0)
	require.Len(t, d.staged, 2)
	assert.Equal(t, 0, invocations)

	// third realization: second (final) argument, fn invoked exactly once
	alien.Realize(a, d, arg1)
	require.Equal(t, 1, invocations)
	assert.Same(t, caller, gotCaller)
	require.Len(t, gotArgs, 2)
	assert.Same(t, arg0, gotArgs[0])
	assert.Same(t, arg1, gotArgs[1])

	// further realizations after completion are inert
	alien.Realize(a, d, object.NewThing())
	assert.Equal(t, 1, invocations)
	assert.Len(t, d.staged, 2, "no further staging happens once complete")
}

func TestAlienCallPatternClonePreservesAccumulatedState(t *testing.T) {
	// The stage receiver clones a call-pattern alien on every combination,
	// so each argument step runs against a clone of the previous step's
	// state; the clone hook must carry the collected caller/args over.
	localsSymbol := object.NewThing()
	var gotCaller *object.Ref
	var gotArgs []*object.Ref
	a := nuketype.NewCallPattern(localsSymbol, 2, func(d object.Dispatcher, caller *object.Ref, args []*object.Ref) {
		gotCaller = caller
		gotArgs = args
	})
	alien, _ := castAlien(t, a)

	caller := object.NewThing()
	arg0 := object.NewThing()
	arg1 := object.NewThing()
	d := &mockDispatcher{}

	alien.Realize(a, d, caller)
	alien.Realize(a, d, arg0)

	locked := a.Lock()
	cloned := locked.Payload().(object.Cloner).ClonePayload().(*nuketype.Alien)
	locked.Unlock()
	clonedRef := object.New(cloned)

	cloned.Realize(clonedRef, d, arg1)
	assert.Same(t, caller, gotCaller)
	require.Len(t, gotArgs, 2)
	assert.Same(t, arg0, gotArgs[0])
	assert.Same(t, arg1, gotArgs[1])

	// the original still holds only one collected argument; the clone's
	// completion did not leak back
	alien.Realize(a, d, object.NewThing())
	assert.Same(t, caller, gotCaller)
}

func TestAlienCallPatternCloneHookProducesIndependentState(t *testing.T) {
	localsSymbol := object.NewThing()
	var invocations int
	a := nuketype.NewCallPattern(localsSymbol, 1, func(object.Dispatcher, *object.Ref, []*object.Ref) { invocations++ })

	locked := a.Lock()
	payload := locked.Payload()
	cloned := payload.(object.Cloner).ClonePayload()
	locked.Unlock()

	clonedAlien, ok := cloned.(*nuketype.Alien)
	require.True(t, ok)
	clonedRef := object.New(clonedAlien)

	orig, _ := castAlien(t, a)
	d := &mockDispatcher{}

	// driving the clone to completion must not affect the original's state
	clonedAlien.Realize(clonedRef, d, object.NewThing())
	clonedAlien.Realize(clonedRef, d, object.NewThing())
	assert.Equal(t, 1, invocations)

	orig.Realize(a, d, object.NewThing())
	orig.Realize(a, d, object.NewThing())
	assert.Equal(t, 2, invocations)
}

func TestAlienOneshotInvokesOnceThenInert(t *testing.T) {
	localsSymbol := object.NewThing()
	var calls int
	var gotResponse *object.Ref
	a := nuketype.NewOneshot(localsSymbol, func(d object.Dispatcher, self *object.Ref, response *object.Ref) {
		calls++
		gotResponse = response
	})
	alien, _ := castAlien(t, a)

	response := object.NewThing()
	d := &mockDispatcher{}
	alien.Realize(a, d, response)
	assert.Equal(t, 1, calls)
	assert.Same(t, response, gotResponse)

	alien.Realize(a, d, object.NewThing())
	assert.Equal(t, 1, calls, "a second realization is inert")
}

func TestAlienNativeReceiverUnpacksParamsAndCallsFn(t *testing.T) {
	localsSymbol := object.NewThing()
	var gotCaller, gotSubject, gotMessage *object.Ref
	a := nuketype.NewNativeReceiver(localsSymbol, func(d object.Dispatcher, caller, subject, message *object.Ref) {
		gotCaller, gotSubject, gotMessage = caller, subject, message
	})
	alien, _ := castAlien(t, a)

	caller := object.NewThing()
	subject := object.NewThing()
	message := object.NewThing()
	params := object.NewParams(caller, subject, message)

	alien.Realize(a, &mockDispatcher{}, params)
	assert.Same(t, caller, gotCaller)
	assert.Same(t, subject, gotSubject)
	assert.Same(t, message, gotMessage)
}

func TestAlienNativeReceiverMalformedParamsIsDropped(t *testing.T) {
	localsSymbol := object.NewThing()
	called := false
	a := nuketype.NewNativeReceiver(localsSymbol, func(object.Dispatcher, *object.Ref, *object.Ref, *object.Ref) { called = true })
	alien, _ := castAlien(t, a)

	malformed := object.NewThing() // no members at all
	alien.Realize(a, &mockDispatcher{}, malformed)
	assert.False(t, called)
}

func castAlien(t *testing.T, ref *object.Ref) (*nuketype.Alien, bool) {
	t.Helper()
	locked := ref.Lock()
	defer locked.Unlock()
	return object.TryCast[*nuketype.Alien](locked)
}
