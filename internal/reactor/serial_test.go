package reactor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus-run/nucleus/internal/nuketype"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/reactor"
	"github.com/nucleus-run/nucleus/internal/script"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

func timeoutChan(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(2 * time.Second)
}

type fakeMachine struct{ localsSymbol *object.Ref }

func (m fakeMachine) LocalsSymbol() *object.Ref { return m.localsSymbol }

func newMachine() fakeMachine {
	return fakeMachine{localsSymbol: object.NewThing()}
}

func TestSerialStageAndStepRealizesWork(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 0)

	var dispatched bool
	msg := object.NewThing()
	root := script.New([]script.Instruction{
		{Op: script.Push, Literal: msg},
		{Op: script.Combine},
	})
	subjectWithNative := object.New(object.Thing{})
	locked := subjectWithNative.Lock()
	locked.Meta().Receiver = object.Receiver{Native: func(object.Dispatcher, *object.Ref, *object.Ref, *object.Ref) { dispatched = true }}
	locked.BumpMetaVersion()
	locked.Unlock()

	exec := nuketype.Create(root, m.localsSymbol)
	s.Stage(exec, subjectWithNative)

	assert.True(t, s.Step(), "one staged item should be realized")
	assert.True(t, dispatched)
	assert.False(t, s.Step(), "queue should now be empty")
}

func TestSerialStopDrainsQueueAndHandlers(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 0)

	s.Stage(object.NewThing(), object.NewThing())
	var fired bool
	s.OnStall(func(reactor.Reactor) { fired = true })

	s.Stop()
	assert.False(t, s.IsAlive())
	assert.False(t, s.Step(), "a stopped reactor does no further work")

	s.Stall()
	assert.False(t, fired, "handlers are dropped on Stop, never fired afterward")
}

func TestSerialStageAndOnStallNoOpAfterStop(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 0)
	s.Stop()

	s.Stage(object.NewThing(), object.NewThing())
	assert.False(t, s.Step())

	var called bool
	s.OnStall(func(reactor.Reactor) { called = true })
	s.Stall()
	assert.False(t, called)
}

func TestSerialStallConsumesHandlersExactlyOnce(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 0)

	var calls int
	s.OnStall(func(reactor.Reactor) { calls++ })
	s.Stall()
	assert.Equal(t, 1, calls)

	s.Stall()
	assert.Equal(t, 1, calls, "a handler fires once, not on every subsequent stall")
}

func TestSerialRunStopsViaStallHandler(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 0)
	s.OnStall(func(r reactor.Reactor) { r.Stop() })

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-timeoutChan(t):
		t.Fatal("Run did not return after its stall handler called Stop")
	}
	assert.False(t, s.IsAlive())
}

func TestSerialMachineReturnsBoundMachine(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 0)
	assert.Equal(t, m.LocalsSymbol(), s.Machine().LocalsSymbol())
}

func TestSerialLookupCacheDisabledWhenSizeNonPositive(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 0)

	table := symbol.NewTable()
	handle := table.Intern("x")
	_, ok := s.CachedLookupPair(object.NewThing(), handle)
	assert.False(t, ok)

	// CacheLookupPair must be a safe no-op, not a panic, when disabled.
	assert.NotPanics(t, func() {
		s.CacheLookupPair(object.NewThing(), handle, object.NewThing(), object.NewThing())
	})
}

func TestSerialCachesAccessorExposesCounters(t *testing.T) {
	m := newMachine()

	assert.Nil(t, reactor.NewSerial(m, 0).Caches().Lookup)

	s := reactor.NewSerial(m, 64)
	caches := s.Caches()
	require.NotNil(t, caches.Lookup)
	assert.Nil(t, caches.Receiver, "receiver caching is a pool-member concern")
	assert.Nil(t, caches.Clone)

	table := symbol.NewTable()
	handle := table.Intern("x")
	container := object.NewThing()

	_, ok := s.CachedLookupPair(container, handle)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), caches.Lookup.Misses())

	pair := object.NewThing()
	value := object.NewThing()
	s.CacheLookupPair(container, handle, pair, value)
	got, ok := s.CachedLookupPair(container, handle)
	require.True(t, ok)
	assert.Same(t, value, got)
	assert.Equal(t, uint64(1), caches.Lookup.Hits())
}

func TestSerialLookupCacheRoundTripsWhenEnabled(t *testing.T) {
	m := newMachine()
	s := reactor.NewSerial(m, 64)

	table := symbol.NewTable()
	handle := table.Intern("x")
	container := object.NewThing()
	pair := object.NewThing()
	value := object.NewThing()

	_, ok := s.CachedLookupPair(container, handle)
	assert.False(t, ok)

	s.CacheLookupPair(container, handle, pair, value)
	got, ok := s.CachedLookupPair(container, handle)
	require.True(t, ok)
	assert.Same(t, value, got)
}
