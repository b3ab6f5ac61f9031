// Package reactor implements the evaluation cores of Nucleus: the reactor
// contract, the single-threaded serial reactor, the parallel reactor pool,
// and a recording-only mock for tests.
package reactor

import (
	"github.com/nucleus-run/nucleus/internal/cache"
	"github.com/nucleus-run/nucleus/internal/combine"
	"github.com/nucleus-run/nucleus/internal/diagnostics"
	"github.com/nucleus-run/nucleus/internal/nuketype"
	"github.com/nucleus-run/nucleus/internal/object"
)

// Caches bundles a reactor's optional memo tables. Any field may be nil
// when the corresponding cache is disabled or not applicable to the
// reactor kind.
type Caches struct {
	Lookup   *cache.SymbolLookup
	Receiver *cache.Receiver
	Clone    *cache.Clone
}

// StallHandler is called when a reactor (or, for a pool, the whole pool)
// finds itself with no further work to do.
type StallHandler func(r Reactor)

// LocalsSymbol is implemented by whatever supplies the reactor with the
// interned "locals" symbol it needs to run the combination algorithm
// — almost always a *pkg/machine.Machine, but kept as
// an interface here to avoid reactor depending on pkg/machine (which in
// turn depends on reactor).
type LocalsSymbol interface {
	LocalsSymbol() *object.Ref
}

// Reactor is the contract every reactor implementation satisfies. It
// embeds object.Dispatcher (Stage) so combine.Perform and the
// alien/execution receivers can treat any Reactor as a Dispatcher
// directly.
type Reactor interface {
	object.Dispatcher

	// OnStall registers a handler invoked the next time this reactor (or,
	// if pooled, the entire pool) finds itself unable to progress.
	OnStall(handler StallHandler)

	// Stop immediately terminates the reactor (and, if pooled, its
	// siblings).
	Stop()

	// Machine returns the LocalsSymbol source this reactor was
	// constructed with.
	Machine() LocalsSymbol

	// Caches returns the reactor's memo tables, for hit/miss inspection.
	// A pool returns the zero Caches: its tables belong to individual
	// members, never to the pool as a whole.
	Caches() Caches
}

// realize dispatches a single (execution-or-alien, response) staging:
// advance an execution and run the combination algorithm on any resulting
// combination, or realize an alien directly. Anything else is dropped
// with a warning. Shared by the serial reactor and each pool member to
// avoid duplicating the try-cast chain.
func realize(r Reactor, executionRef, responseRef *object.Ref) {
	locked := executionRef.Lock()
	exec, isExecution := object.TryCast[*nuketype.Execution](locked)
	if isExecution {
		// Advance runs while still holding the lock, not released
		// beforehand: executionRef's pc/stack are mutated in place, and
		// SetPayload (same *Execution pointer, new internal state) bumps
		// nuketypeVersion before Unlock.
		combination, ok := exec.Advance(executionRef, responseRef)
		locked.SetPayload(exec)
		locked.Unlock()
		if !ok {
			return
		}
		combine.Perform(r, executionRef, combination, r.Machine().LocalsSymbol())
		return
	}

	alien, isAlien := object.TryCast[*nuketype.Alien](locked)
	locked.Unlock()
	if isAlien {
		alien.Realize(executionRef, r, responseRef)
		return
	}

	diagnostics.Default().Warn("reactor.not_queueable", executionRef.Tag(),
		"tried to realize a non-queueable reference")
}
