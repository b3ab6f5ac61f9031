package reactor

import (
	"sync"

	"github.com/nucleus-run/nucleus/internal/cache"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

type staging struct {
	execution *object.Ref
	response  *object.Ref
}

// Serial is a single-threaded reactor: an internal FIFO queue of staged
// pairs, run from the calling goroutine, with no cross-reactor messaging
// at all.
type Serial struct {
	mu       sync.Mutex
	alive    bool
	queue    []staging
	handlers []StallHandler
	machine  LocalsSymbol

	// lookups is the serial reactor's symbol-lookup cache. A serial
	// reactor gets symbol-lookup memoization only — receiver and clone
	// caching are a pool-member optimization, since a lone serial reactor
	// re-walks each chain at most once per combination anyway. Nil when
	// constructed with cacheSize <= 0.
	lookups *cache.SymbolLookup
}

var _ Reactor = (*Serial)(nil)

// NewSerial constructs a Serial reactor with an empty queue and no stall
// handlers, bound to machine for locals-symbol resolution. cacheSize sizes
// the symbol-lookup LRU; a non-positive value disables
// lookup caching entirely.
func NewSerial(machine LocalsSymbol, cacheSize int) *Serial {
	s := &Serial{alive: true, machine: machine}
	if cacheSize > 0 {
		s.lookups = cache.NewSymbolLookup(cacheSize)
	}
	return s
}

// CachedLookupPair implements object.LookupCache.
func (s *Serial) CachedLookupPair(container *object.Ref, key *symbol.Handle) (*object.Ref, bool) {
	if s.lookups == nil {
		return nil, false
	}
	return s.lookups.CachedLookupPair(container, key)
}

// CacheLookupPair implements object.LookupCache.
func (s *Serial) CacheLookupPair(container *object.Ref, key *symbol.Handle, pair, value *object.Ref) {
	if s.lookups == nil {
		return
	}
	s.lookups.CacheLookupPair(container, key, pair, value)
}

// IsAlive reports whether Stop has not yet been called.
func (s *Serial) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Stage implements object.Dispatcher / Reactor.
func (s *Serial) Stage(execution, response *object.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}
	s.queue = append(s.queue, staging{execution: execution, response: response})
}

// OnStall implements Reactor.
func (s *Serial) OnStall(handler StallHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return
	}
	s.handlers = append(s.handlers, handler)
}

// Stop implements Reactor: drains the queue and drops remaining
// handlers.
func (s *Serial) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
	s.queue = nil
	s.handlers = nil
}

// Machine implements Reactor.
func (s *Serial) Machine() LocalsSymbol { return s.machine }

// Caches implements Reactor. A serial reactor only ever carries the
// symbol-lookup table.
func (s *Serial) Caches() Caches { return Caches{Lookup: s.lookups} }

// Step pops a single staging off the queue and realizes it, returning
// whether any work was done.
func (s *Serial) Step() bool {
	s.mu.Lock()
	if !s.alive || len(s.queue) == 0 {
		s.mu.Unlock()
		return false
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()

	realize(s, next.execution, next.response)
	return true
}

// Stall invokes every currently-registered stall handler exactly once.
// Handlers are consumed on invocation — a handler may itself register a
// new handler, which fires on the next stall, not this one.
func (s *Serial) Stall() {
	s.mu.Lock()
	handlers := s.handlers
	s.handlers = nil
	s.mu.Unlock()

	for _, h := range handlers {
		h(s)
	}
}

// Run loops Step until the queue is empty, then fires stall handlers; if
// handlers produce no further work and the reactor is still alive, Run
// blocks forever — a quiescent reactor that was never stopped is supposed
// to still seem alive.
func (s *Serial) Run() {
	for {
		for s.Step() && s.IsAlive() {
		}

		if !s.IsAlive() {
			return
		}

		s.Stall()

		if !s.IsAlive() || !s.Step() {
			break
		}
	}

	if s.IsAlive() {
		select {}
	}
}
