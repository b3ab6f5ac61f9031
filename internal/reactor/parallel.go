package reactor

import (
	"sync"
	"sync/atomic"

	"github.com/nucleus-run/nucleus/internal/cache"
	"github.com/nucleus-run/nucleus/internal/clone"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

type messageKind int8

const (
	msgDo messageKind = iota
	msgStage
	msgStall
	msgStop
)

type message struct {
	kind      messageKind
	fn        func(Reactor)
	execution *object.Ref
	response  *object.Ref
}

// mailbox is an unbounded, mutex-and-condvar-guarded FIFO over a plain
// growable slice: a parallel reactor's mailbox is drained in full every
// iteration, so anything fancier (chunking, pooling) buys nothing a
// reused slice doesn't already give us.
type mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []message
	closed bool
}

func newMailbox() *mailbox {
	mb := &mailbox{}
	mb.cond = sync.NewCond(&mb.mu)
	return mb
}

func (mb *mailbox) send(m message) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, m)
	mb.mu.Unlock()
	mb.cond.Signal()
}

// tryRecv pops one message without blocking, for the mailbox-drain step.
func (mb *mailbox) tryRecv() (message, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.queue) == 0 {
		return message{}, false
	}
	m := mb.queue[0]
	mb.queue = mb.queue[1:]
	return m, true
}

// recvBlocking pops one message, blocking until one is available.
func (mb *mailbox) recvBlocking() message {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for len(mb.queue) == 0 {
		mb.cond.Wait()
	}
	m := mb.queue[0]
	mb.queue = mb.queue[1:]
	return m
}

// member is one reactor in a Parallel pool. Its local staging buffer is
// touched only from its own goroutine (every Stage call that can reach it
// happens either from realize() running on that same goroutine, or via a
// mailbox-delivered Stage message handled on that same goroutine), so it
// needs no lock of its own.
type member struct {
	pool     *Parallel
	index    int
	mailbox  *mailbox
	local    []staging
	handlers []StallHandler

	// lookups, receivers, and clones are this member's private caches,
	// touched only from this member's own goroutine, so none of them need
	// locking of their own.
	lookups   *cache.SymbolLookup
	receivers *cache.Receiver
	clones    *cache.Clone
}

var _ Reactor = (*member)(nil)

// CachedLookupPair implements object.LookupCache.
func (m *member) CachedLookupPair(container *object.Ref, key *symbol.Handle) (*object.Ref, bool) {
	if m.lookups == nil {
		return nil, false
	}
	return m.lookups.CachedLookupPair(container, key)
}

// CacheLookupPair implements object.LookupCache.
func (m *member) CacheLookupPair(container *object.Ref, key *symbol.Handle, pair, value *object.Ref) {
	if m.lookups == nil {
		return
	}
	m.lookups.CacheLookupPair(container, key, pair, value)
}

// CachedReceiver implements internal/combine's ReceiverCache.
func (m *member) CachedReceiver(target *object.Ref) (object.Receiver, bool) {
	if m.receivers == nil {
		return object.Receiver{}, false
	}
	return m.receivers.CachedReceiver(target)
}

// CacheReceiver implements internal/combine's ReceiverCache.
func (m *member) CacheReceiver(target *object.Ref, recv object.Receiver) {
	if m.receivers == nil {
		return
	}
	m.receivers.CacheReceiver(target, recv)
}

// CachedClone implements internal/combine's CloneCache.
func (m *member) CachedClone(source *object.Ref) (*object.Ref, bool) {
	if m.clones == nil {
		return nil, false
	}
	return m.clones.CachedClone(source)
}

// CacheClone implements internal/combine's CloneCache.
func (m *member) CacheClone(source *object.Ref, details clone.Details) {
	if m.clones == nil {
		return
	}
	m.clones.CacheClone(source, details)
}

// Stage implements Reactor: if the local buffer is empty, push locally
// (no cross-reactor cost); else increment pending and send a Stage
// message to the next reactor in round-robin order, skipping self.
// member.Stage is only ever invoked on the member's own goroutine, but
// the local-buffer-empty half of the condition still matters: a realize
// pass that stages more than once (e.g. a call-pattern alien restaging
// its caller, then completing) must spread everything past the first onto
// idle siblings rather than piling it all onto this member.
func (m *member) Stage(execution, response *object.Ref) {
	if len(m.local) == 0 {
		m.local = append(m.local, staging{execution: execution, response: response})
		return
	}
	m.pool.pending.Add(1)
	idx := m.pool.nextOther(m.index)
	m.pool.members[idx].mailbox.send(message{kind: msgStage, execution: execution, response: response})
}

// OnStall implements Reactor: registers a handler local to this member,
// fired the next time this member receives a Stall message.
func (m *member) OnStall(handler StallHandler) {
	m.handlers = append(m.handlers, handler)
}

// Stop implements Reactor: terminating any one member terminates the
// whole pool.
func (m *member) Stop() { m.pool.Stop() }

// Machine implements Reactor.
func (m *member) Machine() LocalsSymbol { return m.pool.machine }

// Caches implements Reactor.
func (m *member) Caches() Caches {
	return Caches{Lookup: m.lookups, Receiver: m.receivers, Clone: m.clones}
}

// handle applies one mailbox message to this member, returning true if it
// was a Stop (the caller should exit its run loop).
func (m *member) handle(msg message) bool {
	switch msg.kind {
	case msgDo:
		msg.fn(m)
	case msgStage:
		m.local = append(m.local, staging{execution: msg.execution, response: msg.response})
	case msgStall:
		handlers := m.handlers
		m.handlers = nil
		for _, h := range handlers {
			h(m)
		}
	case msgStop:
		return true
	}
	return false
}

// run is a member's main loop: drain the mailbox, realize a
// snapshot-bounded batch of local work, or join the stall consensus and
// block for the next message.
func (m *member) run() {
	defer m.pool.wg.Done()

	for {
		for {
			msg, ok := m.mailbox.tryRecv()
			if !ok {
				break
			}
			m.pool.pending.Add(-1)
			if m.handle(msg) {
				return
			}
		}

		if len(m.local) > 0 {
			m.pool.notifyStall.Store(true)
			batch := m.local
			m.local = nil
			for _, st := range batch {
				realize(m, st.execution, st.response)
			}
			continue
		}

		m.pool.waiting.Add(1)
		if int(m.pool.waiting.Load()) == m.pool.n && m.pool.pending.Load() == 0 {
			if m.pool.notifyStall.CompareAndSwap(true, false) {
				m.pool.broadcastStall()
			}
		}

		msg := m.mailbox.recvBlocking()
		m.pool.waiting.Add(-1)
		m.pool.pending.Add(-1)
		if m.handle(msg) {
			return
		}
	}
}

// Parallel is a pool of N≥2 reactors communicating by message passing.
// Its shared mutable state is the three atomic counters driving stall
// consensus, the atomic round-robin cursor, and the members' mailboxes;
// every other piece of state belongs to exactly one member's goroutine.
type Parallel struct {
	machine LocalsSymbol
	n       int
	members []*member

	waiting     atomic.Int64
	pending     atomic.Int64
	notifyStall atomic.Bool
	rr          atomic.Uint64

	wg      sync.WaitGroup
	started bool
}

var _ Reactor = (*Parallel)(nil)

// CacheSizes configures the per-member LRU capacities of a Parallel pool.
// A non-positive field disables that cache entirely.
type CacheSizes struct {
	Lookup   int
	Receiver int
	Clone    int
}

// NewParallel constructs a pool of n reactors (n must be at least 2)
// bound to machine, each with its own set of caches sized by sizes.
// Members are created but not yet running; call Start to spawn their
// goroutines.
func NewParallel(n int, machine LocalsSymbol, sizes CacheSizes) *Parallel {
	if n < 2 {
		panic("reactor: Parallel requires at least 2 members")
	}
	p := &Parallel{machine: machine, n: n}
	// Latched true at construction so a pool that never receives any work
	// still broadcasts its first (vacuous) stall; reset to true again
	// whenever a member finds work.
	p.notifyStall.Store(true)
	p.members = make([]*member, n)
	for i := range p.members {
		m := &member{pool: p, index: i, mailbox: newMailbox()}
		if sizes.Lookup > 0 {
			m.lookups = cache.NewSymbolLookup(sizes.Lookup)
		}
		if sizes.Receiver > 0 {
			m.receivers = cache.NewReceiver(sizes.Receiver)
		}
		if sizes.Clone > 0 {
			m.clones = cache.NewClone(sizes.Clone)
		}
		p.members[i] = m
	}
	return p
}

// Start spawns one goroutine per member, each running its main loop.
func (p *Parallel) Start() {
	if p.started {
		return
	}
	p.started = true
	p.wg.Add(p.n)
	for _, m := range p.members {
		go m.run()
	}
}

// Wait blocks until every member has exited its main loop (i.e. the pool
// has been stopped).
func (p *Parallel) Wait() { p.wg.Wait() }

// nextOther returns the index of the next member in round-robin order,
// skipping self. It shares p.rr with Stage's own round-robin so the two
// cross-reactor paths still distribute evenly across the other n-1
// members as a whole, rather than each cycling independently.
func (p *Parallel) nextOther(self int) int {
	idx := int(p.rr.Add(1) % uint64(p.n-1))
	if idx >= self {
		idx++
	}
	return idx
}

// broadcastStall sends a Stall message to every member, incrementing
// pending by n up front so the messages count as in-flight until
// received.
func (p *Parallel) broadcastStall() {
	p.pending.Add(int64(p.n))
	for _, m := range p.members {
		m.mailbox.send(message{kind: msgStall})
	}
}

// Stage implements Reactor: the pool-level entry point external callers
// (the embedding host, via pkg/machine) use to submit the first staging.
// It always takes the round-robin cross-reactor path, since there is no
// "current member" context from outside the pool.
func (p *Parallel) Stage(execution, response *object.Ref) {
	p.pending.Add(1)
	idx := p.rr.Add(1) % uint64(p.n)
	p.members[idx].mailbox.send(message{kind: msgStage, execution: execution, response: response})
}

// OnStall implements Reactor: broadcasts registration of handler to every
// member, so it fires once on each member that receives a Stall message —
// every handler registered before a quiescent period runs exactly once in
// it.
func (p *Parallel) OnStall(handler StallHandler) {
	p.pending.Add(int64(p.n))
	for _, m := range p.members {
		m.mailbox.send(message{kind: msgDo, fn: func(r Reactor) { r.OnStall(handler) }})
	}
}

// Stop implements Reactor: sends Stop to every mailbox; each member
// finishes its current realization and exits.
func (p *Parallel) Stop() {
	p.pending.Add(int64(p.n))
	for _, m := range p.members {
		m.mailbox.send(message{kind: msgStop})
	}
}

// Machine implements Reactor.
func (p *Parallel) Machine() LocalsSymbol { return p.machine }

// Caches implements Reactor: the pool itself holds no tables; each
// member owns its own.
func (p *Parallel) Caches() Caches { return Caches{} }
