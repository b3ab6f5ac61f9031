// Package object implements the universal object reference, its ordered
// members list, and its metadata (members plus receiver designation).
package object

import (
	"sync"
	"sync/atomic"

	"github.com/nucleus-run/nucleus/internal/symbol"
)

// Payload is the interface every nuketype (thing, symbol, locals, execution,
// alien) implements. It is intentionally minimal: the object package knows
// nothing about the concrete nuketypes layered on top of it (internal/nuketype).
type Payload interface {
	// Kind identifies the nuketype for dispatch and the "queueable" test.
	Kind() Kind
}

// Kind enumerates the closed set of nuketypes.
type Kind int

const (
	KindThing Kind = iota
	KindSymbol
	KindLocals
	KindExecution
	KindAlien
)

func (k Kind) String() string {
	switch k {
	case KindThing:
		return "thing"
	case KindSymbol:
		return "symbol"
	case KindLocals:
		return "locals"
	case KindExecution:
		return "execution"
	case KindAlien:
		return "alien"
	default:
		return "unknown"
	}
}

// Queueable reports whether a Kind can be realized by a reactor: only
// executions and aliens can.
func (k Kind) Queueable() bool {
	return k == KindExecution || k == KindAlien
}

// NativeFunc is a native receiver function. It receives the resolved
// params triple directly, the way combine.Perform dispatches it.
type NativeFunc func(d Dispatcher, caller, subject, message *Ref)

// Dispatcher is the subset of reactor behavior the object/combine layers
// need: the ability to stage a queueable with a response. Reactors
// implement this; defining it here (rather than importing the reactor
// package) avoids an import cycle.
type Dispatcher interface {
	Stage(queueable *Ref, response *Ref)
}

// Receiver is a metadata's receiver designation: either
// a native function, or a reference to another object (possibly queueable).
// At most one of the two fields is set; the zero value designates "no
// receiver".
type Receiver struct {
	Native NativeFunc
	Target *Ref
}

// IsZero reports whether the receiver designates nothing.
func (r Receiver) IsZero() bool {
	return r.Native == nil && r.Target == nil
}

// Meta is an object's metadata: a members list plus a receiver
// designation.
type Meta struct {
	Members  Members
	Receiver Receiver
}

// Ref is the universal handle. Its identity is the pointer
// identity of the Ref value itself: cloning always produces a new *Ref.
type Ref struct {
	mu sync.Mutex

	payload Payload
	meta    Meta

	// nuketypeVersion and metaVersion are incremented while mu is held, and
	// read without it: each counts the mutations observed so far on its
	// half of the reference.
	nuketypeVersion atomic.Uint64
	metaVersion     atomic.Uint64

	// symbolHandle mirrors a KindSymbol payload's interned handle outside
	// the lock, so symbol equality never locks.
	symbolHandle *symbol.Handle

	// tag is advisory only; never affects semantics.
	tag string
}

// New constructs a Ref wrapping the given payload, with no metadata and no
// tag.
func New(payload Payload) *Ref {
	return &Ref{payload: payload}
}

// NewSymbol constructs a Ref whose payload is a KindSymbol-kind payload,
// caching h outside the lock for lockless equality. The caller supplies the
// payload (internal/nuketype.Symbol) since object has no notion of the
// concrete symbol nuketype; it only needs the Handle for eq_as_symbol.
func NewSymbol(payload Payload, h *symbol.Handle) *Ref {
	r := &Ref{payload: payload, symbolHandle: h}
	return r
}

// Tag returns the advisory diagnostic tag, if any.
func (r *Ref) Tag() string { return r.tag }

// SetTag sets the advisory diagnostic tag. Safe to call at any time; it is
// never read under the object's lock by core operations.
func (r *Ref) SetTag(tag string) { r.tag = tag }

// SymbolHandle returns the cached interned handle if this reference is a
// symbol nuketype, else nil; lockless.
func (r *Ref) SymbolHandle() *symbol.Handle {
	if r == nil {
		return nil
	}
	return r.symbolHandle
}

// EqAsSymbol is lockless: true iff both references carry cached symbol
// handles that are pointer-identical.
func EqAsSymbol(a, b *Ref) bool {
	if a == nil || b == nil {
		return false
	}
	ah, bh := a.symbolHandle, b.symbolHandle
	return ah != nil && ah == bh
}

// NuketypeVersion returns the current nuketype mutation counter, without
// locking.
func (r *Ref) NuketypeVersion() uint64 { return r.nuketypeVersion.Load() }

// MetaVersion returns the current metadata mutation counter, without
// locking.
func (r *Ref) MetaVersion() uint64 { return r.metaVersion.Load() }

// Locked is a scoped exclusive-access handle returned by Lock. All payload
// and metadata reads/mutations happen through it; Unlock must be called
// exactly once, on every exit path.
type Locked struct {
	r *Ref
}

// Lock acquires exclusive access to r. Re-entrant acquisition from the
// same goroutine is forbidden by convention, not enforcement — callers
// must release the Locked (via Unlock) before locking r again.
func (r *Ref) Lock() *Locked {
	r.mu.Lock()
	return &Locked{r: r}
}

// Unlock releases exclusive access. Calling it more than once, or on a
// Locked whose Ref is already unlocked, is a caller bug (mirrors sync.Mutex).
func (l *Locked) Unlock() {
	l.r.mu.Unlock()
}

// Payload returns the current payload under lock.
func (l *Locked) Payload() Payload { return l.r.payload }

// SetPayload replaces the payload and bumps the nuketype version. Must be
// called while holding the lock (i.e. via the Locked value).
func (l *Locked) SetPayload(p Payload) {
	l.r.payload = p
	l.r.nuketypeVersion.Add(1)
}

// Meta returns a pointer to the live metadata, for in-place mutation under
// lock. Callers that mutate Members or Receiver through this pointer must
// call BumpMetaVersion themselves exactly once per logical mutation,
// before releasing the lock.
func (l *Locked) Meta() *Meta { return &l.r.meta }

// BumpMetaVersion increments the metadata version counter. Call once per
// metadata mutation, while still holding the lock.
func (l *Locked) BumpMetaVersion() {
	l.r.metaVersion.Add(1)
}

// TryCast returns the payload viewed as T if the current payload is of that
// concrete type, and true; otherwise it returns the zero T and false, and
// the lock remains held (untyped) so the caller may inspect Payload()
// directly or try another cast.
func TryCast[T Payload](l *Locked) (T, bool) {
	v, ok := l.r.payload.(T)
	return v, ok
}
