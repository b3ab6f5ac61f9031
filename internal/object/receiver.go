package object

import "github.com/nucleus-run/nucleus/internal/symbol"

// LookupCache is an optional capability a Dispatcher may implement: if
// the Dispatcher passed to DefaultReceiver or LocalsReceiver implements
// it, a cache hit skips Members.LookupPair entirely. Implemented here as an interface, rather than a concrete
// dependency on internal/cache, so object never imports the cache package
// (which itself depends on object) — the reactor layer supplies the
// concrete *cache.SymbolLookup.
type LookupCache interface {
	// CachedLookupPair returns the memoized lookup_pair(container, key)
	// result, if still valid.
	CachedLookupPair(container *Ref, key *symbol.Handle) (value *Ref, ok bool)
	// CacheLookupPair memoizes a freshly-computed lookup_pair result: pair
	// is the matching pair object (for meta-version validation), value is
	// what it resolved to.
	CacheLookupPair(container *Ref, key *symbol.Handle, pair, value *Ref)
}

// lookupWithCache performs the shared "consult cache, else Members.LookupPair,
// else populate cache" sequence used by both DefaultReceiver and
// LocalsReceiver. Caching only applies when message is itself a symbol
// (the cache is keyed on the interned handle); non-symbol messages always
// take the uncached path.
func lookupWithCache(d Dispatcher, subject, message *Ref) (*Ref, bool) {
	handle := message.SymbolHandle()
	if handle == nil {
		locked := subject.Lock()
		value, ok := locked.Meta().Members.LookupPair(message)
		locked.Unlock()
		return value, ok
	}

	if lc, ok := d.(LookupCache); ok {
		if value, hit := lc.CachedLookupPair(subject, handle); hit {
			return value, true
		}
		locked := subject.Lock()
		pair, value, found := locked.Meta().Members.LookupPairWithPair(message)
		locked.Unlock()
		if !found {
			return nil, false
		}
		lc.CacheLookupPair(subject, handle, pair, value)
		return value, true
	}

	locked := subject.Lock()
	value, ok := locked.Meta().Members.LookupPair(message)
	locked.Unlock()
	return value, ok
}

// DefaultReceiver is the lookup receiver: it locks subject, looks up
// message as a pair key in subject's members, and stages caller with the
// value on a hit. On a miss, no staging occurs.
func DefaultReceiver(d Dispatcher, caller, subject, message *Ref) {
	value, ok := lookupWithCache(d, subject, message)
	if !ok {
		return
	}
	d.Stage(caller, value)
}

// LocalsName is the symbol string every locals nuketype self-identifies
// by. It is exported so the nuketype and namespace layers can intern the
// same string without a circular import.
const LocalsName = "locals"

// LocalsReceiver is the locals receiver: if subject is locals
// and message equals subject's name symbol, stage caller with subject
// itself; otherwise fall through to lookup behavior.
//
// The "subject is locals and message equals its name symbol" test is
// expressed here via symbolNamer, an interface satisfied by the locals
// nuketype payload, to avoid object depending on nuketype.
func LocalsReceiver(d Dispatcher, caller, subject, message *Ref) {
	locked := subject.Lock()
	named, isLocals := locked.Payload().(symbolNamer)
	isSelf := isLocals && EqAsSymbol(message, named.NameSymbolRef())
	locked.Unlock()

	if isSelf {
		d.Stage(caller, subject)
		return
	}

	value, ok := lookupWithCache(d, subject, message)
	if !ok {
		return
	}
	d.Stage(caller, value)
}

// symbolNamer is implemented by the locals nuketype payload: it exposes the
// symbol reference it self-identifies by, so LocalsReceiver can compare it
// against the incoming message without object importing nuketype.
type symbolNamer interface {
	NameSymbolRef() *Ref
}

// Locals is the locals nuketype: a plain members list that self-identifies
// by a name symbol, usually interned as "locals". It is kept in this
// package, alongside Thing, rather than in internal/nuketype, because
// LocalsReceiver (above) and the clone engine (internal/clone) both need
// to construct and recognize it without importing a higher layer.
type Locals struct {
	name *Ref
}

// Kind implements Payload.
func (Locals) Kind() Kind { return KindLocals }

// NameSymbolRef implements symbolNamer.
func (l Locals) NameSymbolRef() *Ref { return l.name }

// NewLocals constructs an empty locals object self-identifying by name,
// with its receiver set to LocalsReceiver.
func NewLocals(name *Ref) *Ref {
	r := New(Locals{name: name})
	locked := r.Lock()
	locked.Meta().Receiver = Receiver{Native: LocalsReceiver}
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}

// NameSymbolOf returns the name symbol a Locals-kind reference self-
// identifies by, and true, or (nil, false) if ref's payload isn't a
// symbolNamer. Exported so callers outside this package can recover the
// name without needing to know the concrete Locals type.
func NameSymbolOf(ref *Ref) (*Ref, bool) {
	locked := ref.Lock()
	defer locked.Unlock()
	named, ok := locked.Payload().(symbolNamer)
	if !ok {
		return nil, false
	}
	return named.NameSymbolRef(), true
}
