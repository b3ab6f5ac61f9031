// Package cache implements the three bounded LRU memoization tables:
// symbol-lookup, receiver, and clone-stageable. Each is a per-reactor
// optional memo — caches are never shared across reactors, so nothing
// here is safe for concurrent use across goroutines.
package cache

import (
	"sync/atomic"
	"weak"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nucleus-run/nucleus/internal/clone"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

// counters tracks hit/miss statistics for one cache table.
type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Hits returns the number of lookups satisfied from the cache.
func (c *counters) Hits() uint64 { return c.hits.Load() }

// Misses returns the number of lookups that required recomputation.
func (c *counters) Misses() uint64 { return c.misses.Load() }

// SymbolLookupKey identifies one memoized pair lookup: a container
// reference and the interned string handle searched for.
type SymbolLookupKey struct {
	Container *object.Ref
	Handle    *symbol.Handle
}

// symbolLookupEntry is the cached result: the versions observed at
// insertion time, plus weak handles to the matched pair and its value, so
// a cache entry never keeps either object alive on its own — a handle
// that no longer upgrades is treated as a miss.
type symbolLookupEntry struct {
	containerMetaVersion uint64
	pairMetaVersion      uint64
	pair                 weak.Pointer[object.Ref]
	value                weak.Pointer[object.Ref]
}

// SymbolLookup memoizes Members.LookupPair results.
type SymbolLookup struct {
	counters
	lru *lru.Cache[SymbolLookupKey, symbolLookupEntry]
}

// NewSymbolLookup constructs a SymbolLookup cache holding at most size
// entries.
func NewSymbolLookup(size int) *SymbolLookup {
	c, err := lru.New[SymbolLookupKey, symbolLookupEntry](size)
	if err != nil {
		panic(err)
	}
	return &SymbolLookup{lru: c}
}

// Get returns the memoized lookup value for key, if the cache holds a
// still-valid entry: the container's current meta version must match the
// version observed at insertion, the weak pair handle must still upgrade,
// and the pair's own meta version must be unchanged.
func (c *SymbolLookup) Get(key SymbolLookupKey) (*object.Ref, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if key.Container.MetaVersion() != entry.containerMetaVersion {
		c.lru.Remove(key)
		c.misses.Add(1)
		return nil, false
	}
	pair := entry.pair.Value()
	if pair == nil || pair.MetaVersion() != entry.pairMetaVersion {
		c.lru.Remove(key)
		c.misses.Add(1)
		return nil, false
	}
	value := entry.value.Value()
	if value == nil {
		c.lru.Remove(key)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return value, true
}

// Put inserts (or replaces) the memoized result for key: the pair object
// the match was found on (for meta-version validation) and the value it
// resolved to.
func (c *SymbolLookup) Put(key SymbolLookupKey, pair, value *object.Ref) {
	c.lru.Add(key, symbolLookupEntry{
		containerMetaVersion: key.Container.MetaVersion(),
		pairMetaVersion:      pair.MetaVersion(),
		pair:                 weak.Make(pair),
		value:                weak.Make(value),
	})
}

// receiverEntry is the cached result of a receiver lookup.
type receiverEntry struct {
	metaVersion uint64
	receiver    object.Receiver
}

// Receiver memoizes an object's receiver designation; only pool members
// carry one.
type Receiver struct {
	counters
	lru *lru.Cache[*object.Ref, receiverEntry]
}

// NewReceiver constructs a Receiver cache holding at most size entries.
func NewReceiver(size int) *Receiver {
	c, err := lru.New[*object.Ref, receiverEntry](size)
	if err != nil {
		panic(err)
	}
	return &Receiver{lru: c}
}

// Get returns the memoized receiver for container, if its meta version is
// unchanged since insertion.
func (c *Receiver) Get(container *object.Ref) (object.Receiver, bool) {
	entry, ok := c.lru.Get(container)
	if !ok {
		c.misses.Add(1)
		return object.Receiver{}, false
	}
	if container.MetaVersion() != entry.metaVersion {
		c.lru.Remove(container)
		c.misses.Add(1)
		return object.Receiver{}, false
	}
	c.hits.Add(1)
	return entry.receiver, true
}

// Put memoizes container's current receiver designation.
func (c *Receiver) Put(container *object.Ref, receiver object.Receiver) {
	c.lru.Add(container, receiverEntry{
		metaVersion: container.MetaVersion(),
		receiver:    receiver,
	})
}

// cloneEntry is the cached result of a clone.Stageable call.
type cloneEntry struct {
	nuketypeVersion  uint64
	metaVersion      uint64
	newLocalsVersion uint64
	hasLocals        bool
	cloned           *object.Ref
}

// Clone memoizes clone.Stageable results; only pool members carry one.
type Clone struct {
	counters
	lru *lru.Cache[*object.Ref, cloneEntry]
}

// NewClone constructs a Clone cache holding at most size entries.
func NewClone(size int) *Clone {
	c, err := lru.New[*object.Ref, cloneEntry](size)
	if err != nil {
		panic(err)
	}
	return &Clone{lru: c}
}

// Get returns the memoized clone of source, if source's nuketype and meta
// versions are unchanged since insertion. The new-locals version recorded
// by Put is stored but not compared here: a mutation of the clone's locals
// object alone does not invalidate the entry.
func (c *Clone) Get(source *object.Ref) (*object.Ref, bool) {
	entry, ok := c.lru.Get(source)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if source.NuketypeVersion() != entry.nuketypeVersion || source.MetaVersion() != entry.metaVersion {
		c.lru.Remove(source)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.cloned, true
}

// Put memoizes source's current clone, along with the version snapshot
// needed to validate future hits.
func (c *Clone) Put(source *object.Ref, nuketypeVersion, metaVersion, newLocalsVersion uint64, hasLocals bool, cloned *object.Ref) {
	c.lru.Add(source, cloneEntry{
		nuketypeVersion:  nuketypeVersion,
		metaVersion:      metaVersion,
		newLocalsVersion: newLocalsVersion,
		hasLocals:        hasLocals,
		cloned:           cloned,
	})
}

// CachedLookupPair adapts Get to the exact method name internal/object's
// LookupCache interface expects, so *SymbolLookup satisfies it by
// structural typing without internal/object importing this package.
func (c *SymbolLookup) CachedLookupPair(container *object.Ref, key *symbol.Handle) (*object.Ref, bool) {
	return c.Get(SymbolLookupKey{Container: container, Handle: key})
}

// CacheLookupPair adapts Put to internal/object's LookupCache interface.
func (c *SymbolLookup) CacheLookupPair(container *object.Ref, key *symbol.Handle, pair, value *object.Ref) {
	c.Put(SymbolLookupKey{Container: container, Handle: key}, pair, value)
}

// CachedReceiver adapts Get to the exact method name internal/combine's
// ReceiverCache interface expects.
func (c *Receiver) CachedReceiver(target *object.Ref) (object.Receiver, bool) {
	return c.Get(target)
}

// CacheReceiver adapts Put to internal/combine's ReceiverCache interface.
func (c *Receiver) CacheReceiver(target *object.Ref, recv object.Receiver) {
	c.Put(target, recv)
}

// CachedClone adapts Get to the exact method name internal/combine's
// CloneCache interface expects.
func (c *Clone) CachedClone(source *object.Ref) (*object.Ref, bool) {
	return c.Get(source)
}

// CacheClone adapts Put to internal/combine's CloneCache interface, unpacking
// the version snapshot out of a clone.Details.
func (c *Clone) CacheClone(source *object.Ref, details clone.Details) {
	c.Put(source, details.NuketypeVersion, details.MetaVersion, details.NewLocalsVersion, details.HasLocals, details.Stageable)
}
