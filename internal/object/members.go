package object

// Relationship is a single directed relationship in a Members list: a
// target reference, and whether it is a "child" relationship.
// The zero value (nil Target) represents a hole.
type Relationship struct {
	Target *Ref
	Child  bool
}

// IsHole reports whether this Relationship is a hole (no target).
func (r Relationship) IsHole() bool { return r.Target == nil }

// Members is an ordered, hole-tolerant list of Relationships. Index 0
// ("the noughty slot") is reserved and skipped by the semantic operations
// (LookupPair, PushPair, PushPairToChild); positional access
// (Get/Set/Insert/Remove) is unaffected by the noughty rule.
type Members struct {
	items []Relationship
	// owned tracks, per index, whether the relationship should be treated
	// as an owning (strong) reference versus a disowned (weak/advisory)
	// one. This is bookkeeping only — Go's GC reclaims Refs regardless —
	// kept so that cycle-aware tooling has somewhere to record intent
	// without walking the object graph.
	owned []bool
}

// Len returns the number of slots in the list, including holes.
func (m *Members) Len() int { return len(m.items) }

// Get returns the Relationship at index, and whether the index is in range.
// Out-of-range access returns the zero Relationship (a hole) and false.
// This is positional access: the noughty rule does not apply.
func (m *Members) Get(index int) (Relationship, bool) {
	if index < 0 || index >= len(m.items) {
		return Relationship{}, false
	}
	return m.items[index], true
}

// ExpandTo grows the list with holes until it has at least size slots.
func (m *Members) ExpandTo(size int) {
	for len(m.items) < size {
		m.items = append(m.items, Relationship{})
		m.owned = append(m.owned, false)
	}
}

// Set replaces the Relationship at index with a non-child relationship to
// target, expanding the list (creating holes) if necessary. Returns the
// previously-held Relationship, if any.
func (m *Members) Set(index int, target *Ref) (prev Relationship, existed bool) {
	return m.set(index, Relationship{Target: target})
}

// SetChild is Set, but marks the relationship as a child relationship.
func (m *Members) SetChild(index int, target *Ref) (prev Relationship, existed bool) {
	return m.set(index, Relationship{Target: target, Child: true})
}

func (m *Members) set(index int, rel Relationship) (prev Relationship, existed bool) {
	if index >= len(m.items) {
		m.ExpandTo(index)
		m.append(rel)
		return Relationship{}, false
	}
	prev = m.items[index]
	existed = !prev.IsHole()
	m.items[index] = rel
	return prev, existed
}

func (m *Members) append(rel Relationship) {
	m.items = append(m.items, rel)
	m.owned = append(m.owned, false)
}

// Push affixes target as a non-child relationship at the end of the list.
func (m *Members) Push(target *Ref) {
	m.append(Relationship{Target: target})
}

// PushChild affixes target as a child relationship at the end of the list.
func (m *Members) PushChild(target *Ref) {
	m.append(Relationship{Target: target, Child: true})
}

// Pop removes and returns the last Relationship. ok is false if the list was
// empty.
func (m *Members) Pop() (rel Relationship, ok bool) {
	if len(m.items) == 0 {
		return Relationship{}, false
	}
	n := len(m.items) - 1
	rel = m.items[n]
	m.items = m.items[:n]
	m.owned = m.owned[:n]
	return rel, true
}

// Insert inserts target as a non-child relationship at index, shifting
// subsequent relationships upward. Holes are created if index is beyond the
// current length.
func (m *Members) Insert(index int, target *Ref) {
	m.insert(index, Relationship{Target: target})
}

// InsertChild is Insert, but marks the relationship as a child relationship.
func (m *Members) InsertChild(index int, target *Ref) {
	m.insert(index, Relationship{Target: target, Child: true})
}

func (m *Members) insert(index int, rel Relationship) {
	if index >= len(m.items) {
		m.ExpandTo(index)
		m.append(rel)
		return
	}
	m.items = append(m.items, Relationship{})
	copy(m.items[index+1:], m.items[index:])
	m.items[index] = rel
	m.owned = append(m.owned, false)
	copy(m.owned[index+1:], m.owned[index:])
	m.owned[index] = false
}

// Remove removes the Relationship at index, shifting subsequent
// relationships downward and shrinking the list. Returns the removed
// Relationship, or (zero, false) if index was out of range.
func (m *Members) Remove(index int) (Relationship, bool) {
	if index < 0 || index >= len(m.items) {
		return Relationship{}, false
	}
	rel := m.items[index]
	m.items = append(m.items[:index], m.items[index+1:]...)
	m.owned = append(m.owned[:index], m.owned[index+1:]...)
	return rel, true
}

// Delete replaces the Relationship at index with a hole, without affecting
// the length or any other index. Returns the deleted Relationship, or
// (zero, false) if index was out of range.
func (m *Members) Delete(index int) (Relationship, bool) {
	if index < 0 || index >= len(m.items) {
		return Relationship{}, false
	}
	prev := m.items[index]
	m.items[index] = Relationship{}
	m.owned[index] = false
	return prev, !prev.IsHole()
}

// Own marks the relationship at index as an owning reference. A no-op if
// index is out of range.
func (m *Members) Own(index int) {
	if index >= 0 && index < len(m.owned) {
		m.owned[index] = true
	}
}

// Disown marks the relationship at index as a non-owning reference. A no-op
// if index is out of range.
func (m *Members) Disown(index int) {
	if index >= 0 && index < len(m.owned) {
		m.owned[index] = false
	}
}

// IsOwned reports whether the relationship at index is currently marked as
// owning. Out-of-range indices report false.
func (m *Members) IsOwned(index int) bool {
	if index < 0 || index >= len(m.owned) {
		return false
	}
	return m.owned[index]
}

// Clone returns a deep copy: a new Members value with its own backing
// slices, sharing no mutable state with m. Relationship targets (Refs) are
// shared: cloning duplicates the members list, not the objects it points
// to.
func (m *Members) Clone() Members {
	out := Members{
		items: make([]Relationship, len(m.items)),
		owned: make([]bool, len(m.owned)),
	}
	copy(out.items, m.items)
	copy(out.owned, m.owned)
	return out
}

// keyMatches compares a candidate pair key against the lookup key, by
// symbol identity first, then by reference identity.
func keyMatches(candidate, key *Ref) bool {
	if EqAsSymbol(candidate, key) {
		return true
	}
	return candidate == key
}

// LookupPair searches the list, tail to head, obeying the noughty rule
// (index 0 is never inspected), for the first relationship whose target is
// itself a pair-shaped object (members [hole, key, value]) whose key
// matches the given key. Returns the pair's value and true on a hit, or
// (nil, false) if none match.
func (m *Members) LookupPair(key *Ref) (*Ref, bool) {
	for i := len(m.items) - 1; i >= 1; i-- {
		rel := m.items[i]
		if rel.IsHole() {
			continue
		}
		value, ok := lookupPairShape(rel.Target, key)
		if ok {
			return value, true
		}
	}
	return nil, false
}

// lookupPairShape locks candidate, and if its members are pair-shaped
// ([hole, key, value]) and the key relationship matches key, returns the
// value relationship's target.
func lookupPairShape(candidate *Ref, key *Ref) (*Ref, bool) {
	locked := candidate.Lock()
	defer locked.Unlock()

	members := &locked.Meta().Members
	if members.Len() != 3 {
		return nil, false
	}
	noughtyRel, _ := members.Get(0)
	keyRel, hasKey := members.Get(1)
	valRel, hasVal := members.Get(2)
	if !noughtyRel.IsHole() || !hasKey || !hasVal || keyRel.IsHole() || valRel.IsHole() {
		return nil, false
	}
	if keyMatches(keyRel.Target, key) {
		return valRel.Target, true
	}
	return nil, false
}

// LookupPairWithPair is LookupPair, but also returns the pair object itself
// (the relationship target whose shape matched), for callers that need to
// key a memoization entry on the pair's own meta version in addition to the
// container's.
func (m *Members) LookupPairWithPair(key *Ref) (pair, value *Ref, ok bool) {
	for i := len(m.items) - 1; i >= 1; i-- {
		rel := m.items[i]
		if rel.IsHole() {
			continue
		}
		value, hit := lookupPairShape(rel.Target, key)
		if hit {
			return rel.Target, value, true
		}
	}
	return nil, nil, false
}

// LookupPairIndex is LookupPair, but also returns the index of the matching
// top-level relationship (not the pair object's own index), for callers
// that need to replace it in place.
func (m *Members) LookupPairIndex(key *Ref) (index int, value *Ref, ok bool) {
	for i := len(m.items) - 1; i >= 1; i-- {
		rel := m.items[i]
		if rel.IsHole() {
			continue
		}
		v, hit := lookupPairShape(rel.Target, key)
		if hit {
			return i, v, true
		}
	}
	return -1, nil, false
}

// PushPair creates a pair-shaped thing ([hole, key, value]) and pushes it
// as a child relationship. Enforces the noughty rule: if the list is empty,
// a hole is created at index 0 first.
func (m *Members) PushPair(key, value *Ref) {
	m.ExpandTo(1)
	m.PushChild(NewPair(key, value))
}

// PushPairToChild is PushPair, except the pair's own value relationship is
// itself a child relationship (used when the value should be treated as
// owned by the pair, e.g. a fresh locals object).
func (m *Members) PushPairToChild(key, value *Ref) {
	m.ExpandTo(1)
	m.PushChild(NewPairToChild(key, value))
}
