package object

// Thing is the plain-thing nuketype: an object defined by nothing but its
// metadata. It is the bare minimum any object needs, and is also the
// concrete payload used to build pair objects (below).
type Thing struct{}

// Kind implements Payload.
func (Thing) Kind() Kind { return KindThing }

// NewThing constructs a fresh, empty plain thing with its receiver set to
// DefaultReceiver, the implicit fallback for any object that never had its
// receiver designated explicitly.
func NewThing() *Ref {
	r := New(Thing{})
	locked := r.Lock()
	locked.Meta().Receiver = Receiver{Native: DefaultReceiver}
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}

// NewPair constructs a plain thing whose members are the pair shape
// [hole, key, value]: a non-child relationship to key at index 1, and a
// non-child relationship to value at index 2.
func NewPair(key, value *Ref) *Ref {
	r := NewThing()
	locked := r.Lock()
	locked.Meta().Members.Set(1, key)
	locked.Meta().Members.Set(2, value)
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}

// NewPairToChild is NewPair, except the value relationship is a child
// relationship.
func NewPairToChild(key, value *Ref) *Ref {
	r := NewThing()
	locked := r.Lock()
	locked.Meta().Members.Set(1, key)
	locked.Meta().Members.SetChild(2, value)
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}

// NewParams constructs the plain thing `[hole, caller, subject, message]`
// that the combination algorithm stages a cloned queueable receiver with.
func NewParams(caller, subject, message *Ref) *Ref {
	r := NewThing()
	locked := r.Lock()
	locked.Meta().Members.Set(1, caller)
	locked.Meta().Members.Set(2, subject)
	locked.Meta().Members.Set(3, message)
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}
