// Package clone implements the clone engine: ToThing, the stageable
// duplication rule for executions and aliens, and the stage receiver that
// uses it.
package clone

import "github.com/nucleus-run/nucleus/internal/object"

// ToThing returns a plain thing with a deep copy of from's members list
// and the default receiver. The source's receiver and nuketype are not
// carried over.
func ToThing(from *object.Ref) *object.Ref {
	locked := from.Lock()
	membersCopy := locked.Meta().Members.Clone()
	locked.Unlock()

	out := object.NewThing()
	outLocked := out.Lock()
	outLocked.Meta().Members = membersCopy
	outLocked.BumpMetaVersion()
	outLocked.Unlock()
	return out
}

// Details is the result of StageableWithDetails: the clone, plus the
// version snapshots a cache needs to validate a memoized clone.
type Details struct {
	Stageable        *object.Ref
	NuketypeVersion  uint64
	MetaVersion      uint64
	NewLocalsVersion uint64
	HasLocals        bool
}

// Stageable clones from if it is queueable (an execution or alien),
// returning (clone, true); otherwise it returns (nil, false). Cloning a
// non-stageable is not an error at this layer.
//
// localsSymbol is the interned "locals" symbol reference, used to locate
// and replace an execution clone's locals pair with a fresh one. It is
// unused when cloning an alien.
func Stageable(from, localsSymbol *object.Ref) (*object.Ref, bool) {
	details, ok := StageableWithDetails(from, localsSymbol)
	if !ok {
		return nil, false
	}
	return details.Stageable, true
}

// StageableWithDetails is Stageable, additionally reporting the versions a
// cache needs to validate the clone.
func StageableWithDetails(from, localsSymbol *object.Ref) (Details, bool) {
	locked := from.Lock()
	payload := locked.Payload()
	kind := payload.Kind()
	if !kind.Queueable() {
		locked.Unlock()
		return Details{}, false
	}

	cloner, ok := payload.(object.Cloner)
	if !ok {
		locked.Unlock()
		return Details{}, false
	}

	newPayload := cloner.ClonePayload()
	newMembers := locked.Meta().Members.Clone()
	newReceiver := locked.Meta().Receiver
	tag := from.Tag()
	nuketypeVersion := from.NuketypeVersion()
	metaVersion := from.MetaVersion()
	locked.Unlock()

	out := object.New(newPayload)
	out.SetTag(tag)
	outLocked := out.Lock()
	outLocked.Meta().Members = newMembers
	outLocked.Meta().Receiver = newReceiver
	outLocked.BumpMetaVersion()
	outLocked.Unlock()

	details := Details{
		Stageable:       out,
		NuketypeVersion: nuketypeVersion,
		MetaVersion:     metaVersion,
	}

	if kind == object.KindExecution {
		newLocals, locals, found := replaceLocals(out, localsSymbol)
		if found {
			details.HasLocals = true
			details.NewLocalsVersion = newLocals.MetaVersion()
		}
		_ = locals
	}

	return details, true
}

// replaceLocals finds execRef's locals pair, deep-clones the locals object
// it points to, and appends the fresh pair onto execRef's members, so the
// source and the clone share no mutable locals state. Appending works
// because LookupPair scans tail-to-head: the new pair shadows the old one
// without disturbing earlier indices.
func replaceLocals(execRef, localsSymbol *object.Ref) (newLocals *object.Ref, origLocals *object.Ref, found bool) {
	locked := execRef.Lock()
	origLocals, found = locked.Meta().Members.LookupPair(localsSymbol)
	locked.Unlock()
	if !found {
		return nil, nil, false
	}

	newLocals = cloneLocalsLike(origLocals)

	locked = execRef.Lock()
	locked.Meta().Members.PushPairToChild(localsSymbol, newLocals)
	locked.BumpMetaVersion()
	locked.Unlock()

	return newLocals, origLocals, true
}

// cloneLocalsLike deep-copies a locals object: same (immutable) payload
// value, a fresh copy of its bound members, the same receiver, and the same
// tag.
func cloneLocalsLike(orig *object.Ref) *object.Ref {
	locked := orig.Lock()
	payload := locked.Payload()
	membersCopy := locked.Meta().Members.Clone()
	receiver := locked.Meta().Receiver
	locked.Unlock()

	out := object.New(payload)
	out.SetTag(orig.Tag())
	outLocked := out.Lock()
	outLocked.Meta().Members = membersCopy
	outLocked.Meta().Receiver = receiver
	outLocked.BumpMetaVersion()
	outLocked.Unlock()
	return out
}
