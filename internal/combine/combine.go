package combine

import (
	"github.com/nucleus-run/nucleus/internal/clone"
	"github.com/nucleus-run/nucleus/internal/diagnostics"
	"github.com/nucleus-run/nucleus/internal/object"
)

// Outcome reports how Perform disposed of a combination, for callers
// (internal/reactor) that want to log or count it.
type Outcome int

const (
	// OutcomeDispatched means a native receiver ran, or a queueable clone
	// was staged.
	OutcomeDispatched Outcome = iota
	// OutcomeMissingLocals means the subject was the locals sentinel and
	// the caller had no locals pair bound; the combination was aborted.
	OutcomeMissingLocals
	// OutcomeNoReceiver means the receiver chain reached a reference with
	// no receiver designated at all. The nuketype constructors all set a
	// receiver; a reference built with the bare object.New or
	// object.NewSymbol has none until its caller sets one.
	OutcomeNoReceiver
)

// ReceiverCache is an optional capability a Dispatcher may implement: a
// memoized container-ref -> receiver lookup, consulted in place of locking
// target when present and valid.
type ReceiverCache interface {
	CachedReceiver(target *object.Ref) (object.Receiver, bool)
	CacheReceiver(target *object.Ref, recv object.Receiver)
}

// CloneCache is an optional capability a Dispatcher may implement: a
// memoized source-ref -> stageable-clone lookup, consulted in place of
// internal/clone.Stageable when present and valid.
type CloneCache interface {
	CachedClone(source *object.Ref) (*object.Ref, bool)
	CacheClone(source *object.Ref, details clone.Details)
}

// receiverOf returns target's receiver designation, consulting d's
// ReceiverCache first if it implements one.
func receiverOf(d object.Dispatcher, target *object.Ref) object.Receiver {
	if rc, ok := d.(ReceiverCache); ok {
		if recv, hit := rc.CachedReceiver(target); hit {
			return recv
		}
		locked := target.Lock()
		recv := locked.Meta().Receiver
		locked.Unlock()
		rc.CacheReceiver(target, recv)
		return recv
	}

	locked := target.Lock()
	recv := locked.Meta().Receiver
	locked.Unlock()
	return recv
}

// stageableOf clones source via internal/clone.Stageable, consulting d's
// CloneCache first if it implements one.
func stageableOf(d object.Dispatcher, source, localsSymbol *object.Ref) (*object.Ref, bool) {
	cc, ok := d.(CloneCache)
	if !ok {
		return clone.Stageable(source, localsSymbol)
	}

	if cloned, hit := cc.CachedClone(source); hit {
		return cloned, true
	}
	details, ok := clone.StageableWithDetails(source, localsSymbol)
	if !ok {
		return nil, false
	}
	cc.CacheClone(source, details)
	return details.Stageable, true
}

// Perform implements the combination algorithm: resolve c's
// subject (which may be the locals sentinel), then walk the receiver chain
// starting at that subject until a native function or queueable receiver
// is found, dispatching to it.
//
// d is the object.Dispatcher (a reactor) used to stage a cloned queueable;
// if d additionally implements ReceiverCache and/or CloneCache, those
// memoizations are consulted. caller is the execution (or alien) that
// produced c. localsSymbol is the interned "locals" symbol reference,
// needed both to resolve a locals-sentinel subject and (via
// internal/clone) to splice a fresh locals object into a cloned execution.
func Perform(d object.Dispatcher, caller *object.Ref, c Combination, localsSymbol *object.Ref) Outcome {
	subject, ok := c.Subject.ResolveSubject(caller, localsSymbol)
	if !ok {
		diagnostics.Default().Warn("combine.missing_locals", caller.Tag(),
			"combine: caller is missing its locals pair")
		return OutcomeMissingLocals
	}

	message := c.Message
	target := subject

	for {
		recv := receiverOf(d, target)

		switch {
		case recv.Native != nil:
			recv.Native(d, caller, subject, message)
			return OutcomeDispatched

		case recv.Target == nil:
			diagnostics.Default().Warn("combine.no_receiver", target.Tag(),
				"combine: reached a reference with no receiver designated")
			return OutcomeNoReceiver

		default:
			if staged, ok := stageableOf(d, recv.Target, localsSymbol); ok {
				params := object.NewParams(caller, subject, message)
				d.Stage(staged, params)
				return OutcomeDispatched
			}
			// Not queueable: continue the walk with the receiver as the new
			// lookup target.
			target = recv.Target
		}
	}
}
