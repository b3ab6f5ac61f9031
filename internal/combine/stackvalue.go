// Package combine implements the combination algorithm: given a
// subject/message pair, walk the receiver chain and dispatch to either a
// native function or a cloned queueable.
package combine

import "github.com/nucleus-run/nucleus/internal/object"

type stackKind int8

const (
	valLiteral stackKind = iota
	valSelf
	valLocals
)

// StackValue is an unresolved operand pushed by an execution's evaluation
// stack: a literal reference, the "current execution" sentinel,
// or the "caller's locals" sentinel. It is resolved against a caller once a
// Combine instruction pops it.
type StackValue struct {
	kind stackKind
	ref  *object.Ref
}

// FromRef wraps a literal reference (script.Push's operand, or a response
// threaded onto the stack by advance).
func FromRef(ref *object.Ref) StackValue { return StackValue{kind: valLiteral, ref: ref} }

// FromSelf is the PushSelf sentinel: resolves to the advancing execution.
func FromSelf() StackValue { return StackValue{kind: valSelf} }

// FromLocals is the PushLocals sentinel: resolves only as a combination
// subject, to the caller's locals pair value.
func FromLocals() StackValue { return StackValue{kind: valLocals} }

// IsLocals reports whether sv is the locals sentinel.
func (sv StackValue) IsLocals() bool { return sv.kind == valLocals }

// ResolveNonLocals resolves sv in a context where the locals sentinel is
// not permitted: a locals value is only ever valid as a combination
// subject, never as a message. ok is false iff sv is the locals sentinel.
func (sv StackValue) ResolveNonLocals(self *object.Ref) (ref *object.Ref, ok bool) {
	switch sv.kind {
	case valSelf:
		return self, true
	case valLiteral:
		return sv.ref, true
	default:
		return nil, false
	}
}

// ResolveSubject resolves sv as a combination subject,
// where the locals sentinel is permitted and means "caller's locals pair
// value". ok is false iff sv is the locals sentinel and caller has no
// locals pair bound under localsSymbol.
func (sv StackValue) ResolveSubject(caller, localsSymbol *object.Ref) (ref *object.Ref, ok bool) {
	switch sv.kind {
	case valSelf:
		return caller, true
	case valLiteral:
		return sv.ref, true
	case valLocals:
		locked := caller.Lock()
		value, found := locked.Meta().Members.LookupPair(localsSymbol)
		locked.Unlock()
		return value, found
	default:
		return nil, false
	}
}

// Combination is the result of an execution advancing to a Combine
// instruction: an unresolved subject (possibly the locals
// sentinel) and an already-resolved message.
type Combination struct {
	Subject StackValue
	Message *object.Ref
}
