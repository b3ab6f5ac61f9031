package nuketype

import (
	"github.com/nucleus-run/nucleus/internal/clone"
	"github.com/nucleus-run/nucleus/internal/combine"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/script"
)

// Execution is the execution nuketype: a reference to a shared, immutable
// Script, a program counter, and an evaluation stack of unresolved
// StackValues — PushSelf/PushLocals stay unresolved until a Combine
// instruction pops them and a caller resolves them.
type Execution struct {
	root  *script.Script
	pc    int
	stack []combine.StackValue
}

// Kind implements object.Payload.
func (*Execution) Kind() object.Kind { return object.KindExecution }

// ClonePayload implements object.Cloner: a deep copy of pc and the
// evaluation stack, sharing the (immutable) compiled script.
func (e *Execution) ClonePayload() object.Payload {
	stackCopy := make([]combine.StackValue, len(e.stack))
	copy(stackCopy, e.stack)
	return &Execution{root: e.root, pc: e.pc, stack: stackCopy}
}

// Root returns the Script this execution is advancing over.
func (e *Execution) Root() *script.Script { return e.root }

// PC returns the current program counter, mostly for diagnostics/tests.
func (e *Execution) PC() int { return e.pc }

// New constructs a bare Execution payload over root, with an empty stack
// and pc at 0. Prefer Create, which also wires the stage receiver and the
// locals pair a realizable execution needs.
func New(root *script.Script) *Execution {
	return &Execution{root: root}
}

// Create boxes an Execution into a reference with its receiver set to the
// stage receiver and a fresh, empty locals object pushed as a child pair
// under localsSymbol.
func Create(root *script.Script, localsSymbol *object.Ref) *object.Ref {
	r := object.New(New(root))
	locked := r.Lock()
	locked.Meta().Receiver = object.Receiver{Native: clone.StageReceiver(localsSymbol)}
	locked.Meta().Members.PushPairToChild(localsSymbol, object.NewLocals(localsSymbol))
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}

// Advance steps the coroutine: push response (unless the script is
// already exhausted), then repeatedly execute instructions until either a
// Combine instruction yields a Combination, or the script is exhausted
// and the execution terminates.
//
// self is the reference wrapping this Execution, used to resolve a
// PushSelf stack value pushed earlier in this or an earlier advance.
//
// Callers must hold self's lock for the duration of this call; Advance
// itself never locks self, since the caller already holds it via
// object.TryCast.
func (e *Execution) Advance(self, response *object.Ref) (combine.Combination, bool) {
	if e.pc < e.root.Len() {
		e.stack = append(e.stack, combine.FromRef(response))
	}

	for e.pc < e.root.Len() {
		instruction := e.root.At(e.pc)
		e.pc++

		switch instruction.Op {
		case script.PushLocals:
			e.stack = append(e.stack, combine.FromLocals())

		case script.PushSelf:
			e.stack = append(e.stack, combine.FromSelf())

		case script.Push:
			e.stack = append(e.stack, combine.FromRef(instruction.Literal))

		case script.Combine:
			if len(e.stack) < 2 {
				panic("nuketype: execution stack underflow on Combine")
			}
			messageValue := e.stack[len(e.stack)-1]
			subjectValue := e.stack[len(e.stack)-2]
			e.stack = e.stack[:len(e.stack)-2]

			message, ok := messageValue.ResolveNonLocals(self)
			if !ok {
				panic("nuketype: PushLocals result not allowed as a message")
			}

			return combine.Combination{Subject: subjectValue, Message: message}, true

		case script.Discard:
			if len(e.stack) > 0 {
				e.stack = e.stack[:len(e.stack)-1]
			}
		}
	}

	return combine.Combination{}, false
}
