// Package script implements the compiled instruction stream an execution
// advances over.
package script

import "github.com/nucleus-run/nucleus/internal/object"

// Op enumerates the closed instruction set.
type Op int

const (
	// PushLocals pushes a sentinel meaning "the caller's locals" onto the
	// evaluation stack.
	PushLocals Op = iota
	// PushSelf pushes a sentinel meaning "the execution currently advancing".
	PushSelf
	// Push pushes a literal object reference (Instruction.Literal).
	Push
	// Combine pops message then subject and yields a combination.
	Combine
	// Discard pops and discards the top of the stack.
	Discard
)

func (op Op) String() string {
	switch op {
	case PushLocals:
		return "push-locals"
	case PushSelf:
		return "push-self"
	case Push:
		return "push"
	case Combine:
		return "combine"
	case Discard:
		return "discard"
	default:
		return "unknown"
	}
}

// Instruction is a single compiled step. Literal is only meaningful when
// Op == Push.
type Instruction struct {
	Op      Op
	Literal *object.Ref
}

// Script is an immutable, shareable sequence of instructions. Once
// constructed, it is never mutated; executions cloned from a common root
// share the same *Script.
type Script struct {
	instructions []Instruction
}

// New constructs a Script from a fixed instruction sequence. The slice is
// copied so callers may not mutate it out from under a shared Script.
func New(instructions []Instruction) *Script {
	cp := make([]Instruction, len(instructions))
	copy(cp, instructions)
	return &Script{instructions: cp}
}

// Len returns the number of instructions.
func (s *Script) Len() int { return len(s.instructions) }

// At returns the instruction at pc. Panics if pc is out of range; callers
// are expected to bound pc by Len() first (mirrors slice indexing).
func (s *Script) At(pc int) Instruction { return s.instructions[pc] }
