// Package nucleus documents the module as a whole; the engine itself lives
// entirely under internal/ and pkg/machine, consumed by the cmd/nucleus
// CLI host.
//
// Nucleus implements a small, concatenative, object-based computation
// model in which every step is the combination of a subject and a message,
// resolved by walking a chain of receiver designations until a native
// function runs or a queueable object (an execution or an alien) is
// cloned and staged onto a reactor.
//
// The object model (internal/object, internal/nuketype) is a closed set
// of five nuketypes — thing, symbol, locals, execution, alien — each an
// exclusively-locked reference carrying an ordered, hole-tolerant members
// list and a receiver designation. Combination (internal/combine) resolves
// a subject, possibly the caller's locals sentinel, then walks the
// receiver chain: a native Go function runs directly; a reference to
// another object recurses; a queueable reference is cloned
// (internal/clone) and staged for later realization.
//
// Reactors (internal/reactor) realize staged work: a single-threaded
// Serial reactor with an internal FIFO queue, or a Parallel pool of N>=2
// reactors communicating by mailbox message-passing with an atomic
// stall-consensus protocol, so that exactly one stall is signaled per
// quiescent period regardless of how many reactors observe it. Both
// reactor kinds optionally consult the bounded LRU symbol-lookup table of
// internal/cache; only parallel pool members also carry the receiver and
// clone tables that skip re-walking receiver chains or re-cloning
// unchanged objects.
//
// pkg/machine is the public entry point: it owns the symbol table, the
// interned "locals" symbol, the chosen reactor, and the demonstration
// stdlib namespace (internal/namespace), and is what cmd/nucleus (a CLI
// host) and internal/rulebook (a TAP-style test harness) both build on.
//
// The source-text parser, a full interactive REPL reader, and persistence
// of any kind are out of scope: this module consumes and exposes the
// object graph directly, through stage/on_stall/stop and the object
// constructors, exactly as a future parser or embedding host would.
package nucleus
