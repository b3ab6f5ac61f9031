package object

// Cloner is implemented by nuketype payloads whose state must be
// deep-copied when the enclosing Ref is cloned for staging: execution and
// alien. Defining the interface here, rather than in the
// clone engine, lets internal/nuketype implement it without creating an
// import cycle between internal/clone and internal/nuketype.
type Cloner interface {
	Payload
	// ClonePayload returns a new payload sharing no mutable state with the
	// receiver. For an execution, this duplicates pc/stack but shares the
	// (immutable) compiled script. For an alien, this delegates to the
	// alien's own clone hook.
	ClonePayload() Payload
}
