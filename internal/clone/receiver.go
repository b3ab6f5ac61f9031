package clone

import (
	"github.com/nucleus-run/nucleus/internal/diagnostics"
	"github.com/nucleus-run/nucleus/internal/object"
)

// StageReceiver builds the stage receiver: it clones subject via
// Stageable and, on success, stages the clone with message; on failure it
// warns, converting the silent no-clone result into a diagnostic.
//
// localsSymbol is bound into the closure so every execution and alien's
// receiver (both use this same function) can locate and replace the locals
// pair on an execution clone without the receiver call site needing to
// know about locals at all.
func StageReceiver(localsSymbol *object.Ref) object.NativeFunc {
	return func(d object.Dispatcher, caller, subject, message *object.Ref) {
		clone, ok := Stageable(subject, localsSymbol)
		if !ok {
			diagnostics.Default().Warn("stage_receiver", subject.Tag(),
				"stage_receiver failed: subject is neither an execution nor an alien")
			return
		}
		d.Stage(clone, message)
	}
}
