// Package nuketype implements the three nuketypes with actual behavior
// beyond "payload + receiver": symbol, execution, and alien. (Plain thing
// and locals are simple enough to live directly in internal/object,
// alongside the Ref/Members/Meta types they're built from — see
// object.Thing and object.Locals.)
package nuketype

import (
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

// Symbol is the symbol nuketype: a shared immutable string
// handle, also mirrored on the enclosing Ref (object.Ref.SymbolHandle) so
// equality never locks.
type Symbol struct {
	handle *symbol.Handle
}

// Kind implements object.Payload.
func (Symbol) Kind() object.Kind { return object.KindSymbol }

// Handle returns the interned handle this symbol wraps.
func (s Symbol) Handle() *symbol.Handle { return s.handle }

// New interns s in table and returns a symbol-kind reference for it, with
// the handle cached on the Ref for lockless equality.
func New(table *symbol.Table, s string) *object.Ref {
	h := table.Intern(s)
	r := object.NewSymbol(Symbol{handle: h}, h)
	locked := r.Lock()
	locked.Meta().Receiver = object.Receiver{Native: object.DefaultReceiver}
	locked.BumpMetaVersion()
	locked.Unlock()
	return r
}
