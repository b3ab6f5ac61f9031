package reactor

import "github.com/nucleus-run/nucleus/internal/object"

// Staging is a single recorded Stage call.
type Staging struct {
	Execution *object.Ref
	Response  *object.Ref
}

// Mock is a fake reactor that, instead of realizing anything, accumulates
// the calls made to it — useful for testing the combination algorithm in
// isolation from any real scheduling.
type Mock struct {
	Alive    bool
	Stagings []Staging
	Handlers []StallHandler
	machine  LocalsSymbol
}

var _ Reactor = (*Mock)(nil)

// NewMock constructs a live Mock bound to machine.
func NewMock(machine LocalsSymbol) *Mock {
	return &Mock{Alive: true, machine: machine}
}

// Stage implements object.Dispatcher / Reactor.
func (m *Mock) Stage(execution, response *object.Ref) {
	if m.Alive {
		m.Stagings = append(m.Stagings, Staging{Execution: execution, Response: response})
	}
}

// OnStall implements Reactor.
func (m *Mock) OnStall(handler StallHandler) {
	if m.Alive {
		m.Handlers = append(m.Handlers, handler)
	}
}

// Stop implements Reactor.
func (m *Mock) Stop() { m.Alive = false }

// Machine implements Reactor.
func (m *Mock) Machine() LocalsSymbol { return m.machine }

// Caches implements Reactor: a Mock memoizes nothing.
func (m *Mock) Caches() Caches { return Caches{} }
