// Package machine implements the "machine" ambient value: the single
// object that owns the symbol table, the interned locals symbol, the
// chosen reactor (serial or parallel pool), and the default namespaces
// offered to a running program. It is the one public entry point an
// embedding host (cmd/nucleus, a rulebook suite, or a future
// parser-backed host) constructs to get a runnable Nucleus evaluation
// engine.
package machine

import (
	"errors"
	"io"
	"os"

	"github.com/nucleus-run/nucleus/internal/diagnostics"
	"github.com/nucleus-run/nucleus/internal/namespace"
	"github.com/nucleus-run/nucleus/internal/nuketype"
	"github.com/nucleus-run/nucleus/internal/object"
	"github.com/nucleus-run/nucleus/internal/reactor"
	"github.com/nucleus-run/nucleus/internal/script"
	"github.com/nucleus-run/nucleus/internal/symbol"
)

// ErrReactorCount is returned by New when configured with a reactor count
// of zero or a negative number; a machine always has at least one
// reactor.
var ErrReactorCount = errors.New("machine: reactor count must be >= 1")

// config accumulates the Option values passed to New. Its zero value is
// not directly usable; New seeds it with defaults before applying
// options.
type config struct {
	reactorCount      int
	lookupCacheSize   int
	receiverCacheSize int
	cloneCacheSize    int
	logger            *diagnostics.Logger
	stdout            io.Writer
	stdlib            bool
}

// Option configures a Machine constructed by New.
type Option func(*config)

// WithReactorCount selects how many reactors the machine runs: 1
// constructs a serial reactor; n>=2 constructs an n-member parallel pool.
// The default is 1.
func WithReactorCount(n int) Option {
	return func(c *config) { c.reactorCount = n }
}

// WithCacheSize overrides the capacity of the three per-reactor LRU memo
// tables. lookup applies to both serial and parallel reactors; receiver
// and clone apply to parallel pools only. A non-positive value disables
// that particular cache.
func WithCacheSize(lookup, receiver, clone int) Option {
	return func(c *config) {
		c.lookupCacheSize = lookup
		c.receiverCacheSize = receiver
		c.cloneCacheSize = clone
	}
}

// WithLogger overrides the diagnostics logger used for every
// warning/error emitted while this machine runs. It replaces the
// package-wide diagnostics.Default() logger process-globally, since the
// internal evaluation-engine packages only ever call
// diagnostics.Default().
func WithLogger(l *diagnostics.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStdout overrides where the stdlib namespace's print binding writes;
// the default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(c *config) { c.stdout = w }
}

// WithoutStdlib skips building the demonstration stdlib namespace, for
// embedding hosts that want a bare machine with only the locals/execution
// primitives.
func WithoutStdlib() Option {
	return func(c *config) { c.stdlib = false }
}

// Machine is the running evaluation engine: a symbol table, the interned
// "locals" symbol every execution and combination needs, a reactor (serial
// or parallel), and an optional stdlib namespace.
type Machine struct {
	table        *symbol.Table
	localsSymbol *object.Ref
	reactor      reactor.Reactor
	stdlib       *object.Ref
}

var _ reactor.LocalsSymbol = (*Machine)(nil)
var _ object.Dispatcher = (*Machine)(nil)

// New constructs a Machine per opts, defaulting to a single serial
// reactor, a 1024-entry symbol-lookup cache, no receiver/clone caching
// (meaningless for a lone serial reactor), stderr diagnostics, and the
// stdlib namespace built over os.Stdout.
func New(opts ...Option) (*Machine, error) {
	cfg := config{
		reactorCount:    1,
		lookupCacheSize: 1024,
		stdout:          os.Stdout,
		stdlib:          true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.reactorCount < 1 {
		return nil, ErrReactorCount
	}
	if cfg.logger != nil {
		diagnostics.SetDefault(cfg.logger)
	}

	table := symbol.NewTable()
	localsSymbol := nuketype.New(table, object.LocalsName)

	m := &Machine{table: table, localsSymbol: localsSymbol}

	if cfg.reactorCount == 1 {
		m.reactor = reactor.NewSerial(m, cfg.lookupCacheSize)
	} else {
		m.reactor = reactor.NewParallel(cfg.reactorCount, m, reactor.CacheSizes{
			Lookup:   cfg.lookupCacheSize,
			Receiver: cfg.receiverCacheSize,
			Clone:    cfg.cloneCacheSize,
		})
	}

	if cfg.stdlib {
		m.stdlib = namespace.Stdlib(table, localsSymbol, cfg.stdout)
	}

	return m, nil
}

// LocalsSymbol implements reactor.LocalsSymbol: the interned symbol every
// locals object self-identifies by, and the key under which ResolveSubject
// (via combine.Perform) looks up a caller's locals pair when the subject
// is the locals sentinel.
func (m *Machine) LocalsSymbol() *object.Ref { return m.localsSymbol }

// Table returns the machine's symbol interner, for hosts (a parser, a
// namespace builder) that need to intern their own symbols against it.
func (m *Machine) Table() *symbol.Table { return m.table }

// Stdlib returns the demonstration stdlib namespace (print/identity/eq),
// or nil if constructed with WithoutStdlib.
func (m *Machine) Stdlib() *object.Ref { return m.stdlib }

// Reactor returns the underlying reactor (serial or parallel), for hosts
// that need the full Reactor contract (OnStall, Stop) rather than just
// Stage.
func (m *Machine) Reactor() reactor.Reactor { return m.reactor }

// Stage implements object.Dispatcher by delegating to the underlying
// reactor, so a *Machine can itself be handed anywhere a Dispatcher is
// expected (e.g. staging the first execution of a program).
func (m *Machine) Stage(queueable, response *object.Ref) {
	m.reactor.Stage(queueable, response)
}

// NewExecution compiles root into a fresh, realizable execution reference:
// receiver set to the stage receiver, with an empty locals object pushed
// under the machine's locals symbol.
func (m *Machine) NewExecution(root *script.Script) *object.Ref {
	return nuketype.Create(root, m.localsSymbol)
}

// Symbol interns s against the machine's table and returns a symbol-kind
// reference for it.
func (m *Machine) Symbol(s string) *object.Ref {
	return nuketype.New(m.table, s)
}

// Run starts the machine's reactor and blocks until it stops. For a
// serial reactor this is Serial.Run (which may block forever on
// deliberate quiescence); for a parallel pool this starts every member
// goroutine and waits for them all to exit.
func (m *Machine) Run() {
	switch r := m.reactor.(type) {
	case *reactor.Serial:
		r.Run()
	case *reactor.Parallel:
		r.Start()
		r.Wait()
	}
}
