// Package diagnostics is the out-of-band logging channel for every
// core-operation failure: argument-shape errors, missing-locals aborts,
// malformed params, and clone-of-non-stageable warnings never return an
// error to user code, they are only ever diagnosed here.
package diagnostics

import (
	"os"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the diagnostics facade used throughout the evaluation engine.
// It wraps a logiface.Logger[*stumpy.Event] and a catrate.Limiter that
// throttles repeated identical diagnostics (e.g. a cyclic receiver chain
// warning on every combination).
type Logger struct {
	base  *logiface.Logger[*stumpy.Event]
	limit *catrate.Limiter
}

// defaultRates throttles any single (category) diagnostic to at most 20
// occurrences per second and 200 per minute, so a hot loop emitting the
// same warning does not itself become the bottleneck.
var defaultRates = map[time.Duration]int{
	time.Second: 20,
	time.Minute: 200,
}

// New constructs a Logger writing to w via stumpy, with the default
// throttling rates.
func New(w *os.File) *Logger {
	return &Logger{
		base: stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
			stumpy.L.WithLevel(logiface.LevelDebug),
		),
		limit: catrate.NewLimiter(defaultRates),
	}
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns a package-wide Logger writing to stderr, constructed
// once, so internal packages do not need a *Logger threaded through every
// constructor.
func Default() *Logger {
	defaultOnce.Do(func() { defaultLogger = New(os.Stderr) })
	return defaultLogger
}

// SetDefault overrides the package-wide default Logger. Intended for hosts
// (cmd/nucleus, tests) that want a differently-configured or -routed
// logger; internal evaluation-engine packages only ever call Default().
func SetDefault(l *Logger) {
	defaultOnce.Do(func() {})
	defaultLogger = l
}

// Warn emits a throttled warning diagnostic. category groups repeated
// diagnostics for throttling purposes; tag is the advisory
// object tag to include as a structured field, if non-empty.
func (l *Logger) Warn(category, tag, msg string) {
	if l == nil {
		return
	}
	if _, ok := l.limit.Allow(category); !ok {
		return
	}
	b := l.base.Warning()
	if tag != "" {
		b = b.Str("tag", tag)
	}
	b.Str("category", category).Log(msg)
}

// Error emits an unthrottled error diagnostic (reserved for conditions that
// by construction cannot recur in a hot loop, e.g. reactor pool setup
// failures).
func (l *Logger) Error(tag, msg string) {
	if l == nil {
		return
	}
	b := l.base.Err().Str("category", "error")
	if tag != "" {
		b = b.Str("tag", tag)
	}
	b.Log(msg)
}

// Debug emits a debug diagnostic, useful when tracing the evaluation
// engine's combination and realization steps.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Log(msg)
}
