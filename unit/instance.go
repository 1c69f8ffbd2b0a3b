package unit

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/unitops/cache"
	"github.com/jonwraymond/unitops/observe"
	"github.com/jonwraymond/unitops/outcome"
)

// Instance is one configured, executable unit built from a Declaration.
// Configuration through the Set methods belongs to a single owner and is not
// safe for concurrent use; once configured, Execute may be called any number
// of times, concurrently if needed. Per-call options never alter configured
// state, so an instance behaves identically across executions.
type Instance struct {
	decl     Declaration
	inputs   Inputs
	scope    Scope
	handlers outcome.Handlers
	policy   cache.Policy

	keyer   cache.Keyer
	logger  observe.Logger
	instr   *observe.Instrumentation
	checker Checker
	clock   func() time.Time

	flight singleflight.Group // collapses coalesced misses per cache key
}

// Option configures an Instance at build time.
type Option func(*Instance)

// WithKeyer sets the cache key derivation strategy. Default: the SHA-256
// keyer over canonical input JSON.
func WithKeyer(k cache.Keyer) Option {
	return func(i *Instance) {
		i.keyer = k
	}
}

// WithLogger sets the logger warnings and execution summaries are written
// to. Default: the instrumentation's logger when one is configured,
// otherwise a JSON logger to stderr at warn level.
func WithLogger(l observe.Logger) Option {
	return func(i *Instance) {
		i.logger = l
	}
}

// WithInstrumentation sets the tracing and metrics bundle executions are
// recorded with. Default: no-op instrumentation.
func WithInstrumentation(in *observe.Instrumentation) Option {
	return func(i *Instance) {
		i.instr = in
	}
}

// WithChecker sets the input checker applied to every declared input before
// hashing and execution. Default: inputs pass through unchecked.
func WithChecker(c Checker) Option {
	return func(i *Instance) {
		i.checker = c
	}
}

// WithClock sets the time source for cache expiration arithmetic.
func WithClock(clock func() time.Time) Option {
	return func(i *Instance) {
		i.clock = clock
	}
}

// Build creates an Instance from a declaration. A declaration without an
// implementation function fails with ErrInvalidDeclaration; everything else
// about the declaration is taken as given.
func Build(decl Declaration, opts ...Option) (*Instance, error) {
	if decl.Fn == nil {
		return nil, fmt.Errorf("%w: %q has no implementation function", ErrInvalidDeclaration, decl.ID)
	}

	inst := &Instance{
		decl:     decl,
		inputs:   make(Inputs),
		scope:    make(Scope),
		handlers: make(outcome.Handlers),
	}
	for _, opt := range opts {
		opt(inst)
	}

	if inst.keyer == nil {
		inst.keyer = cache.NewDefaultKeyer()
	}
	if inst.clock == nil {
		inst.clock = time.Now
	}
	if inst.logger == nil {
		if inst.instr != nil {
			inst.logger = inst.instr.Logger()
		} else {
			inst.logger = observe.NewLogger("warn")
		}
	}
	if inst.instr == nil {
		inst.instr = observe.NoopInstrumentation()
	}
	return inst, nil
}

// SetInputs merges in into the configured inputs; later keys win. Map and
// slice values are deep-copied on write, so the caller keeps no alias into
// instance state.
func (i *Instance) SetInputs(in Inputs) *Instance {
	for k, v := range in {
		i.inputs[k] = copyValue(v)
	}
	return i
}

// SetOutcomes merges handlers into the configured outcome handlers; later
// registrations win per channel. Nil handlers are dropped, so a merge cannot
// shadow a live channel with nothing.
func (i *Instance) SetOutcomes(handlers outcome.Handlers) *Instance {
	i.handlers = i.handlers.Merge(handlers)
	return i
}

// SetScope merges sc into the configured scope; later keys win. The merge is
// shallow: scope exists to share references.
func (i *Instance) SetScope(sc Scope) *Instance {
	for k, v := range sc {
		i.scope[k] = v
	}
	return i
}

// SetCachePolicy merges p into the configured cache policy; p's non-zero
// fields win.
func (i *Instance) SetCachePolicy(p cache.Policy) *Instance {
	i.policy = i.policy.Merge(p)
	return i
}

// copyValue deep-copies maps and slices; scalars pass through.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for idx, item := range val {
			out[idx] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
