package unit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/unitops/cache"
	"github.com/jonwraymond/unitops/observe"
	"github.com/jonwraymond/unitops/outcome"
)

// ExecOption configures a single call to Execute.
type ExecOption func(*execConfig)

type execConfig struct {
	handlers outcome.Handlers
	policy   cache.Policy
}

// WithHandlers merges handlers into the configured outcome handlers for this
// call only. Per channel, the per-call handler wins; the instance keeps its
// configured handlers.
func WithHandlers(h outcome.Handlers) ExecOption {
	return func(c *execConfig) {
		c.handlers = c.handlers.Merge(h)
	}
}

// WithPolicy merges p into the configured cache policy for this call only;
// p's non-zero fields win. The instance keeps its configured policy.
func WithPolicy(p cache.Policy) ExecOption {
	return func(c *execConfig) {
		c.policy = c.policy.Merge(p)
	}
}

// Execute runs the unit once and routes its outcome.
//
// Per-call options are merged onto snapshots of the configured state, inputs
// are resolved through the checker, and, when the policy carries a store, a
// cache key is derived from the declaration ID and the resolved inputs. A
// fresh cached result is dispatched on the policy's cached outcome channel
// without running the implementation. On a miss the implementation runs, its
// result is written through to the store before delivery when it lands on
// the cached outcome channel, and eviction of expired entries is started in
// the background.
//
// Execute returns the dispatch error when no handler matched the outcome's
// channel (wrapping outcome.ErrUnrouted), and nil otherwise. Cache-path
// failures never surface here: they are logged as warnings and the
// execution proceeds as if the cache had missed.
func (i *Instance) Execute(ctx context.Context, opts ...ExecOption) error {
	cfg := execConfig{handlers: i.handlers, policy: i.policy}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := cfg.policy.WithDefaults()

	meta := observe.UnitMeta{ID: i.decl.ID}
	token := uuid.Must(uuid.NewV7()).String()
	ctx, ex := i.instr.Begin(ctx, meta, token)
	log := i.logger.WithUnit(meta)

	resolved, rejected := i.resolveInputs()
	if rejected != nil {
		dispatchErr := outcome.Dispatch(cfg.handlers, outcome.Failure(rejected))
		ex.End(ctx, outcome.Error, false, dispatchErr)
		return i.wrapDispatch(dispatchErr)
	}

	var key string
	useCache := p.Active()
	if useCache {
		key, useCache = i.deriveKey(ctx, log, resolved, token)
	}

	if useCache {
		now := i.clock()
		if entry, hit := i.lookup(ctx, log, p, key, token, now); hit {
			ex.CacheEvent(ctx, observe.CacheHit)
			dispatchErr := outcome.Dispatch(cfg.handlers, outcome.Named(p.CachedOutcome, entry.Data))
			ex.End(ctx, p.CachedOutcome, true, dispatchErr)
			return i.wrapDispatch(dispatchErr)
		}
		ex.CacheEvent(ctx, observe.CacheMiss)
		i.collectStale(ctx, ex, log, p, key, token, now)
	}

	out := i.invoke(ctx, resolved, key, useCache && p.Coalesce)

	if useCache && out.Name() == p.CachedOutcome && !out.IsFailure() {
		if err := cache.Write(ctx, p, key, out.Value()); err != nil {
			ex.CacheEvent(ctx, observe.CacheWriteError)
			warn(ctx, log, "cache write failed", token, key, err)
		} else {
			ex.CacheEvent(ctx, observe.CacheWrite)
		}
	}

	dispatchErr := outcome.Dispatch(cfg.handlers, out)
	ex.End(ctx, out.Name(), false, dispatchErr)
	return i.wrapDispatch(dispatchErr)
}

// resolveInputs builds the per-call input set, running every declared input
// through the configured checker. The returned map is a fresh copy: the
// implementation function never receives a map the instance keeps.
func (i *Instance) resolveInputs() (Inputs, error) {
	resolved := make(Inputs, len(i.inputs))
	for k, v := range i.inputs {
		resolved[k] = v
	}
	if i.checker == nil {
		return resolved, nil
	}
	for name, spec := range i.decl.Inputs {
		value, ok := i.checker(spec, resolved[name])
		if !ok {
			return nil, fmt.Errorf("%w: input %q", ErrInputRejected, name)
		}
		resolved[name] = value
	}
	return resolved, nil
}

// deriveKey computes the cache key for the resolved inputs. A derivation
// failure disables caching for this call only and is reported as a warning.
func (i *Instance) deriveKey(ctx context.Context, log observe.Logger, in Inputs, token string) (string, bool) {
	key, err := i.keyer.Key(i.decl.ID, in)
	if err != nil {
		warn(ctx, log, "cache key derivation failed", token, "", err)
		return "", false
	}
	return key, true
}

// lookup consults the store for a fresh entry. Store errors degrade to a
// miss with a warning.
func (i *Instance) lookup(ctx context.Context, log observe.Logger, p cache.Policy, key, token string, now time.Time) (cache.Entry, bool) {
	entry, hit, err := cache.Lookup(ctx, p, key, now)
	if err != nil {
		warn(ctx, log, "cache lookup failed", token, key, err)
		return cache.Entry{}, false
	}
	return entry, hit
}

// collectStale prunes expired entries for key in a detached goroutine. The
// goroutine survives the surrounding call and its context on purpose:
// eviction is housekeeping, not part of the execution, and nothing joins it.
func (i *Instance) collectStale(ctx context.Context, ex *observe.Execution, log observe.Logger, p cache.Policy, key, token string, now time.Time) {
	detached := context.WithoutCancel(ctx)
	go func() {
		evicted, err := cache.CollectStale(detached, p, key, now)
		if err != nil {
			ex.CacheEvent(detached, observe.CacheEvictError)
			warn(detached, log, "cache eviction failed", token, key, err)
			return
		}
		if evicted {
			ex.CacheEvent(detached, observe.CacheEvict)
		}
	}()
}

// invoke runs the implementation function. When coalesce is set, concurrent
// invocations for the same cache key collapse into one call whose outcome
// every caller shares.
func (i *Instance) invoke(ctx context.Context, in Inputs, key string, coalesce bool) outcome.Outcome {
	if !coalesce {
		return i.decl.Fn(ctx, in, i.scope)
	}
	v, _, _ := i.flight.Do(key, func() (any, error) {
		return i.decl.Fn(ctx, in, i.scope), nil
	})
	return v.(outcome.Outcome)
}

func (i *Instance) wrapDispatch(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("unit %s: %w", i.decl.ID, err)
}

// warn emits one cache-path warning carrying the execution token and, when
// known, the cache key.
func warn(ctx context.Context, log observe.Logger, msg, token, key string, err error) {
	fields := make([]observe.Field, 0, 3)
	fields = append(fields, observe.Field{Key: "execution", Value: token})
	if key != "" {
		fields = append(fields, observe.Field{Key: "cache_key", Value: key})
	}
	fields = append(fields, observe.Field{Key: "error", Value: err.Error()})
	log.Warn(ctx, msg, fields...)
}
