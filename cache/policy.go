package cache

import "time"

// DefaultTTL is the lookup window applied when Policy.TTL is zero.
const DefaultTTL = 3 * time.Hour

// DefaultCachedOutcome is the outcome channel persisted when
// Policy.CachedOutcome is empty.
const DefaultCachedOutcome = "success"

// Policy configures memoization for unit executions. The zero value
// disables caching: without a Store there is nothing to serve from.
type Policy struct {
	// Store persists entries. nil disables caching silently.
	Store Store

	// TTL is the maximum age of an entry served from lookup. An entry
	// exactly this old is expired: excluded from lookup, eligible for
	// eviction. Zero means DefaultTTL.
	TTL time.Duration

	// MaxStale is the number of expired entries per hash tolerated before
	// an eviction pass deletes the excess. Zero evicts every expired entry
	// as soon as a miss observes one.
	MaxStale int

	// CachedOutcome names the outcome channel whose values are written
	// through to the store. Empty means DefaultCachedOutcome.
	CachedOutcome string

	// Coalesce collapses concurrent misses for one hash into a single
	// execution. Off by default: the baseline contract tolerates duplicate
	// concurrent executions and duplicate writes for the same hash.
	Coalesce bool
}

// Active reports whether the policy can serve and persist results.
func (p Policy) Active() bool {
	return p.Store != nil
}

// Merge returns p with override's non-zero fields applied on top.
func (p Policy) Merge(override Policy) Policy {
	if override.Store != nil {
		p.Store = override.Store
	}
	if override.TTL != 0 {
		p.TTL = override.TTL
	}
	if override.MaxStale != 0 {
		p.MaxStale = override.MaxStale
	}
	if override.CachedOutcome != "" {
		p.CachedOutcome = override.CachedOutcome
	}
	if override.Coalesce {
		p.Coalesce = true
	}
	return p
}

// WithDefaults returns p with zero fields replaced by package defaults.
func (p Policy) WithDefaults() Policy {
	if p.TTL <= 0 {
		p.TTL = DefaultTTL
	}
	if p.MaxStale < 0 {
		p.MaxStale = 0
	}
	if p.CachedOutcome == "" {
		p.CachedOutcome = DefaultCachedOutcome
	}
	return p
}

// Expiration returns the cutoff separating live entries from expired ones
// at time now: CreatedAt strictly after the cutoff is live, at or before it
// is expired.
func (p Policy) Expiration(now time.Time) time.Time {
	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return now.Add(-ttl)
}
