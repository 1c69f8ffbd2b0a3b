package cache

import (
	"context"
	"fmt"
	"time"
)

// Maintainer is the optional garbage-collection capability of a Store. Both
// methods select entries with CreatedAt at or before cutoff; the expiration
// boundary is inclusive on the stale side, the mirror of Find's strictly-
// newer window. A Store that is not a Maintainer is never garbage-collected.
type Maintainer interface {
	// Count returns the number of expired entries for a hash.
	Count(ctx context.Context, hash string, cutoff time.Time) (int, error)

	// DeleteOldest removes expired entries for a hash, keeping the newest
	// keep of them.
	DeleteOldest(ctx context.Context, hash string, cutoff time.Time, keep int) error
}

// CollectStale runs one bounded eviction pass for hash: it counts entries
// expired as of now and, when more than p.MaxStale exist, deletes the oldest
// while keeping the newest p.MaxStale. It reports whether a deletion was
// performed. Stores without the Maintainer capability are left untouched.
// Callers treat a returned error as a warning; eviction never affects the
// execution that triggered it.
func CollectStale(ctx context.Context, p Policy, hash string, now time.Time) (bool, error) {
	if !p.Active() {
		return false, ErrNoStore
	}
	m, ok := p.Store.(Maintainer)
	if !ok {
		return false, nil
	}
	p = p.WithDefaults()
	cutoff := p.Expiration(now)

	n, err := m.Count(ctx, hash, cutoff)
	if err != nil {
		return false, fmt.Errorf("cache: count stale %s: %w", hash, err)
	}
	if n <= p.MaxStale {
		return false, nil
	}
	if err := m.DeleteOldest(ctx, hash, cutoff, p.MaxStale); err != nil {
		return false, fmt.Errorf("cache: delete stale %s: %w", hash, err)
	}
	return true, nil
}
