package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxHashLength is the maximum allowed length for a cache hash.
const MaxHashLength = 512

// Sentinel errors for cache operations.
var (
	ErrNoStore     = errors.New("cache: no store configured")
	ErrInvalidHash = errors.New("cache: hash is invalid")
	ErrHashTooLong = errors.New("cache: hash exceeds max length")
)

// Entry is one memoized result. Entries are owned by the store; the runtime
// reads and writes them only through the Store and Maintainer contracts.
type Entry struct {
	Hash      string
	Data      any
	CreatedAt time.Time
}

// Store persists memoized unit results. It is the minimum contract for
// caching to be active: a Policy without a Store disables caching silently.
//
// Contract:
// - Find returns entries for hash with CreatedAt strictly after notOlderThan,
//   newest first, at most limit (limit <= 0 means unlimited).
// - Concurrency: implementations must be safe for concurrent use. The store
//   is shared and externally owned; concurrent writers for the same hash are
//   tolerated (last write wins).
// - Context: methods should honor cancellation/deadlines where applicable.
type Store interface {
	// Find retrieves live entries for a hash, newest first.
	Find(ctx context.Context, hash string, notOlderThan time.Time, limit int) ([]Entry, error)

	// Create persists data for a hash, stamped with the store's current time.
	Create(ctx context.Context, hash string, data any) error
}

// ValidateHash checks that a derived hash is usable as a store key.
func ValidateHash(hash string) error {
	if hash == "" || strings.TrimSpace(hash) == "" {
		return ErrInvalidHash
	}
	if len(hash) > MaxHashLength {
		return ErrHashTooLong
	}
	// Reject hashes with newlines or carriage returns
	if strings.ContainsAny(hash, "\n\r") {
		return ErrInvalidHash
	}
	return nil
}

// Lookup finds the newest live entry for hash as of now, honoring the
// policy's TTL. The boolean is false on a miss; an entry with nil Data is a
// miss. Callers treat a returned error as a warning and proceed as a miss.
func Lookup(ctx context.Context, p Policy, hash string, now time.Time) (Entry, bool, error) {
	if !p.Active() {
		return Entry{}, false, ErrNoStore
	}
	entries, err := p.Store.Find(ctx, hash, p.Expiration(now), 1)
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: find %s: %w", hash, err)
	}
	if len(entries) == 0 || entries[0].Data == nil {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}

// Write persists data for hash through the policy's store. Callers treat a
// returned error as a warning: a failed write never invalidates the result
// being delivered.
func Write(ctx context.Context, p Policy, hash string, data any) error {
	if !p.Active() {
		return ErrNoStore
	}
	if err := ValidateHash(hash); err != nil {
		return err
	}
	if err := p.Store.Create(ctx, hash, data); err != nil {
		return fmt.Errorf("cache: create %s: %w", hash, err)
	}
	return nil
}
