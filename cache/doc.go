// Package cache provides result memoization for unit executions.
//
// It defines the Store contract backing the cache, SHA-256-based key
// derivation over canonical input JSON, TTL policies with bounded eviction
// of expired entries, and an in-memory reference store.
package cache
