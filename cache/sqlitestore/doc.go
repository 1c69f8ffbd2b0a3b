// Package sqlitestore provides a SQLite-backed cache store.
//
// It implements both cache.Store and cache.Maintainer, persisting entry
// data as JSON with millisecond timestamps. A single database can be shared
// by multiple processes pointed at the same file; SQLite's WAL mode keeps
// readers unblocked during writes.
package sqlitestore
