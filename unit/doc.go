// Package unit executes self-describing units of work.
//
// A unit couples named inputs, named outcome channels, and an implementation
// function into a Declaration. Build configures a reusable Instance from a
// declaration; Execute resolves the inputs, consults the result cache, runs
// the implementation on a miss, and routes the single resulting outcome to
// the caller's handlers. Caching is a pure optimization: every cache failure
// degrades to a logged warning and the execution proceeds as a miss.
package unit
