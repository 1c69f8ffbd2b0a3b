// Package outcome defines the result protocol for unit executions.
//
// A unit resolves to exactly one Outcome per execution: a success value, a
// failure, or a value on a custom named channel. Outcomes are routed to
// caller-supplied handlers by name, with an optional catch-all for channels
// the caller did not wire explicitly.
package outcome
