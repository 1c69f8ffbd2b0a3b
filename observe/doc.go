// Package observe provides observability primitives for unit execution.
//
// It is a pure instrumentation library: no execution, no storage, no I/O
// beyond exporter setup. The unit runtime wires an Instrumentation into its
// execution pipeline; embedding applications choose exporters via Config.
package observe
