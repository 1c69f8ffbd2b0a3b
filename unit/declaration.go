package unit

import (
	"context"

	"github.com/jonwraymond/unitops/outcome"
)

// Inputs are the named arguments of a unit execution. They are the only
// state that participates in cache key derivation.
type Inputs map[string]any

// Scope is shared state handed to the implementation function alongside the
// inputs: connections, credentials, collaborators. It is passed by reference
// across executions and never participates in cache key derivation.
type Scope map[string]any

// Func is a unit's implementation. It receives the resolved inputs and the
// configured scope and returns exactly one outcome. The runtime imposes no
// timeout; cancellation arrives through ctx.
type Func func(ctx context.Context, in Inputs, sc Scope) outcome.Outcome

// InputSpec describes one declared input.
type InputSpec struct {
	// Example is a representative value, also usable as a default by a
	// Checker.
	Example any

	// Required marks the input as mandatory.
	Required bool

	// Description documents the input for humans.
	Description string
}

// ExitSpec describes one outcome channel a unit may resolve to.
type ExitSpec struct {
	// Description documents the channel for humans.
	Description string

	// Example is a representative value carried on this channel.
	Example any
}

// Declaration is the self-describing definition of a unit: its identity, the
// inputs it accepts, the outcome channels it may resolve to, and the
// function implementing it. Input and exit specs are descriptive carriers;
// the runtime enforces nothing from them on its own.
type Declaration struct {
	// ID identifies the unit. It prefixes every cache key derived for it.
	ID string

	// Inputs declares the unit's named inputs.
	Inputs map[string]InputSpec

	// Exits declares the outcome channels the unit may resolve to.
	Exits map[string]ExitSpec

	// Fn is the implementation function. Build rejects a declaration
	// without one.
	Fn Func
}

// Checker resolves one declared input before hashing and execution. It
// returns the value to use and whether the input was accepted; a rejected
// input aborts the execution with a failure outcome carrying
// ErrInputRejected. Implementations may substitute defaults, coerce types,
// or enforce Required from the spec.
type Checker func(spec InputSpec, value any) (any, bool)
