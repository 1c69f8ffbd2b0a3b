package outcome

// Reserved channel names.
const (
	// Success is the default channel for outcomes that carry a value.
	Success = "success"

	// Error is the channel failures are routed to.
	Error = "error"

	// CatchAll is the handler-map key for the catch-all handler, which
	// receives any outcome whose channel has no handler of its own.
	CatchAll = "*"
)

// Outcome is the single result of one unit execution: a success value, a
// failure, or a value on a custom named channel. The variant is fixed by the
// constructor; routing never inspects the payload.
type Outcome struct {
	name    string
	value   any
	err     error
	failure bool
}

// Successful builds an outcome carrying value on the success channel.
func Successful(value any) Outcome {
	return Outcome{name: Success, value: value}
}

// Named builds an outcome carrying value on the named channel. An empty name
// resolves to the success channel.
func Named(name string, value any) Outcome {
	if name == "" {
		name = Success
	}
	return Outcome{name: name, value: value}
}

// Failure builds an outcome routed to the error channel. A nil err still
// routes to the error channel; the variant is the constructor's choice, not
// the payload's.
func Failure(err error) Outcome {
	return Outcome{name: Error, err: err, failure: true}
}

// Name returns the channel this outcome resolves to.
func (o Outcome) Name() string {
	if o.name == "" {
		return Success
	}
	return o.name
}

// Value returns the carried value. It is nil for failures.
func (o Outcome) Value() any {
	return o.value
}

// Err returns the carried error. It is nil unless the outcome is a failure.
func (o Outcome) Err() error {
	return o.err
}

// IsFailure reports whether the outcome was built with Failure. A value
// dispatched on the error channel via Named is not a failure.
func (o Outcome) IsFailure() bool {
	return o.failure
}
