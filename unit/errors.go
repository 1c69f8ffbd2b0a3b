package unit

import "errors"

var (
	// ErrInvalidDeclaration is returned by Build for a declaration that
	// cannot execute, such as one without an implementation function.
	ErrInvalidDeclaration = errors.New("unit: invalid declaration")

	// ErrInputRejected is carried by the failure outcome dispatched when the
	// configured checker refuses an input. The implementation function does
	// not run.
	ErrInputRejected = errors.New("unit: input rejected")
)
