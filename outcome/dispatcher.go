package outcome

import (
	"errors"
	"fmt"
)

// ErrUnrouted is returned by Dispatch when no handler matches the outcome's
// channel and no catch-all handler is present.
var ErrUnrouted = errors.New("outcome: no handler for channel")

// Handler consumes a routed outcome.
type Handler func(Outcome)

// Handlers routes outcomes by channel name. The CatchAll key, when present,
// receives every outcome whose channel has no dedicated handler.
type Handlers map[string]Handler

// Single wires h as the catch-all, receiving every outcome.
func Single(h Handler) Handlers {
	return Handlers{CatchAll: h}
}

// Merge returns a new handler map combining h with overrides. Overrides win
// per channel; nil handler values in overrides are dropped rather than
// shadowing h's entries. Neither input is modified.
func (h Handlers) Merge(overrides Handlers) Handlers {
	merged := make(Handlers, len(h)+len(overrides))
	for name, fn := range h {
		if fn != nil {
			merged[name] = fn
		}
	}
	for name, fn := range overrides {
		if fn != nil {
			merged[name] = fn
		}
	}
	return merged
}

// Dispatch routes o to the handler registered for its channel, falling back
// to the catch-all. It returns ErrUnrouted if neither exists: an unhandled
// channel is a caller wiring bug, not a silent drop.
func Dispatch(handlers Handlers, o Outcome) error {
	name := o.Name()
	if h, ok := handlers[name]; ok && h != nil {
		h(o)
		return nil
	}
	if h, ok := handlers[CatchAll]; ok && h != nil {
		h(o)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnrouted, name)
}
