package main

import "errors"

// Sentinel error kinds (§7). Codec and allocator errors are compared
// against these with errors.Is; SocketBindFailed is fatal and
// terminates the simulation.
var (
	ErrMalformedHeader      = errors.New("malformed header")
	ErrNoAvailableBandwidth = errors.New("no available bandwidth")
	ErrNoViableRoute        = errors.New("no viable route")
	ErrSocketBindFailed     = errors.New("socket bind failed")
)

// SimError wraps one of the sentinel kinds above with context specific
// to where it was raised. Errors.Is(err, ErrX) still works because Wrap
// preserves the chain via Unwrap.
type SimError struct {
	Kind    error
	Message string
}

func (e *SimError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *SimError) Unwrap() error { return e.Kind }

// Wrap builds a SimError of the given kind with a formatted message.
func Wrap(kind error, message string) *SimError {
	return &SimError{Kind: kind, Message: message}
}
