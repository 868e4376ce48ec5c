package dmx

import "errors"

// Error kinds shared by the engine and its transports.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidArgument is returned for out-of-range rates, universes and protocol codes.
	// The engine state is left unchanged.
	ErrInvalidArgument = errors.New("dmx: invalid argument")

	// ErrInvalidState is returned when an operation does not apply to the current configuration,
	// e.g. setting a universe while a serial protocol is selected.
	ErrInvalidState = errors.New("dmx: invalid state")

	// ErrTransport is returned when a transport cannot be opened or started.
	ErrTransport = errors.New("dmx: transport error")
)
