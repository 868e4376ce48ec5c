package dmx

// Transport is one physical or network output.
//
// Transmit never returns an error: failures are logged by the transport and
// handled by its own reconnect policy. Close is idempotent and safe on a
// transport that was never opened.
type Transport interface {
	Open() error
	Close()
	Transmit(frame Frame)
}

// UniverseSetter is implemented by transports that address a universe and can
// move to another one without a full restart.
type UniverseSetter interface {
	SetUniverse(universe int) error
}

// Settings are the session parameters a transport is built from.
type Settings struct {
	Port     string
	Universe int
	Gate     *RateGate
}
