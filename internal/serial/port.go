package serial

import (
	"io"
	"time"

	"go.bug.st/serial"
)

const (
	// BaudRate is the DMX512 line speed.
	BaudRate = 250000
	// Timeout bounds blocking reads on the line.
	Timeout = time.Second
)

// Port is the part of a serial line the drivers need.
type Port interface {
	io.Writer
	// Break holds the line low for d, then releases it.
	Break(d time.Duration) error
	Close() error
}

// Opener opens a serial port by name, configured for DMX512.
type Opener func(name string) (Port, error)

// OpenPort opens name at 250000 baud, 8 data bits, no parity, 2 stop bits,
// without flow control.
func OpenPort(name string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(Timeout); err != nil {
		_ = port.Close()
		return nil, err
	}
	return port, nil
}
