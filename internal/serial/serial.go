// Package serial drives DMX512 over a serial line, either bit-timed on a raw
// RS485 adapter or framed for a buffered USB interface.
//
// Raw output blocks the caller for the break and mark-after-break (about
// 150µs in total) on every admitted frame. Do not call Transmit from a context
// whose deadline is tighter than that.
package serial

import (
	"fmt"
	"io"
	"sync"
	"time"

	"dmxout/internal/dmx"
	"dmxout/internal/logger"
)

const (
	// BreakTime holds the line low; DMX512 requires at least 88µs.
	BreakTime = 120 * time.Microsecond
	// MarkAfterBreak holds the line high before the start code; at least 8µs.
	MarkAfterBreak = 12 * time.Microsecond
)

// Framing selects how a frame is put on the line.
type Framing int

const (
	// Raw sends break, mark-after-break, then the 513 frame bytes (OpenDMX style).
	Raw Framing = iota
	// Buffered sends one framed packet (DMX USB Pro style).
	Buffered
)

func (f Framing) String() string {
	if f == Raw {
		return "raw"
	}
	return "buffered"
}

// Driver is a serial DMX transport. The port is opened by Open and reopened
// lazily by Transmit after a write failure.
type Driver struct {
	log     logger.Logger
	framing Framing
	name    string
	open    Opener
	gate    *dmx.RateGate
	sleep   func(time.Duration)

	mu     sync.Mutex // guards port and in-flight writes
	port   Port
	closed bool
}

// NewDriver конструктор.
func NewDriver(log logger.Logger, framing Framing, name string, open Opener, gate *dmx.RateGate) *Driver {
	if open == nil {
		open = OpenPort
	}
	return &Driver{
		log:     log,
		framing: framing,
		name:    name,
		open:    open,
		gate:    gate,
		sleep:   time.Sleep,
		closed:  true,
	}
}

// Open opens the configured port, closing any previous handle.
func (d *Driver) Open() error {
	if d.name == "" {
		return fmt.Errorf("%w: serial port name not set", dmx.ErrInvalidState)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.closePort()
	if err := d.openPort(); err != nil {
		return err
	}
	d.closed = false
	d.log.With(logger.Fields{"module": "serial"}).Infof("opened %s (%s framing)", d.name, d.framing)
	return nil
}

// Close releases the port. Errors are ignored.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closePort()
	d.closed = true
}

// Transmit writes one frame if the rate gate admits it, reopening the port
// first when a previous write failed.
func (d *Driver) Transmit(f dmx.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || !d.gate.Allow() {
		return
	}

	log := d.log.With(logger.Fields{"module": "serial"})
	if d.port == nil {
		if err := d.openPort(); err != nil {
			log.Warnf("failed to open serial port: %v", err)
			return
		}
		log.Infof("serial port %s reopened", d.name)
	}

	if err := d.write(f); err != nil {
		log.Warnf("serial write error on %s: %v", d.name, err)
		d.closePort()
	}
}

func (d *Driver) write(f dmx.Frame) error {
	var buf []byte
	switch d.framing {
	case Raw:
		if err := d.port.Break(BreakTime); err != nil {
			return fmt.Errorf("break: %w", err)
		}
		d.sleep(MarkAfterBreak)
		buf = f[:]
	default:
		buf = EncodeFrame(f)
	}

	n, err := d.port.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

func (d *Driver) openPort() error {
	port, err := d.open(d.name)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", dmx.ErrTransport, d.name, err)
	}
	d.port = port
	return nil
}

func (d *Driver) closePort() {
	if d.port == nil {
		return
	}
	_ = d.port.Close()
	d.port = nil
}
