// Package sacn outputs one universe as a streaming ACN (E1.31) source.
package sacn

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dmxout/internal/dmx"
	"dmxout/internal/logger"
	"github.com/Hundemeier/go-sacn/sacn"
	"github.com/google/uuid"
)

// sendTimeout bounds how long Transmit waits for the source to take a frame.
const sendTimeout = 100 * time.Millisecond

var errSendTimeout = errors.New("sACN source did not accept levels")

// Source is a started sACN source session. Closing a channel returned by
// Activate removes that universe.
//
// A go-sacn transmitter reads its per-universe settings from goroutines
// started by Activate without locking, so a universe is configured before it
// is activated and each source carries a single universe.
type Source interface {
	Activate(universe uint16) (chan<- [512]byte, error)
	SetMulticast(universe uint16, multicast bool)
	SetDestinations(universe uint16, destinations []string) []error
}

// SourceFactory starts a source session identified by cid.
type SourceFactory func(cid [16]byte, name string) (Source, error)

// NewTransmitterFactory starts sessions on go-sacn transmitters bound to bind.
func NewTransmitterFactory(bind string) SourceFactory {
	return func(cid [16]byte, name string) (Source, error) {
		tx, err := sacn.NewTransmitter(bind, cid, name)
		if err != nil {
			return nil, err
		}
		return &tx, nil
	}
}

// Options configure the source.
type Options struct {
	SourceName   string
	Multicast    bool
	Destinations []string
}

// Driver is the sACN transport.
type Driver struct {
	log       logger.Logger
	opts      Options
	newSource SourceFactory
	newCID    func() ([16]byte, error)
	gate      *dmx.RateGate
	timeout   time.Duration

	mu       sync.Mutex
	universe int
	cid      [16]byte
	source   Source
	levels   chan<- [512]byte
	closed   bool
}

// NewDriver конструктор.
func NewDriver(log logger.Logger, opts Options, universe int, newSource SourceFactory, gate *dmx.RateGate) *Driver {
	if newSource == nil {
		newSource = NewTransmitterFactory("")
	}
	return &Driver{
		log:       log,
		opts:      opts,
		newSource: newSource,
		newCID:    newCID,
		gate:      gate,
		timeout:   sendTimeout,
		universe:  universe,
		closed:    true,
	}
}

func newCID() ([16]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return [16]byte{}, err
	}
	return [16]byte(id), nil
}

// Open starts a fresh source session with the configured universe.
func (d *Driver) Open() error {
	if err := dmx.ValidateUniverse(dmx.SACN, d.universe); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.shutdown()
	if err := d.startup(); err != nil {
		return err
	}
	d.closed = false
	d.log.With(logger.Fields{"module": "sacn"}).Infof("source %q started on universe %d", d.opts.SourceName, d.universe)
	return nil
}

// Close stops the session. Safe to call repeatedly.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdown()
	d.closed = true
}

// Universe returns the registered universe.
func (d *Driver) Universe() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.universe
}

// Transmit pushes the 512 levels of f to the registered universe. A failure
// restarts the whole session; if that fails too the driver stays silent until
// it is reconfigured or reopened.
func (d *Driver) Transmit(f dmx.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.source == nil || !d.gate.Allow() {
		return
	}

	err := d.send(f.Levels())
	if err == nil {
		return
	}

	log := d.log.With(logger.Fields{"module": "sacn"})
	log.Warnf("sACN update levels failed: %v", err)
	d.shutdown()
	if err := d.startup(); err != nil {
		log.Warnf("sACN reconnect failed: %v", err)
		return
	}
	log.Info("sACN reinitialized")
}

// SetUniverse moves the live session to universe, adding the new registration
// before removing the old one. The CID is kept. A degraded driver restarts its
// session.
func (d *Driver) SetUniverse(universe int) error {
	if err := dmx.ValidateUniverse(dmx.SACN, universe); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("%w: sACN source is not initialized", dmx.ErrInvalidState)
	}
	log := d.log.With(logger.Fields{"module": "sacn"})

	if d.source == nil {
		old := d.universe
		d.universe = universe
		if err := d.startup(); err != nil {
			d.universe = old
			return err
		}
		log.Infof("sACN restarted on universe %d", universe)
		return nil
	}
	if universe == d.universe {
		return nil
	}

	// The new universe gets its own transmitter under the same CID, so the
	// old universe's goroutines never see the new registration.
	source, err := d.newSource(d.cid, d.opts.SourceName)
	if err != nil {
		return fmt.Errorf("%w: sACN source startup: %v", dmx.ErrTransport, err)
	}
	levels, err := d.activate(source, universe)
	if err != nil {
		return err
	}
	close(d.levels)
	log.Infof("sACN universe %d replaced by %d", d.universe, universe)
	d.source = source
	d.levels = levels
	d.universe = universe
	return nil
}

func (d *Driver) send(levels [512]byte) error {
	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case d.levels <- levels:
		return nil
	case <-timer.C:
		return errSendTimeout
	}
}

func (d *Driver) startup() error {
	cid, err := d.newCID()
	if err != nil {
		return fmt.Errorf("%w: failed to generate sACN CID: %v", dmx.ErrTransport, err)
	}
	source, err := d.newSource(cid, d.opts.SourceName)
	if err != nil {
		return fmt.Errorf("%w: sACN source startup: %v", dmx.ErrTransport, err)
	}
	levels, err := d.activate(source, d.universe)
	if err != nil {
		return err
	}
	d.cid = cid
	d.source = source
	d.levels = levels
	return nil
}

// activate configures universe on source and then starts it.
func (d *Driver) activate(source Source, universe int) (chan<- [512]byte, error) {
	u := uint16(universe)
	source.SetMulticast(u, d.opts.Multicast)
	if len(d.opts.Destinations) > 0 {
		for _, err := range source.SetDestinations(u, d.opts.Destinations) {
			d.log.With(logger.Fields{"module": "sacn"}).Warnf("ignoring sACN destination: %v", err)
		}
	}
	levels, err := source.Activate(u)
	if err != nil {
		return nil, fmt.Errorf("%w: add universe %d: %v", dmx.ErrTransport, universe, err)
	}
	return levels, nil
}

func (d *Driver) shutdown() {
	if d.levels != nil {
		close(d.levels)
		d.levels = nil
	}
	d.source = nil
}
