// Package engine is the DMX output session: it owns the frame buffer, the
// rate gate and at most one live transport.
//
// Setters validate and stage configuration. Initialize is the only call that
// builds or replaces a transport; SetUniverse additionally moves a live
// network transport to the new universe in place.
//
// Locking: the buffer has its own lock, the session lock guards configuration
// and the live transport pointer, each transport guards its own handle. Send
// snapshots the buffer before taking the session lock and calls Transmit after
// releasing it.
package engine

import (
	"fmt"
	"sync"

	"dmxout/internal/dmx"
	"dmxout/internal/logger"
)

// Builder constructs an unopened transport for a protocol.
type Builder func(p dmx.Protocol, s dmx.Settings) (dmx.Transport, error)

// Session is the output engine.
type Session struct {
	log    logger.Logger
	build  Builder
	buffer *dmx.Buffer
	gate   *dmx.RateGate

	mu           sync.Mutex
	protocol     dmx.Protocol
	universe     int
	port         string
	live         dmx.Transport
	liveProtocol dmx.Protocol
}

// New конструктор.
func New(log logger.Logger, build Builder) *Session {
	return NewWithGate(log, build, dmx.NewRateGate())
}

// NewWithGate uses the given rate gate, e.g. one with a test clock.
func NewWithGate(log logger.Logger, build Builder, gate *dmx.RateGate) *Session {
	return &Session{
		log:      log,
		build:    build,
		buffer:   dmx.NewBuffer(),
		gate:     gate,
		protocol: dmx.BufferedSerial,
		universe: dmx.DefaultUniverse,
	}
}

// SetChannel stages a level for the next Send. Valid in any state; channels
// outside 1..512 are ignored.
func (s *Session) SetChannel(channel int, value uint8) {
	s.buffer.Set(channel, value)
}

// Channel returns the staged level of a channel.
func (s *Session) Channel(channel int) uint8 {
	return s.buffer.Get(channel)
}

// Rate returns the refresh rate in Hz.
func (s *Session) Rate() int {
	return s.gate.Rate()
}

// SetRate sets the refresh rate, 1..44 Hz.
func (s *Session) SetRate(hz int) error {
	return s.gate.SetRate(hz)
}

// Protocol returns the staged protocol.
func (s *Session) Protocol() dmx.Protocol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocol
}

// SetProtocol stages p for the next Initialize.
func (s *Session) SetProtocol(p dmx.Protocol) error {
	if !p.Valid() {
		return fmt.Errorf("%w: invalid protocol %d", dmx.ErrInvalidArgument, int(p))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocol = p
	return nil
}

// Port returns the staged serial port name.
func (s *Session) Port() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// SetPort stages the serial port name for the next Initialize.
func (s *Session) SetPort(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = name
}

// Universe returns the configured universe.
func (s *Session) Universe() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.universe
}

// SetUniverse sets the universe for sACN or Art-Net. It is validated against
// the staged protocol and fails with ErrInvalidState while a serial protocol
// is staged. A live network
// transport is reconfigured in place; if that fails the universe is unchanged.
func (s *Session) SetUniverse(universe int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := dmx.ValidateUniverse(s.protocol, universe); err != nil {
		return err
	}
	if setter, ok := s.live.(dmx.UniverseSetter); ok && s.liveProtocol == s.protocol {
		if err := setter.SetUniverse(universe); err != nil {
			return err
		}
	}
	s.universe = universe
	return nil
}

// Active reports whether a transport is live and which protocol it speaks.
func (s *Session) Active() (dmx.Protocol, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveProtocol, s.live != nil
}

// Initialize tears down the live transport and brings up the one for the
// staged protocol. On failure no transport is live.
func (s *Session) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardown()

	log := s.log.With(logger.Fields{"module": "engine"})
	t, err := s.build(s.protocol, dmx.Settings{
		Port:     s.port,
		Universe: s.universe,
		Gate:     s.gate,
	})
	if err != nil {
		return err
	}
	if err := t.Open(); err != nil {
		t.Close()
		log.Errorf("initialize %s failed: %v", s.protocol, err)
		return err
	}

	s.live = t
	s.liveProtocol = s.protocol
	s.gate.Reset()
	log.Infof("%s output initialized", s.protocol)
	return nil
}

// Send transmits a snapshot of the buffer on the live transport, subject to
// the rate gate. It never fails: transport errors are logged and recovered by
// the transport itself.
func (s *Session) Send() {
	frame := s.buffer.Snapshot()

	s.mu.Lock()
	t := s.live
	s.mu.Unlock()

	if t == nil {
		return
	}
	t.Transmit(frame)
}

// Close releases the live transport. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

func (s *Session) teardown() {
	if s.live == nil {
		return
	}
	s.live.Close()
	s.live = nil
	s.log.With(logger.Fields{"module": "engine"}).Debugf("%s output closed", s.liveProtocol)
}
