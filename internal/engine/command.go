package engine

import "dmxout/internal/dmx"

// Command is a batch of configuration changes from a host adapter.
// Nil fields are left alone.
type Command struct {
	Protocol *int    `json:"protocol,omitempty"`
	Port     *string `json:"port,omitempty"`
	Universe *int    `json:"universe,omitempty"`
	Rate     *int    `json:"rate,omitempty"`
	Init     bool    `json:"init,omitempty"`
}

// State is the externally visible session configuration.
type State struct {
	Protocol       string `json:"protocol"`
	ProtocolCode   int    `json:"protocolCode"`
	Port           string `json:"port"`
	Universe       int    `json:"universe"`
	Rate           int    `json:"rate"`
	Active         bool   `json:"active"`
	ActiveProtocol string `json:"activeProtocol,omitempty"`
}

// ChannelValue is one channel level.
type ChannelValue struct {
	Channel int   `json:"channel"` // Channel is 1..512.
	Value   uint8 `json:"value"`
}

// Apply applies cmd in the order protocol, port, universe, rate, initialize.
// Every field is validated before anything is staged, so a rejected command
// leaves the configuration as it was. A failed Initialize keeps the staged
// fields and leaves no transport live, as Initialize itself does.
func (s *Session) Apply(cmd Command) error {
	prevProtocol, prevPort := s.Protocol(), s.Port()

	protocol := prevProtocol
	if cmd.Protocol != nil {
		p, err := dmx.ProtocolFromCode(*cmd.Protocol)
		if err != nil {
			return err
		}
		protocol = p
	}
	if cmd.Universe != nil {
		if err := dmx.ValidateUniverse(protocol, *cmd.Universe); err != nil {
			return err
		}
	}
	if cmd.Rate != nil {
		if err := dmx.ValidateRate(*cmd.Rate); err != nil {
			return err
		}
	}

	if cmd.Protocol != nil {
		if err := s.SetProtocol(protocol); err != nil {
			return err
		}
	}
	if cmd.Port != nil {
		s.SetPort(*cmd.Port)
	}
	if cmd.Universe != nil {
		// A live network transport may still refuse the move.
		if err := s.SetUniverse(*cmd.Universe); err != nil {
			s.restage(prevProtocol, prevPort)
			return err
		}
	}
	if cmd.Rate != nil {
		if err := s.SetRate(*cmd.Rate); err != nil {
			s.restage(prevProtocol, prevPort)
			return err
		}
	}
	if cmd.Init {
		return s.Initialize()
	}
	return nil
}

func (s *Session) restage(protocol dmx.Protocol, port string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocol = protocol
	s.port = port
}

// SetChannels stages several levels at once.
func (s *Session) SetChannels(values []ChannelValue) {
	for _, v := range values {
		s.buffer.Set(v.Channel, v.Value)
	}
}

// State returns a copy of the current configuration.
func (s *Session) State() State {
	rate := s.gate.Rate()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Protocol:     s.protocol.String(),
		ProtocolCode: int(s.protocol),
		Port:         s.port,
		Universe:     s.universe,
		Rate:         rate,
		Active:       s.live != nil,
	}
	if s.live != nil {
		st.ActiveProtocol = s.liveProtocol.String()
	}
	return st
}
