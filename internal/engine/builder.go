package engine

import (
	"fmt"

	"dmxout/internal/artnet"
	"dmxout/internal/dmx"
	"dmxout/internal/logger"
	"dmxout/internal/sacn"
	"dmxout/internal/serial"
)

// Drivers holds what the concrete transports are built from.
type Drivers struct {
	SerialOpener serial.Opener

	SACN        sacn.Options
	SACNSources sacn.SourceFactory

	ArtNet      artnet.Options
	ArtNetNodes artnet.NodeFactory
	ArtNetDial  artnet.Dialer
}

// Builder returns a Builder for the four transports.
func (d Drivers) Builder(log logger.Logger) Builder {
	if d.ArtNetNodes == nil {
		d.ArtNetNodes = artnet.NewNodeFactory(log, artnet.DefaultAddressRange)
	}
	if d.ArtNetDial == nil {
		d.ArtNetDial = artnet.NewBroadcastDialer("255.255.255.255", artnet.DefaultPort)
	}
	return func(p dmx.Protocol, s dmx.Settings) (dmx.Transport, error) {
		switch p {
		case dmx.RawSerial:
			return serial.NewDriver(log, serial.Raw, s.Port, d.SerialOpener, s.Gate), nil
		case dmx.BufferedSerial:
			return serial.NewDriver(log, serial.Buffered, s.Port, d.SerialOpener, s.Gate), nil
		case dmx.SACN:
			return sacn.NewDriver(log, d.SACN, s.Universe, d.SACNSources, s.Gate), nil
		case dmx.ArtNet:
			return artnet.NewDriver(log, d.ArtNet, s.Universe, d.ArtNetNodes, d.ArtNetDial, s.Gate), nil
		default:
			return nil, fmt.Errorf("%w: invalid protocol %d", dmx.ErrInvalidArgument, int(p))
		}
	}
}
