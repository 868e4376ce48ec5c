package artnet

import (
	"encoding/binary"

	"dmxout/internal/dmx"
	"github.com/Haba1234/go-artnet"
)

const (
	// OpCodeDMX is the Art-Net operation code for DMX data.
	OpCodeDMX uint16 = 0x5000
	// ProtocolVersion is the Art-Net protocol version.
	ProtocolVersion uint16 = 14
	// headerSize is everything before the DMX data.
	headerSize = 18
	// PacketSize is the total size of an ArtDmx packet carrying a full universe.
	PacketSize = headerSize + dmx.Slots
	// DefaultPort is the standard Art-Net UDP port.
	DefaultPort = 6454
)

// ID is the Art-Net packet identifier.
var ID = []byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

// SplitUniverse decomposes an 8-bit universe into subnet and sub-universe.
func SplitUniverse(universe int) (subnet, subUniverse uint8) {
	return uint8(universe>>4) & 0x0F, uint8(universe) & 0x0F
}

// PortAddress returns the address a port programmed with universe listens on.
func PortAddress(universe int) artnet.Address {
	subnet, uni := SplitUniverse(universe)
	return artnet.Address{Net: 0, SubUni: subnet<<4 | uni}
}

// BuildDMXPacket creates an ArtDmx packet for addr.
// Sequence should increment per packet (1-255); 0 disables sequencing on receivers.
func BuildDMXPacket(addr artnet.Address, sequence, physical byte, levels [dmx.Slots]byte) []byte {
	packet := make([]byte, PacketSize)

	copy(packet[0:8], ID)                                      // ID (8 bytes): "Art-Net\0"
	binary.LittleEndian.PutUint16(packet[8:10], OpCodeDMX)     // OpCode, little endian
	binary.BigEndian.PutUint16(packet[10:12], ProtocolVersion) // Protocol version, big endian
	packet[12] = sequence
	packet[13] = physical
	packet[14] = addr.SubUni     // SubUni: subnet in the high nibble
	packet[15] = addr.Net & 0x7F // Net: bits 14-8 of the port address
	binary.BigEndian.PutUint16(packet[16:18], uint16(dmx.Slots))
	copy(packet[headerSize:], levels[:])

	return packet
}
