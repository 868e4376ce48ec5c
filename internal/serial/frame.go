package serial

import (
	"encoding/binary"

	"dmxout/internal/dmx"
)

const (
	startOfMessage = 0x7E
	endOfMessage   = 0xE7
	// labelSendDMX is the "output only send DMX packet" request label.
	labelSendDMX = 0x06

	headerSize = 4
	// ProFrameSize is the length of one framed DMX packet.
	ProFrameSize = headerSize + dmx.FrameSize + 1
)

// EncodeFrame wraps a DMX frame for a buffered USB interface:
// 0x7E, label, length LSB, length MSB, start code + 512 levels, 0xE7.
func EncodeFrame(f dmx.Frame) []byte {
	buf := make([]byte, ProFrameSize)
	buf[0] = startOfMessage
	buf[1] = labelSendDMX
	binary.LittleEndian.PutUint16(buf[2:4], dmx.FrameSize)
	copy(buf[headerSize:], f[:])
	buf[ProFrameSize-1] = endOfMessage
	return buf
}
