package dmx

import "sync"

const (
	// Slots is the number of channel levels in one universe.
	Slots = 512
	// FrameSize is the start code plus all channel levels.
	FrameSize = Slots + 1
	// StartCode is the null start code of a dimmer frame.
	StartCode = 0x00
)

// Frame is a complete DMX512 frame: index 0 is the start code, 1..512 are levels.
type Frame [FrameSize]byte

// Levels returns the 512 channel levels without the start code.
func (f Frame) Levels() [Slots]byte {
	var levels [Slots]byte
	copy(levels[:], f[1:])
	return levels
}

// Buffer holds the frame shared between the control and data paths.
// Its lock is independent of any session state.
type Buffer struct {
	mu    sync.Mutex
	frame Frame
}

// NewBuffer конструктор.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.frame[0] = StartCode
	return b
}

// Set stores value at channel (1..512). Channels out of range are ignored.
func (b *Buffer) Set(channel int, value uint8) {
	if channel < 1 || channel > Slots {
		return
	}
	b.mu.Lock()
	b.frame[channel] = value
	b.mu.Unlock()
}

// Get returns the level of a channel, 0 when out of range.
func (b *Buffer) Get(channel int) uint8 {
	if channel < 1 || channel > Slots {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame[channel]
}

// Snapshot returns a full copy of the frame taken under the lock.
func (b *Buffer) Snapshot() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}
