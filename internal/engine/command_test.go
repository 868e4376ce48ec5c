package engine

import (
	"errors"
	"testing"

	"dmxout/internal/dmx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestApply(t *testing.T) {
	r := newRig()
	s := r.session

	err := s.Apply(Command{
		Protocol: intPtr(2),
		Universe: intPtr(100),
		Rate:     intPtr(25),
		Init:     true,
	})
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, State{
		Protocol:       "sacn",
		ProtocolCode:   2,
		Universe:       100,
		Rate:           25,
		Active:         true,
		ActiveProtocol: "sacn",
	}, st)
	assert.Contains(t, r.sources[0].chans, uint16(100))
}

func TestApplyRejectsWholeCommand(t *testing.T) {
	s := newRig().session

	err := s.Apply(Command{Protocol: intPtr(9), Rate: intPtr(10)})
	assert.True(t, errors.Is(err, dmx.ErrInvalidArgument))
	assert.Equal(t, 44, s.Rate())

	err = s.Apply(Command{Port: strPtr("COM3"), Universe: intPtr(3), Rate: intPtr(10)})
	assert.True(t, errors.Is(err, dmx.ErrInvalidState), "universe on serial")
	assert.Equal(t, "", s.Port())
	assert.Equal(t, 44, s.Rate())

	require.NoError(t, s.Apply(Command{Protocol: intPtr(2), Universe: intPtr(40)}))
	err = s.Apply(Command{Protocol: intPtr(0), Universe: intPtr(3)})
	assert.True(t, errors.Is(err, dmx.ErrInvalidState))
	assert.Equal(t, dmx.SACN, s.Protocol())
	assert.Equal(t, 40, s.Universe())

	err = s.Apply(Command{Protocol: intPtr(3), Port: strPtr("COM4"), Universe: intPtr(7), Rate: intPtr(45)})
	assert.True(t, errors.Is(err, dmx.ErrInvalidArgument))
	assert.Equal(t, dmx.SACN, s.Protocol())
	assert.Equal(t, "", s.Port())
	assert.Equal(t, 40, s.Universe())
}

func TestApplyUniverseAgainstNewProtocol(t *testing.T) {
	s := newRig().session
	require.NoError(t, s.Apply(Command{Protocol: intPtr(3), Universe: intPtr(0)}))
	assert.Equal(t, dmx.ArtNet, s.Protocol())
	assert.Equal(t, 0, s.Universe())
}

func TestApplyInitFailure(t *testing.T) {
	r := newRig()
	r.openFail = true
	err := r.session.Apply(Command{Port: strPtr("/dev/ttyUSB0"), Init: true})
	assert.True(t, errors.Is(err, dmx.ErrTransport))
	assert.False(t, r.session.State().Active)
}

func TestSetChannels(t *testing.T) {
	s := newRig().session
	s.SetChannels([]ChannelValue{{Channel: 1, Value: 10}, {Channel: 512, Value: 20}, {Channel: 600, Value: 1}})
	assert.Equal(t, uint8(10), s.Channel(1))
	assert.Equal(t, uint8(20), s.Channel(512))
}
