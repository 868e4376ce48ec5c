package dmx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolFromCode(t *testing.T) {
	for code, want := range []Protocol{RawSerial, BufferedSerial, SACN, ArtNet} {
		p, err := ProtocolFromCode(code)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	}

	for _, code := range []int{-1, 4, 99} {
		_, err := ProtocolFromCode(code)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "code %d", code)
	}
}

func TestParseProtocol(t *testing.T) {
	tests := map[string]Protocol{
		"raw-serial": RawSerial,
		"serial":     BufferedSerial,
		" SACN ":     SACN,
		"artnet":     ArtNet,
		"0":          RawSerial,
		"3":          ArtNet,
	}
	for in, want := range tests {
		got, err := ParseProtocol(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseProtocol("dmx-over-carrier-pigeon")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestProtocolText(t *testing.T) {
	var p Protocol
	require.NoError(t, p.UnmarshalText([]byte("artnet")))
	assert.Equal(t, ArtNet, p)

	text, err := SACN.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "sacn", string(text))
	assert.Equal(t, "unknown(7)", Protocol(7).String())
}

func TestValidateUniverse(t *testing.T) {
	assert.NoError(t, ValidateUniverse(SACN, 1))
	assert.NoError(t, ValidateUniverse(SACN, 63999))
	assert.True(t, errors.Is(ValidateUniverse(SACN, 0), ErrInvalidArgument))
	assert.True(t, errors.Is(ValidateUniverse(SACN, 64000), ErrInvalidArgument))

	assert.NoError(t, ValidateUniverse(ArtNet, 0))
	assert.NoError(t, ValidateUniverse(ArtNet, 255))
	assert.True(t, errors.Is(ValidateUniverse(ArtNet, 256), ErrInvalidArgument))

	assert.True(t, errors.Is(ValidateUniverse(RawSerial, 1), ErrInvalidState))
	assert.True(t, errors.Is(ValidateUniverse(BufferedSerial, 1), ErrInvalidState))
}
