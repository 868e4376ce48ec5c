package dmx

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol selects the output transport. The numeric values are part of the
// external interface.
type Protocol int

const (
	RawSerial Protocol = iota
	BufferedSerial
	SACN
	ArtNet
)

const (
	// MinSACNUniverse and MaxSACNUniverse bound E1.31 universe numbers.
	MinSACNUniverse = 1
	MaxSACNUniverse = 63999
	// MaxArtNetUniverse is the largest universe expressible as subnet + sub-universe.
	MaxArtNetUniverse = 0xFF
	// DefaultUniverse is used until a universe is configured.
	DefaultUniverse = 1
)

var protocolNames = map[Protocol]string{
	RawSerial:      "raw-serial",
	BufferedSerial: "serial",
	SACN:           "sacn",
	ArtNet:         "artnet",
}

func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(p)) + ")"
}

// Valid reports whether p is one of the four known protocols.
func (p Protocol) Valid() bool {
	_, ok := protocolNames[p]
	return ok
}

// IsSerial reports whether p writes to a serial line.
func (p Protocol) IsSerial() bool {
	return p == RawSerial || p == BufferedSerial
}

// ProtocolFromCode converts an external protocol code (0..3).
func ProtocolFromCode(code int) (Protocol, error) {
	p := Protocol(code)
	if !p.Valid() {
		return 0, fmt.Errorf("%w: invalid protocol %d, valid values: 0=raw-serial, 1=serial, 2=sacn, 3=artnet",
			ErrInvalidArgument, code)
	}
	return p, nil
}

// ParseProtocol accepts either a protocol name or its numeric code.
func ParseProtocol(s string) (Protocol, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range protocolNames {
		if s == name {
			return p, nil
		}
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown protocol %q", ErrInvalidArgument, s)
	}
	return ProtocolFromCode(code)
}

// UnmarshalText lets configuration files name the protocol.
func (p *Protocol) UnmarshalText(text []byte) error {
	v, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ValidateUniverse checks u against the range the protocol can address.
// Serial protocols have no universe.
func ValidateUniverse(p Protocol, u int) error {
	switch p {
	case SACN:
		if u < MinSACNUniverse || u > MaxSACNUniverse {
			return fmt.Errorf("%w: sACN universe must be between %d and %d, got %d",
				ErrInvalidArgument, MinSACNUniverse, MaxSACNUniverse, u)
		}
	case ArtNet:
		if u < 0 || u > MaxArtNetUniverse {
			return fmt.Errorf("%w: Art-Net universe must be between 0 and %d, got %d",
				ErrInvalidArgument, MaxArtNetUniverse, u)
		}
	default:
		return fmt.Errorf("%w: universe is not used by protocol %s", ErrInvalidState, p)
	}
	return nil
}
