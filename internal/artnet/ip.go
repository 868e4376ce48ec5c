package artnet

import (
	"errors"
	"fmt"
	"net"
)

// DefaultAddressRange is the primary Art-Net network.
const DefaultAddressRange = "2.0.0.0/8"

// FindArtNetIP finds the matching interface with an IPv4 address inside addressRange.
func FindArtNetIP(addressRange string) (net.IP, error) {
	if addressRange == "" {
		addressRange = DefaultAddressRange
	}
	_, cidrNet, err := net.ParseCIDR(addressRange)
	if err != nil {
		return nil, fmt.Errorf("invalid Art-Net address range %q: %w", addressRange, err)
	}
	address, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("error getting ips: %w", err)
	}
	return matchIP(cidrNet, address)
}

func matchIP(cidrNet *net.IPNet, address []net.Addr) (net.IP, error) {
	for _, addr := range address {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		if cidrNet.Contains(ip) {
			return ip, nil
		}
	}
	return nil, errors.New("no interface found in " + cidrNet.String())
}
