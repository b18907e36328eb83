package netaddr

import (
	"fmt"
	"net"
	"strconv"

	"github.com/ironpeer/p2pcore/internal/bytestream"
	"github.com/ironpeer/p2pcore/internal/wire"
)

// Endpoint pairs an Address with a TCP port.
type Endpoint struct {
	Address Address
	Port    uint16
}

// ParseEndpoint parses a "host:port" string.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("netaddr: %w", err)
	}
	addr, err := ParseAddress(host)
	if err != nil {
		return Endpoint{}, err
	}
	port, err := parsePort(portStr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("netaddr: invalid port %q: %w", portStr, err)
	}
	return Endpoint{Address: addr, Port: port}, nil
}

// IsValid reports whether the endpoint has a valid address and a port
// strictly between 1 and 65535.
func (e Endpoint) IsValid() bool {
	return e.Address.IsValid() && e.Port > 1 && e.Port < 65535
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Address.IP().String(), strconv.Itoa(int(e.Port)))
}

// WriteEndpoint serializes a 16-byte address followed by a big-endian port,
// matching the layout embedded in version and addr payloads.
func WriteEndpoint(s *bytestream.Stream, e Endpoint) error {
	if err := WriteAddress(s, e.Address); err != nil {
		return err
	}
	return wire.WriteUint16BE(s, e.Port)
}

// ReadEndpoint deserializes an endpoint written by WriteEndpoint.
func ReadEndpoint(s *bytestream.Stream) (Endpoint, error) {
	addr, err := ReadAddress(s)
	if err != nil {
		return Endpoint{}, err
	}
	port, err := wire.ReadUint16BE(s)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Address: addr, Port: port}, nil
}

// TimestampedEndpoint is the addr-message element: an endpoint plus the
// epoch-seconds time at which the reporting peer last saw it active, and
// the services bitmask it advertised.
type TimestampedEndpoint struct {
	Timestamp uint32
	Services  uint64
	Endpoint  Endpoint
}

// WriteTimestampedEndpoint serializes the addr-message wire layout: a
// 4-byte timestamp, 8-byte services bitmask, then the endpoint itself.
func WriteTimestampedEndpoint(s *bytestream.Stream, t TimestampedEndpoint) error {
	if err := wire.WriteUint32(s, t.Timestamp); err != nil {
		return err
	}
	if err := wire.WriteUint64(s, t.Services); err != nil {
		return err
	}
	return WriteEndpoint(s, t.Endpoint)
}

// ReadTimestampedEndpoint deserializes an addr-message element.
func ReadTimestampedEndpoint(s *bytestream.Stream) (TimestampedEndpoint, error) {
	ts, err := wire.ReadUint32(s)
	if err != nil {
		return TimestampedEndpoint{}, err
	}
	services, err := wire.ReadUint64(s)
	if err != nil {
		return TimestampedEndpoint{}, err
	}
	ep, err := ReadEndpoint(s)
	if err != nil {
		return TimestampedEndpoint{}, err
	}
	return TimestampedEndpoint{Timestamp: ts, Services: services, Endpoint: ep}, nil
}
