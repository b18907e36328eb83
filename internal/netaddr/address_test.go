package netaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpeer/p2pcore/internal/bytestream"
)

func TestAddressReservationIPv4(t *testing.T) {
	cases := []struct {
		addr string
		want Reservation
	}{
		{"10.0.0.1", RFC1918},
		{"172.16.0.1", RFC1918},
		{"192.168.1.1", RFC1918},
		{"192.18.0.1", RFC2544},
		{"100.64.0.1", RFC6598},
		{"192.0.2.1", RFC5737},
		{"198.51.100.1", RFC5737},
		{"203.0.113.1", RFC5737},
		{"169.254.0.1", RFC3927},
		{"8.8.8.8", NotReserved},
	}
	for _, c := range cases {
		a, err := ParseAddress(c.addr)
		require.NoError(t, err)
		assert.Equal(t, c.want, a.Reservation(), "address %s", c.addr)
	}
}

func TestAddressReservationIPv6(t *testing.T) {
	cases := []struct {
		addr string
		want Reservation
	}{
		{"2001:db8::1", RFC3849},
		{"2002::1", RFC3964},
		{"fc00::1", RFC4193},
		{"fd00::1", RFC4193},
		{"2001::1", RFC4380},
		{"fe80::1", RFC4862},
		{"64:ff9b::1", RFC6052},
		{"2606:4700:4700::1111", NotReserved},
	}
	for _, c := range cases {
		a, err := ParseAddress(c.addr)
		require.NoError(t, err)
		assert.Equal(t, c.want, a.Reservation(), "address %s", c.addr)
	}
}

func TestAddressIsRoutable(t *testing.T) {
	priv, err := ParseAddress("192.168.0.1")
	require.NoError(t, err)
	assert.False(t, priv.IsRoutable())

	pub, err := ParseAddress("8.8.8.8")
	require.NoError(t, err)
	assert.True(t, pub.IsRoutable())

	loop, err := ParseAddress("127.0.0.1")
	require.NoError(t, err)
	assert.False(t, loop.IsRoutable())
}

func TestAddressWireRoundTrip(t *testing.T) {
	a, err := ParseAddress("8.8.4.4")
	require.NoError(t, err)

	s := bytestream.New()
	require.NoError(t, WriteAddress(s, a))
	assert.Equal(t, 16, s.Size())

	got, err := ReadAddress(s)
	require.NoError(t, err)
	assert.True(t, got.IsIPv4())
	assert.Equal(t, a.IP().String(), got.IP().String())
}

func TestAddressWireRoundTripIPv6(t *testing.T) {
	a, err := ParseAddress("2606:4700:4700::1111")
	require.NoError(t, err)

	s := bytestream.New()
	require.NoError(t, WriteAddress(s, a))
	got, err := ReadAddress(s)
	require.NoError(t, err)
	assert.False(t, got.IsIPv4())
	assert.Equal(t, a.IP().String(), got.IP().String())
}
