package netaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubnetContains(t *testing.T) {
	sn, err := ParseSubnet("192.168.0.0/16")
	require.NoError(t, err)

	in, err := ParseAddress("192.168.5.5")
	require.NoError(t, err)
	assert.True(t, sn.Contains(in))

	out, err := ParseAddress("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, sn.Contains(out))
}

func TestSubnetHostRoute(t *testing.T) {
	sn, err := ParseSubnet("8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, uint8(32), sn.PrefixLen)
	assert.True(t, sn.IsValid())
}

func TestSubnetInvalidPrefix(t *testing.T) {
	_, err := ParseSubnet("10.0.0.0/33")
	assert.Error(t, err)
}

func TestSubnetFamilyMismatch(t *testing.T) {
	sn, err := ParseSubnet("10.0.0.0/8")
	require.NoError(t, err)
	v6, err := ParseAddress("::1")
	require.NoError(t, err)
	assert.False(t, sn.Contains(v6))
}
