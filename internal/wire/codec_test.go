package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpeer/p2pcore/internal/bytestream"
)

func TestScalarRoundTrip(t *testing.T) {
	s := bytestream.New()
	require.NoError(t, WriteUint32(s, 0xDEADBEEF))
	require.NoError(t, WriteInt64(s, -12345))
	require.NoError(t, WriteBool(s, true))

	v32, err := ReadUint32(s)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v32)

	v64, err := ReadInt64(s)
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), v64)

	vb, err := ReadBool(s)
	require.NoError(t, err)
	assert.True(t, vb)
}

func TestCompactSizeRoundTrip(t *testing.T) {
	cases := []uint64{0, 0xFC, 0xFD, 0xFFFF, 0x10000, 0xFFFFFFFF, 0x100000000, MaxSerializedCompactSize}
	for _, v := range cases {
		s := bytestream.New()
		require.NoError(t, WriteCompact(s, v))
		got, err := ReadCompact(s)
		require.NoError(t, err)
		assert.Equal(t, v, got, "round trip for %d", v)
		assert.Equal(t, 0, s.Avail())
	}
}

func TestCompactSizeNonCanonical(t *testing.T) {
	// 0xFD followed by 0x0000 encodes 0, which fits in the 1-byte form.
	s := bytestream.FromBytes([]byte{0xFD, 0x00, 0x00})
	_, err := ReadCompact(s)
	assert.ErrorIs(t, err, ErrNonCanonicalCompact)
}

func TestCompactSizeTooBig(t *testing.T) {
	s := bytestream.New()
	require.NoError(t, WriteCompact(s, MaxSerializedCompactSize+1))
	_, err := ReadCompact(s)
	assert.ErrorIs(t, err, ErrCompactSizeTooBig)
}

func TestVarBytesRoundTrip(t *testing.T) {
	s := bytestream.New()
	payload := []byte("hello, wire")
	require.NoError(t, WriteVarBytes(s, payload))
	got, err := ReadVarBytes(s)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestBoundedStringRejectsOversize(t *testing.T) {
	s := bytestream.New()
	big := make([]byte, MaxStringLength+1)
	require.NoError(t, WriteString(s, string(big)))
	_, err := ReadBoundedString(s, MaxStringLength)
	assert.ErrorIs(t, err, ErrStringTooBig)
}

func TestVectorRoundTrip(t *testing.T) {
	s := bytestream.New()
	items := []uint32{1, 2, 3, 4}
	require.NoError(t, WriteVector(s, items, WriteUint32))
	got, err := ReadVector(s, ReadUint32)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}
