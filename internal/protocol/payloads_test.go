package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpeer/p2pcore/internal/netaddr"
)

func TestVersionRoundTrip(t *testing.T) {
	recv, err := netaddr.ParseEndpoint("8.8.8.8:8233")
	require.NoError(t, err)
	from, err := netaddr.ParseEndpoint("1.1.1.1:8233")
	require.NoError(t, err)

	in := Version{
		ProtocolVersion: KnownVersion,
		Services:        1,
		Timestamp:       1700000000,
		AddrRecv:        recv,
		AddrFrom:        from,
		Nonce:           0xA5A5A5A5A5A5A5A5,
		UserAgent:       "/p2pcore:0.1.0/",
		StartHeight:     123456,
		Relay:           true,
	}
	payload, err := in.Encode()
	require.NoError(t, err)

	out, err := DecodeVersion(payload)
	require.NoError(t, err)
	assert.Equal(t, in.ProtocolVersion, out.ProtocolVersion)
	assert.Equal(t, in.UserAgent, out.UserAgent)
	assert.Equal(t, in.StartHeight, out.StartHeight)
	assert.True(t, out.Relay)
}

func TestAddrRoundTrip(t *testing.T) {
	ep, err := netaddr.ParseEndpoint("9.9.9.9:8233")
	require.NoError(t, err)
	in := Addr{Entries: []netaddr.TimestampedEndpoint{{Timestamp: 1, Services: 1, Endpoint: ep}}}

	payload, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeAddr(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestInventoryRejectsDuplicate(t *testing.T) {
	item := InventoryItem{Type: InvTx, Hash: [32]byte{1}}
	in := Inventory{Items: []InventoryItem{item, item}}
	payload, err := in.Encode()
	require.NoError(t, err)

	_, err = DecodeInv(payload)
	assert.ErrorIs(t, err, ErrDuplicateItem)
}

func TestGetHeadersRoundTrip(t *testing.T) {
	in := GetHeaders{
		ProtocolVersion: KnownVersion,
		Locator:         [][32]byte{{1}, {2}},
		HashStop:        [32]byte{},
	}
	payload, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeGetHeaders(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestHeadersRoundTrip(t *testing.T) {
	in := Headers{Items: []BlockHeader{{Raw: [80]byte{1, 2, 3}}}}
	payload, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeHeaders(payload)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRejectRoundTrip(t *testing.T) {
	in := Reject{Message: CmdVersion, Code: RejectObsolete, Reason: "obsolete version", Data: nil}
	payload, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeReject(payload)
	require.NoError(t, err)
	assert.Equal(t, in.Message, out.Message)
	assert.Equal(t, in.Code, out.Code)
	assert.Equal(t, in.Reason, out.Reason)
	assert.Empty(t, out.Data)
}

func TestRejectRoundTripWithHash(t *testing.T) {
	in := Reject{Message: CmdGetData, Code: RejectNonStandard, Reason: "not found", Data: make([]byte, 32)}
	payload, err := in.Encode()
	require.NoError(t, err)
	out, err := DecodeReject(payload)
	require.NoError(t, err)
	assert.Equal(t, in.Data, out.Data)
}
