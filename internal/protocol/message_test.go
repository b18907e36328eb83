package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpeer/p2pcore/internal/bytestream"
	"github.com/ironpeer/p2pcore/internal/wire"
)

const testMagic = 0x5A434153

func TestMessageWriteAndParse(t *testing.T) {
	ping, err := Ping{Nonce: 42}.Encode()
	require.NoError(t, err)
	msg := NewMessage(testMagic, CmdPing, ping)

	p := NewParser(testMagic)
	require.NoError(t, msg.Write(p.buf))

	got, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, CmdPing, got.Header.Command)

	decoded, err := DecodePing(got.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), decoded.Nonce)
}

func TestParserFeedsInChunks(t *testing.T) {
	payload, err := Pong{Nonce: 7}.Encode()
	require.NoError(t, err)
	msg := NewMessage(testMagic, CmdPong, payload)

	full := serializeMessage(t, msg)

	p := NewParser(testMagic)
	require.NoError(t, p.Feed(full[:10]))
	_, err = p.Next()
	assert.ErrorIs(t, err, ErrHeaderIncomplete)

	require.NoError(t, p.Feed(full[10:20]))
	_, err = p.Next()
	assert.True(t, IsRecoverable(err))

	require.NoError(t, p.Feed(full[20:]))
	got, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, CmdPong, got.Header.Command)
}

func TestMessageChecksumMismatch(t *testing.T) {
	payload, err := Ping{Nonce: 1}.Encode()
	require.NoError(t, err)
	msg := NewMessage(testMagic, CmdPing, payload)
	msg.Header.Checksum[0] ^= 0xFF

	p := NewParser(testMagic)
	require.NoError(t, msg.Write(p.buf))
	_, err = p.Next()
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestParserRejectsWrongMagic(t *testing.T) {
	msg := NewMessage(0x11223344, CmdVerAck, nil)

	p := NewParser(testMagic)
	require.NoError(t, msg.Write(p.buf))
	_, err := p.Next()
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestValidateUnknownCommand(t *testing.T) {
	msg := NewMessage(testMagic, "bogus", nil)
	err := msg.Validate(KnownVersion)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestValidatePayloadTooShort(t *testing.T) {
	msg := NewMessage(testMagic, CmdPing, []byte{1, 2, 3})
	err := msg.Validate(KnownVersion)
	assert.ErrorIs(t, err, ErrPayloadTooShort)
}

func TestValidateTooManyItems(t *testing.T) {
	// Declares one item over the inv limit but carries a single item, so the
	// payload stays under the registry's length bound and the count check is
	// the one that fires.
	s := bytestream.New()
	require.NoError(t, wire.WriteCompact(s, 50001))
	require.NoError(t, writeInventoryItem(s, InventoryItem{Type: InvTx}))
	msg := NewMessage(testMagic, CmdInv, s.Bytes())
	err := msg.Validate(KnownVersion)
	assert.ErrorIs(t, err, ErrTooManyItems)
}

func TestDrainAllFloodGuard(t *testing.T) {
	p := NewParser(testMagic)
	payload, err := Ping{Nonce: 1}.Encode()
	require.NoError(t, err)
	for i := 0; i < MaxMessagesPerRead+5; i++ {
		msg := NewMessage(testMagic, CmdPing, payload)
		require.NoError(t, msg.Write(p.buf))
	}
	got, err := p.DrainAll()
	assert.ErrorIs(t, err, ErrTooManyMessages)
	assert.Len(t, got, MaxMessagesPerRead, "the 33rd message must be rejected, not delivered")
}

func TestValidateEmptyVector(t *testing.T) {
	s := bytestream.New()
	require.NoError(t, wire.WriteCompact(s, 0))
	msg := NewMessage(testMagic, CmdInv, s.Bytes())
	err := msg.Validate(KnownVersion)
	assert.ErrorIs(t, err, ErrEmptyVector)
}

func TestValidateLengthMismatchesVectorSize(t *testing.T) {
	// Declares 2 items but only supplies enough trailing bytes for 1.
	s := bytestream.New()
	require.NoError(t, wire.WriteCompact(s, 2))
	require.NoError(t, writeInventoryItem(s, InventoryItem{Type: InvTx}))
	msg := NewMessage(testMagic, CmdInv, s.Bytes())
	err := msg.Validate(KnownVersion)
	assert.ErrorIs(t, err, ErrLengthMismatchesVectorSize)
}

func TestValidateGetHeadersAccountsForHashStop(t *testing.T) {
	payload, err := GetHeaders{
		ProtocolVersion: KnownVersion,
		Locator:         [][32]byte{{1}},
	}.Encode()
	require.NoError(t, err)
	msg := NewMessage(testMagic, CmdGetHeaders, payload)
	assert.NoError(t, msg.Validate(KnownVersion))
}

// serializeMessage is a test helper that writes msg to a scratch stream and
// returns the resulting bytes.
func serializeMessage(t *testing.T, msg *Message) []byte {
	t.Helper()
	p := NewParser(testMagic)
	require.NoError(t, msg.Write(p.buf))
	return p.buf.ReadAll()
}
