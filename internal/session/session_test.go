package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpeer/p2pcore/internal/netaddr"
	"github.com/ironpeer/p2pcore/internal/protocol"
)

const testMagic = 0xCAFEBABE

func newPipePair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	return a, b
}

func testVersion() protocol.Version {
	return testVersionWithNonce(123)
}

func testVersionWithNonce(nonce uint64) protocol.Version {
	ep, _ := netaddr.ParseEndpoint("1.2.3.4:8233")
	return protocol.Version{
		ProtocolVersion: protocol.KnownVersion,
		Services:        1,
		Timestamp:       time.Now().Unix(),
		AddrRecv:        ep,
		AddrFrom:        ep,
		Nonce:           nonce,
		UserAgent:       "/test:0.1/",
		StartHeight:     0,
		Relay:           true,
	}
}

func TestHandshakeCompletesBothSides(t *testing.T) {
	connA, connB := newPipePair(t)

	var gotA, gotB []*protocol.Message
	a := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion,
		OnMessage: func(s *Session, m *protocol.Message) { gotA = append(gotA, m) }})
	b := New(Config{Conn: connB, Direction: DirectionInbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion,
		OnMessage: func(s *Session, m *protocol.Message) { gotB = append(gotB, m) }})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	b.Start(ctx)
	defer a.Stop()
	defer b.Stop()

	require.NoError(t, a.SendVersion(testVersionWithNonce(111)))
	require.NoError(t, b.SendVersion(testVersionWithNonce(222)))

	require.Eventually(t, func() bool {
		return a.FullyConnected() && b.FullyConnected()
	}, 2*time.Second, 10*time.Millisecond)

	_ = gotA
	_ = gotB
}

func TestIsIdleHandshakeTimeout(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	s.connectedAt = time.Now().Add(-time.Hour)

	result := s.IsIdle(time.Now(), DefaultTimeouts)
	assert.Equal(t, ProtocolHandshakeTimeout, result)
}

func TestPushMessageQueuesBytes(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	msg := protocol.NewMessage(testMagic, protocol.CmdGetAddr, nil)
	ok, err := s.PushMessage(msg, PriorityNormal)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTraceIDsAreUniquePerSession(t *testing.T) {
	connA, _ := newPipePair(t)
	connC, _ := newPipePair(t)
	a := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	b := New(Config{Conn: connC, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})

	assert.NotEmpty(t, a.TraceID())
	assert.NotEqual(t, a.TraceID(), b.TraceID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestOnPingAnswersWithPong(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})

	payload, err := protocol.Ping{Nonce: 99}.Encode()
	require.NoError(t, err)
	s.onPing(protocol.NewMessage(testMagic, protocol.CmdPing, payload))

	select {
	case item := <-s.queue.high:
		pong, err := protocol.DecodePong(item.data[protocol.HeaderSize:])
		require.NoError(t, err)
		assert.Equal(t, uint64(99), pong.Nonce)
	default:
		t.Fatal("expected a pong to be queued at high priority")
	}
}

func TestOnRemoteVersionRejectsConnectedToSelf(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	require.NoError(t, s.SendVersion(testVersionWithNonce(555)))

	payload, err := testVersionWithNonce(555).Encode()
	require.NoError(t, err)
	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdVersion, payload))

	select {
	case <-s.Done():
	default:
		t.Fatal("expected session to stop on self-connect")
	}
}

func TestOnRemoteVersionRejectsUnsupportedProtocolVersion(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	require.NoError(t, s.SendVersion(testVersionWithNonce(1)))

	v := testVersionWithNonce(2)
	v.ProtocolVersion = protocol.MinSupportedProtocolVersion - 1
	payload, err := v.Encode()
	require.NoError(t, err)
	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdVersion, payload))

	select {
	case <-s.Done():
	default:
		t.Fatal("expected session to stop on unsupported protocol version")
	}
}

func TestDuplicateHandshakeRejected(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	require.NoError(t, s.SendVersion(testVersionWithNonce(1)))

	payload, err := testVersionWithNonce(2).Encode()
	require.NoError(t, err)
	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdVersion, payload))
	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdVerAck, nil))
	require.True(t, s.HandshakeStatus().IsComplete())

	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdVerAck, nil))

	select {
	case <-s.Done():
	default:
		t.Fatal("expected session to stop on duplicate handshake message")
	}
}

func TestMessageBeforeHandshakeIsFatal(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})

	payload, err := protocol.Ping{Nonce: 1}.Encode()
	require.NoError(t, err)
	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdPing, payload))

	select {
	case <-s.Done():
	default:
		t.Fatal("expected session to stop when a non-handshake message arrives early")
	}
}

func TestInboundGetAddrHonoredOnce(t *testing.T) {
	connA, _ := newPipePair(t)
	var got int
	s := New(Config{Conn: connA, Direction: DirectionInbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion,
		OnMessage: func(*Session, *protocol.Message) { got++ }})

	getaddr := protocol.NewMessage(testMagic, protocol.CmdGetAddr, nil)
	s.onGetAddr(getaddr)
	s.onGetAddr(getaddr)

	assert.Equal(t, 1, got)
}

func TestUnsolicitedPongIsFatal(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})

	payload, err := protocol.Pong{Nonce: 1}.Encode()
	require.NoError(t, err)
	s.onPong(protocol.NewMessage(testMagic, protocol.CmdPong, payload))

	select {
	case <-s.Done():
	default:
		t.Fatal("expected session to stop on unsolicited pong")
	}
}

func TestPongNonceMismatchIsFatal(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	s.pendingPingSentAt.Store(time.Now().UnixNano())
	s.pendingPingNonce.Store(7)

	payload, err := protocol.Pong{Nonce: 8}.Encode()
	require.NoError(t, err)
	s.onPong(protocol.NewMessage(testMagic, protocol.CmdPong, payload))

	select {
	case <-s.Done():
	default:
		t.Fatal("expected session to stop on ping/pong nonce mismatch")
	}
}

func TestHandshakeCompletionQueuesExactlyOneGetAddrWhenOutbound(t *testing.T) {
	connA, _ := newPipePair(t)
	s := New(Config{Conn: connA, Direction: DirectionOutbound, Magic: testMagic, ProtocolVersion: protocol.KnownVersion})
	require.NoError(t, s.SendVersion(testVersionWithNonce(1)))

	payload, err := testVersionWithNonce(2).Encode()
	require.NoError(t, err)
	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdVersion, payload))
	s.onMessageFramed(protocol.NewMessage(testMagic, protocol.CmdVerAck, nil))

	require.True(t, s.HandshakeStatus().IsComplete())
	assert.Len(t, s.queue.normal, 1, "exactly one getaddr should be queued on handshake completion")
}

