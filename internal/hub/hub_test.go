package hub

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

type staticDialer struct{}

func (staticDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

type onceSource struct {
	targets []netaddr.Endpoint
	i       int
}

func (s *onceSource) NextCandidate() (netaddr.Endpoint, bool) {
	if s.i >= len(s.targets) {
		return netaddr.Endpoint{}, false
	}
	ep := s.targets[s.i]
	s.i++
	return ep, true
}

func TestHubAcceptsInboundConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Magic = 0xDEADBEEF
	cfg.ProtocolVersion = protocol.KnownVersion
	cfg.LocalVersionFactory = func(remote netaddr.Endpoint) protocol.Version {
		return protocol.Version{ProtocolVersion: protocol.KnownVersion, Nonce: 1, UserAgent: "/test/"}
	}

	h := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))
	defer h.Stop()

	addr := h.listener.Addr().String()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return h.SessionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnectorLoopDialsCandidates(t *testing.T) {
	target, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer target.Close()
	go func() {
		conn, err := target.Accept()
		if err == nil {
			defer conn.Close()
			time.Sleep(500 * time.Millisecond)
		}
	}()

	ep, err := netaddr.ParseEndpoint(target.Addr().String())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Magic = 0xDEADBEEF
	cfg.ProtocolVersion = protocol.KnownVersion
	cfg.MaxOutboundSessions = 1

	h := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))
	defer h.Stop()

	source := &onceSource{targets: []netaddr.Endpoint{ep}}
	go h.ConnectorLoop(ctx, staticDialer{}, source)

	require.Eventually(t, func() bool {
		return h.outboundCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsOverCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MaxInboundSessions = 0
	cfg.Magic = 0xDEADBEEF
	cfg.ProtocolVersion = protocol.KnownVersion

	h := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))
	defer h.Stop()

	conn, err := net.Dial("tcp", h.listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(buf)
	assert.Error(t, err)
	assert.Equal(t, 0, h.SessionCount())
}
