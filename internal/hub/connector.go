package hub

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/ironpeer/p2pcore/internal/netaddr"
	"github.com/ironpeer/p2pcore/internal/session"
)

// Dialer abstracts the outbound transport so callers can plug in a SOCKS5
// proxy dialer without the hub knowing about it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// CandidateSource supplies outbound dial targets on demand, e.g. from a
// peer address book or DNS seed resolution.
type CandidateSource interface {
	NextCandidate() (netaddr.Endpoint, bool)
}

// ConnectorLoop dials outbound peers whenever NeedConnections fires and
// the hub is below its configured outbound target, pulling candidates
// from source. It runs until ctx is cancelled or the hub stops.
func (h *Hub) ConnectorLoop(ctx context.Context, dialer Dialer, source CandidateSource) {
	h.wg.Add(1)
	defer h.wg.Done()

	h.NeedConnections()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-h.needConnections:
		}

		for h.outboundCount() < h.cfg.MaxOutboundSessions {
			ep, ok := source.NextCandidate()
			if !ok {
				break
			}
			if h.alreadyTargeting(ep) {
				continue
			}
			h.dial(ctx, dialer, ep)
		}
	}
}

func (h *Hub) alreadyTargeting(ep netaddr.Endpoint) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := ep.String()
	if _, ok := h.outboundTargets[key]; ok {
		return true
	}
	h.outboundTargets[key] = struct{}{}
	return false
}

func (h *Hub) dial(ctx context.Context, dialer Dialer, ep netaddr.Endpoint) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", ep.String())
	if err != nil {
		h.log.WithError(err).WithField("target", ep).Debug("outbound dial failed")
		h.mu.Lock()
		delete(h.outboundTargets, ep.String())
		h.mu.Unlock()
		return
	}
	if h.cfg.TLSClientConfig != nil {
		conn = tls.Client(conn, h.cfg.TLSClientConfig)
	}

	s := session.New(session.Config{
		Conn:            conn,
		Direction:       session.DirectionOutbound,
		Magic:           h.cfg.Magic,
		ProtocolVersion: h.cfg.ProtocolVersion,
		Timeouts:        h.cfg.Timeouts,
		Logger:          h.log,
		OnMessage:       h.cfg.Sink,
	})
	h.register(s)
	s.Start(ctx)

	if h.cfg.LocalVersionFactory != nil {
		if err := s.SendVersion(h.cfg.LocalVersionFactory(ep)); err != nil {
			h.log.WithError(err).Warn("failed to send version to outbound peer")
		}
	}

	go h.watchSession(s)
}
