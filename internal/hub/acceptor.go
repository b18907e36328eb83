package hub

import (
	"context"
	"errors"
	"net"

	"github.com/ironpeer/p2pcore/internal/netaddr"
	"github.com/ironpeer/p2pcore/internal/session"
)

func (h *Hub) acceptLoop(ctx context.Context) {
	defer h.wg.Done()
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			select {
			case <-h.done:
				return
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			h.log.WithError(err).Warn("accept failed")
			continue
		}
		h.handleAccepted(ctx, conn)
	}
}

func (h *Hub) handleAccepted(ctx context.Context, conn net.Conn) {
	remote, err := netaddr.ParseEndpoint(conn.RemoteAddr().String())
	if err != nil {
		_ = conn.Close()
		return
	}

	if h.inboundCount() >= h.cfg.MaxInboundSessions {
		h.log.WithField("remote", remote).Debug("rejecting inbound, session cap reached")
		_ = conn.Close()
		return
	}
	if h.cfg.MaxInboundPerIP > 0 && h.inboundCountForIP(remote.Address) >= h.cfg.MaxInboundPerIP {
		h.log.WithField("remote", remote).Debug("rejecting inbound, per-IP cap reached")
		_ = conn.Close()
		return
	}

	s := session.New(session.Config{
		Conn:            conn,
		Direction:       session.DirectionInbound,
		Magic:           h.cfg.Magic,
		ProtocolVersion: h.cfg.ProtocolVersion,
		Timeouts:        h.cfg.Timeouts,
		Logger:          h.log,
		OnMessage:       h.cfg.Sink,
	})
	h.register(s)
	s.Start(ctx)

	if h.cfg.LocalVersionFactory != nil {
		if err := s.SendVersion(h.cfg.LocalVersionFactory(remote)); err != nil {
			h.log.WithError(err).Warn("failed to send version to inbound peer")
		}
	}

	go h.watchSession(s)
}

// watchSession unregisters s once it terminates, keeping the registry
// free of dead entries without polling.
func (h *Hub) watchSession(s *session.Session) {
	<-s.Done()
	h.unregister(s)
}
