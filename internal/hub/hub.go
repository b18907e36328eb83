// Package hub implements component C5: the connection hub that accepts
// inbound peers, dials outbound ones, and keeps the registry of live
// sessions healthy.
package hub

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironpeer/p2pcore/internal/netaddr"
	"github.com/ironpeer/p2pcore/internal/protocol"
	"github.com/ironpeer/p2pcore/internal/session"
)

// Sink receives every handshake-validated inbound message routed by the
// hub, tagged with the session it arrived on.
type Sink func(s *session.Session, msg *protocol.Message)

// Config bundles the hub's tunable policy.
type Config struct {
	ListenAddr          string
	Magic               uint32
	ProtocolVersion     uint32
	MaxInboundPerIP     int
	MaxInboundSessions  int
	MaxOutboundSessions int
	ServiceTick         time.Duration
	InfoTick            time.Duration
	Timeouts            session.Timeouts
	TLSServerConfig     *tls.Config // nil disables inbound TLS
	TLSClientConfig     *tls.Config // nil disables outbound TLS
	Logger              *logrus.Entry
	Sink                Sink
	LocalVersionFactory func(remote netaddr.Endpoint) protocol.Version
}

// DefaultConfig returns reasonable policy defaults, mirroring the
// teacher's emphasis on bounded resource usage per peer and per hub.
func DefaultConfig() Config {
	return Config{
		MaxInboundPerIP:     3,
		MaxInboundSessions:  115,
		MaxOutboundSessions: 8,
		ServiceTick:         30 * time.Second,
		InfoTick:            5 * time.Minute,
		Timeouts:            session.DefaultTimeouts,
	}
}

// Hub owns the listener, the set of live sessions, and the periodic
// timers that reap idle peers and emit aggregate statistics.
type Hub struct {
	cfg Config
	log *logrus.Entry

	listener net.Listener

	mu              sync.RWMutex
	sessions        map[int64]*session.Session
	inboundPerIP    map[string]int
	outboundTargets map[string]struct{}

	needConnections chan struct{}

	totalInbound  uint64
	totalOutbound uint64

	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}
}

// New constructs a Hub. Call Start to begin accepting and dialing.
func New(cfg Config) *Hub {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		cfg:             cfg,
		log:             logger.WithField("component", "hub"),
		sessions:        make(map[int64]*session.Session),
		inboundPerIP:    make(map[string]int),
		outboundTargets: make(map[string]struct{}),
		needConnections: make(chan struct{}, 1),
		done:            make(chan struct{}),
	}
}

// Start opens the listener (if ListenAddr is set) and launches the
// acceptor, service timer, and info timer goroutines.
func (h *Hub) Start(ctx context.Context) error {
	if h.cfg.ListenAddr != "" {
		ln, err := net.Listen("tcp", h.cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("hub: listen %s: %w", h.cfg.ListenAddr, err)
		}
		if h.cfg.TLSServerConfig != nil {
			ln = tls.NewListener(ln, h.cfg.TLSServerConfig)
		}
		h.listener = ln
		h.wg.Add(1)
		go h.acceptLoop(ctx)
	}

	h.wg.Add(2)
	go h.serviceTimer(ctx)
	go h.infoTimer(ctx)
	return nil
}

// Stop closes the listener, tears down every session, and waits for all
// hub goroutines to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		if h.listener != nil {
			_ = h.listener.Close()
		}
		h.mu.RLock()
		sessions := make([]*session.Session, 0, len(h.sessions))
		for _, s := range h.sessions {
			sessions = append(sessions, s)
		}
		h.mu.RUnlock()
		for _, s := range sessions {
			s.Stop()
		}
	})
	h.wg.Wait()
}

// SessionCount returns the number of currently registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Sessions returns a snapshot of every registered session.
func (h *Hub) Sessions() []*session.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*session.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// Broadcast queues msg for delivery to every fully-connected session.
func (h *Hub) Broadcast(msg *protocol.Message, priority session.Priority) {
	for _, s := range h.Sessions() {
		if !s.FullyConnected() {
			continue
		}
		if _, err := s.PushMessage(msg, priority); err != nil {
			h.log.WithError(err).WithField("session", s.ID()).Warn("broadcast failed")
		}
	}
}

// NeedConnections signals the connector loop to try to reach the
// configured outbound target count; it is non-blocking and coalesces
// repeated signals.
func (h *Hub) NeedConnections() {
	select {
	case h.needConnections <- struct{}{}:
	default:
	}
}

func (h *Hub) register(s *session.Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	if s.Direction() == session.DirectionInbound {
		h.inboundPerIP[s.RemoteEndpoint().Address.String()]++
		h.totalInbound++
	} else {
		h.totalOutbound++
	}
	h.mu.Unlock()
}

func (h *Hub) unregister(s *session.Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID())
	if s.Direction() == session.DirectionInbound {
		key := s.RemoteEndpoint().Address.String()
		if h.inboundPerIP[key] > 0 {
			h.inboundPerIP[key]--
		}
		if h.inboundPerIP[key] == 0 {
			delete(h.inboundPerIP, key)
		}
	} else {
		delete(h.outboundTargets, s.RemoteEndpoint().String())
	}
	h.mu.Unlock()
	h.NeedConnections()
}

func (h *Hub) inboundCountForIP(addr netaddr.Address) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.inboundPerIP[addr.String()]
}

func (h *Hub) inboundCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.sessions {
		if s.Direction() == session.DirectionInbound {
			n++
		}
	}
	return n
}

func (h *Hub) outboundCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.sessions {
		if s.Direction() == session.DirectionOutbound {
			n++
		}
	}
	return n
}
