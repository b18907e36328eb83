package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/ironpeer/p2pcore/internal/bytestream"
	"github.com/ironpeer/p2pcore/internal/netaddr"
	"github.com/ironpeer/p2pcore/internal/protocol"
)

// Direction tells whether a session originated from an inbound accept or
// an outbound dial.
type Direction int

const (
	DirectionInbound Direction = iota
	DirectionOutbound
)

func (d Direction) String() string {
	if d == DirectionOutbound {
		return "outbound"
	}
	return "inbound"
}

// Timeouts bounds how long a session may sit in each state before
// IsIdle reports it as unresponsive.
type Timeouts struct {
	Handshake time.Duration
	Inbound   time.Duration
	Outbound  time.Duration
	Ping      time.Duration
	Global    time.Duration
}

// DefaultTimeouts mirrors the conservative defaults a freshly dialed or
// accepted connection starts with.
var DefaultTimeouts = Timeouts{
	Handshake: 10 * time.Second,
	Inbound:   20 * time.Minute,
	Outbound:  20 * time.Minute,
	Ping:      20 * time.Minute,
	Global:    90 * time.Minute,
}

// PingInterval is the base cadence for the ping scheduler; the actual wait
// is jittered +/- 30% to avoid synchronized ping storms across many peers.
const PingInterval = 2 * time.Minute

var nextSessionID atomic.Int64

// OnMessage is invoked once per fully framed, handshake-validated inbound
// message, off the session's read pump goroutine.
type OnMessage func(s *Session, msg *protocol.Message)

// OnData is invoked whenever bytes are read from or written to the
// socket, letting the owning hub maintain aggregate traffic stats.
type OnData func(dir DataDirection, n int)

// DataDirection distinguishes inbound socket reads from outbound writes,
// independent of which side initiated the TCP connection.
type DataDirection int

const (
	DataInbound DataDirection = iota
	DataOutbound
)

// Config bundles everything a Session needs at construction time.
type Config struct {
	Conn            net.Conn
	Direction       Direction
	Magic           uint32
	ProtocolVersion uint32
	Timeouts        Timeouts
	Logger          *logrus.Entry
	OnMessage       OnMessage
	OnData          OnData
	QueueCapacity   int
}

// messageMetric tracks per-command counters for one direction of traffic.
type messageMetric struct {
	count uint64
	bytes uint64
}

// Session owns one peer TCP connection: it carries out the protocol
// handshake, then pumps framed messages in both directions until Stop is
// called or the connection fails.
type Session struct {
	id      int64
	traceID xid.ID
	cfg     Config
	log     *logrus.Entry

	handshake atomic.Uint32 // HandshakeStatus
	version   atomic.Uint32 // negotiated protocol version

	remoteEndpoint netaddr.Endpoint
	localEndpoint  netaddr.Endpoint

	localVersion  protocol.Version
	remoteVersion protocol.Version
	versionMu     sync.RWMutex

	inboundMeter  TrafficMeter
	outboundMeter TrafficMeter
	pingMeter     PingMeter

	connectedAt       time.Time
	lastInboundAt     atomic.Int64 // unix nanos
	lastOutboundAt    atomic.Int64
	lastPongAt        atomic.Int64
	pendingPingNonce  atomic.Uint64
	pendingPingSentAt atomic.Int64
	getAddrHonored    atomic.Bool

	queue *outboundQueue

	metricsMu     sync.Mutex
	inboundStats  map[string]*messageMetric
	outboundStats map[string]*messageMetric

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Session around an already-established TCP connection.
// Call Start to begin pumping.
func New(cfg Config) *Session {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 256
	}
	id := nextSessionID.Add(1)
	traceID := xid.New()
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	now := time.Now()
	s := &Session{
		id:            id,
		traceID:       traceID,
		cfg:           cfg,
		log:           logger.WithField("session", id).WithField("trace_id", traceID.String()).WithField("direction", cfg.Direction.String()),
		queue:         newOutboundQueue(cfg.QueueCapacity),
		connectedAt:   now,
		done:          make(chan struct{}),
		inboundStats:  make(map[string]*messageMetric),
		outboundStats: make(map[string]*messageMetric),
	}
	s.lastInboundAt.Store(now.UnixNano())
	s.lastOutboundAt.Store(now.UnixNano())
	s.handshake.Store(uint32(HandshakeNotInitiated))
	s.version.Store(cfg.ProtocolVersion)
	if cfg.Conn != nil {
		if remote, err := netaddr.ParseEndpoint(cfg.Conn.RemoteAddr().String()); err == nil {
			s.remoteEndpoint = remote
		}
		if local, err := netaddr.ParseEndpoint(cfg.Conn.LocalAddr().String()); err == nil {
			s.localEndpoint = local
		}
	}
	return s
}

// ID returns the session's process-unique, monotonically issued identifier.
func (s *Session) ID() int64 { return s.id }

// TraceID returns a globally unique, externally shareable identifier for
// this session, suitable for correlating log lines across processes
// (unlike ID, which is only unique within this process's lifetime).
func (s *Session) TraceID() string { return s.traceID.String() }

// Direction reports whether the session was accepted or dialed.
func (s *Session) Direction() Direction { return s.cfg.Direction }

// RemoteEndpoint returns the peer's observed TCP endpoint.
func (s *Session) RemoteEndpoint() netaddr.Endpoint { return s.remoteEndpoint }

// LocalEndpoint returns this side's observed TCP endpoint.
func (s *Session) LocalEndpoint() netaddr.Endpoint { return s.localEndpoint }

// ProtocolVersion returns the negotiated protocol version (the local
// default until the remote's version message narrows it).
func (s *Session) ProtocolVersion() uint32 { return s.version.Load() }

// HandshakeStatus returns the current handshake bitmask.
func (s *Session) HandshakeStatus() HandshakeStatus {
	return HandshakeStatus(s.handshake.Load())
}

func (s *Session) setHandshakeBit(bit HandshakeStatus) HandshakeStatus {
	for {
		old := s.handshake.Load()
		next := old | uint32(bit)
		if s.handshake.CompareAndSwap(old, next) {
			return HandshakeStatus(next)
		}
	}
}

// FullyConnected reports whether the socket is open and the handshake has
// completed in both directions.
func (s *Session) FullyConnected() bool {
	select {
	case <-s.done:
		return false
	default:
	}
	return s.HandshakeStatus().IsComplete()
}

// RemoteVersion returns the version payload received from the peer, valid
// once FullyConnected reports true.
func (s *Session) RemoteVersion() protocol.Version {
	s.versionMu.RLock()
	defer s.versionMu.RUnlock()
	return s.remoteVersion
}

// HasService reports whether the peer advertised the given service bit in
// its version message.
func (s *Session) HasService(bit netaddr.ServiceBit) bool {
	if !s.FullyConnected() {
		return false
	}
	s.versionMu.RLock()
	defer s.versionMu.RUnlock()
	return netaddr.Has(s.remoteVersion.Services, bit)
}

// PingLatency returns the current ping EMA in milliseconds.
func (s *Session) PingLatency() float64 { return s.pingMeter.EMA() }

// IsIdle classifies the session's current liveness against t, following
// the same decision order the hub's service timer relies on: handshake
// timeout takes precedence, then per-direction traffic staleness, then
// ping staleness, then an overall global ceiling.
func (s *Session) IsIdle(now time.Time, t Timeouts) IdleResult {
	if !s.HandshakeStatus().IsComplete() {
		if now.Sub(s.connectedAt) > t.Handshake {
			return ProtocolHandshakeTimeout
		}
		return NotIdle
	}
	if lastIn := time.Unix(0, s.lastInboundAt.Load()); now.Sub(lastIn) > t.Inbound {
		return InboundTimeout
	}
	if lastOut := time.Unix(0, s.lastOutboundAt.Load()); now.Sub(lastOut) > t.Outbound {
		return OutboundTimeout
	}
	if sentAt := s.pendingPingSentAt.Load(); sentAt != 0 {
		if now.Sub(time.Unix(0, sentAt)) > t.Ping {
			return PingTimeout
		}
	}
	if now.Sub(s.connectedAt) > t.Global && s.pingMeter.EMA() == 0 {
		return GlobalTimeout
	}
	return NotIdle
}

// Start launches the read pump, write pump, and ping scheduler. It returns
// once all three goroutines have been spawned; they run until ctx is
// cancelled or Stop is called.
func (s *Session) Start(ctx context.Context) {
	s.wg.Add(3)
	go s.readPump(ctx)
	go s.writePump(ctx)
	go s.pingLoop(ctx)
}

// SendVersion queues the local version message, the first frame either
// side of a new connection sends. Call once, immediately after Start.
func (s *Session) SendVersion(v protocol.Version) error {
	s.versionMu.Lock()
	s.localVersion = v
	s.versionMu.Unlock()

	payload, err := v.Encode()
	if err != nil {
		return fmt.Errorf("session: encode version: %w", err)
	}
	msg := protocol.NewMessage(s.cfg.Magic, protocol.CmdVersion, payload)
	if _, err := s.PushMessage(msg, PriorityHigh); err != nil {
		return err
	}
	s.setHandshakeBit(HandshakeLocalVersionSent)
	return nil
}

// Stop closes the connection and waits for all pump goroutines to exit.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		_ = s.cfg.Conn.Close()
	})
	s.wg.Wait()
}

// Done returns a channel closed when the session has been told to stop.
func (s *Session) Done() <-chan struct{} { return s.done }

// PushMessage enqueues a message for delivery, returning false if the
// outbound queue's lane is full and the caller should apply backpressure.
func (s *Session) PushMessage(msg *protocol.Message, priority Priority) (bool, error) {
	buf, err := encodeMessage(msg)
	if err != nil {
		return false, err
	}
	return s.queue.push(outboundItem{data: buf, priority: priority}), nil
}

func (s *Session) readPump(ctx context.Context) {
	defer s.wg.Done()
	parser := protocol.NewParser(s.cfg.Magic)
	buf := make([]byte, protocol.MaxBytesPerIO)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		n, err := s.cfg.Conn.Read(buf)
		if n > 0 {
			if s.cfg.OnData != nil {
				s.cfg.OnData(DataInbound, n)
			}
			if ferr := parser.Feed(buf[:n]); ferr != nil {
				s.log.WithError(ferr).Warn("failed to buffer inbound bytes")
				s.Stop()
				return
			}
			s.handleInbound(parser)
		}
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.WithError(err).Debug("read pump exiting")
			}
			s.Stop()
			return
		}
	}
}

func (s *Session) handleInbound(parser *protocol.Parser) {
	messages, err := parser.DrainAll()
	for _, msg := range messages {
		s.onMessageFramed(msg)
	}
	if err != nil {
		s.log.WithError(err).Warn("framing error, closing session")
		s.Stop()
	}
}

func (s *Session) onMessageFramed(msg *protocol.Message) {
	now := time.Now()
	s.lastInboundAt.Store(now.UnixNano())
	s.inboundMeter.Add(uint64(protocol.HeaderSize + len(msg.Payload)))
	s.recordMetric(s.inboundStats, msg.Header.Command, len(msg.Payload))

	if err := msg.Validate(s.ProtocolVersion()); err != nil {
		s.log.WithError(err).WithField("command", msg.Header.Command).Warn("rejecting invalid message")
		return
	}

	switch msg.Header.Command {
	case protocol.CmdVersion:
		if s.HandshakeStatus().IsComplete() {
			s.fatal(ErrDuplicateProtocolHandShake)
			return
		}
		s.onRemoteVersion(msg)
		return
	case protocol.CmdVerAck:
		if s.HandshakeStatus().IsComplete() {
			s.fatal(ErrDuplicateProtocolHandShake)
			return
		}
		s.setHandshakeBit(HandshakeLocalVerAckRecv)
		s.maybeCompleteHandshake()
		return
	}

	// Every tag besides Version/VerAck is only legal once both halves of
	// the version exchange have landed; anything else arriving earlier is
	// a handshake-order violation, not just pre-handshake noise.
	if status := s.HandshakeStatus(); !status.IsComplete() {
		const mustHaveSent = HandshakeLocalVersionSent | HandshakeRemoteVersionRecv
		if status&mustHaveSent != mustHaveSent {
			s.fatal(ErrInvalidProtocolHandShake)
			return
		}
	}

	switch msg.Header.Command {
	case protocol.CmdPing:
		s.onPing(msg)
	case protocol.CmdPong:
		s.onPong(msg)
	case protocol.CmdGetAddr:
		s.onGetAddr(msg)
	default:
		if s.cfg.OnMessage != nil {
			s.cfg.OnMessage(s, msg)
		}
	}
}

func (s *Session) onRemoteVersion(msg *protocol.Message) {
	v, err := protocol.DecodeVersion(msg.Payload)
	if err != nil {
		s.log.WithError(err).Warn("malformed version payload")
		s.Stop()
		return
	}

	s.versionMu.RLock()
	localNonce := s.localVersion.Nonce
	s.versionMu.RUnlock()
	if localNonce != 0 && v.Nonce == localNonce {
		s.fatal(ErrConnectedToSelf)
		return
	}
	if v.ProtocolVersion < protocol.MinSupportedProtocolVersion || v.ProtocolVersion > protocol.MaxSupportedProtocolVersion {
		s.fatal(ErrInvalidProtocolVersion)
		return
	}

	s.versionMu.Lock()
	s.remoteVersion = v
	s.versionMu.Unlock()

	if v.ProtocolVersion < s.ProtocolVersion() {
		s.version.Store(v.ProtocolVersion)
	}
	s.setHandshakeBit(HandshakeRemoteVersionRecv)

	ack := protocol.NewMessage(s.cfg.Magic, protocol.CmdVerAck, nil)
	if _, err := s.PushMessage(ack, PriorityHigh); err != nil {
		s.log.WithError(err).Warn("failed to queue verack")
	}
	s.setHandshakeBit(HandshakeRemoteVerAckSent)
	s.maybeCompleteHandshake()
}

// maybeCompleteHandshake fires once the handshake bitmask reaches
// Completed: an outbound session follows up with
// exactly one GetAddr, since an inbound session waits to be asked instead.
func (s *Session) maybeCompleteHandshake() {
	if !s.HandshakeStatus().IsComplete() {
		return
	}
	s.log.Info("handshake completed")
	if s.cfg.Direction != DirectionInbound {
		getaddr := protocol.NewMessage(s.cfg.Magic, protocol.CmdGetAddr, nil)
		if _, err := s.PushMessage(getaddr, PriorityNormal); err != nil {
			s.log.WithError(err).Debug("failed to queue getaddr")
		}
	}
}

// onPing answers every well-formed Ping with a Pong echoing its nonce, at
// High priority so liveness checks aren't queued behind bulk traffic.
func (s *Session) onPing(msg *protocol.Message) {
	ping, err := protocol.DecodePing(msg.Payload)
	if err != nil {
		s.log.WithError(err).Warn("malformed ping payload")
		return
	}
	payload, err := protocol.Pong{Nonce: ping.Nonce}.Encode()
	if err != nil {
		s.log.WithError(err).Warn("failed to encode pong")
		return
	}
	pong := protocol.NewMessage(s.cfg.Magic, protocol.CmdPong, payload)
	if _, err := s.PushMessage(pong, PriorityHigh); err != nil {
		s.log.WithError(err).Debug("failed to queue pong")
	}
}

func (s *Session) onPong(msg *protocol.Message) {
	pong, err := protocol.DecodePong(msg.Payload)
	if err != nil {
		s.log.WithError(err).Warn("malformed pong payload")
		return
	}
	if s.pendingPingSentAt.Load() == 0 {
		s.fatal(ErrUnsolicitedPong)
		return
	}
	if pong.Nonce != s.pendingPingNonce.Load() {
		s.fatal(ErrInvalidPingPongNonce)
		return
	}
	sentAt := s.pendingPingSentAt.Swap(0)
	if sentAt != 0 {
		rtt := time.Since(time.Unix(0, sentAt))
		s.pingMeter.Observe(float64(rtt.Milliseconds()))
	}
}

// onGetAddr forwards GetAddr to the application sink, except that an
// inbound connection is only honored once per session: answering every
// GetAddr would let a peer fingerprint this node's address book by timing
// repeated requests.
func (s *Session) onGetAddr(msg *protocol.Message) {
	if s.cfg.Direction == DirectionInbound && !s.getAddrHonored.CompareAndSwap(false, true) {
		return
	}
	if s.cfg.OnMessage != nil {
		s.cfg.OnMessage(s, msg)
	}
}

// fatal logs a session-level protocol violation and tears the connection
// down; unlike framing errors, these originate from this session's own
// state machine rather than the byte stream.
func (s *Session) fatal(err error) {
	s.log.WithError(err).Warn("closing session")
	s.Stop()
}

func (s *Session) writePump(ctx context.Context) {
	defer s.wg.Done()
	for {
		item, ok := s.queue.pop(s.done)
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := s.writeAll(item.data); err != nil {
			s.log.WithError(err).Debug("write pump exiting")
			s.Stop()
			return
		}
	}
}

func (s *Session) writeAll(data []byte) error {
	var written uint64
	defer func() {
		if written > 0 {
			s.outboundMeter.Add(written)
		}
	}()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > protocol.MaxBytesPerIO {
			chunk = chunk[:protocol.MaxBytesPerIO]
		}
		n, err := s.cfg.Conn.Write(chunk)
		if n > 0 {
			if s.cfg.OnData != nil {
				s.cfg.OnData(DataOutbound, n)
			}
			s.lastOutboundAt.Store(time.Now().UnixNano())
			written += uint64(n)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *Session) pingLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		wait := jitter(PingInterval, 0.3)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
		if !s.FullyConnected() {
			continue
		}
		nonce := rand.Uint64()
		s.pendingPingNonce.Store(nonce)
		s.pendingPingSentAt.Store(time.Now().UnixNano())

		payload, err := protocol.Ping{Nonce: nonce}.Encode()
		if err != nil {
			continue
		}
		msg := protocol.NewMessage(s.cfg.Magic, protocol.CmdPing, payload)
		if _, err := s.PushMessage(msg, PriorityHigh); err != nil {
			s.log.WithError(err).Debug("failed to queue ping")
		}
	}
}

// jitter returns d adjusted by a uniformly random factor in
// [1-frac, 1+frac].
func jitter(d time.Duration, frac float64) time.Duration {
	delta := (rand.Float64()*2 - 1) * frac
	return time.Duration(float64(d) * (1 + delta))
}

func (s *Session) recordMetric(m map[string]*messageMetric, command string, payloadLen int) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	entry, ok := m[command]
	if !ok {
		entry = &messageMetric{}
		m[command] = entry
	}
	entry.count++
	entry.bytes += uint64(protocol.HeaderSize + payloadLen)
}

func encodeMessage(msg *protocol.Message) ([]byte, error) {
	s := bytestream.New()
	if err := msg.Write(s); err != nil {
		return nil, fmt.Errorf("session: encode message: %w", err)
	}
	return s.Bytes(), nil
}

func (s *Session) String() string {
	return fmt.Sprintf("session#%d[%s %s]", s.id, s.cfg.Direction, s.remoteEndpoint)
}
