package session

import "errors"

// Errors a Session can raise on its own connection-level state machine, as
// opposed to the framing errors protocol.Parser raises on malformed bytes.
// Every one of these is fatal to the session: it stops.
var (
	// ErrInvalidProtocolHandShake means a non-handshake message arrived
	// before the version exchange completed in both directions.
	ErrInvalidProtocolHandShake = errors.New("session: message illegal before handshake completes")
	// ErrDuplicateProtocolHandShake means a Version or VerAck arrived
	// after the handshake had already completed.
	ErrDuplicateProtocolHandShake = errors.New("session: handshake message received after completion")
	// ErrInvalidProtocolVersion means the peer's Version payload carried
	// a protocol_version outside [MinSupportedProtocolVersion,
	// MaxSupportedProtocolVersion].
	ErrInvalidProtocolVersion = errors.New("session: peer protocol version unsupported")
	// ErrConnectedToSelf means the peer's Version nonce matched this
	// session's own outbound nonce, meaning the connection looped back.
	ErrConnectedToSelf = errors.New("session: connected to self")
	// ErrUnsolicitedPong means a Pong arrived with no ping sample
	// outstanding.
	ErrUnsolicitedPong = errors.New("session: unsolicited pong")
	// ErrInvalidPingPongNonce means a Pong's nonce did not match the
	// outstanding ping sample's nonce.
	ErrInvalidPingPongNonce = errors.New("session: ping/pong nonce mismatch")
)
