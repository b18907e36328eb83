package session

// IdleResult classifies why a session is considered unresponsive, so the
// hub's service timer can decide whether and how to drop it.
type IdleResult int

const (
	NotIdle IdleResult = iota
	ProtocolHandshakeTimeout
	InboundTimeout
	OutboundTimeout
	PingTimeout
	GlobalTimeout
)

func (r IdleResult) String() string {
	switch r {
	case NotIdle:
		return "not-idle"
	case ProtocolHandshakeTimeout:
		return "protocol-handshake-timeout"
	case InboundTimeout:
		return "inbound-timeout"
	case OutboundTimeout:
		return "outbound-timeout"
	case PingTimeout:
		return "ping-timeout"
	case GlobalTimeout:
		return "global-timeout"
	default:
		return "unknown"
	}
}
