// Package config defines the external settings structures the networking
// core is configured with. Core packages only ever consume already-built
// ChainParams/NodeSettings values; loading them from flags, environment,
// or files is the concern of cmd/p2pnoded alone.
package config

import "time"

// ChainParams identifies the network a node participates in and the wire
// constants that distinguish it from any other deployment of the same
// protocol.
type ChainParams struct {
	Name            string
	Magic           uint32
	DefaultPort     uint16
	ProtocolVersion uint32
	DNSSeeds        []string
}

// Mainnet, Testnet, and Regtest are the three deployments every full node
// implementation of this protocol family recognizes.
var (
	Mainnet = ChainParams{
		Name:            "main",
		Magic:           0x6427e924,
		DefaultPort:     8233,
		ProtocolVersion: 170100,
		DNSSeeds:        []string{"dnsseed.example.org", "seed.example.net"},
	}
	Testnet = ChainParams{
		Name:            "test",
		Magic:           0xbff91afa,
		DefaultPort:     18233,
		ProtocolVersion: 170100,
		DNSSeeds:        []string{"dnsseed.testnet.example.org"},
	}
	Regtest = ChainParams{
		Name:            "regtest",
		Magic:           0xaae83f5f,
		DefaultPort:     18344,
		ProtocolVersion: 170100,
	}
)

// NodeSettings bundles every tunable a running node needs: where to
// listen, how many peers to keep, TLS material, and timing policy.
type NodeSettings struct {
	Chain ChainParams

	ListenAddr          string
	MaxInboundSessions  int
	MaxOutboundSessions int
	MaxInboundPerIP     int

	TLSCertFile     string
	TLSKeyFile      string
	TLSKeyPassword  string
	RequireTLS      bool

	ProxyURL string // optional SOCKS5 proxy for outbound dials

	HandshakeTimeout time.Duration
	InboundTimeout   time.Duration
	OutboundTimeout  time.Duration
	PingTimeout      time.Duration
	GlobalTimeout    time.Duration

	ServiceTick time.Duration
	InfoTick    time.Duration

	UserAgent   string
	StartHeight int32
	Nonce       uint64
}

// DefaultNodeSettings returns a NodeSettings for chain with conservative
// defaults for everything else.
func DefaultNodeSettings(chain ChainParams) NodeSettings {
	return NodeSettings{
		Chain:               chain,
		ListenAddr:          "0.0.0.0:0",
		MaxInboundSessions:  115,
		MaxOutboundSessions: 8,
		MaxInboundPerIP:     3,
		HandshakeTimeout:    10 * time.Second,
		InboundTimeout:      20 * time.Minute,
		OutboundTimeout:     20 * time.Minute,
		PingTimeout:         20 * time.Minute,
		GlobalTimeout:       90 * time.Minute,
		ServiceTick:         30 * time.Second,
		InfoTick:            5 * time.Minute,
		UserAgent:           "/p2pcore:0.1.0/",
	}
}
