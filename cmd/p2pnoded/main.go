// Command p2pnoded runs a standalone instance of the networking core: it
// listens for inbound peers, seeds and maintains outbound connections, and
// logs traffic until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironpeer/p2pcore/internal/config"
	"github.com/ironpeer/p2pcore/internal/dialer"
	"github.com/ironpeer/p2pcore/internal/dnsseed"
	"github.com/ironpeer/p2pcore/internal/hub"
	"github.com/ironpeer/p2pcore/internal/logging"
	"github.com/ironpeer/p2pcore/internal/netaddr"
	"github.com/ironpeer/p2pcore/internal/protocol"
	"github.com/ironpeer/p2pcore/internal/tlsmaterial"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:   "p2pnoded",
		Short: "Runs the peer-to-peer networking core as a standalone node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	flags := root.Flags()
	flags.String("chain", "main", "chain to join: main, test, or regtest")
	flags.String("listen", "0.0.0.0:0", "address to listen on for inbound peers")
	flags.Int("max-inbound", 115, "maximum inbound sessions")
	flags.Int("max-outbound", 8, "maximum outbound sessions")
	flags.String("tls-cert", "", "TLS certificate file (inbound TLS is disabled if empty)")
	flags.String("tls-key", "", "TLS private key file")
	flags.String("tls-key-password", "", "passphrase protecting an encrypted TLS key file")
	flags.String("proxy", "", "SOCKS5 proxy URL for outbound dials, e.g. socks5://127.0.0.1:9050")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("P2PNODED")
	v.AutomaticEnv()

	return root
}

func chainByName(name string) (config.ChainParams, error) {
	switch name {
	case "main":
		return config.Mainnet, nil
	case "test":
		return config.Testnet, nil
	case "regtest":
		return config.Regtest, nil
	default:
		return config.ChainParams{}, fmt.Errorf("unknown chain %q", name)
	}
}

func run(v *viper.Viper) error {
	level, err := logrus.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return err
	}
	logger := logging.New(logging.Options{Level: level})
	log := logging.For(logger, "p2pnoded")

	chain, err := chainByName(v.GetString("chain"))
	if err != nil {
		return err
	}
	settings := config.DefaultNodeSettings(chain)
	settings.ListenAddr = v.GetString("listen")
	settings.MaxInboundSessions = v.GetInt("max-inbound")
	settings.MaxOutboundSessions = v.GetInt("max-outbound")
	settings.TLSCertFile = v.GetString("tls-cert")
	settings.TLSKeyFile = v.GetString("tls-key")
	settings.TLSKeyPassword = v.GetString("tls-key-password")
	settings.ProxyURL = v.GetString("proxy")

	cfg, err := buildHubConfig(settings, log)
	if err != nil {
		return err
	}

	h := hub.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.Start(ctx); err != nil {
		return fmt.Errorf("starting hub: %w", err)
	}
	log.WithField("listen", settings.ListenAddr).Info("node started")

	go seedAndConnect(ctx, h, settings, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	h.Stop()
	return nil
}

func buildHubConfig(settings config.NodeSettings, log *logrus.Entry) (hub.Config, error) {
	cfg := hub.DefaultConfig()
	cfg.ListenAddr = settings.ListenAddr
	cfg.Magic = settings.Chain.Magic
	cfg.ProtocolVersion = settings.Chain.ProtocolVersion
	cfg.MaxInboundSessions = settings.MaxInboundSessions
	cfg.MaxOutboundSessions = settings.MaxOutboundSessions
	cfg.MaxInboundPerIP = settings.MaxInboundPerIP
	cfg.Logger = log
	cfg.Timeouts.Handshake = settings.HandshakeTimeout
	cfg.Timeouts.Inbound = settings.InboundTimeout
	cfg.Timeouts.Outbound = settings.OutboundTimeout
	cfg.Timeouts.Ping = settings.PingTimeout
	cfg.Timeouts.Global = settings.GlobalTimeout
	cfg.LocalVersionFactory = func(remote netaddr.Endpoint) protocol.Version {
		return protocol.Version{
			ProtocolVersion: settings.Chain.ProtocolVersion,
			Services:        uint64(netaddr.ServiceNetwork),
			Timestamp:       time.Now().Unix(),
			AddrRecv:        remote,
			Nonce:           settings.Nonce,
			UserAgent:       settings.UserAgent,
			StartHeight:     settings.StartHeight,
			Relay:           true,
		}
	}

	if settings.TLSCertFile != "" {
		serverCfg, err := tlsmaterial.LoadServerConfig(settings.TLSCertFile, settings.TLSKeyFile, settings.TLSKeyPassword)
		if err != nil {
			return cfg, err
		}
		cfg.TLSServerConfig = serverCfg
	}
	return cfg, nil
}

// fixedCandidateSource hands out a static list of endpoints once, used to
// seed the connector loop from DNS-resolved addresses.
type fixedCandidateSource struct {
	endpoints []netaddr.Endpoint
	i         int
}

func (s *fixedCandidateSource) NextCandidate() (netaddr.Endpoint, bool) {
	if s.i >= len(s.endpoints) {
		return netaddr.Endpoint{}, false
	}
	ep := s.endpoints[s.i]
	s.i++
	return ep, true
}

func seedAndConnect(ctx context.Context, h *hub.Hub, settings config.NodeSettings, log *logrus.Entry) {
	resolver := dnsseed.NewResolver("1.1.1.1:53", settings.Chain.DefaultPort)
	endpoints, err := resolver.Resolve(ctx, settings.Chain.DNSSeeds)
	if err != nil {
		log.WithError(err).Warn("dns seed resolution failed")
	}
	log.WithField("count", len(endpoints)).Info("resolved dns seed candidates")

	var d hub.Dialer = dialer.Direct()
	if settings.ProxyURL != "" {
		if proxied, err := dialer.SOCKS5(settings.ProxyURL); err != nil {
			log.WithError(err).Warn("ignoring invalid proxy configuration")
		} else {
			d = proxied
		}
	}

	h.ConnectorLoop(ctx, d, &fixedCandidateSource{endpoints: endpoints})
}
