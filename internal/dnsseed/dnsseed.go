// Package dnsseed resolves the hardcoded DNS seed hostnames of a
// ChainParams into candidate peer endpoints, the bootstrap mechanism used
// before the address book has anything of its own to offer.
package dnsseed

import (
	"context"
	"time"

	"github.com/miekg/dns"

	"github.com/ironpeer/p2pcore/internal/netaddr"
)

// Resolver queries a recursive DNS server for both A and AAAA records of
// each seed host, since a seed host may publish either or both families.
type Resolver struct {
	Server  string // e.g. "1.1.1.1:53"
	Port    uint16
	Timeout time.Duration
}

// NewResolver returns a Resolver using server (host:port) for lookups.
func NewResolver(server string, port uint16) *Resolver {
	return &Resolver{Server: server, Port: port, Timeout: 5 * time.Second}
}

// Resolve queries every hostname in seeds and returns the union of every
// A/AAAA answer, paired with the chain's default port.
func (r *Resolver) Resolve(ctx context.Context, seeds []string) ([]netaddr.Endpoint, error) {
	var out []netaddr.Endpoint
	client := &dns.Client{Timeout: r.Timeout}

	for _, host := range seeds {
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			eps, err := r.resolveOne(ctx, client, host, qtype)
			if err != nil {
				continue // a seed that fails to answer is skipped, not fatal
			}
			out = append(out, eps...)
		}
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, client *dns.Client, host string, qtype uint16) ([]netaddr.Endpoint, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, r.Server)
	if err != nil {
		return nil, err
	}

	var out []netaddr.Endpoint
	for _, rr := range resp.Answer {
		var ip string
		switch rec := rr.(type) {
		case *dns.A:
			ip = rec.A.String()
		case *dns.AAAA:
			ip = rec.AAAA.String()
		default:
			continue
		}
		addr, err := netaddr.ParseAddress(ip)
		if err != nil {
			continue
		}
		out = append(out, netaddr.Endpoint{Address: addr, Port: r.Port})
	}
	return out, nil
}
