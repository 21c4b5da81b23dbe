package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Resolver performs the optional DNS preflight before the HEAD probe.
// It queries the configured resolvers directly so DNS failure surfaces
// as its own message instead of a generic dial error.
type Resolver struct {
	servers []string
	client  *dns.Client
}

// NewResolver creates a resolver for the given server addresses
// ("host" or "host:port"). With no servers configured it falls back to
// the system resolvers from /etc/resolv.conf.
func NewResolver(servers []string, timeout time.Duration) *Resolver {
	if len(servers) == 0 {
		if sysConfig, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil {
			for _, s := range sysConfig.Servers {
				servers = append(servers, net.JoinHostPort(s, sysConfig.Port))
			}
		}
	}

	normalized := make([]string, 0, len(servers))
	for _, s := range servers {
		if !strings.Contains(s, ":") {
			s = net.JoinHostPort(s, "53")
		}
		normalized = append(normalized, s)
	}

	return &Resolver{
		servers: normalized,
		client:  &dns.Client{Timeout: timeout},
	}
}

// Lookup resolves host to its addresses, A records first, then AAAA.
// A literal IP host resolves to itself.
func (r *Resolver) Lookup(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}
	if len(r.servers) == 0 {
		return nil, fmt.Errorf("no DNS resolvers configured")
	}

	var addrs []string
	var lastErr error

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true

		for _, server := range r.servers {
			resp, _, err := r.client.ExchangeContext(ctx, msg, server)
			if err != nil {
				lastErr = fmt.Errorf("dns query %s: %w", server, err)
				continue
			}
			if resp.Rcode != dns.RcodeSuccess {
				lastErr = fmt.Errorf("dns lookup %s: %s", host, dns.RcodeToString[resp.Rcode])
				break
			}

			for _, rr := range resp.Answer {
				switch rec := rr.(type) {
				case *dns.A:
					addrs = append(addrs, rec.A.String())
				case *dns.AAAA:
					addrs = append(addrs, rec.AAAA.String())
				}
			}
			break
		}
	}

	if len(addrs) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no addresses found for %s", host)
	}

	return addrs, nil
}
