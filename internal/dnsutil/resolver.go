// Package dnsutil provides best-effort forward and reverse DNS lookups.
// Lookups query the system's configured nameservers directly and fall back
// to the platform resolver when no resolver configuration is readable.
// Failures are reported, never retried; callers treat missing names as
// absent data rather than errors.
package dnsutil

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/logging"
)

const (
	// DefaultTimeout caps a single DNS exchange.
	DefaultTimeout = 2 * time.Second

	resolvConfPath = "/etc/resolv.conf"
	dnsPort        = "53"
)

// Resolver performs single-attempt DNS lookups.
type Resolver struct {
	client   *dns.Client
	servers  []string
	fallback *net.Resolver
	logger   *logging.Logger
}

// NewResolver builds a Resolver from the system resolver configuration.
// When resolv.conf is unavailable (non-Unix platforms, containers without
// one) every lookup goes through the platform resolver instead.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := &Resolver{
		client:   &dns.Client{Timeout: timeout},
		fallback: net.DefaultResolver,
		logger:   logging.Default().WithComponent("dns"),
	}

	if conf, err := dns.ClientConfigFromFile(resolvConfPath); err == nil {
		for _, server := range conf.Servers {
			r.servers = append(r.servers, net.JoinHostPort(server, dnsPort))
		}
	}

	return r
}

// Forward resolves a hostname to its first IPv4 address, falling back to
// IPv6 when no A record exists.
func (r *Resolver) Forward(ctx context.Context, hostname string) (net.IP, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		return ip, nil
	}

	if len(r.servers) == 0 {
		return r.forwardFallback(ctx, hostname)
	}

	fqdn := dns.Fqdn(hostname)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(fqdn, qtype)
		msg.RecursionDesired = true

		resp, _, err := r.client.ExchangeContext(ctx, msg, r.servers[0])
		if err != nil {
			return r.forwardFallback(ctx, hostname)
		}
		for _, rr := range resp.Answer {
			switch record := rr.(type) {
			case *dns.A:
				return record.A, nil
			case *dns.AAAA:
				return record.AAAA, nil
			}
		}
	}

	return nil, errors.ErrResolutionFailure(hostname)
}

// forwardFallback resolves through the platform resolver.
func (r *Resolver) forwardFallback(ctx context.Context, hostname string) (net.IP, error) {
	addrs, err := r.fallback.LookupIPAddr(ctx, hostname)
	if err != nil || len(addrs) == 0 {
		return nil, errors.ErrResolutionFailure(hostname)
	}
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return addrs[0].IP, nil
}

// Reverse resolves an IP address to a hostname. The returned name has the
// trailing dot stripped. A host with no PTR record yields an error of code
// RESOLUTION_FAILURE; callers doing enrichment ignore it.
func (r *Resolver) Reverse(ctx context.Context, ip string) (string, error) {
	if net.ParseIP(ip) == nil {
		return "", errors.NewScanErrorWithTarget(errors.CodeResolutionFailure,
			"not a valid IP address", ip)
	}

	if len(r.servers) == 0 {
		return r.reverseFallback(ctx, ip)
	}

	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", errors.NewScanErrorWithTarget(errors.CodeResolutionFailure,
			"cannot build reverse name", ip)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.servers[0])
	if err != nil {
		return r.reverseFallback(ctx, ip)
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}

	return "", errors.ErrResolutionFailure(ip)
}

// reverseFallback resolves through the platform resolver.
func (r *Resolver) reverseFallback(ctx context.Context, ip string) (string, error) {
	names, err := r.fallback.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return "", errors.ErrResolutionFailure(ip)
	}
	return strings.TrimSuffix(names[0], "."), nil
}
