// Package discovery sweeps a /24 network prefix for live hosts. Each
// candidate address is checked against a small set of well-known ports,
// optionally seconded by the system ping tool, and live hosts are enriched
// with reverse DNS names and SNMP system names where available.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netscan-tools/netscan/internal/logging"
	"github.com/netscan-tools/netscan/internal/metrics"
	"github.com/netscan-tools/netscan/internal/pingexec"
	"github.com/netscan-tools/netscan/internal/probe"
)

// ReverseResolver maps an IP back to a hostname. Lookups are best effort;
// a failed lookup leaves the hostname empty.
type ReverseResolver interface {
	Reverse(ctx context.Context, ip string) (string, error)
}

// Scanner sweeps subnets for live hosts.
type Scanner struct {
	prober   probe.Prober
	pinger   pingexec.Pinger
	resolver ReverseResolver
	snmp     sysNameQuerier
	logger   *logging.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithProber overrides the TCP prober.
func WithProber(p probe.Prober) Option {
	return func(s *Scanner) { s.prober = p }
}

// WithPinger overrides the ICMP liveness checker.
func WithPinger(p pingexec.Pinger) Option {
	return func(s *Scanner) { s.pinger = p }
}

// WithResolver overrides the reverse DNS resolver.
func WithResolver(r ReverseResolver) Option {
	return func(s *Scanner) { s.resolver = r }
}

// NewScanner returns a Scanner with production defaults.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		snmp:   snmpQuery{},
		logger: logging.Default().WithComponent("discovery"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps the configured prefix and returns the live hosts found,
// ordered by ascending last octet. Dead hosts are counted, not listed.
func (s *Scanner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	id := uuid.New()
	network := cfg.Prefix + ".0/24"
	logger := s.logger.WithFields("discovery_id", id.String(), "network", network)
	start := time.Now()
	logger.Info("discovery started",
		"workers", cfg.effectiveWorkers(),
		"check_ports", cfg.effectiveCheckPorts())

	prober := s.prober
	if prober == nil {
		prober = probe.NewTCPProber(cfg.effectiveTimeout())
	}

	var (
		mu    sync.Mutex
		hosts []Host
	)
	sem := make(chan struct{}, cfg.effectiveWorkers())
	var wg sync.WaitGroup

	scanned := 0
sweep:
	for octet := HostMin; octet <= HostMax; octet++ {
		select {
		case <-ctx.Done():
			break sweep
		case sem <- struct{}{}:
		}
		scanned++

		ip := fmt.Sprintf("%s.%d", cfg.Prefix, octet)
		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			defer func() { <-sem }()

			host, live := s.checkHost(ctx, ip, cfg, prober)
			if !live {
				return
			}
			mu.Lock()
			hosts = append(hosts, host)
			mu.Unlock()
		}(ip)
	}
	wg.Wait()

	sort.Slice(hosts, func(i, j int) bool {
		return lastOctet(hosts[i].IP) < lastOctet(hosts[j].IP)
	})

	end := time.Now()
	result := &Result{
		ID:        id,
		Network:   network,
		Hosts:     hosts,
		Stats:     Stats{HostsScanned: scanned, HostsLive: len(hosts)},
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}

	metrics.RecordDiscoveryDuration(network, result.Duration)
	logger.Info("discovery completed",
		"hosts_scanned", scanned,
		"hosts_live", len(hosts),
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// checkHost decides liveness for a single address and enriches live hosts.
func (s *Scanner) checkHost(ctx context.Context, ip string, cfg Config, prober probe.Prober) (Host, bool) {
	host := Host{IP: ip}

	for _, port := range cfg.effectiveCheckPorts() {
		if ctx.Err() != nil {
			break
		}
		outcome := prober.Probe(ctx, probe.Target{Host: ip, Port: port})
		if outcome.Open() {
			host.OpenPorts = append(host.OpenPorts, port)
		}
	}

	live := len(host.OpenPorts) > 0
	if !live && cfg.UsePing && s.pinger != nil && ctx.Err() == nil {
		ok, _ := s.pinger.Ping(ctx, ip, 1, cfg.effectiveTimeout())
		host.ViaPing = ok
		live = ok
	}
	if !live {
		return Host{}, false
	}

	if s.resolver != nil {
		if name, err := s.resolver.Reverse(ctx, ip); err == nil {
			host.Hostname = name
		}
	}
	if cfg.SNMPCommunity != "" {
		if name, ok := s.snmp.SysName(ctx, ip, cfg.SNMPCommunity, cfg.effectiveTimeout()); ok {
			host.SysName = name
		}
	}

	metrics.Counter(metrics.MetricHostsDiscovered, metrics.Labels{metrics.LabelNetwork: cfg.Prefix})
	return host, true
}

func lastOctet(ip string) int {
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == '.' {
			n := 0
			for _, c := range ip[i+1:] {
				n = n*10 + int(c-'0')
			}
			return n
		}
	}
	return 0
}
