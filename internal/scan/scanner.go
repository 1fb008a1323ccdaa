// Package scan implements concurrent TCP port scanning of a single host.
// A scan expands a port specification into probe targets, runs them through
// a bounded worker pool, and aggregates the outcomes back into the order the
// specification expanded to. Individual probe failures are data, not errors;
// a scan only fails on invalid input or internal inconsistency.
package scan

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/netscan-tools/netscan/internal/logging"
	"github.com/netscan-tools/netscan/internal/metrics"
	"github.com/netscan-tools/netscan/internal/probe"
	"github.com/netscan-tools/netscan/internal/workers"
)

// Scanner runs port scans. The zero value is not usable; use NewScanner.
type Scanner struct {
	prober  probe.Prober
	timeout time.Duration
	logger  *logging.Logger
}

// NewScanner returns a Scanner whose probes time out after the given
// duration unless a scan request carries its own timeout.
func NewScanner(timeout time.Duration) *Scanner {
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	return &Scanner{
		timeout: timeout,
		logger:  logging.Default().WithComponent("scan"),
	}
}

// NewScannerWithProber returns a Scanner using a custom prober. The
// injected prober handles its own timeouts; request timeouts are ignored.
func NewScannerWithProber(prober probe.Prober) *Scanner {
	return &Scanner{
		prober: prober,
		logger: logging.Default().WithComponent("scan"),
	}
}

// proberFor returns the prober for one run. A timeout on the request wins
// over the scanner default; an injected prober wins over both.
func (s *Scanner) proberFor(cfg *Config) probe.Prober {
	if s.prober != nil {
		return s.prober
	}
	if cfg.Timeout > 0 {
		return probe.NewTCPProber(cfg.Timeout)
	}
	return probe.NewTCPProber(s.timeout)
}

// Run executes the scan described by cfg and returns one result per
// requested port. Unreachable or refused ports are reported inside the
// result; Run only returns an error for invalid configuration or a lost
// outcome during aggregation.
func (s *Scanner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ports, err := ParsePortSpec(cfg.Ports)
	if err != nil {
		return nil, err
	}

	targets := make([]probe.Target, len(ports))
	for i, port := range ports {
		targets[i] = probe.Target{Host: cfg.Host, Port: port, Index: i}
	}

	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	id := uuid.New()
	logger := s.logger.WithScanID(id.String())
	start := time.Now()
	logger.InfoScan("scan started", cfg.Host,
		"ports", len(targets),
		"concurrency", cfg.effectiveConcurrency())

	pool := workers.New(cfg.poolConfig())
	outcomes := pool.Run(ctx, targets, s.proberFor(&cfg).Probe)

	portResults, stats, err := aggregate(outcomes, len(targets))
	if err != nil {
		metrics.IncrementScanTotal("error")
		logger.ErrorScan("scan aggregation failed", cfg.Host, err)
		return nil, err
	}

	end := time.Now()
	result := &Result{
		ID:        id,
		Host:      cfg.Host,
		Ports:     portResults,
		Stats:     stats,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}

	metrics.IncrementScanTotal("success")
	metrics.RecordScanDuration(cfg.Host, result.Duration)
	logger.InfoScan("scan completed", cfg.Host,
		"open", stats.Open,
		"closed", stats.Closed,
		"errors", stats.Errors,
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// CheckPort probes a single port and reports whether it accepted a
// connection. The outcome detail carries the classification for closed
// and errored ports.
func CheckPort(ctx context.Context, host string, port int, timeout time.Duration) (bool, string) {
	prober := probe.NewTCPProber(timeout)
	outcome := prober.Probe(ctx, probe.Target{Host: host, Port: port})
	return outcome.Open(), outcome.Detail
}
