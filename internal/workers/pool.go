// Package workers provides the bounded-concurrency executor that runs probe
// batches for netscan. It caps simultaneous in-flight probes with a
// semaphore, admits the next pending target as soon as one completes, and
// guarantees exactly one outcome per submitted target even when the batch
// deadline expires mid-flight. It integrates with the structured logging and
// metrics systems.
package workers

import (
	"context"
	"time"

	"github.com/netscan-tools/netscan/internal/logging"
	"github.com/netscan-tools/netscan/internal/metrics"
	"github.com/netscan-tools/netscan/internal/probe"
)

// DefaultWorkers is the recommended concurrency cap. The pool does not clamp
// high values itself; the caller is responsible for choosing a value
// compatible with OS file-descriptor limits.
const DefaultWorkers = 100

// Config holds configuration for the probe pool.
type Config struct {
	// Workers is the maximum number of in-flight probes. Values below 1 are
	// clamped to 1.
	Workers int
	// RateLimit is the maximum number of probe launches per second
	// (0 = no limit).
	RateLimit int
}

// DefaultConfig returns a default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   DefaultWorkers,
		RateLimit: 0,
	}
}

// Pool executes probe batches under a fixed concurrency cap. A Pool is
// stateless between runs and safe for concurrent use.
type Pool struct {
	config Config
}

// New creates a probe pool with the given configuration.
func New(config Config) *Pool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Pool{config: config}
}

// Workers returns the configured concurrency cap.
func (p *Pool) Workers() int {
	return p.config.Workers
}

// indexed pairs an outcome with its position in the submitted batch so the
// collector can tell which targets are still unresolved at deadline expiry.
type indexed struct {
	pos     int
	outcome probe.Outcome
}

// Run executes fn for every target and returns exactly one outcome per
// target, in completion order. At most Workers probes are in flight at any
// instant; as each completes the next pending target is admitted
// immediately.
//
// If ctx expires before the batch finishes, in-flight probes are abandoned
// (their eventual outcomes discarded) and every unresolved target is
// synthesized as a cancelled error outcome, so the total-count invariant
// holds. fn must honor ctx cancellation for abandoned probes to wind down
// promptly.
func (p *Pool) Run(ctx context.Context, targets []probe.Target, fn probe.Func) []probe.Outcome {
	n := len(targets)
	if n == 0 {
		return nil
	}

	logging.Debug("Starting probe batch",
		"targets", n,
		"workers", p.config.Workers,
		"rate_limit", p.config.RateLimit)

	start := time.Now()
	results := make(chan indexed, n)
	sem := make(chan struct{}, p.config.Workers)

	var limiter *time.Ticker
	if p.config.RateLimit > 0 {
		limiter = time.NewTicker(time.Second / time.Duration(p.config.RateLimit))
		defer limiter.Stop()
	}

	go p.dispatch(ctx, targets, fn, sem, results, limiter)

	outcomes := make([]probe.Outcome, 0, n)
	resolved := make([]bool, n)

	for len(outcomes) < n {
		select {
		case r := <-results:
			if resolved[r.pos] {
				continue
			}
			resolved[r.pos] = true
			outcomes = append(outcomes, r.outcome)

		case <-ctx.Done():
			synthesized := 0
			for i := range targets {
				if !resolved[i] {
					resolved[i] = true
					outcomes = append(outcomes, probe.Cancelled(targets[i]))
					synthesized++
				}
			}
			metrics.Counter(metrics.MetricPoolSynthetic, metrics.Labels{
				metrics.LabelStatus: "cancelled",
			})
			logging.Warn("Probe batch cancelled by deadline",
				"completed", n-synthesized,
				"synthesized", synthesized,
				"elapsed", time.Since(start))
			return outcomes
		}
	}

	logging.Debug("Probe batch completed",
		"targets", n,
		"elapsed", time.Since(start))
	return outcomes
}

// dispatch launches probes under the semaphore discipline until all targets
// are submitted or the context expires. Launched probes report through the
// buffered results channel, so a late send never blocks.
func (p *Pool) dispatch(
	ctx context.Context,
	targets []probe.Target,
	fn probe.Func,
	sem chan struct{},
	results chan<- indexed,
	limiter *time.Ticker,
) {
	for i := range targets {
		if limiter != nil {
			select {
			case <-limiter.C:
			case <-ctx.Done():
				return
			}
		}

		select {
		case sem <- struct{}{}:
			metrics.Gauge(metrics.MetricPoolInFlight, float64(len(sem)), nil)
			go func(pos int, target probe.Target) {
				defer func() { <-sem }()
				results <- indexed{pos: pos, outcome: fn(ctx, target)}
			}(i, targets[i])

		case <-ctx.Done():
			return
		}
	}
}
