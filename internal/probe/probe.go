// Package probe implements the atomic reachability check of the scanning
// engine: a single TCP connection attempt against one (host, port) pair with
// a bounded timeout. A probe never exchanges data; a connection that
// establishes is closed immediately. All failure modes are encoded in the
// returned Outcome rather than propagated as errors, since scanning routinely
// encounters expected failures at scale.
package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/netscan-tools/netscan/internal/metrics"
)

// DefaultTimeout is the per-probe connect timeout used when none is given.
const DefaultTimeout = 2 * time.Second

// Status is the tri-state result of a probe.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusError  Status = "error"
)

// Outcome detail strings for diagnostics.
const (
	DetailTimeout    = "timeout"
	DetailRefused    = "connection refused"
	DetailResolution = "resolution failure"
	DetailCancelled  = "cancelled"
)

// Target identifies one unit of probe work. Index is assigned at expansion
// time, before dispatch, and is the sort key the aggregator uses to restore
// canonical ordering.
type Target struct {
	Host  string
	Port  int
	Index int
}

// Addr returns the dial address for the target.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Outcome is the immutable result of one probe execution.
type Outcome struct {
	Target   Target
	Status   Status
	Detail   string
	Err      error
	Duration time.Duration
}

// Open reports whether the probed port accepted a connection.
func (o Outcome) Open() bool {
	return o.Status == StatusOpen
}

// Func is the probe function signature the worker pool executes.
type Func func(ctx context.Context, target Target) Outcome

// Prober performs a single reachability check.
type Prober interface {
	Probe(ctx context.Context, target Target) Outcome
}

// TCPProber probes targets with a plain TCP connect. It holds no state beyond
// its timeout and is safe for concurrent use.
type TCPProber struct {
	Timeout time.Duration
}

// NewTCPProber creates a prober with the given per-probe timeout. A
// non-positive timeout falls back to DefaultTimeout.
func NewTCPProber(timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPProber{Timeout: timeout}
}

// Probe attempts a TCP connection to the target. Classification:
//   - connection established: open (socket closed immediately)
//   - connection refused: closed
//   - connect timed out: closed, detail "timeout"
//   - hostname did not resolve: error, detail "resolution failure" (not retried)
//   - context cancelled: error, detail "cancelled"
func (p *TCPProber) Probe(ctx context.Context, target Target) Outcome {
	start := time.Now()

	if target.Port < 1 || target.Port > 65535 {
		return p.finish(Outcome{
			Target: target,
			Status: StatusError,
			Detail: "port out of range",
			Err:    errors.New("port out of range"),
		}, start)
	}

	dialer := net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.Addr())
	if err == nil {
		_ = conn.Close()
		return p.finish(Outcome{Target: target, Status: StatusOpen}, start)
	}

	return p.finish(classify(target, err), start)
}

func (p *TCPProber) finish(o Outcome, start time.Time) Outcome {
	o.Duration = time.Since(start)
	metrics.IncrementProbes(string(o.Status))
	return o
}

// classify maps a dial error onto the outcome taxonomy.
func classify(target Target, err error) Outcome {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Outcome{Target: target, Status: StatusError, Detail: DetailResolution, Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return Outcome{Target: target, Status: StatusClosed, Detail: DetailRefused, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return Outcome{Target: target, Status: StatusError, Detail: DetailCancelled, Err: err}
	}

	// A timed-out connect is reported as closed for aggregate counting, with
	// the detail preserved for diagnostics.
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Outcome{Target: target, Status: StatusClosed, Detail: DetailTimeout, Err: err}
	}

	return Outcome{Target: target, Status: StatusError, Detail: err.Error(), Err: err}
}

// Cancelled synthesizes the outcome for a target abandoned by a scan
// deadline. The worker pool uses it so the total-count invariant holds even
// when a batch is cut short.
func Cancelled(target Target) Outcome {
	return Outcome{
		Target: target,
		Status: StatusError,
		Detail: DetailCancelled,
		Err:    context.DeadlineExceeded,
	}
}
