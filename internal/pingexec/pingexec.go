// Package pingexec shells out to the platform's ping and traceroute
// binaries. ICMP raw sockets need elevated privileges on most systems;
// delegating to the system tools keeps liveness checks unprivileged and
// inherits the platform's ICMP behavior.
package pingexec

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/logging"
)

const (
	// DefaultCount is the number of echo requests per liveness check.
	DefaultCount = 1

	// DefaultTimeout caps a single ping invocation.
	DefaultTimeout = 2 * time.Second

	// DefaultMaxHops bounds traceroute depth.
	DefaultMaxHops = 30
)

// Pinger checks host liveness. Implementations report reachability and
// the raw tool output; tool failures surface as unreachable, not errors.
type Pinger interface {
	Ping(ctx context.Context, host string, count int, timeout time.Duration) (bool, string)
}

// ExecPinger runs the system ping binary.
type ExecPinger struct {
	logger *logging.Logger
}

// NewExecPinger returns a Pinger backed by the platform ping tool.
func NewExecPinger() *ExecPinger {
	return &ExecPinger{logger: logging.Default().WithComponent("ping")}
}

// Ping sends count echo requests and reports whether any reply arrived.
// A missing ping binary or a non-zero exit both report unreachable; the
// second return value carries the tool's combined output for display.
func (p *ExecPinger) Ping(ctx context.Context, host string, count int, timeout time.Duration) (bool, string) {
	if count <= 0 {
		count = DefaultCount
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	args := pingArgs(host, count, timeout)
	cmd := exec.CommandContext(ctx, "ping", args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		p.logger.Debug("ping failed", "host", host, "error", err)
		return false, out.String()
	}
	return true, out.String()
}

// pingArgs builds platform-specific ping arguments. Windows ping takes
// -n for count and -w in milliseconds; Unix ping takes -c and -W in
// whole seconds.
func pingArgs(host string, count int, timeout time.Duration) []string {
	if runtime.GOOS == "windows" {
		ms := timeout.Milliseconds()
		if ms < 1 {
			ms = 1
		}
		return []string{"-n", strconv.Itoa(count), "-w", strconv.FormatInt(ms, 10), host}
	}

	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", strconv.Itoa(count), "-W", strconv.Itoa(secs), host}
}

// Traceroute runs the platform route-tracing tool and returns its raw
// output. The tool streams hop lines itself; callers print the output
// as-is.
func Traceroute(ctx context.Context, host string, maxHops int) (string, error) {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "tracert", "-h", strconv.Itoa(maxHops), host)
	} else {
		cmd = exec.CommandContext(ctx, "traceroute", "-m", strconv.Itoa(maxHops), host)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if _, lookErr := exec.LookPath(cmd.Args[0]); lookErr != nil {
			return "", errors.WrapScanError(errors.CodeToolNotFound,
				fmt.Sprintf("%s not installed", cmd.Args[0]), lookErr)
		}
		return out.String(), errors.WrapScanError(errors.CodeToolFailed,
			fmt.Sprintf("%s exited with error", cmd.Args[0]), err)
	}
	return out.String(), nil
}

// LocalIP reports the primary outbound IPv4 address. Dialing UDP never
// sends a packet; it only asks the kernel which source address routes
// toward the destination.
func LocalIP() (net.IP, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil, errors.WrapScanError(errors.CodeNetworkUnreachable,
			"cannot determine local address", err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, errors.NewScanError(errors.CodeNetworkUnreachable,
			"unexpected local address type")
	}
	return addr.IP, nil
}
