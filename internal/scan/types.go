package scan

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/probe"
	"github.com/netscan-tools/netscan/internal/workers"
)

const (
	// DefaultConcurrency bounds the number of in-flight probes per scan.
	DefaultConcurrency = 100
)

var validate = validator.New()

// Config describes a single port scan request.
type Config struct {
	// Host is a hostname or IP address. Resolution happens per probe;
	// an unresolvable host yields error outcomes, not a failed scan.
	Host string `json:"host" validate:"required"`

	// Ports is a port specification ("80", "1-1000", "22,80,443",
	// "common"). Empty selects the default well-known set.
	Ports string `json:"ports,omitempty"`

	// Timeout caps each individual connection attempt.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Concurrency bounds simultaneous probes. Zero means the default.
	Concurrency int `json:"concurrency,omitempty" validate:"gte=0"`

	// Deadline caps the whole scan. Zero means no overall deadline;
	// targets still pending at expiry are reported as cancelled.
	Deadline time.Duration `json:"deadline,omitempty"`

	// RateLimit caps probe launches per second. Zero disables limiting.
	RateLimit int `json:"rate_limit,omitempty" validate:"gte=0"`
}

// Validate checks the request before any probing begins.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WrapScanError(errors.CodeInvalidSpec, "invalid scan config", err)
	}
	if _, err := ParsePortSpec(c.Ports); err != nil {
		return err
	}
	return nil
}

// effectiveConcurrency returns the worker bound with defaults applied.
func (c *Config) effectiveConcurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

func (c *Config) poolConfig() workers.Config {
	return workers.Config{
		Workers:   c.effectiveConcurrency(),
		RateLimit: c.RateLimit,
	}
}

// PortResult is the outcome of probing one port, in canonical order.
type PortResult struct {
	Port     int           `json:"port"`
	Status   probe.Status  `json:"status"`
	Service  string        `json:"service,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Stats summarizes outcome counts for a completed scan.
type Stats struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Closed int `json:"closed"`
	Errors int `json:"errors"`
}

// Result is a completed scan. Ports always holds exactly one entry per
// requested port, in the order the port spec expanded to, regardless of
// the order probes completed in.
type Result struct {
	ID        uuid.UUID     `json:"id"`
	Host      string        `json:"host"`
	Ports     []PortResult  `json:"ports"`
	Stats     Stats         `json:"stats"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// OpenPorts returns the open ports in canonical order.
func (r *Result) OpenPorts() []int {
	var open []int
	for _, pr := range r.Ports {
		if pr.Status == probe.StatusOpen {
			open = append(open, pr.Port)
		}
	}
	return open
}
