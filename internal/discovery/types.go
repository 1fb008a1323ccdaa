package discovery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/netscan-tools/netscan/internal/errors"
)

const (
	// HostMin and HostMax bound the last octet of swept addresses.
	// Network (.0) and broadcast (.255) addresses are skipped.
	HostMin = 1
	HostMax = 254

	// DefaultWorkers bounds concurrently swept hosts.
	DefaultWorkers = 50

	// DefaultTimeout caps each liveness probe.
	DefaultTimeout = 1 * time.Second

	octetsInPrefix = 3
	maxOctet       = 255
)

// DefaultCheckPorts are the ports probed to decide host liveness. A host
// answering on any of them counts as live.
var DefaultCheckPorts = []int{80, 443, 22, 445}

var validate = validator.New()

// Config describes a subnet sweep.
type Config struct {
	// Prefix is the first three octets of a /24, e.g. "192.168.1".
	Prefix string `json:"prefix" validate:"required"`

	// CheckPorts are probed per host; empty selects DefaultCheckPorts.
	CheckPorts []int `json:"check_ports,omitempty"`

	// Timeout caps each individual probe.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Workers bounds concurrently swept hosts.
	Workers int `json:"workers,omitempty" validate:"gte=0"`

	// Deadline caps the whole sweep. Zero means no deadline.
	Deadline time.Duration `json:"deadline,omitempty"`

	// UsePing additionally checks liveness with the system ping tool.
	UsePing bool `json:"use_ping,omitempty"`

	// SNMPCommunity enables SNMP sysName enrichment of live hosts when
	// non-empty.
	SNMPCommunity string `json:"snmp_community,omitempty"`
}

// Validate checks the sweep request, including the prefix shape.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.WrapDiscoveryError(errors.CodeInvalidSpec, "invalid discovery config", c.Prefix, err)
	}
	if err := ValidatePrefix(c.Prefix); err != nil {
		return err
	}
	for _, port := range c.CheckPorts {
		if port < 1 || port > 65535 {
			return errors.NewDiscoveryError(errors.CodeInvalidSpec,
				fmt.Sprintf("check port %d out of range", port))
		}
	}
	return nil
}

// ValidatePrefix checks that prefix is exactly three octets, each 0-255.
func ValidatePrefix(prefix string) error {
	octets := strings.Split(strings.TrimSpace(prefix), ".")
	if len(octets) != octetsInPrefix {
		return errors.NewDiscoveryError(errors.CodeInvalidSpec,
			fmt.Sprintf("prefix %q must have exactly three octets", prefix))
	}
	for _, octet := range octets {
		n, err := strconv.Atoi(octet)
		if err != nil || octet != strconv.Itoa(n) {
			return errors.NewDiscoveryError(errors.CodeInvalidSpec,
				fmt.Sprintf("prefix %q has non-numeric octet %q", prefix, octet))
		}
		if n < 0 || n > maxOctet {
			return errors.NewDiscoveryError(errors.CodeInvalidSpec,
				fmt.Sprintf("prefix %q has octet %d out of range", prefix, n))
		}
	}
	return nil
}

func (c *Config) effectiveCheckPorts() []int {
	if len(c.CheckPorts) == 0 {
		ports := make([]int, len(DefaultCheckPorts))
		copy(ports, DefaultCheckPorts)
		return ports
	}
	return c.CheckPorts
}

func (c *Config) effectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Config) effectiveWorkers() int {
	if c.Workers <= 0 {
		return DefaultWorkers
	}
	return c.Workers
}

// Host is one live host found during a sweep.
type Host struct {
	IP        string `json:"ip"`
	Hostname  string `json:"hostname,omitempty"`
	SysName   string `json:"sys_name,omitempty"`
	OpenPorts []int  `json:"open_ports,omitempty"`
	ViaPing   bool   `json:"via_ping,omitempty"`
}

// Stats summarizes a completed sweep.
type Stats struct {
	HostsScanned int `json:"hosts_scanned"`
	HostsLive    int `json:"hosts_live"`
}

// Result is a completed sweep. Hosts are ordered by ascending last octet
// regardless of the order liveness checks completed in.
type Result struct {
	ID        uuid.UUID     `json:"id"`
	Network   string        `json:"network"`
	Hosts     []Host        `json:"hosts"`
	Stats     Stats         `json:"stats"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}
