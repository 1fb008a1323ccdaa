package scan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/services"
)

const (
	minPort = 1
	maxPort = 65535

	expectedRangeParts = 2
)

// SpecCommon selects the documented default set of well-known ports.
const SpecCommon = "common"

// ParsePortSpec expands a port specification into a duplicate-free ordered
// set of ports. Accepted forms:
//
//	"80"          single port
//	"1-1000"      inclusive range
//	"22,80,443"   comma list (elements may themselves be ranges)
//	"common", ""  the default well-known set
//
// Ranges and lists are returned in ascending numeric order; the default set
// keeps its declaration order. Any malformed or out-of-range element fails
// the whole spec before any probing begins.
func ParsePortSpec(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == SpecCommon {
		ports := make([]int, len(services.CommonPorts))
		copy(ports, services.CommonPorts)
		return ports, nil
	}

	seen := make(map[int]bool)
	var ports []int

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.NewScanErrorWithTarget(errors.CodeInvalidSpec,
				"empty element in port list", spec)
		}

		expanded, err := parsePortPart(part)
		if err != nil {
			return nil, err
		}
		for _, port := range expanded {
			if !seen[port] {
				seen[port] = true
				ports = append(ports, port)
			}
		}
	}

	sort.Ints(ports)
	return ports, nil
}

// parsePortPart expands a single port or inclusive range.
func parsePortPart(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		return parsePortRange(part)
	}

	port, err := parsePort(part)
	if err != nil {
		return nil, err
	}
	return []int{port}, nil
}

// parsePortRange expands an inclusive range like "80-100".
func parsePortRange(part string) ([]int, error) {
	bounds := strings.Split(part, "-")
	if len(bounds) != expectedRangeParts {
		return nil, errors.NewScanErrorWithTarget(errors.CodeInvalidSpec,
			fmt.Sprintf("invalid port range format: %s", part), part)
	}

	start, err := parsePort(strings.TrimSpace(bounds[0]))
	if err != nil {
		return nil, err
	}
	end, err := parsePort(strings.TrimSpace(bounds[1]))
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, errors.NewScanErrorWithTarget(errors.CodeInvalidSpec,
			fmt.Sprintf("range start %d exceeds end %d", start, end), part)
	}

	ports := make([]int, 0, end-start+1)
	for port := start; port <= end; port++ {
		ports = append(ports, port)
	}
	return ports, nil
}

// parsePort validates a single numeric port.
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewScanErrorWithTarget(errors.CodeInvalidSpec,
			fmt.Sprintf("invalid port: %s", s), s)
	}
	if port < minPort || port > maxPort {
		return 0, errors.NewScanErrorWithTarget(errors.CodeInvalidSpec,
			fmt.Sprintf("port %d outside range %d-%d", port, minPort, maxPort), s)
	}
	return port, nil
}
