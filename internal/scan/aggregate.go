package scan

import (
	"sort"

	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/probe"
	"github.com/netscan-tools/netscan/internal/services"
)

// aggregate restores canonical ordering and computes summary stats.
// The pool reports outcomes in completion order; each probe target carries
// the index it was assigned at expansion time, so sorting by that index
// reproduces the requested order deterministically. A count mismatch means
// an outcome was lost or duplicated upstream and fails the whole scan.
func aggregate(outcomes []probe.Outcome, expected int) ([]PortResult, Stats, error) {
	if len(outcomes) != expected {
		return nil, Stats{}, errors.ErrIncompleteAggregation(expected, len(outcomes))
	}

	sorted := make([]probe.Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Target.Index < sorted[j].Target.Index
	})

	results := make([]PortResult, 0, len(sorted))
	var stats Stats
	for _, outcome := range sorted {
		pr := PortResult{
			Port:     outcome.Target.Port,
			Status:   outcome.Status,
			Detail:   outcome.Detail,
			Duration: outcome.Duration,
		}
		if name, ok := services.Name(outcome.Target.Port); ok {
			pr.Service = name
		}

		stats.Total++
		switch outcome.Status {
		case probe.StatusOpen:
			stats.Open++
		case probe.StatusClosed:
			stats.Closed++
		default:
			stats.Errors++
		}

		results = append(results, pr)
	}

	return results, stats, nil
}
