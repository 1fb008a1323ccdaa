package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/netscan-tools/netscan/internal/probe"
	"github.com/netscan-tools/netscan/internal/scan"
)

var (
	portsSpec        string
	portsTimeout     time.Duration
	portsConcurrency int
	portsDeadline    time.Duration
	portsRateLimit   int
	portsShowAll     bool
)

var portsCmd = &cobra.Command{
	Use:   "ports HOST",
	Short: "Scan multiple TCP ports concurrently",
	Long: `Scan a host for open TCP ports. The port specification accepts a
single port, an inclusive range like 1-1000, a comma list, or "common"
for the default set of well-known ports.`,
	Example: `  netscan ports 192.168.1.1
  netscan ports example.com --ports 1-1000
  netscan ports 10.0.0.5 --ports 22,80,443 --concurrency 50 --deadline 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().StringVar(&portsSpec, "ports", "common", "port specification")
	portsCmd.Flags().DurationVar(&portsTimeout, "timeout", 2*time.Second, "per-probe connection timeout")
	portsCmd.Flags().IntVar(&portsConcurrency, "concurrency", scan.DefaultConcurrency, "maximum in-flight probes")
	portsCmd.Flags().DurationVar(&portsDeadline, "deadline", 0, "overall scan deadline (0 disables)")
	portsCmd.Flags().IntVar(&portsRateLimit, "rate", 0, "probe launches per second (0 disables)")
	portsCmd.Flags().BoolVar(&portsShowAll, "all", false, "show closed and errored ports too")
}

func runPorts(cmd *cobra.Command, args []string) error {
	cfg := scanConfigFromFlags(cmd.Flags(), args[0])

	scanner := scan.NewScanner(cfg.Timeout)
	result, err := scanner.Run(context.Background(), cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	displayScanResult(result)
	return nil
}

// scanConfigFromFlags builds the scan request, taking values from the
// scanning section of the config file for flags the user did not set.
func scanConfigFromFlags(flags *pflag.FlagSet, host string) scan.Config {
	cfg := scan.Config{
		Host:        host,
		Ports:       portsSpec,
		Timeout:     portsTimeout,
		Concurrency: portsConcurrency,
		Deadline:    portsDeadline,
		RateLimit:   portsRateLimit,
	}

	defaults := currentConfig().Scanning
	if !flags.Changed("ports") && defaults.DefaultPorts != "" {
		cfg.Ports = defaults.DefaultPorts
	}
	if !flags.Changed("timeout") {
		cfg.Timeout = defaults.Timeout.Std()
	}
	if !flags.Changed("concurrency") {
		cfg.Concurrency = defaults.Concurrency
	}
	if !flags.Changed("deadline") {
		cfg.Deadline = defaults.Deadline.Std()
	}
	if !flags.Changed("rate") {
		cfg.RateLimit = defaults.RateLimit
	}
	return cfg
}

func displayScanResult(result *scan.Result) {
	fmt.Printf("Scan of %s: %d ports in %s\n\n",
		result.Host, result.Stats.Total, result.Duration.Round(time.Millisecond))

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Port", "Status", "Service", "Detail")

	rows := 0
	for i := range result.Ports {
		pr := &result.Ports[i]
		if !portsShowAll && pr.Status != probe.StatusOpen {
			continue
		}
		_ = table.Append([]string{
			strconv.Itoa(pr.Port),
			string(pr.Status),
			pr.Service,
			pr.Detail,
		})
		rows++
	}
	if rows > 0 {
		_ = table.Render()
	}

	fmt.Printf("\n%d open, %d closed, %d errors\n",
		result.Stats.Open, result.Stats.Closed, result.Stats.Errors)
}
