package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/netscan-tools/netscan/internal/discovery"
	"github.com/netscan-tools/netscan/internal/dnsutil"
	"github.com/netscan-tools/netscan/internal/pingexec"
	"github.com/netscan-tools/netscan/internal/scan"
)

var (
	subnetPorts    string
	subnetTimeout  time.Duration
	subnetWorkers  int
	subnetDeadline time.Duration
	subnetUsePing  bool
	subnetSNMP     string
)

var subnetCmd = &cobra.Command{
	Use:   "subnet PREFIX",
	Short: "Sweep a /24 subnet for live hosts",
	Long: `Sweep all 254 host addresses under a three-octet prefix. A host
counts as live when it answers on any of the check ports, or responds to
ping when --ping is set. Live hosts are enriched with reverse DNS names
and, when a community is given, SNMP system names.`,
	Example: `  netscan subnet 192.168.1
  netscan subnet 10.0.0 --ports 22,3389 --ping
  netscan subnet 192.168.1 --snmp-community public`,
	Args: cobra.ExactArgs(1),
	RunE: runSubnet,
}

func init() {
	rootCmd.AddCommand(subnetCmd)
	subnetCmd.Flags().StringVar(&subnetPorts, "ports", "", "liveness check ports (default 80,443,22,445)")
	subnetCmd.Flags().DurationVar(&subnetTimeout, "timeout", discovery.DefaultTimeout, "per-probe timeout")
	subnetCmd.Flags().IntVar(&subnetWorkers, "workers", discovery.DefaultWorkers, "concurrently swept hosts")
	subnetCmd.Flags().DurationVar(&subnetDeadline, "deadline", 0, "overall sweep deadline (0 disables)")
	subnetCmd.Flags().BoolVar(&subnetUsePing, "ping", false, "also check liveness with ping")
	subnetCmd.Flags().StringVar(&subnetSNMP, "snmp-community", "", "SNMP community for sysName enrichment")
}

func runSubnet(cmd *cobra.Command, args []string) error {
	cfg, err := sweepConfigFromFlags(cmd.Flags(), args[0])
	if err != nil {
		return err
	}

	opts := []discovery.Option{
		discovery.WithResolver(dnsutil.NewResolver(cfg.Timeout)),
	}
	if cfg.UsePing {
		opts = append(opts, discovery.WithPinger(pingexec.NewExecPinger()))
	}

	scanner := discovery.NewScanner(opts...)
	result, err := scanner.Run(context.Background(), cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	displaySweepResult(result)
	return nil
}

// sweepConfigFromFlags builds the sweep request, taking values from the
// discovery section of the config file for flags the user did not set.
func sweepConfigFromFlags(flags *pflag.FlagSet, prefix string) (discovery.Config, error) {
	cfg := discovery.Config{
		Prefix:        prefix,
		Timeout:       subnetTimeout,
		Workers:       subnetWorkers,
		Deadline:      subnetDeadline,
		UsePing:       subnetUsePing,
		SNMPCommunity: subnetSNMP,
	}

	if subnetPorts != "" && flags.Changed("ports") {
		ports, err := scan.ParsePortSpec(subnetPorts)
		if err != nil {
			return discovery.Config{}, err
		}
		cfg.CheckPorts = ports
	}

	defaults := currentConfig().Discovery
	if !flags.Changed("ports") && len(defaults.CheckPorts) > 0 {
		cfg.CheckPorts = defaults.CheckPorts
	}
	if !flags.Changed("timeout") {
		cfg.Timeout = defaults.Timeout.Std()
	}
	if !flags.Changed("workers") {
		cfg.Workers = defaults.Workers
	}
	if !flags.Changed("ping") {
		cfg.UsePing = defaults.UsePing
	}
	if !flags.Changed("snmp-community") && defaults.SNMPCommunity != "" {
		cfg.SNMPCommunity = defaults.SNMPCommunity
	}
	return cfg, nil
}

func displaySweepResult(result *discovery.Result) {
	fmt.Printf("Sweep of %s: %d hosts checked in %s\n\n",
		result.Network, result.Stats.HostsScanned, result.Duration.Round(time.Millisecond))

	if len(result.Hosts) == 0 {
		fmt.Println("No live hosts found")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("IP", "Hostname", "Open Ports", "SysName", "Via")

	for i := range result.Hosts {
		host := &result.Hosts[i]

		ports := make([]string, len(host.OpenPorts))
		for j, port := range host.OpenPorts {
			ports[j] = strconv.Itoa(port)
		}
		via := "tcp"
		if host.ViaPing {
			via = "ping"
		}

		_ = table.Append([]string{
			host.IP,
			host.Hostname,
			strings.Join(ports, ","),
			host.SysName,
			via,
		})
	}
	_ = table.Render()

	fmt.Printf("\n%d live hosts\n", result.Stats.HostsLive)
}
