package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/netscan-tools/netscan/internal/dnsutil"
)

var dnsTimeout time.Duration

var dnsCmd = &cobra.Command{
	Use:     "dns HOSTNAME",
	Short:   "Resolve a hostname to an IP address",
	Example: `  netscan dns example.com`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDNS,
}

var rdnsCmd = &cobra.Command{
	Use:     "rdns IP",
	Short:   "Resolve an IP address back to a hostname",
	Example: `  netscan rdns 8.8.8.8`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRDNS,
}

func init() {
	rootCmd.AddCommand(dnsCmd)
	rootCmd.AddCommand(rdnsCmd)
	dnsCmd.Flags().DurationVar(&dnsTimeout, "timeout", dnsutil.DefaultTimeout, "lookup timeout")
	rdnsCmd.Flags().DurationVar(&dnsTimeout, "timeout", dnsutil.DefaultTimeout, "lookup timeout")
}

func runDNS(cmd *cobra.Command, args []string) error {
	resolver := dnsutil.NewResolver(dnsTimeout)
	ip, err := resolver.Forward(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n", args[0], ip)
	return nil
}

func runRDNS(cmd *cobra.Command, args []string) error {
	resolver := dnsutil.NewResolver(dnsTimeout)
	name, err := resolver.Reverse(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n", args[0], name)
	return nil
}
