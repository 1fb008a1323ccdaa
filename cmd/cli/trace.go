package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netscan-tools/netscan/internal/pingexec"
)

var traceMaxHops int

var traceCmd = &cobra.Command{
	Use:     "trace HOST",
	Short:   "Trace the network route to a host",
	Example: `  netscan trace example.com --max-hops 20`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := pingexec.Traceroute(context.Background(), args[0], traceMaxHops)
		if output != "" {
			fmt.Print(output)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().IntVar(&traceMaxHops, "max-hops", pingexec.DefaultMaxHops, "maximum hops to probe")
}
