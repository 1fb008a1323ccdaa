package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/pingexec"
)

var (
	pingCount   int
	pingTimeout time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping HOST",
	Short: "Check host liveness with the system ping tool",
	Example: `  netscan ping 192.168.1.1
  netscan ping example.com --count 4`,
	Args: cobra.ExactArgs(1),
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 1, "number of echo requests")
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 2*time.Second, "per-request timeout")
}

func runPing(cmd *cobra.Command, args []string) error {
	host := args[0]
	pinger := pingexec.NewExecPinger()

	alive, output := pinger.Ping(context.Background(), host, pingCount, pingTimeout)
	if output != "" {
		fmt.Print(output)
	}

	if !alive {
		return errors.ErrHostUnreachable(host)
	}
	fmt.Printf("%s is reachable\n", host)
	return nil
}
