package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netscan-tools/netscan/internal/pingexec"
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Show the primary local IP address and hostname",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ip, err := pingexec.LocalIP()
		if err != nil {
			return err
		}
		fmt.Println("IP:", ip)
		if hostname, err := os.Hostname(); err == nil {
			fmt.Println("Hostname:", hostname)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(localCmd)
}
