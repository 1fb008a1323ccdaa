package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/scan"
	"github.com/netscan-tools/netscan/internal/services"
)

var portTimeout time.Duration

var portCmd = &cobra.Command{
	Use:   "port HOST PORT",
	Short: "Check whether a single TCP port is open",
	Example: `  netscan port 192.168.1.1 80
  netscan port example.com 443 --timeout 5s`,
	Args: cobra.ExactArgs(2),
	RunE: runPort,
}

func init() {
	rootCmd.AddCommand(portCmd)
	portCmd.Flags().DurationVar(&portTimeout, "timeout", 2*time.Second, "connection timeout")
}

func runPort(cmd *cobra.Command, args []string) error {
	host := args[0]
	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return errors.ErrInvalidSpec(args[1])
	}

	open, detail := scan.CheckPort(context.Background(), host, port, portTimeout)

	service := services.NameOrDefault(port, "")
	label := fmt.Sprintf("%s:%d", host, port)
	if service != "" {
		label = fmt.Sprintf("%s (%s)", label, service)
	}

	if open {
		fmt.Printf("%s is OPEN\n", label)
		return nil
	}
	if detail != "" {
		fmt.Printf("%s is closed (%s)\n", label, detail)
	} else {
		fmt.Printf("%s is closed\n", label)
	}
	return nil
}
