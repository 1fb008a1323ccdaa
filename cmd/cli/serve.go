package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netscan-tools/netscan/internal/api"
	"github.com/netscan-tools/netscan/internal/logging"
	"github.com/netscan-tools/netscan/internal/metrics"
	"github.com/netscan-tools/netscan/internal/scan"
	"github.com/netscan-tools/netscan/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server with scheduled scans",
	Long: `Run netscan as a long-lived service. The REST API accepts scan and
sweep jobs and reports their results; schedules from the configuration
file fire recurring scans whose latest results stay queryable.`,
	Example: `  netscan serve --config netscan.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	cfg.API.Enabled = true

	logger := logging.Default().WithComponent("serve")
	api.Version = version

	sched := scheduler.New(scan.NewScanner(cfg.Scanning.Timeout.Std()))
	for _, schedule := range cfg.Schedules {
		if err := sched.Add(schedule); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Prometheus {
		metrics.GetGlobalMetrics().StartPeriodicUpdates(ctx, 15*time.Second)
	}

	server := api.New(cfg)
	logger.Info("serve mode starting",
		"address", server.Address(),
		"schedules", len(cfg.Schedules))

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}
