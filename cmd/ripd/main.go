package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rekanorman/rip-assignment/config"
	"github.com/rekanorman/rip-assignment/rip"
)

func main() {
	cmd := &cobra.Command{
		Use:   "ripd <config-file>",
		Short: "A distance-vector routing daemon speaking RIPv2 over loopback UDP",
		Args:  cobra.ExactArgs(1),
		// Silenced so main's own error reporting below is the only output.
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          run,
	}

	if err := cmd.Execute(); err != nil {
		// A wrong argument count, a malformed config file or a startup
		// failure is reported and the
		// process exits cleanly rather than with a failure status.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(0)
	}
}

func run(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	daemonCfg := toDaemonConfig(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d, err := rip.NewDaemon(ctx, daemonCfg)
	if err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}
	defer d.Close()

	err = d.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func toDaemonConfig(cfg *config.Config) rip.Config {
	updatePeriod := cfg.UpdatePeriod
	if updatePeriod == 0 {
		updatePeriod = rip.DefaultUpdatePeriod
	}

	neighbours := make([]rip.Neighbour, 0, len(cfg.Outputs))
	for _, out := range cfg.Outputs {
		neighbours = append(neighbours, rip.Neighbour{
			ID:         out.RouterID,
			LinkMetric: out.Metric,
			InputPort:  out.InputPort,
		})
	}

	return rip.Config{
		RouterID:     cfg.RouterID,
		InputPorts:   cfg.InputPorts,
		OutputPort:   cfg.OutputPort,
		Neighbours:   neighbours,
		UpdatePeriod: updatePeriod,
	}
}
