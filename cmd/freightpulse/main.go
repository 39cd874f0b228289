// Command freightpulse runs the inland waterway supply-chain stress
// monitor: ingest upstream signals, score the composite risk, backfill
// the historical risk table, or serve the status API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"freightpulse/internal/app"
	"freightpulse/internal/config"
	"freightpulse/internal/scheduler"
	transport "freightpulse/internal/transport/http"
)

var (
	configPath string
	dataDir    string
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "freightpulse",
		Short:         "Inland waterway supply-chain stress monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the data directory")

	root.AddCommand(ingestCommand())
	root.AddCommand(scoreCommand())
	root.AddCommand(backfillCommand())
	root.AddCommand(serveCommand())

	return root
}

func buildApp() (*app.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Paths.DataDir = dataDir
	}
	return app.New(cfg)
}

func ingestCommand() *cobra.Command {
	var signals []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch upstream sources and update history tables and status documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunIngest(cmd.Context(), signals)
		},
	}

	cmd.Flags().StringSliceVar(&signals, "signal", nil,
		"signals to ingest (river, rail, barge); default all")
	return cmd
}

func scoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Compute the composite risk snapshot from the current status documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			snapshot, err := a.RunScore(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "risk score %.0f (%s), primary driver: %s\n",
				snapshot.RiskScore, snapshot.RiskLevel, snapshot.PrimaryDriver)
			return nil
		},
	}
}

func backfillCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Reconstruct the historical daily risk table from the history files",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.RunBackfill(cmd.Context(), days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "days to reconstruct (default from config)")
	return cmd
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the status API, optionally with scheduled ingestion",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Config.Scheduler.Enabled {
				sched := scheduler.New(a, a.Config.Scheduler, a.Logger)
				if err := sched.Start(); err != nil {
					return err
				}
				defer sched.Stop()
			}

			router := transport.NewRouter(a.Paths, a.RiskTable(), a.Logger)
			server := transport.NewServer(a.Config.Server, router, a.Logger)

			errCh := make(chan error, 1)
			go func() { errCh <- server.ListenAndServe() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				a.Logger.Info("signal received, shutting down", "signal", sig.String())
				return server.Shutdown(context.Background())
			}
		},
	}
}
