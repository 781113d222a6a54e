package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hackersky/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the poster on an interval until stopped",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		p, cleanup, err := buildPoster(cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()

		mgr := worker.NewManager(p)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		slog.Info("starting poster", "interval", p.Interval, "top_n", p.TopN, "dry_run", p.DryRun, "ledger", p.Ledger != nil)
		return mgr.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
