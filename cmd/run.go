package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rank the front page and post new top stories once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if runDryRun {
			cfg.Pipeline.DryRun = true
		}
		p, cleanup, err := buildPoster(cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()

		rep, err := p.RunOnce(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: fetched %d, ranked %d, skipped %d, published %d, failed %d\n",
			rep.RunID, rep.Fetched, rep.Ranked, rep.Skipped, rep.Published, rep.Failed)
		for _, ref := range rep.Posts {
			fmt.Fprintln(cmd.OutOrStdout(), ref)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "do everything except upload and post")
	rootCmd.AddCommand(runCmd)
}
