package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"hackersky/worker"

	"github.com/spf13/cobra"
)

var previewLogin bool

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the stories the next run would post",
	Long:  "Fetches and ranks the front page and removes stories already in the posted ledger. With --login the account's recent posts are checked too. Nothing is posted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		p, cleanup, err := buildPoster(cfg, previewLogin)
		if err != nil {
			return err
		}
		defer cleanup()

		var rep worker.Report
		items, err := p.Plan(context.Background(), nil, &rep)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tHOTNESS\tPOINTS\tTITLE\tURL")
		for i, c := range items {
			fmt.Fprintf(tw, "%d\t%.3f\t%d\t%s\t%s\n", i+1, c.Hotness, c.Points, c.Title, c.ArticleURL)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fetched %d, ranked %d, already posted %d\n", rep.Fetched, rep.Ranked, rep.Skipped)
		return nil
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewLogin, "login", false, "also dedup against the account's recent posts")
	rootCmd.AddCommand(previewCmd)
}
