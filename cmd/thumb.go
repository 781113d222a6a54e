package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var thumbCmd = &cobra.Command{
	Use:   "thumb <page_url> <output_path>",
	Short: "Fetch a page's preview image and write the normalized thumbnail",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		n := newNormalizer(cfg.Thumbnail)
		pv := n.Preview(context.Background(), args[0])
		if !pv.Thumbnail.Present() {
			return fmt.Errorf("no usable preview image for %s", args[0])
		}
		if err := os.WriteFile(args[1], pv.Thumbnail.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes, %s (from %s)\n", args[1], pv.Thumbnail.Size(), pv.Thumbnail.MimeType, pv.ImageURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(thumbCmd)
}
