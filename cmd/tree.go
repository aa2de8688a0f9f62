package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/wildchain/internal/crawl"
)

var treeCmd = &cobra.Command{
	Use:   "tree <snapshot.json>",
	Short: "Render a saved crawl tree",
	Long: `Render a tree snapshot written by 'wildchain crawl'.

Snapshots are saved to ~/.local/share/wildchain/runs/<run-id>.json unless
--snapshot-file was given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := crawl.ReadSnapshot(args[0])
		if err != nil {
			return err
		}

		if snap.RunID != "" {
			fmt.Printf("Run %s\n\n", snap.RunID)
		}
		renderTree(os.Stdout, snap)
		fmt.Printf("\n%d downloaded, %d failed, %d skipped, %d pending\n",
			snap.Count(crawl.StatusDownloaded),
			snap.Count(crawl.StatusFailed),
			snap.Count(crawl.StatusSkipped),
			snap.Count(crawl.StatusPending))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
