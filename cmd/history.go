package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/wildchain/internal/config"
	"github.com/jfmyers9/wildchain/internal/history"
)

var (
	historyLimit   int
	historyDataDir string
	historyYes     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently downloaded artists",
	Long: `Show the most recent artists processed by 'wildchain crawl', newest first.

Each line shows when the artist finished, whether the download succeeded,
the Deezer artist ID it was resolved to and the error for failed artists.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyCmd.PersistentFlags().StringVar(&historyDataDir, "data-dir", "", "Data directory (default: ~/.local/share/wildchain)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyClearCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "Do not ask for confirmation")
}

func openHistory() (*history.Store, error) {
	dataDir := historyDataDir
	if dataDir == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		dataDir = cfg.DataDir
	}
	return history.Open(history.DefaultPath(dataDir))
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No history yet. Run 'wildchain crawl <seed-url>' to get started.")
		return nil
	}

	renderHistory(os.Stdout, entries)

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if total > len(entries) {
		fmt.Printf("\n%d of %d entries shown\n", len(entries), total)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("History is already empty.")
		return nil
	}

	if !historyYes {
		fmt.Printf("Delete %d history entries? [y/N]: ", total)
		response, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			response = "n"
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted, err := store.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %d history entries\n", deleted)
	return nil
}
