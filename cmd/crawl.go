package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/wildchain/internal/catalog"
	"github.com/jfmyers9/wildchain/internal/config"
	"github.com/jfmyers9/wildchain/internal/crawl"
	"github.com/jfmyers9/wildchain/internal/deezer"
	"github.com/jfmyers9/wildchain/internal/downloader"
	"github.com/jfmyers9/wildchain/internal/history"
	"github.com/jfmyers9/wildchain/internal/tui"
	"github.com/jfmyers9/wildchain/pkg/lastfm"
)

// historyMaxAge bounds how long history entries are kept.
const historyMaxAge = 365 * 24 * time.Hour

var (
	crawlMaxArtists      int
	crawlMaxDepth        int
	crawlConcurrency     int
	crawlRelatedLimit    int
	crawlWildBranching   bool
	crawlWildlyDifferent bool
	crawlOutputDir       string
	crawlMaxRetries      int
	crawlSnapshotFile    string
	crawlLogFile         string
	crawlLogLevel        string
	crawlDataDir         string
	crawlTUI             bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <seed-url>",
	Short: "Download a chain of related artists",
	Long: `Crawl the related-artist graph starting from a seed artist and download
every visited artist's discography.

The seed must be a Spotify artist URL (https://open.spotify.com/artist/<id>)
or a Last.fm artist URL (https://www.last.fm/music/<name>).

The crawl will:
- Visit artists breadth-first, processing up to --concurrency at a time
- Resolve each artist on Deezer by name and run the downloader for it
- Follow up to --related-limit relatives per artist, down to --max-depth
- Stop after --max-artists artists have been dispatched

Press Ctrl-C once to stop starting new artists; artists already downloading
are allowed to finish. Press it again to exit immediately. With --tui, use
'q' instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVar(&crawlMaxArtists, "max-artists", 0, "Maximum number of artists to process (default from config, 50)")
	crawlCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", 0, "Maximum distance from the seed artist (default from config, 3)")
	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", 0, "Artists processed in parallel (default from config, 5)")
	crawlCmd.Flags().IntVar(&crawlRelatedLimit, "related-limit", 0, "Related artists followed per artist (default from config, 5)")
	crawlCmd.Flags().BoolVar(&crawlWildBranching, "wild-branching", false, "Shuffle related artists before picking")
	crawlCmd.Flags().BoolVar(&crawlWildlyDifferent, "wildly-different", false, "Prefer related artists with genres not seen yet")
	crawlCmd.Flags().StringVar(&crawlOutputDir, "output-dir", "", "Download directory (default from config)")
	crawlCmd.Flags().IntVar(&crawlMaxRetries, "max-retries", 0, "Downloader retries per artist (default from config, 3)")
	crawlCmd.Flags().StringVar(&crawlSnapshotFile, "snapshot-file", "", "Tree snapshot path (default: <data-dir>/runs/<run-id>.json)")
	crawlCmd.Flags().StringVar(&crawlLogFile, "log-file", "", "Log file path (default: stderr)")
	crawlCmd.Flags().StringVar(&crawlLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	crawlCmd.Flags().StringVar(&crawlDataDir, "data-dir", "", "Data directory for history and snapshots (default: ~/.local/share/wildchain)")
	crawlCmd.Flags().BoolVar(&crawlTUI, "tui", false, "Show a live terminal view of the crawl (logs go to <data-dir>/wildchain.log)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	seedURL := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyCrawlFlags(cmd, cfg)

	// Validate before touching credentials or the network.
	seed, err := catalog.ParseSeedURL(seedURL)
	if err != nil {
		return err
	}

	dataDir := cfg.DataDir
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// The terminal belongs to the TUI, so logs need a file.
	logFile := crawlLogFile
	if crawlTUI && logFile == "" {
		logFile = filepath.Join(dataDir, "wildchain.log")
	}
	logger, closeLog := setupLogger(logFile, crawlLogLevel)
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := newSource(ctx, cfg, seed.Source, logger)
	if err != nil {
		return err
	}

	logger.Debug().Str("data_dir", dataDir).Msg("Using data directory")

	store, err := history.Open(history.DefaultPath(dataDir))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if deleted, err := store.Cleanup(ctx, historyMaxAge); err != nil {
		logger.Warn().Err(err).Msg("Failed to clean up history")
	} else if deleted > 0 {
		logger.Debug().Int64("deleted", deleted).Msg("Removed old history entries")
	}

	dl := downloader.New(downloader.Config{
		Command:    cfg.Downloader.Command,
		Args:       cfg.Downloader.Args,
		Timeout:    cfg.Downloader.Timeout,
		MaxRetries: cfg.MaxRetries,
	}, logger)

	opts := crawl.Options{
		MaxArtists:      cfg.Crawl.MaxArtists,
		MaxDepth:        cfg.Crawl.MaxDepth,
		Concurrency:     cfg.Crawl.Concurrency,
		RelatedLimit:    cfg.Crawl.RelatedLimit,
		WildBranching:   crawlWildBranching,
		WildlyDifferent: crawlWildlyDifferent,
		OutputDir:       cfg.OutputDir,
	}

	events := make(chan crawl.Event, 64)
	crawler := crawl.New(source, deezer.NewClient(deezer.Config{}, logger), dl, opts, logger, func(e crawl.Event) {
		events <- e
	})

	snapshotPath := crawlSnapshotFile
	if snapshotPath == "" {
		snapshotPath = filepath.Join(dataDir, "runs", crawler.RunID()+".json")
	}
	snapshots := crawl.NewSnapshotFile(snapshotPath)

	var ui *tui.App
	if crawlTUI {
		uiCfg := tui.DefaultConfig()
		uiCfg.MaxArtists = opts.MaxArtists
		ui = tui.New(uiCfg)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumeEvents(events, store, snapshots, ui, logger)
	}()

	stop := handleSignals(cancel, logger)
	defer stop()

	logger.Info().
		Str("run_id", crawler.RunID()).
		Str("seed", seedURL).
		Str("output_dir", cfg.OutputDir).
		Msg("Starting crawl")

	var summary crawl.Summary
	var runErr error
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		summary, runErr = crawler.Run(ctx, seedURL)
		close(events)
		<-done
	}()

	if ui != nil {
		err := ui.Run(cancel)
		// Quitting the UI early still lets in-flight artists finish.
		cancel()
		select {
		case <-runDone:
		default:
			fmt.Fprintln(os.Stderr, "Waiting for in-flight artists to finish...")
			<-runDone
		}
		if err != nil {
			return err
		}
	} else {
		<-runDone
	}

	if err := snapshots.Update(summary.Snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to save tree snapshot")
	}
	if err := snapshots.Flush(); err != nil {
		logger.Warn().Err(err).Msg("Failed to save tree snapshot")
	}

	if runErr != nil {
		return runErr
	}

	fmt.Println()
	renderTree(os.Stdout, summary.Snapshot)
	fmt.Println()
	fmt.Printf("Processed %d artists: %d downloaded, %d failed, %d skipped\n",
		summary.Processed, summary.Downloaded, summary.Failed, summary.Skipped)
	if summary.Cancelled {
		fmt.Println("Crawl was cancelled before the queue was exhausted.")
	}
	fmt.Printf("Tree snapshot saved to %s\n", snapshots.Path())

	return nil
}

// applyCrawlFlags overrides config values with flags set on the command line.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-artists") {
		cfg.Crawl.MaxArtists = crawlMaxArtists
	}
	if flags.Changed("max-depth") {
		cfg.Crawl.MaxDepth = crawlMaxDepth
	}
	if flags.Changed("concurrency") {
		cfg.Crawl.Concurrency = crawlConcurrency
	}
	if flags.Changed("related-limit") {
		cfg.Crawl.RelatedLimit = crawlRelatedLimit
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = crawlOutputDir
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries = crawlMaxRetries
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = crawlDataDir
	}
}

// newSource builds the catalog matching the seed URL.
func newSource(ctx context.Context, cfg *config.Config, name string, logger zerolog.Logger) (catalog.Source, error) {
	switch name {
	case catalog.SourceSpotify:
		if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
			return nil, errors.New("Spotify credentials not configured. Run 'wildchain auth' first")
		}
		return catalog.NewSpotify(ctx, catalog.SpotifyConfig{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
		}, logger)

	case catalog.SourceLastFM:
		if cfg.LastFM.APIKey == "" {
			return nil, errors.New("Last.fm API key not configured. Run 'wildchain auth' first")
		}
		client, err := lastfm.NewClient(lastfm.Config{
			APIKey: cfg.LastFM.APIKey,
			Logger: lastfmLogger{logger: logger.With().Str("component", "lastfm-api").Logger()},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Last.fm client: %w", err)
		}
		return catalog.NewLastFM(client, cfg.Crawl.RelatedLimit*4, logger), nil
	}

	return nil, fmt.Errorf("%w: unknown source %q", catalog.ErrInvalidSeedURL, name)
}

// consumeEvents records crawl progress until events is closed.
// When ui is set, events are forwarded to it instead of printed.
func consumeEvents(events <-chan crawl.Event, store *history.Store, snapshots *crawl.SnapshotFile, ui *tui.App, logger zerolog.Logger) {
	for e := range events {
		if ui != nil {
			ui.Handle(e)
		}

		switch e.Kind {
		case crawl.EventArtistFinished:
			r := e.Result
			entry := history.Entry{
				RunID:    e.RunID,
				Artist:   r.Name,
				SourceID: r.SourceID,
				TargetID: r.TargetID,
				Success:  r.Success,
			}
			if r.Err != nil {
				entry.Error = r.Err.Error()
			}
			if ui == nil {
				printResult(r)
			}
			if _, err := store.Add(context.Background(), entry); err != nil {
				logger.Warn().Err(err).Str("artist", r.Name).Msg("Failed to record history")
			}

		case crawl.EventTree, crawl.EventFinished:
			if e.Snapshot == nil {
				continue
			}
			if err := snapshots.Update(*e.Snapshot); err != nil {
				logger.Warn().Err(err).Msg("Failed to save tree snapshot")
			}
		}
	}
}

func printResult(r *crawl.ArtistResult) {
	if r.Err != nil {
		fmt.Printf("✗ %s: %v\n", r.Name, r.Err)
		return
	}
	fmt.Printf("✓ %s\n", r.Name)
}

// handleSignals cancels the crawl on the first SIGINT/SIGTERM and exits on
// the second. The returned func stops listening.
func handleSignals(cancel context.CancelFunc, logger zerolog.Logger) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
		case <-quit:
			return
		}
		logger.Info().Msg("Shutdown signal received, finishing in-flight artists")
		cancel()

		// Second signal forces exit
		select {
		case <-sigChan:
			logger.Warn().Msg("Second shutdown signal received, forcing exit")
			os.Exit(1)
		case <-quit:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(quit)
	}
}
