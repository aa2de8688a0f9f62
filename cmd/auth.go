package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/wildchain/internal/catalog"
	"github.com/jfmyers9/wildchain/internal/config"
	"github.com/jfmyers9/wildchain/pkg/lastfm"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Configure catalog credentials",
	Long: `Configure the credentials wildchain needs to read artist catalogs.

This command will:
1. Prompt for a Spotify client ID and secret (used for Spotify seed URLs)
2. Optionally prompt for a Last.fm API key (used for Last.fm seed URLs)
3. Verify the credentials and save them to your config file

Spotify credentials: https://developer.spotify.com/dashboard
Last.fm API keys:    https://www.last.fm/api/account/create`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	reader := bufio.NewReader(os.Stdin)

	// Load existing config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Spotify Credentials")
	fmt.Println("===================")
	fmt.Println()

	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		fmt.Printf("Found existing Spotify credentials.\n")
		fmt.Printf("Client ID: %s\n", cfg.Spotify.ClientID)
		if !confirm(reader, "\nUse existing credentials? [Y/n]: ", true) {
			cfg.Spotify.ClientID = ""
			cfg.Spotify.ClientSecret = ""
		}
	}

	if cfg.Spotify.ClientID == "" {
		if cfg.Spotify.ClientID, err = prompt(reader, "Enter your Spotify Client ID: "); err != nil {
			return err
		}
	}
	if cfg.Spotify.ClientSecret == "" {
		if cfg.Spotify.ClientSecret, err = prompt(reader, "Enter your Spotify Client Secret: "); err != nil {
			return err
		}
	}

	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		fmt.Println("\nVerifying Spotify credentials...")
		err := catalog.VerifySpotify(ctx, catalog.SpotifyConfig{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
		})
		if err != nil {
			return err
		}
		fmt.Println("✓ Spotify credentials are valid")
	} else {
		fmt.Println("Skipping Spotify; Spotify seed URLs will not work.")
	}

	fmt.Println()
	fmt.Println("Last.fm (optional)")
	fmt.Println("==================")
	fmt.Println()

	if cfg.LastFM.APIKey != "" {
		fmt.Printf("API Key: %s\n", cfg.LastFM.APIKey)
		if !confirm(reader, "Keep this API key? [Y/n]: ", true) {
			cfg.LastFM.APIKey = ""
		}
	}
	if cfg.LastFM.APIKey == "" {
		if cfg.LastFM.APIKey, err = prompt(reader, "Enter your Last.fm API Key (leave empty to skip): "); err != nil {
			return err
		}
	}

	if cfg.LastFM.APIKey != "" {
		fmt.Println("\nVerifying Last.fm API key...")
		client, err := lastfm.NewClient(lastfm.Config{APIKey: cfg.LastFM.APIKey})
		if err != nil {
			return err
		}
		if _, err := client.Artist().GetInfo(ctx, "Cher"); err != nil {
			return fmt.Errorf("Last.fm rejected the API key: %w", err)
		}
		fmt.Println("✓ Last.fm API key is valid")
	}

	if cfg.Spotify.ClientID == "" && cfg.LastFM.APIKey == "" {
		return fmt.Errorf("at least one of Spotify or Last.fm credentials is required")
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n✓ Credentials saved to %s/config.yaml\n", config.GetConfigDir())
	fmt.Println("\nYou can now use 'wildchain crawl <seed-url>' to start downloading.")

	return nil
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	value, err := reader.ReadString('\n')
	if err != nil && value == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(value), nil
}

func confirm(reader *bufio.Reader, label string, def bool) bool {
	fmt.Print(label)
	response, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	response = strings.TrimSpace(strings.ToLower(response))
	if response == "" {
		return def
	}
	return response == "y" || response == "yes"
}
