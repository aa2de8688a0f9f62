package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Parent directory for per-artist downloads
	// Default: ~/Music/wildchain
	OutputDir string

	// Extra downloader attempts after a failure
	MaxRetries int

	// Directory for the history database and snapshots
	// Default: ~/.local/share/wildchain
	DataDir string

	Spotify    SpotifyConfig
	LastFM     LastFMConfig
	Downloader DownloaderConfig
	Crawl      CrawlConfig
}

// SpotifyConfig holds Spotify client-credentials settings
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// LastFMConfig holds Last.fm API credentials
type LastFMConfig struct {
	APIKey string
}

// DownloaderConfig holds external downloader settings
type DownloaderConfig struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// CrawlConfig holds traversal defaults; command-line flags override them
type CrawlConfig struct {
	MaxArtists   int
	MaxDepth     int
	Concurrency  int
	RelatedLimit int
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return load(getConfigDir())
}

func load(configDir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// WILDCHAIN_SPOTIFY_CLIENT_ID overrides spotify.client_id, etc.
	v.SetEnvPrefix("WILDCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		OutputDir:  v.GetString("output_dir"),
		MaxRetries: v.GetInt("max_retries"),
		DataDir:    v.GetString("data_dir"),
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("spotify.client_id"),
			ClientSecret: v.GetString("spotify.client_secret"),
		},
		LastFM: LastFMConfig{
			APIKey: v.GetString("lastfm.api_key"),
		},
		Downloader: DownloaderConfig{
			Command: v.GetString("downloader.command"),
			Args:    v.GetStringSlice("downloader.args"),
			Timeout: v.GetDuration("downloader.timeout"),
		},
		Crawl: CrawlConfig{
			MaxArtists:   v.GetInt("crawl.max_artists"),
			MaxDepth:     v.GetInt("crawl.max_depth"),
			Concurrency:  v.GetInt("crawl.concurrency"),
			RelatedLimit: v.GetInt("crawl.related_limit"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	v.SetDefault("output_dir", filepath.Join(homeDir, "Music", "wildchain"))
	v.SetDefault("max_retries", 3)
	v.SetDefault("data_dir", filepath.Join(homeDir, ".local", "share", "wildchain"))
	v.SetDefault("downloader.command", "deemix")
	v.SetDefault("downloader.args", []string{"-p", "{dir}", "{url}"})
	v.SetDefault("downloader.timeout", 2*time.Hour)
	v.SetDefault("crawl.max_artists", 50)
	v.SetDefault("crawl.max_depth", 3)
	v.SetDefault("crawl.concurrency", 5)
	v.SetDefault("crawl.related_limit", 5)
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "wildchain")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// Save writes configuration to file
func (c *Config) Save() error {
	return c.save(getConfigDir())
}

func (c *Config) save(configDir string) error {
	v := viper.New()

	configFile := filepath.Join(configDir, "config.yaml")

	v.Set("output_dir", c.OutputDir)
	v.Set("max_retries", c.MaxRetries)
	v.Set("data_dir", c.DataDir)
	v.Set("spotify.client_id", c.Spotify.ClientID)
	v.Set("spotify.client_secret", c.Spotify.ClientSecret)
	v.Set("lastfm.api_key", c.LastFM.APIKey)
	v.Set("downloader.command", c.Downloader.Command)
	v.Set("downloader.args", c.Downloader.Args)
	v.Set("downloader.timeout", c.Downloader.Timeout.String())
	v.Set("crawl.max_artists", c.Crawl.MaxArtists)
	v.Set("crawl.max_depth", c.Crawl.MaxDepth)
	v.Set("crawl.concurrency", c.Crawl.Concurrency)
	v.Set("crawl.related_limit", c.Crawl.RelatedLimit)

	return v.WriteConfigAs(configFile)
}
