package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifyConfig holds Spotify Web API settings.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client // Optional: replaces the client-credentials client (testing)
	BaseURL      string       // Optional: API base URL ending in '/' (testing)
	TokenURL     string       // Optional: token endpoint (testing)
}

// Spotify is a Source backed by the Spotify Web API.
type Spotify struct {
	client *spotify.Client
	logger zerolog.Logger
}

// NewSpotify creates a Spotify source. Unless an HTTP client is supplied,
// requests are authorized with the client-credentials flow.
func NewSpotify(ctx context.Context, cfg SpotifyConfig, logger zerolog.Logger) (*Spotify, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		creds, err := spotifyCredentials(cfg)
		if err != nil {
			return nil, err
		}
		httpClient = creds.Client(ctx)
	}

	var opts []spotify.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.BaseURL))
	}

	return &Spotify{
		client: spotify.New(httpClient, opts...),
		logger: logger.With().Str("component", "spotify").Logger(),
	}, nil
}

// VerifySpotify checks the client credentials by requesting a token.
func VerifySpotify(ctx context.Context, cfg SpotifyConfig) error {
	creds, err := spotifyCredentials(cfg)
	if err != nil {
		return err
	}
	if _, err := creds.Token(ctx); err != nil {
		return fmt.Errorf("spotify rejected the client credentials: %w", err)
	}
	return nil
}

func spotifyCredentials(cfg SpotifyConfig) (*clientcredentials.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client ID and secret are required")
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	return &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}, nil
}

// Name implements Source.
func (s *Spotify) Name() string {
	return SourceSpotify
}

// Artist implements Source.
func (s *Spotify) Artist(ctx context.Context, id string) (*Artist, error) {
	full, err := s.client.GetArtist(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("get spotify artist %s: %w", id, translateSpotifyError(err))
	}

	s.logger.Debug().Str("id", id).Str("name", full.Name).Msg("Fetched artist")
	return fromFullArtist(*full), nil
}

// Related implements Source.
func (s *Spotify) Related(ctx context.Context, id string) ([]Artist, error) {
	related, err := s.client.GetRelatedArtists(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("get related artists for %s: %w", id, translateSpotifyError(err))
	}

	artists := make([]Artist, 0, len(related))
	for _, a := range related {
		artists = append(artists, *fromFullArtist(a))
	}

	s.logger.Debug().Str("id", id).Int("count", len(artists)).Msg("Fetched related artists")
	return artists, nil
}

func fromFullArtist(a spotify.FullArtist) *Artist {
	genres := a.Genres
	if genres == nil {
		// Spotify always reports genres for full artists, even if empty.
		genres = []string{}
	}
	return &Artist{
		ID:     string(a.ID),
		Name:   a.Name,
		Genres: genres,
	}
}

// translateSpotifyError maps a 404 from the API onto ErrNotFound.
func translateSpotifyError(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	}
	return err
}
