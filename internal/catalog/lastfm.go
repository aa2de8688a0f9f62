package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jfmyers9/wildchain/pkg/lastfm"
	"github.com/rs/zerolog"
)

// maxLastFMGenres caps how many top tags count as genres. Last.fm tags
// beyond the first few are mostly noise ("seen live", "favorites").
const maxLastFMGenres = 5

// LastFM is a Source backed by the Last.fm API. Last.fm has no stable
// artist IDs for every artist, so the canonical artist name is the ID.
type LastFM struct {
	client       *lastfm.Client
	similarLimit int
	logger       zerolog.Logger
}

// NewLastFM creates a Last.fm source. similarLimit bounds how many similar
// artists are requested per lookup (0 uses the API default).
func NewLastFM(client *lastfm.Client, similarLimit int, logger zerolog.Logger) *LastFM {
	return &LastFM{
		client:       client,
		similarLimit: similarLimit,
		logger:       logger.With().Str("component", "lastfm").Logger(),
	}
}

// Name implements Source.
func (l *LastFM) Name() string {
	return SourceLastFM
}

// Artist implements Source.
func (l *LastFM) Artist(ctx context.Context, id string) (*Artist, error) {
	info, err := l.client.Artist().GetInfo(ctx, id)
	if err != nil {
		if errors.Is(err, lastfm.ErrArtistNotFound) {
			return nil, fmt.Errorf("get last.fm artist %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get last.fm artist %q: %w", id, err)
	}

	genres := info.Tags
	if len(genres) == 0 {
		// getInfo only embeds a handful of tags; fall back to the full list.
		genres, err = l.topTags(ctx, info.Name)
		if err != nil {
			l.logger.Warn().Err(err).Str("artist", info.Name).Msg("Failed to fetch top tags, continuing without genres")
			genres = []string{}
		}
	}
	if len(genres) > maxLastFMGenres {
		genres = genres[:maxLastFMGenres]
	}

	return &Artist{ID: info.Name, Name: info.Name, Genres: genres}, nil
}

// Related implements Source. The returned artists carry no genres; callers
// that need them look each one up with Artist.
func (l *LastFM) Related(ctx context.Context, id string) ([]Artist, error) {
	similar, err := l.client.Artist().GetSimilar(ctx, id, l.similarLimit)
	if err != nil {
		return nil, fmt.Errorf("get similar artists for %q: %w", id, err)
	}

	artists := make([]Artist, 0, len(similar))
	for _, s := range similar {
		artists = append(artists, Artist{ID: s.Name, Name: s.Name})
	}

	l.logger.Debug().Str("artist", id).Int("count", len(artists)).Msg("Fetched similar artists")
	return artists, nil
}

func (l *LastFM) topTags(ctx context.Context, name string) ([]string, error) {
	tags, err := l.client.Artist().GetTopTags(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get top tags for %q: %w", name, err)
	}

	genres := make([]string, 0, len(tags))
	for _, t := range tags {
		genres = append(genres, t.Name)
	}
	return genres, nil
}
