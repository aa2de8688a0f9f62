package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidSeedURL is returned for URLs outside the allow-listed catalogs.
var ErrInvalidSeedURL = errors.New("invalid seed artist URL")

// Source names used in Seed.Source.
const (
	SourceSpotify = "spotify"
	SourceLastFM  = "lastfm"
)

// Seed is a validated seed artist reference.
type Seed struct {
	Source string // SourceSpotify or SourceLastFM
	ID     string // Artist identifier on that source
}

var spotifyIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// allowedHosts maps each accepted host to its source.
var allowedHosts = map[string]string{
	"open.spotify.com": SourceSpotify,
	"www.last.fm":      SourceLastFM,
	"last.fm":          SourceLastFM,
}

// ParseSeedURL validates raw against the allow-list and extracts the artist
// identifier. It never touches the network.
//
//	https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb  -> spotify, 4Z8W4fKeB5YxbusRsdQVPb
//	https://www.last.fm/music/Massive+Attack              -> lastfm, Massive Attack
func ParseSeedURL(raw string) (Seed, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Seed{}, fmt.Errorf("%w: %v", ErrInvalidSeedURL, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return Seed{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSeedURL, u.Scheme)
	}

	source, ok := allowedHosts[strings.ToLower(u.Hostname())]
	if !ok {
		return Seed{}, fmt.Errorf("%w: host %q is not supported", ErrInvalidSeedURL, u.Host)
	}

	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")

	switch source {
	case SourceSpotify:
		// Locale-prefixed links look like /intl-de/artist/<id>.
		id := segmentAfter(segments, "artist")
		if id == "" || !spotifyIDPattern.MatchString(id) {
			return Seed{}, fmt.Errorf("%w: no Spotify artist ID in %q", ErrInvalidSeedURL, raw)
		}
		return Seed{Source: source, ID: id}, nil

	default:
		escaped := segmentAfter(segments, "music")
		// Last.fm encodes spaces in artist names as '+'.
		name, err := url.QueryUnescape(escaped)
		if err != nil || strings.TrimSpace(name) == "" {
			return Seed{}, fmt.Errorf("%w: no Last.fm artist in %q", ErrInvalidSeedURL, raw)
		}
		return Seed{Source: source, ID: name}, nil
	}
}

// segmentAfter returns the path segment following the first occurrence of key.
func segmentAfter(segments []string, key string) string {
	for i, s := range segments {
		if s == key && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}
