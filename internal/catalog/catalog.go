// Package catalog defines the source-catalog abstraction the crawler walks
// and its Spotify and Last.fm implementations.
package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a catalog has no artist for the given ID.
var ErrNotFound = errors.New("catalog: artist not found")

// Artist is an artist as seen by a source catalog.
type Artist struct {
	ID     string   // Catalog-specific identifier
	Name   string   // Display name
	Genres []string // Genres or tags; nil when the catalog did not return them
}

// Source is a read-only catalog of artists and their relations.
type Source interface {
	// Name identifies the catalog ("spotify", "lastfm").
	Name() string

	// Artist looks up a single artist, including its genres.
	Artist(ctx context.Context, id string) (*Artist, error)

	// Related returns the artists the catalog considers related to id.
	Related(ctx context.Context, id string) ([]Artist, error)
}
