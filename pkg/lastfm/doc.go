// Package lastfm provides a client library for the artist endpoints of the
// Last.fm API 2.0.
//
// # Overview
//
// wildchain uses Last.fm as an alternative source of related artists. This
// package covers only the read-only methods needed for that: artist lookup,
// similar artists and top tags. Every method takes a context.Context and
// retries temporary failures with exponential backoff.
//
// # Quick Start
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey: "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	info, err := client.Artist().GetInfo(ctx, "Portishead")
//	similar, err := client.Artist().GetSimilar(ctx, info.Name, 20)
//	tags, err := client.Artist().GetTopTags(ctx, info.Name)
//
// # Error Handling
//
// API failures are returned as *Error values carrying the Last.fm error code:
//
//	_, err := client.Artist().GetInfo(ctx, "no such artist")
//	if errors.Is(err, lastfm.ErrArtistNotFound) {
//	    // unknown artist
//	}
//
// Codes 11, 16 and 29 are treated as temporary and retried, as are HTTP 5xx
// responses and network errors. Read methods are sent as GET requests and
// are only signed when Config.APISecret is set.
//
// # API Documentation
//
// https://www.last.fm/api/show/artist.getSimilar
package lastfm
