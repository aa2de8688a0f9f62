package lastfm

// ArtistInfo is the subset of artist.getInfo used by callers.
type ArtistInfo struct {
	Name string   // Canonical artist name
	MBID string   // MusicBrainz artist ID (may be empty)
	URL  string   // Last.fm artist page
	Tags []string // Top tags in Last.fm order
}

// SimilarArtist is one entry from artist.getSimilar.
type SimilarArtist struct {
	Name  string
	MBID  string
	URL   string
	Match float64 // 0.0-1.0 similarity score
}

// Tag is one entry from artist.getTopTags.
type Tag struct {
	Name  string
	Count int
}
