package lastfm

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
)

// ArtistService provides the artist.* read methods.
type ArtistService struct {
	client *Client
}

// GetInfo returns metadata for an artist by name.
//
// Last.fm autocorrects misspelled names, so the returned Name may differ
// from the one requested.
func (s *ArtistService) GetInfo(ctx context.Context, artist string) (*ArtistInfo, error) {
	if artist == "" {
		return nil, fmt.Errorf("lastfm: artist name is required")
	}

	resp, err := s.client.call(ctx, "artist.getInfo", map[string]string{
		"artist":      artist,
		"autocorrect": "1",
	})
	if err != nil {
		return nil, err
	}

	var info artistInfoResponse
	if err := unmarshalInner(resp, &info); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse artist info: %w", err)
	}

	result := &ArtistInfo{
		Name: info.Artist.Name,
		MBID: info.Artist.MBID,
		URL:  info.Artist.URL,
	}
	for _, t := range info.Artist.Tags.Tags {
		result.Tags = append(result.Tags, t.Name)
	}

	return result, nil
}

// GetSimilar returns up to limit artists similar to the given one, most
// similar first. A limit <= 0 uses the API default.
func (s *ArtistService) GetSimilar(ctx context.Context, artist string, limit int) ([]SimilarArtist, error) {
	if artist == "" {
		return nil, fmt.Errorf("lastfm: artist name is required")
	}

	params := map[string]string{
		"artist":      artist,
		"autocorrect": "1",
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	resp, err := s.client.call(ctx, "artist.getSimilar", params)
	if err != nil {
		return nil, err
	}

	var similar similarResponse
	if err := unmarshalInner(resp, &similar); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse similar artists: %w", err)
	}

	artists := make([]SimilarArtist, 0, len(similar.Similar.Artists))
	for _, a := range similar.Similar.Artists {
		match, _ := strconv.ParseFloat(a.Match, 64) // parse failure leaves 0
		artists = append(artists, SimilarArtist{
			Name:  a.Name,
			MBID:  a.MBID,
			URL:   a.URL,
			Match: match,
		})
	}

	return artists, nil
}

// GetTopTags returns the user-applied tags for an artist, highest count first.
func (s *ArtistService) GetTopTags(ctx context.Context, artist string) ([]Tag, error) {
	if artist == "" {
		return nil, fmt.Errorf("lastfm: artist name is required")
	}

	resp, err := s.client.call(ctx, "artist.getTopTags", map[string]string{
		"artist":      artist,
		"autocorrect": "1",
	})
	if err != nil {
		return nil, err
	}

	var top topTagsResponse
	if err := unmarshalInner(resp, &top); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse top tags: %w", err)
	}

	tags := make([]Tag, 0, len(top.TopTags.Tags))
	for _, t := range top.TopTags.Tags {
		tags = append(tags, Tag{Name: t.Name, Count: t.Count})
	}

	return tags, nil
}

type artistInfoResponse struct {
	Artist struct {
		Name string `xml:"name"`
		MBID string `xml:"mbid"`
		URL  string `xml:"url"`
		Tags struct {
			Tags []struct {
				Name string `xml:"name"`
			} `xml:"tag"`
		} `xml:"tags"`
	} `xml:"artist"`
}

type similarResponse struct {
	Similar struct {
		Artists []struct {
			Name  string `xml:"name"`
			MBID  string `xml:"mbid"`
			URL   string `xml:"url"`
			Match string `xml:"match"`
		} `xml:"artist"`
	} `xml:"similarartists"`
}

type topTagsResponse struct {
	TopTags struct {
		Tags []struct {
			Name  string `xml:"name"`
			Count int    `xml:"count"`
		} `xml:"tag"`
	} `xml:"toptags"`
}

// unmarshalInner decodes the inner XML of an <lfm> envelope.
func unmarshalInner(data []byte, v interface{}) error {
	// Wrap inner XML in root element for proper unmarshaling
	wrapped := []byte("<root>" + string(data) + "</root>")
	return xml.Unmarshal(wrapped, v)
}
