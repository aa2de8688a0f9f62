package catalog

import (
	"errors"
	"testing"
)

func TestParseSeedURL(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSource string
		wantID     string
		wantErr    bool
	}{
		{
			name:       "spotify artist",
			input:      "https://open.spotify.com/artist/ABC123",
			wantSource: SourceSpotify,
			wantID:     "ABC123",
		},
		{
			name:       "spotify artist with query string",
			input:      "https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb?si=abcdef",
			wantSource: SourceSpotify,
			wantID:     "4Z8W4fKeB5YxbusRsdQVPb",
		},
		{
			name:       "spotify locale prefix",
			input:      "https://open.spotify.com/intl-de/artist/XYZ789",
			wantSource: SourceSpotify,
			wantID:     "XYZ789",
		},
		{
			name:       "surrounding whitespace",
			input:      "  https://open.spotify.com/artist/ABC123\n",
			wantSource: SourceSpotify,
			wantID:     "ABC123",
		},
		{
			name:       "last.fm artist",
			input:      "https://www.last.fm/music/Massive+Attack",
			wantSource: SourceLastFM,
			wantID:     "Massive Attack",
		},
		{
			name:       "last.fm percent-encoded",
			input:      "https://www.last.fm/music/Sigur+R%C3%B3s/+wiki",
			wantSource: SourceLastFM,
			wantID:     "Sigur Rós",
		},
		{
			name:    "foreign domain",
			input:   "https://example.com/artist/ABC123",
			wantErr: true,
		},
		{
			name:    "lookalike domain",
			input:   "https://open.spotify.com.evil.io/artist/ABC123",
			wantErr: true,
		},
		{
			name:    "spotify album",
			input:   "https://open.spotify.com/album/ABC123",
			wantErr: true,
		},
		{
			name:    "spotify artist without id",
			input:   "https://open.spotify.com/artist/",
			wantErr: true,
		},
		{
			name:    "non-http scheme",
			input:   "spotify:artist:ABC123",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := ParseSeedURL(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSeedURL) {
					t.Fatalf("expected ErrInvalidSeedURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seed.Source != tt.wantSource {
				t.Errorf("expected source %q, got %q", tt.wantSource, seed.Source)
			}
			if seed.ID != tt.wantID {
				t.Errorf("expected ID %q, got %q", tt.wantID, seed.ID)
			}
		})
	}
}
