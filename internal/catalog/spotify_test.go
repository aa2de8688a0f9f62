package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestSpotify(t *testing.T, handler http.HandlerFunc) *Spotify {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewSpotify(context.Background(), SpotifyConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL + "/",
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSpotify: %v", err)
	}
	return s
}

func TestNewSpotify_RequiresCredentials(t *testing.T) {
	if _, err := NewSpotify(context.Background(), SpotifyConfig{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestSpotify_Artist(t *testing.T) {
	s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/ABC123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ABC123","name":"Boards of Canada","genres":["idm","ambient"]}`))
	})

	artist, err := s.Artist(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artist.ID != "ABC123" || artist.Name != "Boards of Canada" {
		t.Errorf("unexpected artist: %+v", artist)
	}
	if len(artist.Genres) != 2 || artist.Genres[0] != "idm" {
		t.Errorf("unexpected genres: %v", artist.Genres)
	}
}

func TestSpotify_ArtistNotFound(t *testing.T) {
	s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"non existing id"}}`))
	})

	_, err := s.Artist(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSpotify_Related(t *testing.T) {
	s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/ABC123/related-artists" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"artists":[
			{"id":"R1","name":"Autechre","genres":["idm"]},
			{"id":"R2","name":"Aphex Twin","genres":["idm","electronica"]}
		]}`))
	})

	related, err := s.Related(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("expected 2 related artists, got %d", len(related))
	}
	if related[1].ID != "R2" || related[1].Name != "Aphex Twin" || len(related[1].Genres) != 2 {
		t.Errorf("unexpected related artist: %+v", related[1])
	}
}

func TestVerifySpotify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "valid credentials", status: http.StatusOK},
		{name: "rejected credentials", status: http.StatusUnauthorized, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
				} else {
					_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
				}
			}))
			defer server.Close()

			err := VerifySpotify(context.Background(), SpotifyConfig{
				ClientID:     "id",
				ClientSecret: "secret",
				TokenURL:     server.URL,
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifySpotify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := VerifySpotify(context.Background(), SpotifyConfig{}); err == nil {
		t.Error("expected error without credentials")
	}
}
