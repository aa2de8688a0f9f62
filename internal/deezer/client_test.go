package deezer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL + "/"}, zerolog.Nop())
}

func TestClient_SearchArtist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/artist" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "Daft Punk" {
			t.Errorf("expected q=Daft Punk, got %q", q)
		}
		if limit := r.URL.Query().Get("limit"); limit != "3" {
			t.Errorf("expected limit=3, got %q", limit)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":27,"name":"Daft Punk","nb_album":36,"nb_fan":4000000}],"total":1}`))
	})

	artists, err := client.SearchArtist(context.Background(), "Daft Punk", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(artists) != 1 || artists[0].ID != 27 || artists[0].Name != "Daft Punk" {
		t.Errorf("unexpected artists: %+v", artists)
	}
	if got := artists[0].URL(); got != "https://www.deezer.com/artist/27" {
		t.Errorf("unexpected URL %s", got)
	}
}

func TestClient_SearchArtist_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"type":"Exception","message":"Quota limit exceeded","code":4}}`))
	})

	_, err := client.SearchArtist(context.Background(), "x", 1)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !apiErr.Temporary() {
		t.Error("quota error should be temporary")
	}
}

func TestClient_SearchArtist_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := client.SearchArtist(context.Background(), "x", 1); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestClient_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		response string
		wantID   int64
		wantErr  error
	}{
		{
			name:     "exact match preferred over first result",
			query:    "air",
			response: `{"data":[{"id":1,"name":"Airbourne"},{"id":2,"name":"AIR"}]}`,
			wantID:   2,
		},
		{
			name:     "first result when no exact match",
			query:    "Beatles",
			response: `{"data":[{"id":1,"name":"The Beatles"},{"id":2,"name":"Beatles Revival"}]}`,
			wantID:   1,
		},
		{
			name:     "no results",
			query:    "zzzz",
			response: `{"data":[],"total":0}`,
			wantErr:  ErrNoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if limit := r.URL.Query().Get("limit"); limit != "5" {
					t.Errorf("expected limit=5, got %q", limit)
				}
				_, _ = w.Write([]byte(tt.response))
			})

			artist, err := client.Resolve(context.Background(), tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if artist.ID != tt.wantID {
				t.Errorf("expected ID %d, got %d", tt.wantID, artist.ID)
			}
		})
	}
}

func TestClient_ResolveEmptyName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty name")
	})

	if _, err := client.Resolve(context.Background(), "   "); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestClient_RateLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Air"}],"total":1}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, RateLimit: rate.Every(time.Hour), Burst: 1}, zerolog.Nop())

	if _, err := client.SearchArtist(context.Background(), "Air", 1); err != nil {
		t.Fatalf("first search should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.SearchArtist(ctx, "Air", 1); err == nil {
		t.Fatal("expected the limiter to refuse a second request within the deadline")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 request to reach the server, got %d", got)
	}
}
