// Package deezer resolves artists on Deezer by name using the public,
// unauthenticated search API.
package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Deezer public API endpoint.
	DefaultBaseURL = "https://api.deezer.com"

	// searchLimit is how many results Resolve inspects for an exact match.
	searchLimit = 5

	// Deezer allows 50 requests per 5 seconds per client.
	defaultRateLimit = rate.Limit(10)
	defaultBurst     = 10
)

// ErrNoMatch is returned by Resolve when the search yields no artist.
var ErrNoMatch = errors.New("deezer: no matching artist")

// Error is an error object returned in a Deezer API response body.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("deezer: %s (%d): %s", e.Type, e.Code, e.Message)
}

// Temporary reports whether the request may succeed if retried later.
// Code 4 is the per-client quota limit.
func (e *Error) Temporary() bool {
	return e.Code == 4
}

// Artist is a Deezer artist search result.
type Artist struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	NbAlbum int    `json:"nb_album"`
	NbFan   int    `json:"nb_fan"`
}

// URL returns the public artist page, which is what downloaders expect.
func (a Artist) URL() string {
	return ArtistURL(a.ID)
}

// ArtistURL returns the public page for a Deezer artist ID.
func ArtistURL(id int64) string {
	return "https://www.deezer.com/artist/" + strconv.FormatInt(id, 10)
}

// Config holds client configuration.
type Config struct {
	HTTPClient *http.Client // Optional: defaults to a client with a 15s timeout
	BaseURL    string       // Optional: defaults to DefaultBaseURL
	RateLimit  rate.Limit   // Optional: requests per second (defaults to 10)
	Burst      int          // Optional: limiter burst (defaults to 10)
}

// Client searches the Deezer catalog. It is safe for concurrent use; all
// requests share one rate limiter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a Deezer client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.With().Str("component", "deezer").Logger(),
	}
}

type searchResponse struct {
	Data  []Artist `json:"data"`
	Total int      `json:"total"`
	Error *Error   `json:"error"`
}

// SearchArtist returns up to limit artists matching name, in Deezer's
// relevance order.
func (c *Client) SearchArtist(ctx context.Context, name string, limit int) ([]Artist, error) {
	params := url.Values{}
	params.Set("q", name)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("deezer search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/artist?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "wildchain/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deezer search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deezer search: unexpected status code: %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode deezer response: %w", err)
	}

	// Deezer reports API errors with HTTP 200 and an error object.
	if result.Error != nil {
		return nil, result.Error
	}

	c.logger.Debug().Str("query", name).Int("results", len(result.Data)).Msg("Searched artists")
	return result.Data, nil
}

// Resolve maps an artist name onto a Deezer artist. Among the top results
// a case-insensitive exact name match wins; otherwise the first result is
// taken. Returns ErrNoMatch when the search is empty.
func (c *Client) Resolve(ctx context.Context, name string) (*Artist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNoMatch
	}

	results, err := c.SearchArtist(ctx, name, searchLimit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoMatch, name)
	}

	for i := range results {
		if strings.EqualFold(results[i].Name, name) {
			return &results[i], nil
		}
	}
	return &results[0], nil
}
