package lastfm

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// envelope is the <lfm> root element every response is wrapped in.
type envelope struct {
	XMLName xml.Name `xml:"lfm"`
	Status  string   `xml:"status,attr"`
	Inner   []byte   `xml:",innerxml"`
}

type errorBody struct {
	Code    int    `xml:"code,attr"`
	Message string `xml:",chardata"`
}

const maxBackoff = 30 * time.Second

// call issues a GET for a read-only method and returns the inner XML of the
// <lfm> envelope. Temporary API errors, 5xx responses and network errors
// are retried up to c.maxRetries attempts.
func (c *Client) call(ctx context.Context, method string, params map[string]string) ([]byte, error) {
	query := c.query(method, params)
	backoff := c.backoff

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			c.logDebugf("lastfm: %s failed (%v), retry %d/%d in %s", method, lastErr, attempt, c.maxRetries, backoff)
			if !sleep(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
		}

		inner, err := c.do(ctx, query)
		if err == nil {
			return inner, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("lastfm: %s: giving up after %d attempts: %w", method, c.maxRetries, lastErr)
}

func (c *Client) query(method string, params map[string]string) url.Values {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["method"] = method
	signed["api_key"] = c.apiKey

	q := url.Values{}
	for k, v := range signed {
		q.Set(k, v)
	}
	if c.apiSecret != "" {
		q.Set("api_sig", signParams(signed, c.apiSecret))
	}
	return q
}

// do performs a single request.
func (c *Client) do(ctx context.Context, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("lastfm: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "wildchain/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: err}
	}

	if resp.StatusCode >= 500 {
		return nil, &transientError{err: fmt.Errorf("server returned %s", resp.Status)}
	}

	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("lastfm: unexpected status %s", resp.Status)
		}
		return nil, fmt.Errorf("lastfm: failed to parse response: %w", err)
	}

	if env.Status != "ok" {
		var eb errorBody
		if err := xml.Unmarshal(env.Inner, &eb); err != nil {
			return nil, fmt.Errorf("lastfm: failed to parse error response: %w", err)
		}
		return nil, &Error{Code: eb.Code, Message: eb.Message}
	}

	return env.Inner, nil
}

// transientError marks network and server failures that are worth another
// attempt.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return "lastfm: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}

	var te *transientError
	if !errors.As(err, &te) {
		return false
	}
	// A cancelled context surfaces as a url.Error too; never retry it.
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
