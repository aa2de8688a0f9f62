// Package downloader runs the external discography downloader (deemix by
// default) as a direct subprocess.
package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

// Placeholders substituted into argument templates.
const (
	PlaceholderDir = "{dir}"
	PlaceholderURL = "{url}"
)

// maxOutputTail bounds how much captured output is kept on failure.
const maxOutputTail = 2048

const waitDelay = 5 * time.Second

// Config holds downloader settings.
type Config struct {
	Command     string        // Executable name or path (default "deemix")
	Args        []string      // Argument template (default ["-p", "{dir}", "{url}"])
	Timeout     time.Duration // Per-attempt timeout, 0 disables
	MaxRetries  int           // Extra attempts after the first failure
	BaseBackoff time.Duration // First retry delay (default 1s), doubled per attempt
}

// Job is one artist download.
type Job struct {
	ArtistName string // Used for the output directory name
	URL        string // Target-catalog artist URL
	OutputDir  string // Parent directory; the artist directory is created inside
}

// ExitError reports a non-zero downloader exit.
type ExitError struct {
	Code   int
	Output string // Tail of combined stdout/stderr
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("downloader exited with code %d", e.Code)
	}
	return fmt.Sprintf("downloader exited with code %d: %s", e.Code, e.Output)
}

// Runner invokes the downloader with bounded retries.
type Runner struct {
	config Config
	logger zerolog.Logger
}

// New creates a Runner, filling in defaults.
func New(cfg Config, logger zerolog.Logger) *Runner {
	if cfg.Command == "" {
		cfg.Command = "deemix"
	}
	if len(cfg.Args) == 0 {
		cfg.Args = []string{"-p", PlaceholderDir, PlaceholderURL}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	return &Runner{
		config: cfg,
		logger: logger.With().Str("component", "downloader").Logger(),
	}
}

// ArtistDir returns the directory a job downloads into.
func ArtistDir(outputDir, artistName string) string {
	name := slug.Make(artistName)
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(outputDir, name)
}

// Download runs the downloader for job, retrying failed attempts up to
// MaxRetries times with exponential backoff. Cancelling ctx aborts both the
// running attempt and any pending retry.
func (r *Runner) Download(ctx context.Context, job Job) error {
	if job.URL == "" {
		return fmt.Errorf("downloader: empty URL for %q", job.ArtistName)
	}

	dir := ArtistDir(job.OutputDir, job.ArtistName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artist directory: %w", err)
	}

	args := expandArgs(r.config.Args, dir, job.URL)
	attempts := r.config.MaxRetries + 1
	backoff := r.config.BaseBackoff

	var lastErr error
	for i := 0; i < attempts; i++ {
		r.logger.Debug().
			Str("artist", job.ArtistName).
			Str("url", job.URL).
			Int("attempt", i+1).
			Int("max_attempts", attempts).
			Msg("Running downloader")

		lastErr = r.run(ctx, dir, args)
		if lastErr == nil {
			return nil
		}

		// Missing executables and cancellation will not get better.
		if errors.Is(lastErr, exec.ErrNotFound) || ctx.Err() != nil {
			break
		}

		if i < attempts-1 {
			r.logger.Warn().
				Err(lastErr).
				Str("artist", job.ArtistName).
				Dur("backoff", backoff).
				Msgf("Download failed, retrying (attempt %d/%d)", i+1, attempts)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
		}
	}

	return fmt.Errorf("download %q failed after %d attempt(s): %w", job.ArtistName, attempts, lastErr)
}

// run executes one attempt with the per-attempt timeout.
func (r *Runner) run(ctx context.Context, dir string, args []string) error {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.config.Command, args...)
	cmd.Dir = dir
	// Children of the downloader can hold the output pipe open after a kill.
	cmd.WaitDelay = waitDelay

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("downloader timed out after %v: %w", r.config.Timeout, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Output: tail(output.String(), maxOutputTail)}
	}
	return fmt.Errorf("failed to run %s: %w", r.config.Command, err)
}

func expandArgs(template []string, dir, url string) []string {
	args := make([]string, len(template))
	for i, a := range template {
		a = strings.ReplaceAll(a, PlaceholderDir, dir)
		args[i] = strings.ReplaceAll(a, PlaceholderURL, url)
	}
	return args
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return "..." + s[start:]
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(duration):
		return true
	}
}

// nextBackoff doubles the delay, capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}
