package downloader

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

func newTestRunner(t *testing.T, script string, retries int) *Runner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return New(Config{
		Command:     "sh",
		Args:        []string{"-c", script, "wildchain", PlaceholderDir, PlaceholderURL},
		MaxRetries:  retries,
		BaseBackoff: time.Millisecond,
	}, zerolog.Nop())
}

func TestArtistDir(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		want   string
	}{
		{name: "plain", artist: "Daft Punk", want: "daft-punk"},
		{name: "path separators", artist: "AC/DC", want: "ac-dc"},
		{name: "empty", artist: "", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ArtistDir("/music", tt.artist)
			if got != filepath.Join("/music", tt.want) {
				t.Errorf("expected %s, got %s", filepath.Join("/music", tt.want), got)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{MaxRetries: -1}, zerolog.Nop())
	if r.config.Command != "deemix" {
		t.Errorf("expected default command deemix, got %s", r.config.Command)
	}
	if strings.Join(r.config.Args, " ") != "-p {dir} {url}" {
		t.Errorf("unexpected default args %v", r.config.Args)
	}
	if r.config.MaxRetries != 0 {
		t.Errorf("expected negative retries clamped to 0, got %d", r.config.MaxRetries)
	}
}

func TestRunner_DownloadSuccess(t *testing.T) {
	// $1 is the artist dir, $2 the URL
	r := newTestRunner(t, `echo "$2" > "$1/url.txt"`, 0)
	out := t.TempDir()

	err := r.Download(context.Background(), Job{
		ArtistName: "Daft Punk",
		URL:        "https://www.deezer.com/artist/27",
		OutputDir:  out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "daft-punk", "url.txt"))
	if err != nil {
		t.Fatalf("expected downloader to run in artist dir: %v", err)
	}
	if strings.TrimSpace(string(data)) != "https://www.deezer.com/artist/27" {
		t.Errorf("unexpected URL argument %q", data)
	}
}

func TestRunner_RetriesUpToMax(t *testing.T) {
	r := newTestRunner(t, `echo attempt >> "$1/attempts"; echo boom >&2; exit 3`, 2)
	out := t.TempDir()

	err := r.Download(context.Background(), Job{ArtistName: "X", URL: "u", OutputDir: out})
	if err == nil {
		t.Fatal("expected error")
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.Code)
	}
	if !strings.Contains(exitErr.Output, "boom") {
		t.Errorf("expected captured stderr, got %q", exitErr.Output)
	}

	data, err := os.ReadFile(filepath.Join(out, "x", "attempts"))
	if err != nil {
		t.Fatalf("read attempts: %v", err)
	}
	if n := strings.Count(string(data), "attempt"); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestRunner_SucceedsAfterRetry(t *testing.T) {
	script := `if [ -f "$1/failed-once" ]; then exit 0; fi; touch "$1/failed-once"; exit 1`
	r := newTestRunner(t, script, 1)

	if err := r.Download(context.Background(), Job{ArtistName: "Y", URL: "u", OutputDir: t.TempDir()}); err != nil {
		t.Fatalf("expected success on second attempt, got %v", err)
	}
}

func TestRunner_Timeout(t *testing.T) {
	r := newTestRunner(t, `exec sleep 5`, 0)
	r.config.Timeout = 50 * time.Millisecond

	start := time.Now()
	err := r.Download(context.Background(), Job{ArtistName: "Z", URL: "u", OutputDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not stop the subprocess")
	}
}

func TestRunner_MissingCommand(t *testing.T) {
	r := New(Config{Command: "wildchain-no-such-binary", MaxRetries: 5, BaseBackoff: time.Hour}, zerolog.Nop())

	err := r.Download(context.Background(), Job{ArtistName: "A", URL: "u", OutputDir: t.TempDir()})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected exec.ErrNotFound without retrying, got %v", err)
	}
}

func TestRunner_EmptyURL(t *testing.T) {
	r := New(Config{}, zerolog.Nop())
	if err := r.Download(context.Background(), Job{ArtistName: "A", OutputDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestNextBackoff(t *testing.T) {
	if got := nextBackoff(time.Second); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	if got := nextBackoff(20 * time.Second); got != 30*time.Second {
		t.Errorf("expected cap at 30s, got %v", got)
	}
}

func TestTail(t *testing.T) {
	if got := tail("  short  ", 10); got != "short" {
		t.Errorf("expected trimmed text, got %q", got)
	}
	if got := tail("abcdefghij", 4); got != "...ghij" {
		t.Errorf("expected tail, got %q", got)
	}

	// "é" is two bytes; a 3-byte cut lands inside it.
	got := tail("café au lait", 9)
	if !utf8.ValidString(got) {
		t.Errorf("tail split a rune: %q", got)
	}
	if got != "... au lait" {
		t.Errorf("expected cut at the next rune boundary, got %q", got)
	}
}
