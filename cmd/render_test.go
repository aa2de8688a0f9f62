package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jfmyers9/wildchain/internal/crawl"
	"github.com/jfmyers9/wildchain/internal/history"
)

func TestPadToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{
			name:     "no padding when width is 0",
			input:    "Hello",
			width:    0,
			expected: "Hello",
		},
		{
			name:     "pad short text with spaces",
			input:    "Hi",
			width:    10,
			expected: "Hi        ",
		},
		{
			name:     "exact width unchanged",
			input:    "Hello",
			width:    5,
			expected: "Hello",
		},
		{
			name:     "truncate long text with ellipsis",
			input:    "Godspeed You! Black Emperor",
			width:    20,
			expected: "Godspeed You! Bla...",
		},
		{
			name:     "handle unicode characters",
			input:    "坂本龍一",
			width:    10,
			expected: "坂本龍一  ",
		},
		{
			name:     "truncate wide text",
			input:    "坂本龍一と高橋幸宏",
			width:    10,
			expected: "坂本龍... ",
		},
		{
			name:     "minimum width for truncation",
			input:    "Hello",
			width:    3,
			expected: "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padToWidth(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("padToWidth(%q, %d) = %q, expected %q",
					tt.input, tt.width, result, tt.expected)
			}

			if tt.width > 0 {
				if w := runewidth.StringWidth(result); w != tt.width {
					t.Errorf("padToWidth(%q, %d) produced width %d, expected %d",
						tt.input, tt.width, w, tt.width)
				}
			}
		})
	}
}

func TestRenderTree(t *testing.T) {
	snap := crawl.Snapshot{Nodes: []crawl.Node{
		{ID: "r", Name: "Root", Parent: crawl.NoParent, Children: []int{1, 2}, Status: crawl.StatusDownloaded},
		{ID: "a", Name: "Alpha", Depth: 1, Parent: 0, Children: []int{3}, Status: crawl.StatusFailed, Error: "no match"},
		{ID: "b", Name: "Beta", Depth: 1, Parent: 0, Status: crawl.StatusPending},
		{ID: "c", Name: "", Depth: 2, Parent: 1, Status: crawl.StatusSkipped},
	}}

	var buf bytes.Buffer
	renderTree(&buf, snap)

	want := strings.Join([]string{
		"✓ Root",
		"├── ✗ Alpha  (no match)",
		"│   └── - Unknown",
		"└── · Beta",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("unexpected tree:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderTree(&buf, crawl.Snapshot{})
	if !strings.Contains(buf.String(), "empty") {
		t.Errorf("expected empty marker, got %q", buf.String())
	}
}

func TestRenderHistory(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.Local)
	entries := []history.Entry{
		{Artist: "Autechre", TargetID: "44", Success: true, Timestamp: ts},
		{Artist: "Unknown", Error: "resolve: no match", Timestamp: ts},
	}

	var buf bytes.Buffer
	renderHistory(&buf, entries)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "2026-03-01 12:30  ✓ Autechre") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "✗ Unknown") || !strings.HasSuffix(lines[1], "resolve: no match") {
		t.Errorf("unexpected second line %q", lines[1])
	}

	// Columns line up regardless of artist name length.
	if strings.Index(lines[0], "44") != strings.Index(lines[1], "resolve")-historyTargetWidth-2 {
		t.Errorf("columns misaligned:\n%s\n%s", lines[0], lines[1])
	}
}
