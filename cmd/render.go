package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jfmyers9/wildchain/internal/crawl"
	"github.com/jfmyers9/wildchain/internal/history"
)

const (
	historyArtistWidth = 32
	historyTargetWidth = 10
	maxErrorWidth      = 60
)

var statusMarkers = map[crawl.Status]string{
	crawl.StatusPending:    "·",
	crawl.StatusProcessing: "…",
	crawl.StatusDownloaded: "✓",
	crawl.StatusFailed:     "✗",
	crawl.StatusSkipped:    "-",
}

// renderTree writes snap as an indented tree, one artist per line.
func renderTree(w io.Writer, snap crawl.Snapshot) {
	if len(snap.Nodes) == 0 {
		fmt.Fprintln(w, "(empty tree)")
		return
	}

	snap.Walk(func(n crawl.Node, lineage []bool) {
		var b strings.Builder
		for i, last := range lineage {
			switch {
			case i < len(lineage)-1 && last:
				b.WriteString("    ")
			case i < len(lineage)-1:
				b.WriteString("│   ")
			case last:
				b.WriteString("└── ")
			default:
				b.WriteString("├── ")
			}
		}

		name := n.Name
		if name == "" {
			name = crawl.UnknownArtist
		}
		b.WriteString(statusMarkers[n.Status])
		b.WriteString(" ")
		b.WriteString(name)
		if n.Error != "" {
			b.WriteString("  (")
			b.WriteString(runewidth.Truncate(n.Error, maxErrorWidth, "..."))
			b.WriteString(")")
		}
		fmt.Fprintln(w, b.String())
	})
}

// renderHistory writes entries as aligned columns.
func renderHistory(w io.Writer, entries []history.Entry) {
	for _, e := range entries {
		marker := statusMarkers[crawl.StatusDownloaded]
		if !e.Success {
			marker = statusMarkers[crawl.StatusFailed]
		}

		line := fmt.Sprintf("%s  %s %s  %s",
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			marker,
			padToWidth(e.Artist, historyArtistWidth),
			padToWidth(e.TargetID, historyTargetWidth),
		)
		if e.Error != "" {
			line += "  " + runewidth.Truncate(e.Error, maxErrorWidth, "...")
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
// If text is shorter than width, pads with spaces.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		result := runewidth.Truncate(text, width-ellipsisWidth, "") + ellipsis

		// Wide runes can leave the result a column short
		if resultWidth := runewidth.StringWidth(result); resultWidth < width {
			return result + strings.Repeat(" ", width-resultWidth)
		}
		return result
	}

	if currentWidth < width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	return text
}
