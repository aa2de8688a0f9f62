// Package tui renders a live view of a running crawl: the artist tree,
// progress counters and the most recent log lines.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/jfmyers9/wildchain/internal/crawl"
)

const maxLogLines = 200

// Config holds TUI configuration options
type Config struct {
	RefreshRate time.Duration // How often to refresh the display
	MaxArtists  int           // Artist budget, for the progress bar
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		RefreshRate: 500 * time.Millisecond,
	}
}

type phase int

const (
	phaseRunning phase = iota
	phaseStopping
	phaseFinished
)

// App is the TUI application for monitoring a crawl
type App struct {
	app      *tview.Application
	tree     *tview.TreeView
	progress *tview.TextView
	stats    *tview.TextView
	log      *tview.TextView
	status   *tview.TextView

	config Config

	// Cancels the crawl; called on the first quit key
	stopCrawl func()

	// mu guards everything below; Handle runs on crawl goroutines.
	mu sync.Mutex

	snapshot     *crawl.Snapshot
	snapshotSeq  int
	renderedSeq  int
	runID        string
	phase        phase
	sessionStart time.Time
	downloaded   int
	failed       int

	// Ring buffer for log lines
	logBuf   [maxLogLines]string
	logCount int

	// Last-rendered content for change detection
	lastProgress string
	lastStats    string
	lastLog      string
	lastStatus   string

	lastBarWidth int
}

// New creates a new TUI application with the given config
func New(cfg Config) *App {
	a := &App{
		app:          tview.NewApplication(),
		config:       cfg,
		sessionStart: time.Now(),
	}
	a.setupUI()
	return a
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	a.tree = tview.NewTreeView()
	a.tree.SetBorder(true).
		SetTitle(" Artists ").
		SetTitleAlign(tview.AlignLeft)

	a.progress = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.progress.SetBorder(true)

	a.stats = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.stats.SetBorder(true).
		SetTitle(" Run ").
		SetTitleAlign(tview.AlignLeft)

	a.log = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.log.SetBorder(true).
		SetTitle(" Log ").
		SetTitleAlign(tview.AlignLeft)

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	// Left: artist tree
	// Right: stats above the log
	// Footer: progress bar and key help
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.stats, 7, 1, false).
		AddItem(a.log, 0, 1, false)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.tree, 0, 1, true).
		AddItem(right, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.progress, 3, 1, false).
		AddItem(a.status, 1, 1, false)

	a.app.SetInputCapture(a.handleKeyEvent)
	a.app.SetRoot(flex, true)
}

// handleKeyEvent processes keyboard input. The first quit key stops the
// crawl; once it has finished (or on a second press) the UI exits.
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	quit := event.Key() == tcell.KeyCtrlC
	switch event.Rune() {
	case 'q', 'Q':
		quit = true
	}
	if !quit {
		return event
	}

	a.mu.Lock()
	current := a.phase
	if current == phaseRunning {
		a.phase = phaseStopping
	}
	a.mu.Unlock()

	if current == phaseRunning && a.stopCrawl != nil {
		a.stopCrawl()
		return nil
	}
	a.app.Stop()
	return nil
}

// Handle records a crawl event. Safe for concurrent use; the display is
// updated on the next refresh tick.
func (a *App) Handle(e crawl.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e.RunID != "" {
		a.runID = e.RunID
	}

	switch e.Kind {
	case crawl.EventLog:
		a.addLogLine(formatLogLine(e.Level, e.Message))
	case crawl.EventTree:
		a.setSnapshot(e.Snapshot)
	case crawl.EventArtistFinished:
		if e.Result.Success {
			a.downloaded++
		} else {
			a.failed++
		}
	case crawl.EventFinished:
		a.setSnapshot(e.Snapshot)
		a.phase = phaseFinished
	}
}

// setSnapshot stores snap for the next redraw.
// Must be called with a.mu held.
func (a *App) setSnapshot(snap *crawl.Snapshot) {
	if snap == nil {
		return
	}
	a.snapshot = snap
	a.snapshotSeq++
}

// addLogLine appends to the ring buffer of log lines.
// Must be called with a.mu held.
func (a *App) addLogLine(line string) {
	a.logBuf[a.logCount%maxLogLines] = line
	a.logCount++
}

// logLines returns buffered log lines, oldest first.
// Must be called with a.mu held.
func (a *App) logLines() []string {
	n := min(a.logCount, maxLogLines)
	lines := make([]string, n)
	start := a.logCount - n
	for i := 0; i < n; i++ {
		lines[i] = a.logBuf[(start+i)%maxLogLines]
	}
	return lines
}

// Run shows the UI until the user quits. stopCrawl is called when the user
// asks to stop a crawl that is still running.
func (a *App) Run(stopCrawl func()) error {
	a.stopCrawl = stopCrawl

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.refreshLoop(ctx)

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// refreshLoop is the only source of redraws.
func (a *App) refreshLoop(ctx context.Context) {
	refreshRate := a.config.RefreshRate
	if refreshRate <= 0 {
		refreshRate = 500 * time.Millisecond
	}
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

// refresh updates all UI components
func (a *App) refresh() {
	a.app.QueueUpdateDraw(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.updateTree()
		a.updateProgress()
		a.updateStats()
		a.updateLog()
		a.updateStatus()
	})
}

// updateTree rebuilds the tree when a newer snapshot arrived, keeping the
// selected artist selected.
func (a *App) updateTree() {
	if a.snapshot == nil || a.snapshotSeq == a.renderedSeq {
		return
	}
	a.renderedSeq = a.snapshotSeq

	selected := -1
	if cur := a.tree.GetCurrentNode(); cur != nil {
		if idx, ok := cur.GetReference().(int); ok {
			selected = idx
		}
	}

	root, nodes := buildTree(*a.snapshot)
	if root == nil {
		return
	}
	a.tree.SetRoot(root)
	if n, ok := nodes[selected]; ok {
		a.tree.SetCurrentNode(n)
	} else {
		a.tree.SetCurrentNode(root)
	}
}

// buildTree converts a snapshot into tview nodes keyed by arena index.
func buildTree(snap crawl.Snapshot) (*tview.TreeNode, map[int]*tview.TreeNode) {
	if len(snap.Nodes) == 0 {
		return nil, nil
	}

	nodes := make(map[int]*tview.TreeNode, len(snap.Nodes))
	for i, n := range snap.Nodes {
		nodes[i] = tview.NewTreeNode(nodeLabel(n)).
			SetColor(statusColor(n.Status)).
			SetReference(i)
	}
	for i, n := range snap.Nodes {
		for _, c := range n.Children {
			if child, ok := nodes[c]; ok && c > i {
				nodes[i].AddChild(child)
			}
		}
	}
	return nodes[0], nodes
}

func nodeLabel(n crawl.Node) string {
	name := n.Name
	if name == "" {
		name = crawl.UnknownArtist
	}
	label := statusIcon(n.Status) + " " + name
	if n.Error != "" {
		label += " (" + n.Error + ")"
	}
	return tview.Escape(label)
}

func statusIcon(s crawl.Status) string {
	switch s {
	case crawl.StatusDownloaded:
		return "✓"
	case crawl.StatusFailed:
		return "✗"
	case crawl.StatusProcessing:
		return "▶"
	case crawl.StatusSkipped:
		return "-"
	}
	return "·"
}

func statusColor(s crawl.Status) tcell.Color {
	switch s {
	case crawl.StatusDownloaded:
		return tcell.ColorGreen
	case crawl.StatusFailed:
		return tcell.ColorRed
	case crawl.StatusProcessing:
		return tcell.ColorYellow
	case crawl.StatusSkipped:
		return tcell.ColorGray
	}
	return tcell.ColorWhite
}

// updateProgress updates the progress bar
func (a *App) updateProgress() {
	done := a.downloaded + a.failed
	total := a.config.MaxArtists
	if total < done {
		total = done
	}

	_, _, width, _ := a.progress.GetInnerRect()
	barWidth := width - 14
	// Only update cached width when GetInnerRect returns a positive value,
	// avoiding flicker from transient zero-width during layout.
	if barWidth > 0 {
		a.lastBarWidth = barWidth
	}
	if a.lastBarWidth < 10 {
		a.lastBarWidth = 10
	}

	text := fmt.Sprintf("%4d %s %-4d", done, buildProgressBar(done, total, a.lastBarWidth), total)
	if text != a.lastProgress {
		a.lastProgress = text
		a.progress.SetText(text)
	}
}

// updateStats updates the run panel
func (a *App) updateStats() {
	var sb strings.Builder

	switch a.phase {
	case phaseRunning:
		sb.WriteString("[yellow]Running[-]\n")
	case phaseStopping:
		sb.WriteString("[yellow]Stopping, waiting for in-flight artists...[-]\n")
	case phaseFinished:
		sb.WriteString("[green]Finished[-]\n")
	}

	pending, processing := 0, 0
	if a.snapshot != nil {
		pending = a.snapshot.Count(crawl.StatusPending)
		processing = a.snapshot.Count(crawl.StatusProcessing)
	}

	sb.WriteString(fmt.Sprintf("[green]✓ %d[-]  [red]✗ %d[-]  In progress: %d  Queued: %d\n",
		a.downloaded, a.failed, processing, pending))
	sb.WriteString(fmt.Sprintf("Elapsed: %s\n", formatDuration(time.Since(a.sessionStart))))
	if a.runID != "" {
		sb.WriteString(fmt.Sprintf("[gray]%s[-]", a.runID))
	}

	text := sb.String()
	if text != a.lastStats {
		a.lastStats = text
		a.stats.SetText(text)
	}
}

// updateLog updates the log panel
func (a *App) updateLog() {
	text := strings.Join(a.logLines(), "\n")
	if text != a.lastLog {
		a.lastLog = text
		a.log.SetText(text)
		a.log.ScrollToEnd()
	}
}

// updateStatus updates the key help footer
func (a *App) updateStatus() {
	text := "[gray]q:stop crawl  ↑/↓:browse[-]"
	if a.phase != phaseRunning {
		text = "[gray]q:quit  ↑/↓:browse[-]"
	}
	if text != a.lastStatus {
		a.lastStatus = text
		a.status.SetText(text)
	}
}

func formatLogLine(level zerolog.Level, msg string) string {
	color := "white"
	switch level {
	case zerolog.WarnLevel:
		color = "yellow"
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		color = "red"
	case zerolog.DebugLevel, zerolog.TraceLevel:
		color = "gray"
	}
	return fmt.Sprintf("[%s]%s[-]", color, tview.Escape(msg))
}

// buildProgressBar creates a text-based progress bar
func buildProgressBar(done, total, width int) string {
	if total <= 0 || width <= 0 {
		return strings.Repeat("-", max(width, 0))
	}

	progress := float64(done) / float64(total)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	filled := int(progress * float64(width))
	empty := width - filled

	return "[green]" + strings.Repeat("█", filled) + "[-]" +
		"[gray]" + strings.Repeat("░", empty) + "[-]"
}

// formatDuration formats a duration as MM:SS or HH:MM:SS for longer durations
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
