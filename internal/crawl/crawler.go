// Package crawl walks the related-artist graph breadth-first, resolving
// and downloading each artist it visits.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jfmyers9/wildchain/internal/catalog"
	"github.com/jfmyers9/wildchain/internal/deezer"
	"github.com/jfmyers9/wildchain/internal/downloader"
)

// ErrRootLookup is returned when the seed artist cannot be fetched.
var ErrRootLookup = errors.New("failed to look up seed artist")

// UnknownArtist is reported when an artist's name was never determined.
const UnknownArtist = "Unknown"

// Defaults for zero-valued Options fields. MaxDepth has none: zero is a
// valid depth.
const (
	DefaultMaxArtists   = 50
	DefaultConcurrency  = 5
	DefaultRelatedLimit = 5
)

// Resolver maps an artist name onto the target catalog.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*deezer.Artist, error)
}

// Downloader fetches one artist's discography.
type Downloader interface {
	Download(ctx context.Context, job downloader.Job) error
}

// Options bounds and shapes a crawl.
type Options struct {
	MaxArtists      int    // Upper bound on artists dispatched
	MaxDepth        int    // Nodes at this depth are not expanded; 0 crawls the seed only
	Concurrency     int    // Artists processed per batch
	RelatedLimit    int    // Relatives followed per artist
	WildBranching   bool   // Shuffle relatives
	WildlyDifferent bool   // Prefer relatives with unseen genres
	OutputDir       string // Parent of the per-artist directories
}

func (o Options) withDefaults() Options {
	if o.MaxArtists <= 0 {
		o.MaxArtists = DefaultMaxArtists
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RelatedLimit <= 0 {
		o.RelatedLimit = DefaultRelatedLimit
	}
	return o
}

// EventKind identifies an Event.
type EventKind string

const (
	EventLog            EventKind = "log"
	EventTree           EventKind = "tree"
	EventArtistFinished EventKind = "artist_finished"
	EventFinished       EventKind = "finished"
)

// ArtistResult describes one finished artist.
type ArtistResult struct {
	Name     string
	SourceID string
	TargetID string
	Success  bool
	Err      error
}

// Event is a progress update. Which fields are set depends on Kind.
type Event struct {
	Kind     EventKind
	RunID    string
	Message  string        // EventLog
	Level    zerolog.Level // EventLog
	Snapshot *Snapshot     // EventTree, EventFinished
	Result   *ArtistResult // EventArtistFinished
}

// Summary is the outcome of a run.
type Summary struct {
	RunID      string
	Processed  int
	Downloaded int
	Failed     int
	Skipped    int
	Cancelled  bool
	Snapshot   Snapshot
}

// Crawler runs a single crawl. It is not reusable across runs.
type Crawler struct {
	source     catalog.Source
	resolver   Resolver
	downloader Downloader
	selector   *Selector
	opts       Options
	logger     zerolog.Logger
	onEvent    func(Event)
	runID      string

	mu         sync.Mutex // guards everything below and the selector's genre set
	tree       *Tree
	processed  map[string]struct{}
	queued     map[string]struct{}
	queue      []int
	downloaded int
	failed     int
	skipped    int
}

// New creates a Crawler. onEvent may be nil; it is called from worker
// goroutines and must be safe for concurrent use.
func New(source catalog.Source, resolver Resolver, dl Downloader, opts Options, logger zerolog.Logger, onEvent func(Event)) *Crawler {
	c := &Crawler{
		source:     source,
		resolver:   resolver,
		downloader: dl,
		opts:       opts.withDefaults(),
		logger:     logger.With().Str("component", "crawler").Logger(),
		onEvent:    onEvent,
		runID:      uuid.NewString(),
		tree:       newTree(),
		processed:  make(map[string]struct{}),
		queued:     make(map[string]struct{}),
	}
	c.selector = NewSelector(SelectorConfig{
		WildBranching:   c.opts.WildBranching,
		WildlyDifferent: c.opts.WildlyDifferent,
		Lookup:          c.lookupGenres,
		Lock:            &c.mu,
	}, logger)
	return c
}

// RunID identifies this crawl in events and history.
func (c *Crawler) RunID() string {
	return c.runID
}

// Run crawls from seedURL until the queue drains, MaxArtists is reached or
// ctx is cancelled. Cancellation stops new batches; artists already being
// processed run to completion and report normally.
func (c *Crawler) Run(ctx context.Context, seedURL string) (Summary, error) {
	seed, err := catalog.ParseSeedURL(seedURL)
	if err != nil {
		c.logf(zerolog.ErrorLevel, "Invalid seed URL %q: %v", seedURL, err)
		c.finish()
		return c.summary(false), err
	}
	if seed.Source != c.source.Name() {
		err := fmt.Errorf("%w: %s URL given but source is %s", catalog.ErrInvalidSeedURL, seed.Source, c.source.Name())
		c.logf(zerolog.ErrorLevel, "%v", err)
		c.finish()
		return c.summary(false), err
	}

	root, err := c.source.Artist(ctx, seed.ID)
	if err != nil {
		err = fmt.Errorf("%w %s: %w", ErrRootLookup, seed.ID, err)
		c.logf(zerolog.ErrorLevel, "%v", err)
		c.finish()
		return c.summary(false), err
	}

	c.mu.Lock()
	idx := c.tree.add(NoParent, root.ID, root.Name, 0)
	c.queue = append(c.queue, idx)
	c.queued[root.ID] = struct{}{}
	c.mu.Unlock()

	c.logf(zerolog.InfoLevel, "Starting crawl from %s (%s)", root.Name, seed.Source)
	c.emitTree()

	// In-flight artists must not observe cancellation.
	workCtx := context.WithoutCancel(ctx)
	cancelled := false

	for {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			c.logf(zerolog.WarnLevel, "Crawl cancelled, no further artists will be started")
			break
		}

		batch := c.nextBatch()
		if len(batch) == 0 {
			break
		}

		g := new(errgroup.Group)
		g.SetLimit(c.opts.Concurrency)
		for _, idx := range batch {
			g.Go(func() error {
				c.process(workCtx, idx)
				return nil
			})
		}
		_ = g.Wait()
	}

	c.finish()
	s := c.summary(cancelled)
	c.logger.Info().
		Str("run_id", s.RunID).
		Int("processed", s.Processed).
		Int("downloaded", s.Downloaded).
		Int("failed", s.Failed).
		Int("skipped", s.Skipped).
		Bool("cancelled", s.Cancelled).
		Msg("Crawl finished")
	return s, nil
}

// nextBatch drains up to Concurrency nodes from the queue, or none once
// the artist budget is spent.
func (c *Crawler) nextBatch() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 || len(c.processed) >= c.opts.MaxArtists {
		return nil
	}

	n := min(c.opts.Concurrency, len(c.queue))
	batch := append([]int(nil), c.queue[:n]...)
	c.queue = c.queue[n:]
	return batch
}

// claim moves a dequeued node into the processed-set. It returns false when
// the ID was already processed or the artist budget is spent.
func (c *Crawler) claim(idx int) (Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.tree.node(idx)
	delete(c.queued, n.ID)
	if _, ok := c.processed[n.ID]; ok || len(c.processed) >= c.opts.MaxArtists {
		n.Status = StatusSkipped
		c.skipped++
		return *n, false
	}
	c.processed[n.ID] = struct{}{}
	n.Status = StatusProcessing
	return *n, true
}

func (c *Crawler) process(ctx context.Context, idx int) {
	node, ok := c.claim(idx)
	if !ok {
		c.logger.Debug().Str("artist", node.Name).Str("id", node.ID).Msg("Skipping artist")
		c.emitTree()
		return
	}
	c.emitTree()

	reported := false
	report := func(targetID string, err error) {
		reported = true
		c.complete(idx, node, targetID, err)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("artist", node.Name).
				Str("stack", string(debug.Stack())).
				Msgf("Panic while processing artist: %v", r)
			if !reported {
				c.complete(idx, node, "", fmt.Errorf("panic: %v", r))
			}
		}
	}()

	c.logf(zerolog.InfoLevel, "Processing %s (depth %d)", displayName(node.Name), node.Depth)

	artist, err := c.source.Artist(ctx, node.ID)
	if err != nil {
		report("", fmt.Errorf("source lookup: %w", err))
		return
	}
	if artist.Name != "" {
		node.Name = artist.Name
	}

	target, err := c.resolver.Resolve(ctx, node.Name)
	if err != nil {
		report("", fmt.Errorf("resolve: %w", err))
		return
	}
	targetID := fmt.Sprintf("%d", target.ID)

	err = c.downloader.Download(ctx, downloader.Job{
		ArtistName: node.Name,
		URL:        target.URL(),
		OutputDir:  c.opts.OutputDir,
	})
	report(targetID, err)
	if err != nil {
		return
	}

	if node.Depth >= c.opts.MaxDepth || c.budgetSpent() {
		return
	}

	related, err := c.source.Related(ctx, node.ID)
	if err != nil {
		c.logf(zerolog.WarnLevel, "Failed to fetch relatives of %s: %v", node.Name, err)
		return
	}

	chosen := c.selector.Select(ctx, artist.Genres, related, c.opts.RelatedLimit)
	if added := c.enqueue(idx, chosen); added > 0 {
		c.logger.Debug().Str("artist", node.Name).Int("children", added).Msg("Queued relatives")
		c.emitTree()
	}
}

// complete records the outcome of a dispatched artist and reports it.
func (c *Crawler) complete(idx int, node Node, targetID string, err error) {
	c.mu.Lock()
	n := c.tree.node(idx)
	n.Name = node.Name
	n.TargetID = targetID
	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		c.failed++
	} else {
		n.Status = StatusDownloaded
		c.downloaded++
	}
	c.mu.Unlock()

	name := displayName(node.Name)
	if err != nil {
		c.logf(zerolog.ErrorLevel, "Failed %s: %v", name, err)
	} else {
		c.logf(zerolog.InfoLevel, "Downloaded %s", name)
	}

	c.emit(Event{
		Kind: EventArtistFinished,
		Result: &ArtistResult{
			Name:     name,
			SourceID: node.ID,
			TargetID: targetID,
			Success:  err == nil,
			Err:      err,
		},
	})
	c.emitTree()
}

func (c *Crawler) budgetSpent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.processed) >= c.opts.MaxArtists
}

// enqueue adds children under parent, skipping known IDs and stopping at
// the remaining artist budget. Returns the number added.
func (c *Crawler) enqueue(parent int, artists []catalog.Artist) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	depth := c.tree.node(parent).Depth + 1
	if depth > c.opts.MaxDepth {
		return 0
	}

	budget := c.opts.MaxArtists - (len(c.processed) + len(c.queued))
	added := 0
	for _, a := range artists {
		if added >= budget {
			break
		}
		if a.ID == "" {
			continue
		}
		if _, ok := c.processed[a.ID]; ok {
			continue
		}
		if _, ok := c.queued[a.ID]; ok {
			continue
		}
		idx := c.tree.add(parent, a.ID, a.Name, depth)
		c.queue = append(c.queue, idx)
		c.queued[a.ID] = struct{}{}
		added++
	}
	return added
}

func (c *Crawler) lookupGenres(ctx context.Context, id string) ([]string, error) {
	a, err := c.source.Artist(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Genres == nil {
		return []string{}, nil
	}
	return a.Genres, nil
}

// Snapshot returns a copy of the current tree.
func (c *Crawler) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.tree.snapshot()
	s.RunID = c.runID
	return s
}

func (c *Crawler) summary(cancelled bool) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.tree.snapshot()
	snap.RunID = c.runID
	return Summary{
		RunID:      c.runID,
		Processed:  len(c.processed),
		Downloaded: c.downloaded,
		Failed:     c.failed,
		Skipped:    c.skipped,
		Cancelled:  cancelled,
		Snapshot:   snap,
	}
}

func (c *Crawler) logf(level zerolog.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.logger.WithLevel(level).Msg(msg)
	c.emit(Event{Kind: EventLog, Level: level, Message: msg})
}

func (c *Crawler) emitTree() {
	snap := c.Snapshot()
	c.emit(Event{Kind: EventTree, Snapshot: &snap})
}

func (c *Crawler) finish() {
	snap := c.Snapshot()
	c.emit(Event{Kind: EventFinished, Snapshot: &snap})
}

func (c *Crawler) emit(e Event) {
	if c.onEvent == nil {
		return
	}
	e.RunID = c.runID
	c.onEvent(e)
}

func displayName(name string) string {
	if name == "" {
		return UnknownArtist
	}
	return name
}
