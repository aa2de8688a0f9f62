package crawl

import (
	"context"
	"errors"
	"sync"

	"github.com/jfmyers9/wildchain/internal/catalog"
	"github.com/jfmyers9/wildchain/internal/deezer"
	"github.com/jfmyers9/wildchain/internal/downloader"
)

// fakeSource serves a fixed artist graph.
type fakeSource struct {
	mu       sync.Mutex
	artists  map[string]catalog.Artist
	related  map[string][]string
	calls    int
	relErr   map[string]error
	nameless bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		artists: make(map[string]catalog.Artist),
		related: make(map[string][]string),
		relErr:  make(map[string]error),
	}
}

func (f *fakeSource) add(id, name string, genres []string, related ...string) {
	f.artists[id] = catalog.Artist{ID: id, Name: name, Genres: genres}
	f.related[id] = related
}

func (f *fakeSource) Name() string { return catalog.SourceSpotify }

func (f *fakeSource) Artist(_ context.Context, id string) (*catalog.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	a, ok := f.artists[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	if f.nameless {
		a.Name = ""
	}
	return &a, nil
}

func (f *fakeSource) Related(_ context.Context, id string) ([]catalog.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.relErr[id]; err != nil {
		return nil, err
	}
	var out []catalog.Artist
	for _, rid := range f.related[id] {
		out = append(out, catalog.Artist{ID: rid, Name: f.artists[rid].Name})
	}
	return out, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeResolver resolves every name except those in missing.
type fakeResolver struct {
	mu      sync.Mutex
	missing map[string]bool
	nextID  int64
}

func (r *fakeResolver) Resolve(_ context.Context, name string) (*deezer.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || r.missing[name] {
		return nil, deezer.ErrNoMatch
	}
	r.nextID++
	return &deezer.Artist{ID: r.nextID, Name: name}, nil
}

// fakeDownloader records jobs and can fail, block or panic per artist.
type fakeDownloader struct {
	mu      sync.Mutex
	jobs    []downloader.Job
	fail    map[string]bool
	panics  map[string]bool
	started chan string
	release chan struct{}
}

func (d *fakeDownloader) Download(ctx context.Context, job downloader.Job) error {
	d.mu.Lock()
	d.jobs = append(d.jobs, job)
	fail := d.fail[job.ArtistName]
	panics := d.panics[job.ArtistName]
	d.mu.Unlock()

	if d.started != nil {
		d.started <- job.ArtistName
	}
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if panics {
		panic("downloader exploded")
	}
	if fail {
		return errors.New("download failed")
	}
	return nil
}

func (d *fakeDownloader) jobCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

// eventLog collects events from concurrent workers.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) handle(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) results() []ArtistResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ArtistResult
	for _, e := range l.events {
		if e.Kind == EventArtistFinished {
			out = append(out, *e.Result)
		}
	}
	return out
}

func (l *eventLog) count(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
