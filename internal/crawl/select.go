package crawl

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/wildchain/internal/catalog"
)

// GenreLookup fetches the genres of a source-catalog artist.
type GenreLookup func(ctx context.Context, id string) ([]string, error)

// SelectorConfig configures a Selector.
type SelectorConfig struct {
	WildBranching   bool        // Shuffle candidates before selection
	WildlyDifferent bool        // Prefer candidates that bring unseen genres
	Lookup          GenreLookup // Used for candidates without genres
	Rand            *rand.Rand  // Randomness source (default: randomly seeded PCG)
	Lock            sync.Locker // Guards the genre set and Rand (default: own mutex)
}

// Selector picks which related artists to follow from a node.
type Selector struct {
	wildBranching   bool
	wildlyDifferent bool
	lookup          GenreLookup
	logger          zerolog.Logger

	mu     sync.Locker
	rng    *rand.Rand
	genres map[string]struct{} // every genre seen so far
}

// NewSelector creates a Selector.
func NewSelector(cfg SelectorConfig, logger zerolog.Logger) *Selector {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	mu := cfg.Lock
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Selector{
		wildBranching:   cfg.WildBranching,
		wildlyDifferent: cfg.WildlyDifferent,
		lookup:          cfg.Lookup,
		logger:          logger.With().Str("component", "selector").Logger(),
		mu:              mu,
		rng:             rng,
		genres:          make(map[string]struct{}),
	}
}

// Select returns at most limit candidates to follow. sourceGenres are the
// genres of the artist the candidates are related to.
//
// Must not be called with the Lock held.
func (s *Selector) Select(ctx context.Context, sourceGenres []string, candidates []catalog.Artist, limit int) []catalog.Artist {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	cands := append([]catalog.Artist(nil), candidates...)
	if s.wildBranching {
		s.mu.Lock()
		s.rng.Shuffle(len(cands), func(i, j int) {
			cands[i], cands[j] = cands[j], cands[i]
		})
		s.mu.Unlock()
	}

	if !s.wildlyDifferent {
		if len(cands) > limit {
			cands = cands[:limit]
		}
		return cands
	}

	s.mu.Lock()
	for _, g := range sourceGenres {
		s.genres[g] = struct{}{}
	}
	s.mu.Unlock()

	kept := make([]catalog.Artist, 0, limit)
	keptIdx := make(map[int]bool, limit)
	for i, c := range cands {
		if len(kept) >= limit {
			break
		}

		genres, err := s.genresOf(ctx, c)
		if err != nil {
			s.logger.Warn().Err(err).Str("artist", c.Name).Msg("Failed to look up genres, skipping")
			continue
		}

		if s.mergeNew(genres) {
			kept = append(kept, c)
			keptIdx[i] = true
		}
	}

	if len(kept) < limit {
		var unkept []catalog.Artist
		for i, c := range cands {
			if !keptIdx[i] {
				unkept = append(unkept, c)
			}
		}
		kept = append(kept, s.sample(unkept, min(len(unkept), limit-len(kept)))...)
	}

	return kept
}

func (s *Selector) genresOf(ctx context.Context, c catalog.Artist) ([]string, error) {
	if c.Genres != nil || s.lookup == nil {
		return c.Genres, nil
	}
	return s.lookup(ctx, c.ID)
}

// mergeNew adds genres to the seen set and reports whether any was new.
func (s *Selector) mergeNew(genres []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := false
	for _, g := range genres {
		if _, ok := s.genres[g]; !ok {
			fresh = true
		}
	}
	if fresh {
		for _, g := range genres {
			s.genres[g] = struct{}{}
		}
	}
	return fresh
}

// sample draws n artists uniformly without replacement.
func (s *Selector) sample(pool []catalog.Artist, n int) []catalog.Artist {
	if n <= 0 {
		return nil
	}
	s.mu.Lock()
	perm := s.rng.Perm(len(pool))
	s.mu.Unlock()

	out := make([]catalog.Artist, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// Genres returns the number of distinct genres seen so far.
func (s *Selector) Genres() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.genres)
}
