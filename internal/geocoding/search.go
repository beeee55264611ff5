package geocoding

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultSearchDebounce is the quiet period before a search is sent.
const DefaultSearchDebounce = 500 * time.Millisecond

// Searcher debounces location search for one planning session. Starting a
// search cancels the pending one; a search that has been replaced returns
// ErrSuperseded and never delivers results.
type Searcher struct {
	search   func(ctx context.Context, query string) ([]Place, error)
	debounce time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewSearcher creates a debounced searcher over service.
func NewSearcher(service *Service, debounce time.Duration) *Searcher {
	return newSearcher(service.Search, debounce)
}

func newSearcher(search func(ctx context.Context, query string) ([]Place, error), debounce time.Duration) *Searcher {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &Searcher{search: search, debounce: debounce}
}

// Search waits out the debounce period and queries. An empty query clears
// any pending search and returns no results immediately.
func (s *Searcher) Search(ctx context.Context, query string) ([]Place, error) {
	gen, searchCtx := s.begin(ctx)
	defer s.finish(gen)

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	timer := time.NewTimer(s.debounce)
	defer timer.Stop()

	select {
	case <-searchCtx.Done():
		return nil, s.interrupted(ctx)
	case <-timer.C:
	}

	places, err := s.search(searchCtx, query)

	if !s.current(gen) {
		return nil, ErrSuperseded
	}
	if err != nil {
		if searchCtx.Err() != nil {
			return nil, s.interrupted(ctx)
		}
		return nil, err
	}
	return places, nil
}

// Cancel abandons any pending search.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) begin(ctx context.Context) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	searchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return s.generation, searchCtx
}

func (s *Searcher) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

func (s *Searcher) interrupted(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return ErrSuperseded
}
