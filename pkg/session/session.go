// Package session routes an input context's open and lookup calls to one
// dictionary source and pages the results for the host.
package session

import (
	"strings"

	"github.com/bastiangx/tableserve/pkg/dictionary"
	"github.com/charmbracelet/log"
)

// Config holds per-session settings.
type Config struct {
	PageSize  int
	CacheSize int
}

// Result is the paged answer to one lookup. The first candidate of the
// first page is always the preedit itself. Matches counts the dictionary
// candidates that follow it.
type Result struct {
	Pages   []Page
	Matches int
}

// Candidates returns the pages joined back into one list.
func (r Result) Candidates() []string {
	var out []string
	for _, p := range r.Pages {
		out = append(out, p...)
	}
	return out
}

// Session owns at most one active source. It is driven by a single input
// context and must not be used concurrently.
type Session struct {
	backend  string
	source   dictionary.Source
	pageSize int
	cache    *Cache
}

// New creates a session with no active source.
func New(cfg Config) *Session {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{
		pageSize: pageSize,
		cache:    NewCache(cfg.CacheSize),
	}
}

// Open selects the backend by tag and opens the dictionary described by
// opts. Switching backends closes the previous source. An unknown tag
// leaves the session without a source; lookups then only echo the preedit.
// A failed open leaves the source unopened and is reported for logging.
func (s *Session) Open(backend string, opts dictionary.Options) error {
	tag, err := dictionary.ResolveBackend(strings.ToLower(backend), opts.Path)
	if err != nil {
		s.closeSource()
		log.Warnf("Cannot resolve backend %q for %s: %v", backend, opts.Path, err)
		return err
	}

	if s.source != nil && s.backend != tag {
		s.closeSource()
	}
	if s.source == nil {
		src, err := dictionary.NewSource(tag)
		if err != nil {
			log.Warnf("No backend %q: %v", backend, err)
			return err
		}
		s.source = src
		s.backend = tag
	}

	s.cache.Reset()
	if err := s.source.Open(opts); err != nil {
		log.Warnf("Failed to open %s dictionary %s: %v", tag, opts.Path, err)
		return err
	}
	log.Debugf("Session opened %s dictionary %s", tag, opts.Path)
	return nil
}

// Lookup returns the preedit followed by the dictionary candidates, paged.
func (s *Session) Lookup(preedit string) Result {
	matches := s.lookup(preedit)

	candidates := make([]string, 0, len(matches)+1)
	candidates = append(candidates, preedit)
	candidates = append(candidates, matches...)
	return Result{
		Pages:   Paginate(candidates, s.pageSize),
		Matches: len(matches),
	}
}

// lookup caches successful lookups only, so a failed query is retried on
// the next keystroke.
func (s *Session) lookup(preedit string) []string {
	if s.source == nil || s.source.Path() == "" {
		return nil
	}
	if cached, ok := s.cache.Get(preedit); ok {
		return cached
	}
	records, err := s.source.Records(preedit)
	matches := dictionary.Phrases(records)
	if err != nil {
		log.Debugf("Lookup %q: %v", preedit, err)
		return matches
	}
	s.cache.Put(preedit, matches)
	return matches
}

// Records returns the dictionary records behind the candidates of preedit,
// without the preedit itself. It bypasses the cache.
func (s *Session) Records(preedit string) ([]dictionary.Record, error) {
	if s.source == nil {
		return nil, dictionary.ErrNotOpen
	}
	return s.source.Records(preedit)
}

// Backend returns the active backend tag, or "" without a source.
func (s *Session) Backend() string {
	return s.backend
}

// PageSize returns the number of candidates per page.
func (s *Session) PageSize() int {
	return s.pageSize
}

// Stats merges source and cache counters.
func (s *Session) Stats() map[string]int {
	stats := s.cache.Stats()
	stats["pageSize"] = s.pageSize
	if s.source != nil {
		for k, v := range s.source.Stats() {
			stats[k] = v
		}
	}
	return stats
}

// Close releases the active source.
func (s *Session) Close() error {
	if s.source == nil {
		return nil
	}
	err := s.source.Close()
	s.source = nil
	s.backend = ""
	s.cache.Reset()
	return err
}

func (s *Session) closeSource() {
	backend := s.backend
	if err := s.Close(); err != nil {
		log.Warnf("Failed to close %s source: %v", backend, err)
	}
}
