// Package dictionary holds the candidate sources: an ibus-table SQLite
// database queried with widening predicates, and a memory-mapped packed
// table scanned through a key-length index.
package dictionary

import (
	"fmt"
	"strings"
)

// Backend tags accepted by NewSource.
const (
	BackendIBus   = "ibus"
	BackendSQLite = "sqlite"
	BackendPacked = "packed"
	BackendAuto   = "auto"
)

// Options configures a source. WideningStart and MaxCandidates only apply
// to the relational backend.
type Options struct {
	Path          string
	WideningStart int
	MaxCandidates int
}

// Source is a read-only phrase dictionary.
type Source interface {
	// Open attaches the dictionary at opts.Path. Reopening the same path is
	// a no-op, a different path releases the previous one first.
	// On failure the source is left unopened.
	Open(opts Options) error

	// Lookup returns candidate phrases for query in final display order.
	// Failures degrade to an empty result.
	Lookup(query string) []string

	// Records is Lookup with whole records and the failure, if any.
	Records(query string) ([]Record, error)

	// Close releases the dictionary handle.
	Close() error

	// Path returns the open dictionary path, or "" when unopened.
	Path() string

	// Stats reports counters about the open dictionary.
	Stats() map[string]int
}

// Record is one phrase entry. Packed tables only fill Key, KeyLength and
// Phrase.
type Record struct {
	ID        int64
	Key       string
	KeyLength int
	Phrase    string
	Freq      int
	UserFreq  int
}

var backends = map[string]func() Source{
	BackendIBus:   func() Source { return NewRelationalSource() },
	BackendSQLite: func() Source { return NewRelationalSource() },
	BackendPacked: func() Source { return NewPackedSource() },
}

// NewSource creates an unopened source for the backend tag.
func NewSource(backend string) (Source, error) {
	ctor, ok := backends[strings.ToLower(backend)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	return ctor(), nil
}

// ResolveBackend maps "auto" to a concrete tag by sniffing the file at
// path. Other tags are returned unchanged.
func ResolveBackend(backend, path string) (string, error) {
	if !strings.EqualFold(backend, BackendAuto) {
		return backend, nil
	}
	format, err := DetectFileFormat(path)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatSQLite:
		return BackendIBus, nil
	case FormatPacked:
		return BackendPacked, nil
	}
	return "", fmt.Errorf("%w: cannot detect format of %s", ErrUnknownBackend, path)
}

// Phrases returns the phrase of every record, in order.
func Phrases(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	phrases := make([]string, len(records))
	for i, r := range records {
		phrases[i] = r.Phrase
	}
	return phrases
}
