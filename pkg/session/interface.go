package session

import "github.com/bastiangx/tableserve/pkg/dictionary"

// ISession is what the CLI and the IPC server drive.
type ISession interface {
	// Open selects a backend and opens its dictionary
	Open(backend string, opts dictionary.Options) error

	// Lookup returns the paged candidates for the current preedit
	Lookup(preedit string) Result

	// Records returns the records behind the candidates, for inspection
	Records(preedit string) ([]dictionary.Record, error)

	// Backend returns the active backend tag
	Backend() string

	// Stats returns counters about the active dictionary and cache
	Stats() map[string]int

	// Close releases the dictionary
	Close() error
}

var _ ISession = (*Session)(nil)
