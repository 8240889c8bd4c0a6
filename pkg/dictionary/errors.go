package dictionary

import "errors"

// Error kinds. Concrete errors wrap one of these, test with errors.Is.
var (
	// ErrConfiguration means the dictionary path is absent or unreadable.
	ErrConfiguration = errors.New("dictionary unavailable")
	// ErrEncoding means the query contains a key outside the alphabet.
	ErrEncoding = errors.New("query not encodable")
	// ErrFormat means a packed table file is malformed.
	ErrFormat = errors.New("malformed table file")
	// ErrQuery means a relational query failed to prepare or execute.
	ErrQuery = errors.New("dictionary query failed")
	// ErrNotOpen is returned by lookups on a source with no dictionary.
	ErrNotOpen = errors.New("dictionary not open")
	// ErrUnknownBackend is returned for an unrecognized backend tag.
	ErrUnknownBackend = errors.New("unknown backend")
)
