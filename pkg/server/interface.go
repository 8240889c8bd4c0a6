/*
Package server implements the msgpack IPC for table lookups.

Clients write a stream of msgpack maps to stdin and read one response map
per request from stdout. Logs go to stderr. Once it starts, the server
writes {"status": "ready"}.

# Sessions

Each input context owns a session, named by the "sid" field. A session is
created by an open request and keeps one dictionary open until it is
closed or reopened elsewhere:

	{"id": "1", "a": "open", "sid": "ctx1", "b": "ibus", "path": "/usr/share/ibus-table/tables/array30.db", "x": 1, "m": 64}

Backend, path, widening start and max candidates default to the server's
configured values when omitted. "auto" picks the backend from the file
contents.

# Lookup

A lookup sends the preedit, the raw keys typed so far:

	{"id": "2", "a": "lookup", "sid": "ctx1", "p": "ab"}

The response carries the candidates in pages. The first candidate is
always the preedit itself, ranked 1:

	{"id": "2", "pages": [[{"w": "ab", "r": 1}, {"w": "字", "r": 2}]], "c": 1, "acts": [["delete", "@<"], ["show"], ["shift", "select"]], "t": 85}

"c" counts dictionary candidates only. "acts" are the directives the host
input method runs next: with no candidate it is [["shift", <is>]], which
returns the host to its initial state; otherwise the host deletes the
preedit, shows the candidates and shifts to its selection state <ss>.
The state names default to "init" and "select".

An empty action is treated as lookup.

# Other actions

	{"id": "3", "a": "stats", "sid": "ctx1"}
	{"id": "4", "a": "close", "sid": "ctx1"}
	{"id": "5", "a": "health"}

Malformed requests answer {"id", "e", "c": 400}; requests for a session
that was never opened answer with code 404.
*/
package server

// Request is any client message. Fields unused by an action are ignored.
type Request struct {
	ID            string `msgpack:"id"`
	Action        string `msgpack:"a,omitempty"`
	Session       string `msgpack:"sid,omitempty"`
	Backend       string `msgpack:"b,omitempty"`
	Path          string `msgpack:"path,omitempty"`
	WideningStart int    `msgpack:"x,omitempty"`
	MaxCandidates int    `msgpack:"m,omitempty"`
	Preedit       string `msgpack:"p,omitempty"`
	InitState     string `msgpack:"is,omitempty"`
	SelectState   string `msgpack:"ss,omitempty"`
}

// Candidate is one entry of a page.
type Candidate struct {
	Word string `msgpack:"w"`
	Rank uint16 `msgpack:"r"`
}

// Action is a host directive: a verb followed by its arguments.
type Action []string

// LookupResponse answers a lookup.
type LookupResponse struct {
	ID        string        `msgpack:"id"`
	Pages     [][]Candidate `msgpack:"pages"`
	Count     int           `msgpack:"c"`
	Actions   []Action      `msgpack:"acts"`
	TimeTaken int64         `msgpack:"t"`
}

// StatusResponse answers open, close, stats and health.
type StatusResponse struct {
	ID       string         `msgpack:"id,omitempty"`
	Status   string         `msgpack:"status"`
	Error    string         `msgpack:"error,omitempty"`
	Backend  string         `msgpack:"backend,omitempty"`
	Sessions int            `msgpack:"sessions,omitempty"`
	Stats    map[string]int `msgpack:"stats,omitempty"`
}

// ErrorResponse reports a rejected request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

const (
	statusOK    = "ok"
	statusError = "error"
	statusReady = "ready"

	codeBadRequest = 400
	codeNotFound   = 404
)

// Host states used when a lookup does not name them.
const (
	DefaultInitState   = "init"
	DefaultSelectState = "select"
)
