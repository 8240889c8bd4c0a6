package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/tableserve/pkg/dictionary"
	"github.com/bastiangx/tableserve/pkg/session"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultMaxPreedit bounds the preedit length when Options leaves it unset.
const DefaultMaxPreedit = 64

// Options configures a Server. Backend, Dictionary, WideningStart and
// MaxCandidates fill in open requests that omit them.
type Options struct {
	Backend       string
	Dictionary    string
	WideningStart int
	MaxCandidates int
	MaxPreedit    int
	Session       session.Config
}

// Server handles msgpack IPC for any number of sessions. It reads one
// request at a time, so sessions are never used concurrently.
type Server struct {
	opts     Options
	sessions map[string]session.ISession
	dec      *msgpack.Decoder
	writer   *bufio.Writer
	enc      *msgpack.Encoder
	requests int
}

// NewServer creates a server reading requests from r and writing
// responses to w.
func NewServer(opts Options, r io.Reader, w io.Writer) *Server {
	if opts.MaxPreedit <= 0 {
		opts.MaxPreedit = DefaultMaxPreedit
	}
	bw := bufio.NewWriter(w)
	return &Server{
		opts:     opts,
		sessions: make(map[string]session.ISession),
		dec:      msgpack.NewDecoder(bufio.NewReader(r)),
		writer:   bw,
		enc:      msgpack.NewEncoder(bw),
	}
}

// Open creates or reopens session sid with the given dictionary. Empty
// fields fall back to the server options.
func (s *Server) Open(sid, backend string, opts dictionary.Options) error {
	if backend == "" {
		backend = s.opts.Backend
	}
	if opts.Path == "" {
		opts.Path = s.opts.Dictionary
	}
	if opts.WideningStart <= 0 {
		opts.WideningStart = s.opts.WideningStart
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = s.opts.MaxCandidates
	}

	sess, ok := s.sessions[sid]
	if !ok {
		sess = session.New(s.opts.Session)
		s.sessions[sid] = sess
		log.Debugf("Created session %q", sid)
	}
	return sess.Open(backend, opts)
}

// Start serves requests until the input ends, then closes every session.
// A stream that is no longer valid msgpack ends the loop with an error.
func (s *Server) Start() error {
	defer s.Close()
	log.Debug("Starting server.")
	s.send(StatusResponse{Status: statusReady})

	for {
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Reading request stream: %v", err)
			return err
		}
		s.requests++
		s.handleRaw(raw)
	}
}

// Close closes and forgets every session.
func (s *Server) Close() {
	for sid, sess := range s.sessions {
		if err := sess.Close(); err != nil {
			log.Warnf("Failed to close session %q: %v", sid, err)
		}
		delete(s.sessions, sid)
	}
}

func (s *Server) handleRaw(raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Debugf("Unmarshaling request: %v", err)
		s.sendError("", "invalid request", codeBadRequest)
		return
	}
	s.handle(req)
}

func (s *Server) handle(req Request) {
	switch strings.ToLower(req.Action) {
	case "", "lookup":
		s.handleLookup(req)
	case "open":
		s.handleOpen(req)
	case "close":
		s.handleClose(req)
	case "stats":
		s.handleStats(req)
	case "health":
		s.send(StatusResponse{ID: req.ID, Status: statusOK, Sessions: len(s.sessions)})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), codeBadRequest)
	}
}

func (s *Server) handleOpen(req Request) {
	err := s.Open(req.Session, req.Backend, dictionary.Options{
		Path:          req.Path,
		WideningStart: req.WideningStart,
		MaxCandidates: req.MaxCandidates,
	})
	resp := StatusResponse{ID: req.ID, Status: statusOK, Backend: s.sessions[req.Session].Backend()}
	if err != nil {
		resp.Status = statusError
		resp.Error = err.Error()
	}
	s.send(resp)
}

func (s *Server) handleLookup(req Request) {
	sess, ok := s.sessions[req.Session]
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown session: %q", req.Session), codeNotFound)
		return
	}
	if req.Preedit == "" {
		s.sendError(req.ID, "missing preedit", codeBadRequest)
		return
	}
	if len(req.Preedit) > s.opts.MaxPreedit {
		s.sendError(req.ID, fmt.Sprintf("preedit exceeds maximum length of %d", s.opts.MaxPreedit), codeBadRequest)
		return
	}

	start := time.Now()
	res := sess.Lookup(req.Preedit)
	elapsed := time.Since(start)

	s.send(LookupResponse{
		ID:        req.ID,
		Pages:     rankPages(res.Pages),
		Count:     res.Matches,
		Actions:   hostActions(res.Matches, req.InitState, req.SelectState),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleClose(req Request) {
	sess, ok := s.sessions[req.Session]
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown session: %q", req.Session), codeNotFound)
		return
	}
	delete(s.sessions, req.Session)
	resp := StatusResponse{ID: req.ID, Status: statusOK}
	if err := sess.Close(); err != nil {
		resp.Status = statusError
		resp.Error = err.Error()
	}
	s.send(resp)
}

func (s *Server) handleStats(req Request) {
	sess, ok := s.sessions[req.Session]
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown session: %q", req.Session), codeNotFound)
		return
	}
	stats := sess.Stats()
	stats["requests"] = s.requests
	s.send(StatusResponse{ID: req.ID, Status: statusOK, Stats: stats})
}

// rankPages ranks candidates by their position across all pages.
func rankPages(pages []session.Page) [][]Candidate {
	out := make([][]Candidate, len(pages))
	rank := uint16(1)
	for n, p := range pages {
		out[n] = make([]Candidate, len(p))
		for j, word := range p {
			out[n][j] = Candidate{Word: word, Rank: rank}
			rank++
		}
	}
	return out
}

// hostActions returns the directives for a lookup that produced matches
// dictionary candidates.
func hostActions(matches int, initState, selectState string) []Action {
	if initState == "" {
		initState = DefaultInitState
	}
	if selectState == "" {
		selectState = DefaultSelectState
	}
	if matches == 0 {
		return []Action{{"shift", initState}}
	}
	return []Action{{"delete", "@<"}, {"show"}, {"shift", selectState}}
}

func (s *Server) send(v any) {
	if err := s.enc.Encode(v); err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
