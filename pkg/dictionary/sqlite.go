package dictionary

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bastiangx/tableserve/pkg/keycode"
	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

const (
	// DefaultMaxKeyLength is used when the ime table has no usable
	// max_key_length attribute.
	DefaultMaxKeyLength = 4
	// DefaultWideningStart is the first window tried by a lookup.
	DefaultWideningStart = 1
	// DefaultMaxCandidates caps the rows returned by one query.
	DefaultMaxCandidates = 64
	// maxKeyLengthLimit bounds max_key_length whatever the ime table says.
	maxKeyLengthLimit = 64
)

var keyColumn = regexp.MustCompile(`^m[0-9]+$`)

// RelationalSource looks phrases up in an ibus-table SQLite database.
// Keys are stored as positional code columns m0..mN next to the key length
// mlen, so a query key becomes an equality predicate over its first codes.
type RelationalSource struct {
	db            *sql.DB
	path          string
	alphabet      *keycode.Alphabet
	maxKeyLength  int
	wideningStart int
	maxCandidates int
	queries       int
}

// NewRelationalSource creates an unopened relational source.
func NewRelationalSource() *RelationalSource {
	return &RelationalSource{
		alphabet:      keycode.Default(),
		maxKeyLength:  DefaultMaxKeyLength,
		wideningStart: DefaultWideningStart,
		maxCandidates: DefaultMaxCandidates,
	}
}

// Open attaches the database at opts.Path read-only. A WideningStart of 0
// means the default; a window of 0 can never match since a key shorter than
// the query leaves a compared column NULL.
func (s *RelationalSource) Open(opts Options) error {
	s.wideningStart = opts.WideningStart
	if s.wideningStart <= 0 {
		s.wideningStart = DefaultWideningStart
	}
	s.maxCandidates = opts.MaxCandidates
	if s.maxCandidates <= 0 {
		s.maxCandidates = DefaultMaxCandidates
	}

	if s.db != nil && s.path != opts.Path {
		log.Debugf("Dictionary path changed, closing %s", s.path)
		if err := s.Close(); err != nil {
			log.Warnf("Failed to close %s: %v", s.path, err)
		}
	}
	if s.db != nil {
		return nil
	}
	if opts.Path == "" {
		return fmt.Errorf("%w: empty dictionary path", ErrConfiguration)
	}

	dsn, err := readOnlyDSN(opts.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfiguration, opts.Path, err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("%w: open sqlite %s: %v", ErrConfiguration, opts.Path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: open sqlite %s: %v", ErrConfiguration, opts.Path, err)
	}

	s.db = db
	s.path = opts.Path
	s.maxKeyLength = s.readMaxKeyLength()
	log.Debugf("Opened %s: max_key_length=%d, xlen=%d, max_candidates=%d",
		s.path, s.maxKeyLength, s.wideningStart, s.maxCandidates)
	return nil
}

// readOnlyDSN renders path as a read-only SQLite URI. The path is
// percent-encoded so '#', '?' and '%' stay part of the file name.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: "mode=ro"}
	return u.String(), nil
}

// readMaxKeyLength reads the max_key_length attribute of the ime table,
// bounded by the key code columns the phrases table actually has.
func (s *RelationalSource) readMaxKeyLength() int {
	n := DefaultMaxKeyLength
	var val string
	err := s.db.QueryRow("SELECT val FROM ime WHERE attr = ?", "max_key_length").Scan(&val)
	if err != nil {
		log.Debugf("No max_key_length in %s (%v), using %d", s.path, err, DefaultMaxKeyLength)
	} else if v, perr := strconv.Atoi(strings.TrimSpace(val)); perr != nil || v <= 0 {
		log.Warnf("Invalid max_key_length %q in %s, using %d", val, s.path, DefaultMaxKeyLength)
	} else {
		n = v
	}

	limit := maxKeyLengthLimit
	if cols := s.countKeyColumns(); cols > 0 && cols < limit {
		limit = cols
	}
	if n > limit {
		log.Warnf("max_key_length %d in %s exceeds %d key columns, clamping", n, s.path, limit)
		n = limit
	}
	return n
}

// countKeyColumns returns the number of m0..mN columns of the phrases
// table, or 0 when it cannot be read.
func (s *RelationalSource) countKeyColumns() int {
	rows, err := s.db.Query("SELECT name FROM pragma_table_info('phrases')")
	if err != nil {
		log.Debugf("Cannot read phrases columns of %s: %v", s.path, err)
		return 0
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0
		}
		if keyColumn.MatchString(name) {
			count++
		}
	}
	if rows.Err() != nil {
		return 0
	}
	return count
}

// Lookup returns the phrases of Records in query order.
func (s *RelationalSource) Lookup(query string) []string {
	records, err := s.Records(query)
	if err != nil {
		log.Debugf("Lookup %q: %v", query, err)
	}
	return Phrases(records)
}

// Records runs the widening search for query. The window starts at the
// configured widening start and grows by one until a query returns rows or
// the bound max_key_length-len+2 is passed. Rows come back ordered by key
// length, user frequency, frequency and id; that order is final.
// Records fill ID, KeyLength, Phrase, Freq and UserFreq.
func (s *RelationalSource) Records(query string) ([]Record, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	codes, err := s.alphabet.Encode(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	n := len(codes)
	if n > s.maxKeyLength {
		n = s.maxKeyLength
	}

	stmt, err := s.db.Prepare(buildLookupSQL(n))
	if err != nil {
		return nil, fmt.Errorf("%w: prepare: %v", ErrQuery, err)
	}
	defer stmt.Close()

	args := make([]any, 0, n+2)
	args = append(args, 0)
	for _, c := range codes[:n] {
		args = append(args, int(c))
	}
	args = append(args, s.maxCandidates)

	bound := s.maxKeyLength - n + 1
	for xlen := s.wideningStart; xlen <= bound+1; xlen++ {
		args[0] = n + xlen
		log.Debug("Widening lookup", "query", query, "mlen_lt", n+xlen)

		records, err := s.queryRecords(stmt, args)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, nil
}

func (s *RelationalSource) queryRecords(stmt *sql.Stmt, args []any) ([]Record, error) {
	s.queries++
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r              Record
			phrase         sql.NullString
			freq, userFreq sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.KeyLength, &phrase, &freq, &userFreq); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrQuery, err)
		}
		r.Phrase = phrase.String
		r.Freq = int(freq.Int64)
		r.UserFreq = int(userFreq.Int64)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return records, nil
}

// buildLookupSQL renders the lookup statement for a predicate over the
// first n key code columns. Column names come from integers; every value is
// a bound parameter: the mlen bound, n codes, then the row limit.
func buildLookupSQL(n int) string {
	var b strings.Builder
	b.WriteString("SELECT id, mlen, phrase, freq, user_freq FROM phrases WHERE mlen < ?")
	for i := 0; i < n; i++ {
		b.WriteString(" AND m")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" = ?")
	}
	b.WriteString(" ORDER BY mlen ASC, user_freq DESC, freq DESC, id ASC LIMIT ?")
	return b.String()
}

// Close releases the database handle.
func (s *RelationalSource) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.path = ""
	return err
}

// Path returns the open database path.
func (s *RelationalSource) Path() string {
	return s.path
}

// MaxKeyLength returns the cached max_key_length attribute.
func (s *RelationalSource) MaxKeyLength() int {
	return s.maxKeyLength
}

// Stats reports the source configuration and query count.
func (s *RelationalSource) Stats() map[string]int {
	open := 0
	if s.db != nil {
		open = 1
	}
	return map[string]int{
		"open":          open,
		"maxKeyLength":  s.maxKeyLength,
		"wideningStart": s.wideningStart,
		"maxCandidates": s.maxCandidates,
		"queries":       s.queries,
	}
}
