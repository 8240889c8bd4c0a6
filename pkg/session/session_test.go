package session

import (
	"path/filepath"
	"testing"

	"github.com/bastiangx/tableserve/internal/testutil"
	"github.com/bastiangx/tableserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func ibusTable(t *testing.T) string {
	return testutil.CreateIBusDB(t, "4", 4, []testutil.Phrase{
		{ID: 1, Key: "ab", Phrase: "甲", Freq: 5},
		{ID: 2, Key: "ab", Phrase: "乙", Freq: 3},
		{ID: 3, Key: "ac", Phrase: "丙", Freq: 1},
	})
}

func packedTable(t *testing.T) string {
	return testutil.WritePackedTable(t, []testutil.Entry{
		{Key: "ab", Phrase: "字", Flag: true},
	})
}

func newSession(t *testing.T, cacheSize int) *Session {
	s := New(Config{PageSize: 10, CacheSize: cacheSize})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLookupPrependsPreedit(t *testing.T) {
	s := newSession(t, 0)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: ibusTable(t)}))

	res := s.Lookup("ab")
	assert.Equal(t, []string{"ab", "甲", "乙"}, res.Candidates())
	assert.Equal(t, 2, res.Matches)
	require.Len(t, res.Pages, 1)
}

func TestSessionLookupWithoutMatches(t *testing.T) {
	s := newSession(t, 0)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: ibusTable(t)}))

	res := s.Lookup("zz")
	assert.Equal(t, []string{"zz"}, res.Candidates())
	assert.Equal(t, 0, res.Matches)
}

func TestSessionLookupPages(t *testing.T) {
	rows := make([]testutil.Phrase, 0, 22)
	for i := 0; i < 22; i++ {
		rows = append(rows, testutil.Phrase{ID: int64(i + 1), Key: "ab", Phrase: string(rune('A' + i)), Freq: 100 - i})
	}
	path := testutil.CreateIBusDB(t, "4", 4, rows)

	s := newSession(t, 0)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: path, MaxCandidates: 64}))

	res := s.Lookup("ab")
	assert.Equal(t, 22, res.Matches)
	require.Len(t, res.Pages, 3)
	assert.Len(t, res.Pages[0], 10)
	assert.Len(t, res.Pages[2], 3)
	assert.Equal(t, "ab", res.Pages[0][0])
	assert.Equal(t, "A", res.Pages[0][1])
}

func TestSessionUnknownBackend(t *testing.T) {
	s := newSession(t, 0)
	err := s.Open("mb", dictionary.Options{Path: ibusTable(t)})
	assert.ErrorIs(t, err, dictionary.ErrUnknownBackend)
	assert.Equal(t, "", s.Backend())

	res := s.Lookup("ab")
	assert.Equal(t, []string{"ab"}, res.Candidates())
	assert.Equal(t, 0, res.Matches)
}

func TestSessionWithoutOpen(t *testing.T) {
	s := newSession(t, 4)
	res := s.Lookup("ab")
	assert.Equal(t, []string{"ab"}, res.Candidates())
}

func TestSessionFailedOpen(t *testing.T) {
	s := newSession(t, 0)
	err := s.Open(dictionary.BackendPacked, dictionary.Options{Path: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, dictionary.ErrConfiguration)

	res := s.Lookup("ab")
	assert.Equal(t, []string{"ab"}, res.Candidates())
}

func TestSessionSwitchBackend(t *testing.T) {
	s := newSession(t, 0)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: ibusTable(t)}))
	assert.Equal(t, dictionary.BackendIBus, s.Backend())
	assert.Contains(t, s.Stats(), "queries")

	require.NoError(t, s.Open(dictionary.BackendPacked, dictionary.Options{Path: packedTable(t)}))
	assert.Equal(t, dictionary.BackendPacked, s.Backend())
	assert.NotContains(t, s.Stats(), "queries")
	assert.Contains(t, s.Stats(), "scans")

	assert.Equal(t, []string{"ab", "字"}, s.Lookup("ab").Candidates())
}

func TestSessionAutoBackend(t *testing.T) {
	s := newSession(t, 0)
	require.NoError(t, s.Open(dictionary.BackendAuto, dictionary.Options{Path: packedTable(t)}))
	assert.Equal(t, dictionary.BackendPacked, s.Backend())

	require.NoError(t, s.Open("AUTO", dictionary.Options{Path: ibusTable(t)}))
	assert.Equal(t, dictionary.BackendIBus, s.Backend())
}

func TestSessionCache(t *testing.T) {
	s := newSession(t, 8)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: ibusTable(t)}))

	first := s.Lookup("ab")
	queries := s.Stats()["queries"]
	second := s.Lookup("ab")

	assert.Equal(t, first.Candidates(), second.Candidates())
	stats := s.Stats()
	assert.Equal(t, queries, stats["queries"], "second lookup served from cache")
	assert.Equal(t, 1, stats["cacheHits"])
	assert.Equal(t, 1, stats["cacheEntries"])
}

func TestSessionCacheClearedOnOpen(t *testing.T) {
	s := newSession(t, 8)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: ibusTable(t)}))
	s.Lookup("ab")
	require.Equal(t, 1, s.Stats()["cacheEntries"])

	other := testutil.CreateIBusDB(t, "4", 4, []testutil.Phrase{{ID: 1, Key: "ab", Phrase: "新"}})
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: other}))
	assert.Equal(t, 0, s.Stats()["cacheEntries"])
	assert.Equal(t, []string{"ab", "新"}, s.Lookup("ab").Candidates())
}

func TestSessionClose(t *testing.T) {
	s := newSession(t, 0)
	require.NoError(t, s.Open(dictionary.BackendPacked, dictionary.Options{Path: packedTable(t)}))
	require.NoError(t, s.Close())
	assert.Equal(t, "", s.Backend())
	assert.NoError(t, s.Close())
	assert.Equal(t, []string{"ab"}, s.Lookup("ab").Candidates())
}

func TestSessionFailedLookupNotCached(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.db")
	testutil.CreateEmptyDB(t, broken)

	s := newSession(t, 8)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: broken}))

	assert.Equal(t, []string{"ab"}, s.Lookup("ab").Candidates())
	assert.Equal(t, []string{"ab"}, s.Lookup("ab").Candidates())
	stats := s.Stats()
	assert.Equal(t, 0, stats["cacheEntries"])
	assert.Equal(t, 0, stats["cacheHits"])

	_, err := s.Records("ab")
	assert.ErrorIs(t, err, dictionary.ErrQuery)
}

func TestSessionEmptyResultCached(t *testing.T) {
	s := newSession(t, 8)
	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: ibusTable(t)}))

	s.Lookup("zz")
	s.Lookup("zz")
	assert.Equal(t, 1, s.Stats()["cacheHits"], "a lookup that found nothing is still a result")
}

func TestSessionRecords(t *testing.T) {
	s := newSession(t, 0)
	_, err := s.Records("ab")
	assert.ErrorIs(t, err, dictionary.ErrNotOpen)

	require.NoError(t, s.Open(dictionary.BackendIBus, dictionary.Options{Path: ibusTable(t)}))
	records, err := s.Records("ab")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, 2, records[0].KeyLength)
	assert.Equal(t, 5, records[0].Freq)
}
