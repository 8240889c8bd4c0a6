package dictionary

import (
	"path/filepath"
	"testing"

	"github.com/bastiangx/tableserve/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPacked(t *testing.T, path string) *PackedSource {
	t.Helper()
	src := NewPackedSource()
	require.NoError(t, src.Open(Options{Path: path}))
	t.Cleanup(func() { src.Close() })
	return src
}

func TestPackedSingleEntry(t *testing.T) {
	path := testutil.WritePackedTable(t, []testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})
	src := openPacked(t, path)

	idx := src.Index()
	require.NotNil(t, idx)
	assert.Equal(t, []uint32{0}, idx.Bucket(2))
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 2, idx.MaxKeyLength)

	assert.Equal(t, []string{"字"}, src.Lookup("ab"))
	assert.Equal(t, []string{"字"}, src.Lookup("a"))
	assert.Empty(t, src.Lookup("b"))
}

func TestPackedScanOrder(t *testing.T) {
	path := testutil.WritePackedTable(t, []testutil.Entry{
		{Key: "ab", Phrase: "two", Flag: true},
		{Key: "abc", Phrase: "three-1", Flag: true},
		{Key: "xyz", Phrase: "other", Flag: true},
		{Key: "abd", Phrase: "three-2", Flag: true},
		{Key: "a", Phrase: "one", Flag: true},
	})
	src := openPacked(t, path)

	// Longest keys first, file order within a key length.
	assert.Equal(t, []string{"three-1", "three-2", "two", "one"}, src.Lookup("a"))
	assert.Equal(t, []string{"three-1", "three-2", "two"}, src.Lookup("ab"))
}

func TestPackedWidening(t *testing.T) {
	path := testutil.WritePackedTable(t, []testutil.Entry{
		{Key: "abcdefg", Phrase: "seven", Flag: true},
		{Key: "zz", Phrase: "short", Flag: true},
	})
	src := openPacked(t, path)
	require.Equal(t, 7, src.Index().MaxKeyLength)

	assert.Equal(t, []string{"seven"}, src.Lookup("ab"))
	// Windows 5 and 6 miss, 7 hits.
	assert.Equal(t, 3, src.Stats()["scans"])

	records, err := src.Records("abc")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Record{Key: "abcdefg", KeyLength: 7, Phrase: "seven"}, records[0])
}

func TestPackedStopsAtFirstWindow(t *testing.T) {
	path := testutil.WritePackedTable(t, []testutil.Entry{
		{Key: "abcdef", Phrase: "six", Flag: true},
		{Key: "abc", Phrase: "three", Flag: true},
	})
	src := openPacked(t, path)

	// Window 5 already matches "abc", the six-byte key is never reached.
	assert.Equal(t, []string{"three"}, src.Lookup("ab"))
	assert.Equal(t, 1, src.Stats()["scans"])
}

func TestPackedQueryTooLong(t *testing.T) {
	path := testutil.WritePackedTable(t, []testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})
	src := openPacked(t, path)

	assert.Empty(t, src.Lookup("abc"))
	assert.Equal(t, 0, src.Stats()["scans"])
}

func TestPackedMaxKeyLengthIgnoresUnflagged(t *testing.T) {
	path := testutil.WritePackedTable(t, []testutil.Entry{
		{Key: "ab", Phrase: "flagged", Flag: true},
		{Key: "abcd", Phrase: "plain"},
	})
	src := openPacked(t, path)

	assert.Equal(t, 2, src.Index().MaxKeyLength)
	assert.Equal(t, []uint32{entryHeaderSize + 2 + 7}, src.Index().Bucket(4))
	// The unflagged longer key sits outside every window.
	assert.Equal(t, []string{"flagged"}, src.Lookup("a"))
}

func TestPackedMalformedUTF8(t *testing.T) {
	path := testutil.WritePackedTable(t, []testutil.Entry{
		{Key: "ab", Phrase: "ok\xffbad", Flag: true},
	})
	src := openPacked(t, path)

	assert.Equal(t, []string{"ok\uFFFDbad"}, src.Lookup("ab"))
}

func TestPackedDeclaredLengthTooLarge(t *testing.T) {
	content := testutil.PackContent([]testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})
	path := testutil.WriteTable(t, "short.table", testutil.Header, len(content)+1, content)

	src := NewPackedSource()
	err := src.Open(Options{Path: path})
	assert.ErrorIs(t, err, ErrFormat)
	assert.Equal(t, "", src.Path())
	assert.Nil(t, src.Index())
	assert.Empty(t, src.Lookup("ab"))
	assert.Empty(t, src.Lookup("a"))
}

func TestPackedTrailingBytesIgnored(t *testing.T) {
	content := testutil.PackContent([]testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})
	withTrailer := append(append([]byte{}, content...), "\nend\n"...)
	path := testutil.WriteTable(t, "trailer.table", testutil.Header, len(content), withTrailer)

	src := openPacked(t, path)
	assert.Equal(t, len(content), src.Stats()["contentSize"])
	assert.Equal(t, []string{"字"}, src.Lookup("ab"))
}

func TestPackedMissingTableSection(t *testing.T) {
	content := testutil.PackContent([]testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})
	path := testutil.WriteTable(t, "nosection.table", "# only comments\nname x\n", len(content), content)

	src := NewPackedSource()
	assert.ErrorIs(t, src.Open(Options{Path: path}), ErrFormat)
	assert.Empty(t, src.Lookup("ab"))
}

func TestPackedCommentedTableLine(t *testing.T) {
	content := testutil.PackContent([]testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})
	header := "# table is declared below\n#table\ntable v1\n"
	path := testutil.WriteTable(t, "commented.table", header, len(content), content)

	src := openPacked(t, path)
	assert.Equal(t, []string{"字"}, src.Lookup("ab"))
}

func TestPackedZeroKeyLength(t *testing.T) {
	content := testutil.PackContent([]testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})
	content = append(content, 0x80, 0, 0, 0)
	path := testutil.WriteTable(t, "zero.table", testutil.Header, len(content), content)

	src := NewPackedSource()
	assert.ErrorIs(t, src.Open(Options{Path: path}), ErrFormat)
	assert.Nil(t, src.Index())
}

func TestPackedOpenMissingFile(t *testing.T) {
	src := NewPackedSource()
	assert.ErrorIs(t, src.Open(Options{Path: filepath.Join(t.TempDir(), "none")}), ErrConfiguration)
	assert.ErrorIs(t, src.Open(Options{}), ErrConfiguration)

	_, err := src.Records("a")
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestPackedReopen(t *testing.T) {
	first := testutil.WritePackedTable(t, []testutil.Entry{{Key: "ab", Phrase: "first", Flag: true}})
	second := testutil.WritePackedTable(t, []testutil.Entry{{Key: "ab", Phrase: "second", Flag: true}})

	src := openPacked(t, first)
	idx := src.Index()

	require.NoError(t, src.Open(Options{Path: first}))
	assert.Same(t, idx, src.Index(), "same path keeps the index")

	require.NoError(t, src.Open(Options{Path: second}))
	assert.NotSame(t, idx, src.Index())
	assert.Equal(t, second, src.Path())
	assert.Equal(t, []string{"second"}, src.Lookup("ab"))

	require.NoError(t, src.Close())
	assert.Equal(t, "", src.Path())
	assert.Empty(t, src.Lookup("ab"))
	assert.NoError(t, src.Close())
}
