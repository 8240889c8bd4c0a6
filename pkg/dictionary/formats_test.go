package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/tableserve/internal/testutil"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func TestDetectFileFormat(t *testing.T) {
	db := testutil.CreateIBusDB(t, "4", 4, []testutil.Phrase{{ID: 1, Key: "a", Phrase: "阿"}})
	table := testutil.WritePackedTable(t, []testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})

	format, err := DetectFileFormat(db)
	require.NoError(t, err)
	assert.Equal(t, FormatSQLite, format)

	format, err = DetectFileFormat(table)
	require.NoError(t, err)
	assert.Equal(t, FormatPacked, format)

	junk := filepath.Join(t.TempDir(), "junk.bin")
	require.NoError(t, os.WriteFile(junk, []byte("nothing to see"), 0o644))
	format, err = DetectFileFormat(junk)
	assert.Error(t, err)
	assert.Equal(t, FormatUnknown, format)

	_, err = DetectFileFormat(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolveBackend(t *testing.T) {
	db := testutil.CreateIBusDB(t, "4", 4, nil)
	table := testutil.WritePackedTable(t, []testutil.Entry{{Key: "ab", Phrase: "字", Flag: true}})

	backend, err := ResolveBackend(BackendAuto, db)
	require.NoError(t, err)
	assert.Equal(t, BackendIBus, backend)

	backend, err = ResolveBackend("AUTO", table)
	require.NoError(t, err)
	assert.Equal(t, BackendPacked, backend)

	backend, err = ResolveBackend(BackendPacked, "/does/not/matter")
	require.NoError(t, err)
	assert.Equal(t, BackendPacked, backend)
}

func TestNewSource(t *testing.T) {
	for _, tag := range []string{BackendIBus, BackendSQLite, "IBUS"} {
		src, err := NewSource(tag)
		require.NoError(t, err)
		assert.IsType(t, &RelationalSource{}, src)
	}

	src, err := NewSource(BackendPacked)
	require.NoError(t, err)
	assert.IsType(t, &PackedSource{}, src)

	_, err = NewSource("mb")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestFormatInfo(t *testing.T) {
	info, ok := GetFormatInfo(FormatPacked)
	require.True(t, ok)
	assert.Equal(t, BackendPacked, info.Backend)
	assert.Equal(t, "unknown", FormatUnknown.String())
}
