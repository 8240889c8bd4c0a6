// Package testutil writes dictionary fixtures for tests: ibus-table SQLite
// databases and packed table files. It is intended for tests only.
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/tableserve/pkg/keycode"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Phrase is one row of the phrases table in an ibus-table database.
type Phrase struct {
	ID       int64
	Key      string
	Phrase   string
	Freq     int
	UserFreq int
}

// CreateIBusDB writes an ibus-table database with code columns
// m0..m{columns-1} and returns its path. maxKeyLength is stored in the ime
// table unless empty.
func CreateIBusDB(t testing.TB, maxKeyLength string, columns int, rows []Phrase) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE ime (attr TEXT, val TEXT)")
	require.NoError(t, err)
	if maxKeyLength != "" {
		_, err = db.Exec("INSERT INTO ime (attr, val) VALUES ('max_key_length', ?)", maxKeyLength)
		require.NoError(t, err)
	}

	cols := make([]string, columns)
	for i := range cols {
		cols[i] = fmt.Sprintf("m%d", i)
	}
	_, err = db.Exec(fmt.Sprintf(
		"CREATE TABLE phrases (id INTEGER PRIMARY KEY, mlen INTEGER, clen INTEGER, %s INTEGER, phrase TEXT, freq INTEGER, user_freq INTEGER)",
		strings.Join(cols, " INTEGER, ")))
	require.NoError(t, err)

	insert := fmt.Sprintf("INSERT INTO phrases (id, mlen, clen, %s, phrase, freq, user_freq) VALUES (?, ?, ?, %s?, ?, ?)",
		strings.Join(cols, ", "), strings.Repeat("?, ", columns))
	for _, r := range rows {
		codes, err := keycode.Encode(r.Key)
		require.NoError(t, err)
		args := []any{r.ID, len(r.Key), len([]rune(r.Phrase))}
		for i := 0; i < columns; i++ {
			if i < len(codes) {
				args = append(args, int(codes[i]))
			} else {
				args = append(args, nil)
			}
		}
		args = append(args, r.Phrase, r.Freq, r.UserFreq)
		_, err = db.Exec(insert, args...)
		require.NoError(t, err)
	}
	return path
}

// CreateEmptyDB writes a database with an ime table but no phrases.
func CreateEmptyDB(t testing.TB, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("CREATE TABLE ime (attr TEXT, val TEXT)")
	require.NoError(t, err)
}

// Entry is one entry of a packed content block.
type Entry struct {
	Key    string
	Phrase string
	Flag   bool
}

// Header is a table header with comments ahead of the table section.
const Header = "# test table\nname test\n\n# more comments\ntable\n"

// PackContent encodes entries as a packed content block.
func PackContent(entries []Entry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		b0 := byte(len(e.Key))
		if e.Flag {
			b0 |= 0x80
		}
		buf.WriteByte(b0)
		buf.WriteByte(byte(len(e.Phrase)))
		buf.Write([]byte{0xde, 0xad})
		buf.WriteString(e.Key)
		buf.WriteString(e.Phrase)
	}
	return buf.Bytes()
}

// WriteTable writes header, a declared content length and content.
func WriteTable(t testing.TB, name, header string, declared int, content []byte) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(declared)))
	buf.Write(content)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// WritePackedTable writes a well-formed table holding entries.
func WritePackedTable(t testing.TB, entries []Entry) string {
	t.Helper()
	content := PackContent(entries)
	return WriteTable(t, "test.table", Header, len(content), content)
}
