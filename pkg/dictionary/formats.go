package dictionary

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// FileFormat represents the dictionary file formats a source can open.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatSQLite             // ibus-table database
	FormatPacked             // packed binary table
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Backend     string
	MinSize     int64 // Minimum expected file size in bytes
}

// sniffSize bounds how much of a file is read to detect its format.
const sniffSize = 64 << 10

var sqliteMagic = []byte("SQLite format 3\x00")

var supportedFormats = map[FileFormat]FormatInfo{
	FormatSQLite: {
		Format:      FormatSQLite,
		Description: "ibus-table SQLite Database",
		Backend:     BackendIBus,
		MinSize:     100, // SQLite file header
	},
	FormatPacked: {
		Format:      FormatPacked,
		Description: "Packed Binary Table",
		Backend:     BackendPacked,
		MinSize:     int64(len(tableSection)) + 1 + lengthFieldSize,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "unknown"
}

// DetectFileFormat sniffs the head of a file to tell a SQLite database from
// a packed table.
func DetectFileFormat(filename string) (FileFormat, error) {
	file, err := os.Open(filename)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	defer file.Close()

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, fmt.Errorf("%w: read %s: %v", ErrConfiguration, filename, err)
	}
	head = head[:n]

	if bytes.HasPrefix(head, sqliteMagic) && int64(n) >= supportedFormats[FormatSQLite].MinSize {
		log.Debugf("Detected %s: %s", FormatSQLite, filename)
		return FormatSQLite, nil
	}
	if _, err := findTableSection(head); err == nil {
		log.Debugf("Detected %s: %s", FormatPacked, filename)
		return FormatPacked, nil
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
