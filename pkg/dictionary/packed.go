package dictionary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

const (
	// tableSection is the header line that precedes the content block.
	tableSection    = "table"
	lengthFieldSize = 4
	// firstWindow is where packed lookups start widening.
	firstWindow = 5
)

// PackedSource looks phrases up in a memory-mapped packed table.
//
// The file starts with text header lines ('#' lines are comments). The
// line whose first field is "table" is followed by a little-endian uint32
// content length and the content block of variable-length entries:
//
//	byte 0     low 6 bits key length, high bit metadata flag
//	byte 1     phrase length
//	bytes 2-3  opaque
//	key bytes, then phrase bytes (UTF-8)
type PackedSource struct {
	path    string
	file    *os.File
	data    []byte
	content []byte
	index   *OffsetIndex
	scans   int
}

// NewPackedSource creates an unopened packed source.
func NewPackedSource() *PackedSource {
	return &PackedSource{}
}

// Open maps the table at opts.Path and indexes its content block.
func (s *PackedSource) Open(opts Options) error {
	if s.data != nil && s.path != opts.Path {
		log.Debugf("Table path changed, unmapping %s", s.path)
		if err := s.Close(); err != nil {
			log.Warnf("Failed to unmap %s: %v", s.path, err)
		}
	}
	if s.data != nil {
		return nil
	}
	if opts.Path == "" {
		return fmt.Errorf("%w: empty table path", ErrConfiguration)
	}

	file, err := os.Open(opts.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("%w: stat %s: %v", ErrConfiguration, opts.Path, err)
	}
	if info.Size() == 0 {
		file.Close()
		return fmt.Errorf("%w: %s is empty", ErrFormat, opts.Path)
	}

	data, err := mmapFile(file, int(info.Size()))
	if err != nil {
		file.Close()
		return fmt.Errorf("%w: mmap %s: %v", ErrConfiguration, opts.Path, err)
	}

	start, size, err := locateContent(data)
	if err == nil {
		var idx *OffsetIndex
		content := data[start : start+size]
		if idx, err = BuildIndex(content); err == nil {
			s.path = opts.Path
			s.file = file
			s.data = data
			s.content = content
			s.index = idx
			log.Debugf("Opened %s: %d entries, max_key_length=%d, content=%d bytes at %d",
				s.path, idx.Len(), idx.MaxKeyLength, size, start)
			return nil
		}
	}

	_ = munmapFile(data)
	file.Close()
	return fmt.Errorf("%s: %w", opts.Path, err)
}

// locateContent finds the content block of a mapped table file.
func locateContent(data []byte) (start, size int, err error) {
	field, err := findTableSection(data)
	if err != nil {
		return 0, 0, err
	}
	if len(data)-field < lengthFieldSize {
		return 0, 0, fmt.Errorf("%w: truncated content length", ErrFormat)
	}
	declared := binary.LittleEndian.Uint32(data[field:])
	start = field + lengthFieldSize
	if uint64(declared) > uint64(len(data)-start) {
		return 0, 0, fmt.Errorf("%w: content length %d exceeds remaining %d bytes",
			ErrFormat, declared, len(data)-start)
	}
	return start, int(declared), nil
}

// findTableSection returns the offset just past the table section line.
func findTableSection(data []byte) (int, error) {
	for pos := 0; pos < len(data); {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			break
		}
		line := bytes.TrimSpace(data[pos : pos+nl])
		pos += nl + 1
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if fields := bytes.Fields(line); string(fields[0]) == tableSection {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("%w: no %q section", ErrFormat, tableSection)
}

// Lookup returns the phrases of Records in scan order.
func (s *PackedSource) Lookup(query string) []string {
	records, err := s.Records(query)
	if err != nil {
		log.Debugf("Lookup %q: %v", query, err)
	}
	return Phrases(records)
}

// Records scans for entries whose key starts with query. A query must be
// shorter than the bucket table, which holds MaxKeyLength+1 slots. The
// window widens from 5 (or MaxKeyLength when smaller) up to MaxKeyLength;
// each window scans key lengths from the window down to 1 so longer keys
// come first. The first window with a match is returned in scan order.
func (s *PackedSource) Records(query string) ([]Record, error) {
	if s.index == nil {
		return nil, ErrNotOpen
	}
	maxLen := s.index.MaxKeyLength
	if len(query) >= maxLen+1 {
		log.Debugf("Query %q longer than max key length %d", query, maxLen)
		return nil, nil
	}

	q := []byte(query)
	xlen := min(firstWindow, maxLen)
	for ; xlen <= maxLen; xlen++ {
		if records := s.scan(q, xlen); len(records) > 0 {
			return records, nil
		}
	}
	return nil, nil
}

func (s *PackedSource) scan(q []byte, xlen int) []Record {
	s.scans++
	var records []Record
	for n := xlen; n >= 1 && n >= len(q); n-- {
		for _, off := range s.index.Bucket(n) {
			if bytes.HasPrefix(entryKey(s.content, off), q) {
				records = append(records, entryRecord(s.content, off))
			}
		}
	}
	return records
}

// phraseText converts phrase bytes to a string, replacing invalid UTF-8
// sequences with U+FFFD.
func phraseText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// Close unmaps the table and closes the file.
func (s *PackedSource) Close() error {
	if s.data == nil {
		return nil
	}
	err := munmapFile(s.data)
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.path = ""
	s.file = nil
	s.data = nil
	s.content = nil
	s.index = nil
	return err
}

// Path returns the mapped table path.
func (s *PackedSource) Path() string {
	return s.path
}

// Index returns the offset index of the open table, or nil.
func (s *PackedSource) Index() *OffsetIndex {
	return s.index
}

// Stats reports the table shape and scan count.
func (s *PackedSource) Stats() map[string]int {
	stats := map[string]int{
		"open":        0,
		"contentSize": len(s.content),
		"scans":       s.scans,
	}
	if s.index != nil {
		stats["open"] = 1
		stats["entries"] = s.index.Len()
		stats["maxKeyLength"] = s.index.MaxKeyLength
	}
	return stats
}
