package dictionary

import "fmt"

// Packed entry layout.
const (
	entryHeaderSize = 4    // key length byte, phrase length byte, 2 opaque bytes
	keyLengthMask   = 0x3f // low 6 bits of byte 0
	metadataFlag    = 0x80 // high bit of byte 0
	bucketCount     = keyLengthMask + 1
)

// OffsetIndex groups the entries of a content block by key length.
// Bucket n holds the offsets of entries with an n-byte key, in file order.
// Offsets are relative to the start of the content block.
type OffsetIndex struct {
	buckets [bucketCount][]uint32
	entries int

	// MaxKeyLength is the longest key among entries carrying the metadata
	// flag.
	MaxKeyLength int
}

// BuildIndex walks content once and records the offset of every entry.
// It fails on a zero-length key or an entry running past the block.
func BuildIndex(content []byte) (*OffsetIndex, error) {
	idx := &OffsetIndex{}
	for off := 0; off < len(content); {
		if len(content)-off < entryHeaderSize {
			return nil, fmt.Errorf("%w: truncated entry header at offset %d", ErrFormat, off)
		}
		keyLen := int(content[off] & keyLengthMask)
		phraseLen := int(content[off+1])
		if keyLen == 0 {
			return nil, fmt.Errorf("%w: zero key length at offset %d", ErrFormat, off)
		}
		end := off + entryHeaderSize + keyLen + phraseLen
		if end > len(content) {
			return nil, fmt.Errorf("%w: entry at offset %d runs past content block", ErrFormat, off)
		}

		idx.buckets[keyLen] = append(idx.buckets[keyLen], uint32(off))
		idx.entries++
		if content[off]&metadataFlag != 0 && keyLen > idx.MaxKeyLength {
			idx.MaxKeyLength = keyLen
		}
		off = end
	}
	return idx, nil
}

// Bucket returns the offsets of entries whose key is n bytes long.
func (idx *OffsetIndex) Bucket(n int) []uint32 {
	if n <= 0 || n >= bucketCount {
		return nil
	}
	return idx.buckets[n]
}

// Len returns the number of indexed entries.
func (idx *OffsetIndex) Len() int {
	return idx.entries
}

// entryKey returns the key bytes of the entry at off.
func entryKey(content []byte, off uint32) []byte {
	start := int(off) + entryHeaderSize
	return content[start : start+int(content[off]&keyLengthMask)]
}

// entryPhrase returns the phrase bytes of the entry at off.
func entryPhrase(content []byte, off uint32) []byte {
	start := int(off) + entryHeaderSize + int(content[off]&keyLengthMask)
	return content[start : start+int(content[off+1])]
}

// entryRecord decodes the entry at off.
func entryRecord(content []byte, off uint32) Record {
	key := entryKey(content, off)
	return Record{
		Key:       string(key),
		KeyLength: len(key),
		Phrase:    phraseText(entryPhrase(content, off)),
	}
}
