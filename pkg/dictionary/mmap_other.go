//go:build !unix

package dictionary

import (
	"io"
	"os"
)

// Without mmap the table is read into memory once.
func mmapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func munmapFile(data []byte) error {
	return nil
}
