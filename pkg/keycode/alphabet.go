/*
Package keycode maps table keys to the positional key codes stored in
ibus-table databases.

Each printable key character has a code in 1..94. Code 0 is reserved and
never produced. The tables are built once and only read afterwards, so a
single Alphabet is shared by every session.

	codes, err := keycode.Encode("ab")
	// codes == []uint8{1, 2}
*/
package keycode

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfAlphabet is returned when a key contains a byte with no code.
var ErrOutOfAlphabet = errors.New("key byte outside alphabet")

// symbols lists the alphabet in code order, starting at code 1.
const symbols = "abcdefghijklmnopqrstuvwxyz" +
	"';`~!@#$%^&*()-_=+[]{}|/:\"<>,.?\\" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789"

// Alphabet is an immutable bijection between key bytes and codes.
type Alphabet struct {
	enc [128]uint8
	dec [len(symbols) + 1]byte
}

var (
	defaultOnce     sync.Once
	defaultAlphabet *Alphabet
)

// Default returns the process-wide alphabet.
func Default() *Alphabet {
	defaultOnce.Do(func() {
		defaultAlphabet = newAlphabet(symbols)
	})
	return defaultAlphabet
}

func newAlphabet(syms string) *Alphabet {
	a := &Alphabet{}
	for i := 0; i < len(syms); i++ {
		code := uint8(i + 1)
		a.enc[syms[i]] = code
		a.dec[code] = syms[i]
	}
	return a
}

// Size returns the number of usable codes.
func (a *Alphabet) Size() int {
	return len(a.dec) - 1
}

// Valid reports whether b has a code.
func (a *Alphabet) Valid(b byte) bool {
	return b < 128 && a.enc[b] != 0
}

// Code returns the code for b, or 0 when b is not in the alphabet.
func (a *Alphabet) Code(b byte) uint8 {
	if b >= 128 {
		return 0
	}
	return a.enc[b]
}

// Encode converts every byte of key into its code. It fails on the first
// byte outside the alphabet and returns no partial result.
func (a *Alphabet) Encode(key string) ([]uint8, error) {
	codes := make([]uint8, len(key))
	for i := 0; i < len(key); i++ {
		c := a.Code(key[i])
		if c == 0 {
			return nil, fmt.Errorf("%w: %q at position %d", ErrOutOfAlphabet, key[i], i)
		}
		codes[i] = c
	}
	return codes, nil
}

// Decode converts codes back into key bytes.
func (a *Alphabet) Decode(codes []uint8) (string, error) {
	buf := make([]byte, len(codes))
	for i, c := range codes {
		if c == 0 || int(c) >= len(a.dec) {
			return "", fmt.Errorf("invalid key code %d at position %d", c, i)
		}
		buf[i] = a.dec[c]
	}
	return string(buf), nil
}

// Encode encodes key with the default alphabet.
func Encode(key string) ([]uint8, error) {
	return Default().Encode(key)
}

// Decode decodes codes with the default alphabet.
func Decode(codes []uint8) (string, error) {
	return Default().Decode(codes)
}
