package crypto

import (
	"crypto/rand"
	"errors"
)

const (
	defaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	defaultIDSize   = 22 // 22 * 6 = 132 bits of entropy
	minAlphabetSize = 8
	maxAlphabetSize = 255
)

var (
	ErrAlphabetTooShort = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetTooLong  = errors.New("alphabet must contain no more than 255 characters")
	ErrAlphabetNotASCII = errors.New("alphabet must contain only ASCII characters")
)

// NanoIDGenerator produces URL-safe random identifiers.
type NanoIDGenerator struct {
	alphabet string
	mask     byte
}

// NewNanoID returns a generator over alphabet, or the URL-safe default when
// alphabet is empty.
func NewNanoID(alphabet string) (*NanoIDGenerator, error) {
	if alphabet == "" {
		alphabet = defaultAlphabet
	}
	if len(alphabet) < minAlphabetSize {
		return nil, ErrAlphabetTooShort
	}
	if len(alphabet) > maxAlphabetSize {
		return nil, ErrAlphabetTooLong
	}
	// Generate indexes by byte position
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] > 127 {
			return nil, ErrAlphabetNotASCII
		}
	}

	return &NanoIDGenerator{alphabet: alphabet, mask: maskFor(len(alphabet))}, nil
}

// maskFor returns the smallest 2^n-1 covering every alphabet index.
func maskFor(alphabetLen int) byte {
	mask := 1
	for mask < alphabetLen-1 {
		mask = mask<<1 | 1
	}
	return byte(mask)
}

// Generate returns an identifier of size characters (default 22).
// Random bytes outside the alphabet are rejected rather than wrapped, which
// keeps the distribution uniform.
func (n *NanoIDGenerator) Generate(size int) (string, error) {
	if size <= 0 {
		size = defaultIDSize
	}

	id := make([]byte, 0, size)
	buf := make([]byte, size*2)

	for len(id) < size {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			idx := int(b & n.mask)
			if idx >= len(n.alphabet) {
				continue
			}
			id = append(id, n.alphabet[idx])
			if len(id) == size {
				break
			}
		}
	}

	return string(id), nil
}

// MustGenerate is Generate that panics when the system random source fails.
func (n *NanoIDGenerator) MustGenerate(size int) string {
	id, err := n.Generate(size)
	if err != nil {
		panic(err)
	}
	return id
}
