// Package hashing computes the non-cryptographic content identity used to
// key sidecars to their source media file.
package hashing

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PrefixBytes is the number of leading bytes hashed to derive a FileHash.
// Files shorter than this are hashed in full.
const PrefixBytes = 65536

// FileHash is a 64-bit content identity. Two distinct files may theoretically
// collide; the scanner treats this as acceptable risk (spec §3) and never
// verifies full-content equality.
type FileHash uint64

// HashFile reads up to PrefixBytes from path and returns its FileHash.
func HashFile(path string) (FileHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("hashing: open %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.CopyN(h, f, PrefixBytes); err != nil && err != io.EOF {
		return 0, fmt.Errorf("hashing: read %s: %w", path, err)
	}
	return FileHash(h.Sum64()), nil
}

// String encodes the hash as fixed-length, uppercase, unpadded Crockford
// base32 — the sidecar filename stem (spec §6).
func (h FileHash) String() string {
	return encodeCrockford(uint64(h))
}

// Parse decodes a Crockford base32 string produced by FileHash.String.
func Parse(s string) (FileHash, error) {
	v, err := decodeCrockford(s)
	if err != nil {
		return 0, err
	}
	return FileHash(v), nil
}

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// encodedLen is the number of base32 symbols needed for a full 64-bit value:
// ceil(64/5) = 13.
const encodedLen = 13

func encodeCrockford(v uint64) string {
	var buf [encodedLen]byte
	for i := encodedLen - 1; i >= 0; i-- {
		buf[i] = crockfordAlphabet[v&0x1f]
		v >>= 5
	}
	return string(buf[:])
}

func decodeCrockford(s string) (uint64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != encodedLen {
		return 0, fmt.Errorf("hashing: invalid base32 hash length %d", len(s))
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		// Crockford's base32 treats I/L as 1 and O as 0 when decoding.
		switch c {
		case 'I', 'L':
			c = '1'
		case 'O':
			c = '0'
		}
		idx := strings.IndexByte(crockfordAlphabet, c)
		if idx < 0 {
			return 0, fmt.Errorf("hashing: invalid base32 character %q", c)
		}
		v = (v << 5) | uint64(idx)
	}
	return v, nil
}
