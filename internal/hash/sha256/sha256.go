// Package sha256 implements the SHA-256 hash function defined in FIPS 180-4.
//
// Sum256 is a pure function over one complete message: the message is padded
// to a whole number of 64-byte blocks, each block is expanded into a 64-word
// schedule and folded into an eight-word state by the compression function,
// and the final state is serialized big-endian. Incremental hashing across
// calls is intentionally not offered.
package sha256

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Digest is a SHA-256 checksum.
type Digest [Size]byte

// Sum256 returns the SHA-256 digest of msg. It is safe for concurrent use.
func Sum256(msg []byte) Digest {
	h := initialHash
	blocks(&h, pad(msg))

	var d Digest
	for i, s := range h {
		binary.BigEndian.PutUint32(d[i*4:], s)
	}
	return d
}

// String renders the digest as lower-case hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns the digest as a freshly allocated slice.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// ParseDigest decodes a hex-encoded digest. Upper and lower case are accepted.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != hex.EncodedLen(Size) {
		return d, fmt.Errorf("digest must be %d hex characters, got %d", hex.EncodedLen(Size), len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("decode digest: %w", err)
	}
	return d, nil
}
