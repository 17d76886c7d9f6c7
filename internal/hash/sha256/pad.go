package sha256

import "encoding/binary"

// pad returns a newly allocated copy of msg extended to a whole number of
// blocks: msg, the marker byte, zero fill, then the message length in bits
// as a big-endian uint64. msg is not modified.
//
// Messages longer than 2^61-1 bytes overflow the length field; that limit is
// inherited from FIPS 180-4 and is not checked.
func pad(msg []byte) []byte {
	n := len(msg)
	zeros := (BlockSize - (n+1+lengthSize)%BlockSize) % BlockSize

	out := make([]byte, n+1+zeros+lengthSize)
	copy(out, msg)
	out[n] = marker
	binary.BigEndian.PutUint64(out[len(out)-lengthSize:], uint64(n)<<3)
	return out
}
