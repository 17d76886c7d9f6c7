package sha256

import (
	"encoding/binary"
	"math/bits"
)

// blocks folds every 64-byte block of p, in order, into the hash state h.
func blocks(h *[8]uint32, p []byte) {
	if len(p)%BlockSize != 0 {
		panic("sha256: padded message is not block aligned")
	}
	for len(p) > 0 {
		w := expand(p[:BlockSize])
		compress(h, &w)
		p = p[BlockSize:]
	}
}

// expand derives the 64-word message schedule for one block.
func expand(block []byte) [rounds]uint32 {
	var w [rounds]uint32
	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(block[i*4:])
	}
	for i := 16; i < rounds; i++ {
		w[i] = sigma1(w[i-2]) + w[i-7] + sigma0(w[i-15]) + w[i-16]
	}
	return w
}

// compress runs the 64 rounds over w and adds the result into h.
// uint32 addition wraps modulo 2^32, which is exactly what the rounds require.
func compress(h *[8]uint32, w *[rounds]uint32) {
	a, b, c, d, e, f, g, hh := h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7]

	for i := 0; i < rounds; i++ {
		t1 := hh + bigSigma1(e) + ch(e, f, g) + roundConstants[i] + w[i]
		t2 := bigSigma0(a) + maj(a, b, c)

		hh = g
		g = f
		f = e
		e = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}

	h[0] += a
	h[1] += b
	h[2] += c
	h[3] += d
	h[4] += e
	h[5] += f
	h[6] += g
	h[7] += hh
}

func rotr(x uint32, n int) uint32 {
	return bits.RotateLeft32(x, -n)
}

func ch(x, y, z uint32) uint32 {
	return (x & y) ^ (^x & z)
}

func maj(x, y, z uint32) uint32 {
	return (x & y) ^ (x & z) ^ (y & z)
}

func bigSigma0(x uint32) uint32 {
	return rotr(x, 2) ^ rotr(x, 13) ^ rotr(x, 22)
}

func bigSigma1(x uint32) uint32 {
	return rotr(x, 6) ^ rotr(x, 11) ^ rotr(x, 25)
}

func sigma0(x uint32) uint32 {
	return rotr(x, 7) ^ rotr(x, 18) ^ (x >> 3)
}

func sigma1(x uint32) uint32 {
	return rotr(x, 17) ^ rotr(x, 19) ^ (x >> 10)
}
