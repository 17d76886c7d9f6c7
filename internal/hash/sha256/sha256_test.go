// Package sha256 includes known-answer and cross-check tests for the digest pipeline.
package sha256

import (
	"bytes"
	refsha256 "crypto/sha256"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSum256KnownAnswers checks the published FIPS 180-4 vectors and a few fixed strings.
func TestSum256KnownAnswers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{
			"two block",
			"abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq",
			"248d6a61d20638b8e5c026930c3e6039a33ce45964ff2167f6ecedd419db06c1",
		},
		{"hello rust", "Hello, Rust!", "12a967da1e8654e129d41e3c016f14e81e751e073feb383125bf82080256ca19"},
		{"hello world", "hello world", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{
			"million a",
			strings.Repeat("a", 1_000_000),
			"cdc76e5c9914fb9281a1c7e284d73e67f1809a48a497200e046d39ccc7112cd0",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Sum256([]byte(tt.in))
			require.Equal(t, tt.want, got.String())
			require.Len(t, got.Bytes(), Size)
		})
	}
}

// TestSum256MatchesReference cross-checks every length that exercises the padding branches.
func TestSum256MatchesReference(t *testing.T) {
	t.Parallel()

	msg := make([]byte, 300)
	for i := range msg {
		msg[i] = byte(i*7 + 3)
	}
	for n := 0; n <= len(msg); n++ {
		want := refsha256.Sum256(msg[:n])
		got := Sum256(msg[:n])
		if !bytes.Equal(got[:], want[:]) {
			t.Fatalf("length %d: got %x, want %x", n, got, want)
		}
	}
}

// TestSum256Deterministic ensures repeated calls return identical digests.
func TestSum256Deterministic(t *testing.T) {
	t.Parallel()

	msg := []byte("determinism")
	first := Sum256(msg)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Sum256(msg))
	}
}

// TestSum256Avalanche flips single bits and expects the digest to change.
func TestSum256Avalanche(t *testing.T) {
	t.Parallel()

	base := []byte("The quick brown fox jumps over the lazy dog")
	want := Sum256(base)
	for _, bit := range []int{0, 1, 7, 8, 100, len(base)*8 - 1} {
		flipped := append([]byte(nil), base...)
		flipped[bit/8] ^= 1 << (bit % 8)
		require.NotEqual(t, want, Sum256(flipped), "bit %d", bit)
	}
}

// TestSum256DoesNotMutateInput verifies the caller's slice is left intact.
func TestSum256DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	msg := make([]byte, 10, 128)
	copy(msg, "0123456789")
	snapshot := append([]byte(nil), msg[:cap(msg)]...)

	Sum256(msg)

	require.Equal(t, snapshot, msg[:cap(msg)])
}

// TestConstantTablesUnchanged runs concurrent digests and checks the shared tables afterwards.
func TestConstantTablesUnchanged(t *testing.T) {
	t.Parallel()

	k := roundConstants
	iv := initialHash

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			msg := bytes.Repeat([]byte{byte(seed)}, seed*13)
			want := refsha256.Sum256(msg)
			got := Sum256(msg)
			if !bytes.Equal(got[:], want[:]) {
				t.Errorf("seed %d: digest mismatch", seed)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, k, roundConstants)
	require.Equal(t, iv, initialHash)
	require.Equal(t, uint32(0x428a2f98), roundConstants[0])
	require.Equal(t, uint32(0xc67178f2), roundConstants[rounds-1])
	require.Equal(t, uint32(0x6a09e667), initialHash[0])
}

// TestDigestBytesReturnsCopy ensures callers cannot alias the digest array.
func TestDigestBytesReturnsCopy(t *testing.T) {
	t.Parallel()

	d := Sum256([]byte("abc"))
	b := d.Bytes()
	b[0] ^= 0xff
	require.Equal(t, byte(0xba), d[0])
}

// TestParseDigest covers round trips and malformed input.
func TestParseDigest(t *testing.T) {
	t.Parallel()

	want := Sum256([]byte("abc"))

	got, err := ParseDigest(want.String())
	require.NoError(t, err)
	require.Equal(t, want, got)

	got, err = ParseDigest(strings.ToUpper(want.String()))
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = ParseDigest("abc")
	require.ErrorContains(t, err, "64 hex characters")

	_, err = ParseDigest(strings.Repeat("zz", Size))
	require.ErrorContains(t, err, "decode digest")
}

// FuzzSum256 compares arbitrary inputs against the standard library implementation.
func FuzzSum256(f *testing.F) {
	for _, seed := range []string{"", "abc", strings.Repeat("x", 55), strings.Repeat("y", 56), strings.Repeat("z", 64)} {
		f.Add([]byte(seed))
	}
	f.Fuzz(func(t *testing.T, msg []byte) {
		want := refsha256.Sum256(msg)
		got := Sum256(msg)
		if !bytes.Equal(got[:], want[:]) {
			t.Fatalf("Sum256(%x) = %x, want %x", msg, got, want)
		}
	})
}

func BenchmarkSum256(b *testing.B) {
	msg := bytes.Repeat([]byte{0x5a}, 8192)
	b.SetBytes(int64(len(msg)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Sum256(msg)
	}
}
